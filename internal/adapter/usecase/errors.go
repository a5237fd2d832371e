package usecase

import (
	"errors"
	"fmt"
	"strings"

	"adforge/internal/adapter/graph"
	"adforge/internal/core/domain"
	"adforge/internal/core/port"
)

// ErrValidation marks input rejected before any remote call.
var ErrValidation = errors.New("invalid input")

// RunError reports a provisioning run that failed partway through the tree.
// Created lists every remote id that was live when the run aborted; nothing
// is rolled back because the platform has no multi-object transaction
// primitive, so an operator needs these ids to intervene.
type RunError struct {
	Stage   string
	Created []domain.RemoteResource
	Err     error
}

func (e *RunError) Error() string {
	if len(e.Created) == 0 {
		return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
	}
	ids := make([]string, 0, len(e.Created))
	for _, r := range e.Created {
		ids = append(ids, string(r.Kind)+":"+r.RemoteID)
	}
	return fmt.Sprintf("%s failed: %v (already created on platform, not rolled back: %s)",
		e.Stage, e.Err, strings.Join(ids, ", "))
}

func (e *RunError) Unwrap() error { return e.Err }

// Guidance buckets every surfaced error falls into.
const (
	GuidanceFixInput  = "fix_input"
	GuidanceReconnect = "reconnect"
	GuidanceRetry     = "retry_later"
	GuidanceSupport   = "contact_support"
)

// Guidance classifies an error for the caller: bad input, broken
// connection, worth retrying, or something only platform support can fix.
func Guidance(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return GuidanceFixInput
	case errors.Is(err, port.ErrAccountNotConnected), graph.IsAuth(err):
		return GuidanceReconnect
	case graph.IsTransient(err):
		return GuidanceRetry
	case graph.IsAppNotLive(err), graph.IsPermission(err):
		return GuidanceSupport
	default:
		return GuidanceRetry
	}
}
