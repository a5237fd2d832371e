package graph

import (
	"errors"
	"fmt"
)

// Platform error codes the client distinguishes. Codes in the transient set
// signal server trouble or rate limiting and are worth a bounded retry;
// everything else is fatal for the call.
const (
	codeUnknown          = 1
	codeServiceUnavail   = 2
	codeTooManyCalls     = 4
	codePermission       = 10
	codeUserTooManyCalls = 17
	codePageRateLimit    = 32
	codeInvalidParam     = 100
	codeInvalidToken     = 190
	codeAccountRateLimit = 613
	// codeAppNotLive is returned while the platform app is still in
	// development mode. Never retryable; the operator has to flip the app
	// live before any creation can succeed.
	codeAppNotLive = 2069
)

// Error is the platform's structured error detail. It is re-thrown by the
// client with the message, code and subcode preserved so callers can
// distinguish "fix your input" from "try again later" from "contact
// platform support".
type Error struct {
	Message    string `json:"message"`
	Code       int    `json:"code"`
	Subcode    int    `json:"error_subcode"`
	HTTPStatus int    `json:"-"`
}

func (e *Error) Error() string {
	if e.Subcode != 0 {
		return fmt.Sprintf("platform error %d/%d: %s", e.Code, e.Subcode, e.Message)
	}
	return fmt.Sprintf("platform error %d: %s", e.Code, e.Message)
}

// IsTransient reports whether err is a server error or rate-limit signal
// that may succeed on retry.
func IsTransient(err error) bool {
	var pe *Error
	if !errors.As(err, &pe) {
		return false
	}
	if pe.HTTPStatus >= 500 {
		return true
	}
	switch pe.Code {
	case codeUnknown, codeServiceUnavail, codeTooManyCalls,
		codeUserTooManyCalls, codePageRateLimit, codeAccountRateLimit:
		return true
	}
	return false
}

// IsAuth reports whether err means the credential itself was rejected.
func IsAuth(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Code == codeInvalidToken
}

// IsPermission reports a permission or policy rejection.
func IsPermission(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && (pe.Code == codePermission || (pe.Code >= 200 && pe.Code <= 299))
}

// IsAppNotLive reports the distinguished "app not yet publicly live" case.
func IsAppNotLive(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Code == codeAppNotLive
}
