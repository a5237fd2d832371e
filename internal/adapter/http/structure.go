package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"adforge/internal/adapter/usecase"
	"adforge/internal/core/domain"
	"adforge/internal/core/port"
)

// createStructureReq is the wire shape of a provisioning request.
type createStructureReq struct {
	UserID    string `json:"user_id"`
	AccountID string `json:"account_id"`
	PageID    string `json:"page_id"`

	MediaRef  string `json:"media_ref"`
	MediaType string `json:"media_type"`

	Campaigns int `json:"campaigns"`
	AdSets    int `json:"ad_sets"`
	Ads       int `json:"ads"`

	ProductContext string `json:"product_context,omitempty"`

	TargetingOverrides  []domain.TargetingGroup `json:"targeting_overrides,omitempty"`
	CopyOverrides       []domain.CopyVariant    `json:"copy_overrides,omitempty"`
	PrimaryTextOverride string                  `json:"primary_text,omitempty"`
	HeadlineOverride    string                  `json:"headline,omitempty"`

	DailyBudget float64 `json:"daily_budget,omitempty"`

	Country              string   `json:"country"`
	Placements           []string `json:"placements,omitempty"`
	AgeMin               int      `json:"age_min,omitempty"`
	AgeMax               int      `json:"age_max,omitempty"`
	ExclusionAudienceIDs []string `json:"exclusion_audience_ids,omitempty"`
}

type errorResp struct {
	Error    string   `json:"error"`
	Guidance string   `json:"guidance"`
	Stage    string   `json:"stage,omitempty"`
	Created  []string `json:"created,omitempty"`
}

// handleCreateStructure provisions a campaign tree. Validation problems
// produce HTTP 400; a missing connection produces HTTP 401; a run that
// aborted partway produces HTTP 502 with the remote ids already created, so
// the operator knows what is live.
func (h *Handler) handleCreateStructure(w http.ResponseWriter, r *http.Request) {
	var in createStructureReq
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	result, err := h.svc.CreateStructure(r.Context(), port.CreateStructureReq{
		UserID:               in.UserID,
		AccountID:            in.AccountID,
		PageID:               in.PageID,
		MediaRef:             in.MediaRef,
		MediaType:            in.MediaType,
		Counts:               domain.StructureCounts{Campaigns: in.Campaigns, AdSets: in.AdSets, Ads: in.Ads},
		ProductContext:       in.ProductContext,
		TargetingOverrides:   in.TargetingOverrides,
		CopyOverrides:        in.CopyOverrides,
		PrimaryTextOverride:  in.PrimaryTextOverride,
		HeadlineOverride:     in.HeadlineOverride,
		DailyBudget:          in.DailyBudget,
		Country:              in.Country,
		Placements:           in.Placements,
		AgeMin:               in.AgeMin,
		AgeMax:               in.AgeMax,
		ExclusionAudienceIDs: in.ExclusionAudienceIDs,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(result); err != nil {
		h.logger.Error("encode response error", slog.Any("error", err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	resp := errorResp{Error: err.Error(), Guidance: usecase.Guidance(err)}
	status := http.StatusInternalServerError

	var runErr *usecase.RunError
	switch {
	case errors.Is(err, usecase.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, port.ErrAccountNotConnected):
		status = http.StatusUnauthorized
	case errors.As(err, &runErr):
		status = http.StatusBadGateway
		resp.Stage = runErr.Stage
		for _, res := range runErr.Created {
			resp.Created = append(resp.Created, string(res.Kind)+":"+res.RemoteID)
		}
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("create structure error", slog.Any("error", err))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		h.logger.Error("encode response error", slog.Any("error", encErr))
	}
}
