package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"adforge/internal/core/port"
)

// handleListCampaigns returns cached campaign rosters across the user's ad
// accounts. `user_id` is required; `force_refresh=true` deletes the cache
// entry before recomputing. Per-account failures surface inside the roster,
// not as an HTTP error.
func (h *Handler) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	h.handleRoster(w, r, h.svc.ListCampaigns)
}

// handleListAds is the ad-level counterpart of handleListCampaigns.
func (h *Handler) handleListAds(w http.ResponseWriter, r *http.Request) {
	h.handleRoster(w, r, h.svc.ListAds)
}

func (h *Handler) handleRoster(w http.ResponseWriter, r *http.Request, list func(context.Context, string, bool) (*port.RosterResult, error)) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "missing user_id", http.StatusBadRequest)
		return
	}
	forceRefresh := r.URL.Query().Get("force_refresh") == "true"

	result, err := list(r.Context(), userID, forceRefresh)
	if err != nil {
		if errors.Is(err, port.ErrAccountNotConnected) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		h.logger.Error("roster error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(result); err != nil {
		h.logger.Error("encode response error", slog.Any("error", err))
	}
}
