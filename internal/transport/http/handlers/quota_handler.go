package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/andreysobol/amora/internal/services/auth"
	quotasvc "github.com/andreysobol/amora/internal/services/quota"
	tiersvc "github.com/andreysobol/amora/internal/services/tiers"
	"github.com/andreysobol/amora/internal/transport/http/dto"
	httperrors "github.com/andreysobol/amora/internal/transport/http/errors"
)

type QuotaHandler struct {
	service *quotasvc.Service
}

func NewQuotaHandler(service *quotasvc.Service) *QuotaHandler {
	return &QuotaHandler{service: service}
}

func (h *QuotaHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "QUOTA_SERVICE_UNAVAILABLE", "quota service is unavailable")
		return
	}

	snapshot, err := h.service.Snapshot(r.Context(), identity.UserID, timezoneFromRequest(r))
	if err != nil {
		if errors.Is(err, tiersvc.ErrTierLookupUnavailable) {
			writeUnavailable(w, "TIER_LOOKUP_UNAVAILABLE", "subscription lookup is unavailable")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to load quota")
		return
	}

	httperrors.Write(w, http.StatusOK, mapQuotaSnapshot(snapshot))
}

func mapQuotaSnapshot(snapshot quotasvc.Snapshot) dto.QuotaSnapshotResponse {
	resp := dto.QuotaSnapshotResponse{
		Tier:    string(snapshot.Tier),
		ResetAt: snapshot.ResetAt.UTC(),
		Actions: make([]dto.ActionQuotaResponse, 0, len(snapshot.Actions)),
	}
	for _, entry := range snapshot.Actions {
		resp.Actions = append(resp.Actions, dto.ActionQuotaResponse{
			Action:            string(entry.Action),
			Limit:             entry.Limit,
			Used:              entry.Used,
			Remaining:         entry.Remaining,
			Unlimited:         entry.Unlimited,
			TooFastRetryAfter: entry.TooFastRetryAfter,
		})
	}
	return resp
}
