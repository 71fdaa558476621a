package handlers

import (
	"errors"
	"net/http"

	"github.com/andreysobol/amora/internal/domain/enums"
	actionsvc "github.com/andreysobol/amora/internal/services/actions"
	authsvc "github.com/andreysobol/amora/internal/services/auth"
	tiersvc "github.com/andreysobol/amora/internal/services/tiers"
	"github.com/andreysobol/amora/internal/transport/http/dto"
	httperrors "github.com/andreysobol/amora/internal/transport/http/errors"
)

type ActionHandler struct {
	service *actionsvc.Service
}

func NewActionHandler(service *actionsvc.Service) *ActionHandler {
	return &ActionHandler{service: service}
}

func (h *ActionHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.handleTargeted(w, r, enums.ActionLike)
}

func (h *ActionHandler) SuperLike(w http.ResponseWriter, r *http.Request) {
	h.handleTargeted(w, r, enums.ActionSuperLike)
}

func (h *ActionHandler) Rewind(w http.ResponseWriter, r *http.Request) {
	h.handleUntargeted(w, r, enums.ActionRewind)
}

func (h *ActionHandler) Boost(w http.ResponseWriter, r *http.Request) {
	h.handleUntargeted(w, r, enums.ActionBoost)
}

func (h *ActionHandler) handleTargeted(w http.ResponseWriter, r *http.Request, action enums.ActionType) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "ACTION_SERVICE_UNAVAILABLE", "action service is unavailable")
		return
	}

	var req dto.ActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.TargetID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "target_id is required")
		return
	}

	h.perform(w, r, identity.UserID, action, req.TargetID)
}

func (h *ActionHandler) handleUntargeted(w http.ResponseWriter, r *http.Request, action enums.ActionType) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "ACTION_SERVICE_UNAVAILABLE", "action service is unavailable")
		return
	}

	h.perform(w, r, identity.UserID, action, 0)
}

func (h *ActionHandler) perform(w http.ResponseWriter, r *http.Request, userID int64, action enums.ActionType, targetID int64) {
	outcome, err := h.service.PerformAction(
		r.Context(),
		userID,
		action,
		targetID,
		timezoneFromRequest(r),
		idempotencyKeyFromRequest(r),
	)
	if err != nil {
		switch {
		case errors.Is(err, actionsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid action request")
		case errors.Is(err, actionsvc.ErrUnsupportedAction):
			writeBadRequest(w, "VALIDATION_ERROR", "unsupported action")
		case errors.Is(err, tiersvc.ErrTierLookupUnavailable):
			writeUnavailable(w, "TIER_LOOKUP_UNAVAILABLE", "subscription lookup is unavailable, action denied")
		default:
			if tf, ok := actionsvc.IsTooFast(err); ok {
				httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
					Code:          "TOO_FAST",
					Message:       "too many actions, slow down",
					RetryAfterSec: tf.RetryAfter(),
				})
				return
			}
			writeUnavailable(w, "QUOTA_BACKEND_UNAVAILABLE", "quota backend is unavailable, action denied")
		}
		return
	}

	if !outcome.Granted {
		httperrors.Write(w, http.StatusTooManyRequests, httperrors.QuotaExceededError{
			Code:      "QUOTA_EXCEEDED",
			Message:   "daily limit reached for " + string(action),
			Remaining: outcome.Remaining,
			ResetAt:   outcome.ResetAt.UTC(),
		})
		return
	}

	resp := dto.ActionResponse{
		OK:           true,
		Granted:      true,
		Duplicate:    outcome.Duplicate,
		MatchCreated: outcome.Matched,
		Remaining:    outcome.Remaining,
		Unlimited:    outcome.Unlimited,
		ResetAt:      outcome.ResetAt.UTC(),
	}
	if outcome.Matched && outcome.MatchID > 0 {
		matchID := outcome.MatchID
		resp.MatchID = &matchID
	}

	httperrors.Write(w, http.StatusOK, resp)
}
