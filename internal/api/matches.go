package api

import (
	"database/sql"
	"net/http"

	"github.com/h-tadlaoui/nova-app/internal/matching"
	"github.com/h-tadlaoui/nova-app/internal/model"
	"github.com/h-tadlaoui/nova-app/internal/notify"
	"github.com/h-tadlaoui/nova-app/internal/store"
)

// MatchesHandler handles matching and match review endpoints.
type MatchesHandler struct {
	DB        *sql.DB
	Engine    *matching.Engine
	Lifecycle *matching.Lifecycle
	Notifier  *notify.Service
}

// triggerRequest accepts both snake_case and camelCase field names.
type triggerRequest struct {
	ItemID      int64  `json:"item_id"`
	ItemIDAlt   int64  `json:"itemId"`
	ItemType    string `json:"item_type"`
	ItemTypeAlt string `json:"itemType"`
}

func (t triggerRequest) input() (int64, string) {
	id, typ := t.ItemID, t.ItemType
	if id == 0 {
		id = t.ItemIDAlt
	}
	if typ == "" {
		typ = t.ItemTypeAlt
	}
	return id, typ
}

type reviewMatchRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed rejected"`
}

// Trigger handles POST /api/matches/trigger.
func (h *MatchesHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req triggerRequest
	if err := bindJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	id, typ := req.input()

	result, err := h.Engine.TriggerMatching(r.Context(), matching.TriggerInput{
		ItemID:        id,
		ItemType:      typ,
		RequesterID:   claims.UserID,
		RequesterRole: claims.Role,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	logger(r).Info().Int64("item_id", id).Int("matches", result.TotalFound).Msg("matching triggered")
	jsonResponse(w, http.StatusOK, result)
}

// List handles GET /api/matches. Only matches where the caller owns one of
// the items are returned.
func (h *MatchesHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !model.ValidMatchStatus(status) {
		writeServiceError(w, r, model.NewValidationError("status", "must be one of: pending confirmed rejected"))
		return
	}

	matches, err := store.ListMatches(r.Context(), h.DB, store.MatchFilter{
		UserID: GetClaims(r.Context()).UserID,
		Status: status,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if matches == nil {
		matches = []model.Match{}
	}
	jsonResponse(w, http.StatusOK, matches)
}

// UpdateStatus handles PATCH /api/matches/{id}/status. Either item's owner
// may confirm or reject a pending match. Confirming moves both items to
// matched; rejecting leaves item statuses as they are.
func (h *MatchesHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req reviewMatchRequest
	if err := bindJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	m, err := store.GetMatch(r.Context(), h.DB, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if m == nil {
		jsonError(w, http.StatusNotFound, "match not found")
		return
	}

	lost, err := store.GetItem(r.Context(), h.DB, m.LostItemID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	found, err := store.GetItem(r.Context(), h.DB, m.FoundItemID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if lost == nil || found == nil {
		jsonError(w, http.StatusNotFound, "match not found")
		return
	}

	// The reviewer's own item; admins review from the lost side.
	reviewerItem, otherItem := lost, found
	switch {
	case found.OwnerID == claims.UserID:
		reviewerItem, otherItem = found, lost
	case lost.OwnerID == claims.UserID, claims.Role == model.RoleAdmin:
	default:
		jsonError(w, http.StatusNotFound, "match not found")
		return
	}

	if m.Status != model.MatchStatusPending {
		jsonError(w, http.StatusConflict, "match already "+m.Status)
		return
	}

	changed, err := store.UpdateMatchStatus(r.Context(), h.DB, m.ID, req.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !changed {
		jsonError(w, http.StatusConflict, "match was reviewed concurrently")
		return
	}
	m.Status = req.Status

	if req.Status == model.MatchStatusConfirmed {
		for _, itemID := range []int64{m.LostItemID, m.FoundItemID} {
			if _, err := h.Lifecycle.MarkMatched(r.Context(), itemID, "match confirmed", &claims.UserID); err != nil {
				writeServiceError(w, r, err)
				return
			}
		}
	}

	logger(r).Info().Int64("match_id", m.ID).Str("status", m.Status).Msg("match reviewed")

	if h.Notifier != nil {
		if err := h.Notifier.MatchReviewed(r.Context(), *m, *reviewerItem, *otherItem); err != nil {
			logger(r).Warn().Err(err).Int64("match_id", m.ID).Msg("notifying match review")
		}
	}

	updated, err := store.GetMatch(r.Context(), h.DB, m.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}
