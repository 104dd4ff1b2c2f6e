package api

import (
	"database/sql"
	"net/http"

	"github.com/h-tadlaoui/nova-app/internal/model"
	"github.com/h-tadlaoui/nova-app/internal/store"
)

// NotificationsHandler handles the caller's notification inbox.
type NotificationsHandler struct {
	DB *sql.DB
}

// List handles GET /api/notifications. ?unread=true limits the list to
// unread notifications.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	unread := r.URL.Query().Get("unread") == "true"
	notifications, err := store.ListNotifications(r.Context(), h.DB, GetClaims(r.Context()).UserID, unread)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}
	jsonResponse(w, http.StatusOK, notifications)
}

// MarkRead handles PATCH /api/notifications/{id}/read.
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	ok, err := store.MarkNotificationRead(r.Context(), h.DB, id, GetClaims(r.Context()).UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !ok {
		jsonError(w, http.StatusNotFound, "notification not found")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "notification marked read"})
}

// MarkAllRead handles POST /api/notifications/read-all.
func (h *NotificationsHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := store.MarkAllNotificationsRead(r.Context(), h.DB, GetClaims(r.Context()).UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]int64{"updated": n})
}
