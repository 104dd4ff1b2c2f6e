package api

import (
	"database/sql"
	"net/http"

	"github.com/h-tadlaoui/nova-app/internal/auth"
	"github.com/h-tadlaoui/nova-app/internal/matching"
	"github.com/h-tadlaoui/nova-app/internal/model"
	"github.com/h-tadlaoui/nova-app/internal/notify"
)

// Deps are the services the API is built on.
type Deps struct {
	DB        *sql.DB
	Tokens    *auth.Manager
	Engine    *matching.Engine
	Lifecycle *matching.Lifecycle
	Notifier  *notify.Service
	// AutoMatch runs matching synchronously when a lost or found report is
	// created.
	AutoMatch bool
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: d.DB, Tokens: d.Tokens}
	usersHandler := &UsersHandler{DB: d.DB}
	itemsHandler := &ItemsHandler{DB: d.DB, Engine: d.Engine, AutoMatch: d.AutoMatch}
	matchesHandler := &MatchesHandler{DB: d.DB, Engine: d.Engine, Lifecycle: d.Lifecycle, Notifier: d.Notifier}
	notificationsHandler := &NotificationsHandler{DB: d.DB}

	authMW := AuthMiddleware(d.Tokens, d.DB)
	requireAdmin := RequireRole(model.RoleAdmin)
	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.DB.PingContext(r.Context()); err != nil {
			jsonError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public: account creation and login.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))
	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))

	mux.Handle("GET /api/users/me", authed(usersHandler.Me))
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))

	// Item reports.
	mux.Handle("POST /api/items", authed(itemsHandler.Create))
	mux.Handle("GET /api/items", authed(itemsHandler.List))
	mux.Handle("GET /api/items/mine", authed(itemsHandler.Mine))
	mux.Handle("GET /api/items/{id}", authed(itemsHandler.Get))
	mux.Handle("PATCH /api/items/{id}/status", authed(itemsHandler.UpdateStatus))
	mux.Handle("PUT /api/items/{id}/image", authed(itemsHandler.UploadImage))
	mux.Handle("GET /api/items/{id}/image", authed(itemsHandler.GetImage))
	mux.Handle("GET /api/items/{id}/history", authed(itemsHandler.GetHistory))

	// Matching.
	mux.Handle("POST /api/matches/trigger", authed(matchesHandler.Trigger))
	mux.Handle("GET /api/matches", authed(matchesHandler.List))
	mux.Handle("PATCH /api/matches/{id}/status", authed(matchesHandler.UpdateStatus))

	// Notifications.
	mux.Handle("GET /api/notifications", authed(notificationsHandler.List))
	mux.Handle("PATCH /api/notifications/{id}/read", authed(notificationsHandler.MarkRead))
	mux.Handle("POST /api/notifications/read-all", authed(notificationsHandler.MarkAllRead))

	return RequestID(Recoverer(LoggingMiddleware(mux)))
}
