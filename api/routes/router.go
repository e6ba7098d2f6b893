package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/goalmates-app/goalmates-backend/api/controllers"
	"github.com/goalmates-app/goalmates-backend/api/middleware"
	"github.com/goalmates-app/goalmates-backend/internal/chat"
	"github.com/goalmates-app/goalmates-backend/internal/matches"
	"github.com/goalmates-app/goalmates-backend/internal/notifications"
	"github.com/goalmates-app/goalmates-backend/internal/realtime"
	"github.com/goalmates-app/goalmates-backend/internal/teams"
	"github.com/goalmates-app/goalmates-backend/pkg/config"
	"github.com/goalmates-app/goalmates-backend/pkg/db"
	"github.com/goalmates-app/goalmates-backend/pkg/logger"
	pkgredis "github.com/goalmates-app/goalmates-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      db.Pinger
	Redis   *pkgredis.Client
	Metrics http.Handler

	Notifications        notifications.Service
	NotificationsGateway *realtime.Gateway
	Chat                 chat.Service
	ChatGateway          *realtime.Gateway
	Teams                teams.Service
	Matches              *matches.Announcer
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	var redisPinger pkgredis.Pinger
	if deps.Redis != nil {
		redisPinger = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, redisPinger))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	var idemStore pkgredis.IdempotencyStore
	if deps.Redis != nil {
		idemStore = deps.Redis
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(
			middleware.Auth(cfg.JWT, logg),
			middleware.Idempotency(idemStore, logg),
		)

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Get("/unread-count", controllers.UnreadCount(deps.Notifications, logg))
			r.Patch("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
		})

		r.Post("/teams/{teamId}/join", controllers.JoinTeam(deps.Teams, logg))
		r.Post("/matches", controllers.ScheduleMatch(deps.Matches, logg))
	})

	r.Route("/ws", func(r chi.Router) {
		r.Get("/notifications", controllers.NotificationsSocket(deps.NotificationsGateway, logg))
		r.Get("/chat", controllers.ChatSocket(deps.ChatGateway, deps.Chat, logg))
	})

	return r
}
