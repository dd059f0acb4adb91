package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/report-hub/internal"
	"github.com/frahmantamala/report-hub/internal/announcement"
	"github.com/frahmantamala/report-hub/internal/auth"
	"github.com/frahmantamala/report-hub/internal/notification"
	"github.com/frahmantamala/report-hub/internal/report"
	"github.com/frahmantamala/report-hub/internal/transport"
	"github.com/frahmantamala/report-hub/internal/transport/middleware"
	"github.com/frahmantamala/report-hub/internal/transport/swagger"
	"github.com/frahmantamala/report-hub/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handlers groups the HTTP handlers mounted under /api.
type Handlers struct {
	Auth         *auth.Handler
	RBAC         *auth.RBACAuthorization
	User         *user.Handler
	Report       *report.Handler
	Announcement *announcement.Handler
	Notification *notification.Handler
}

type RouterConfig struct {
	AllowedOrigins []string
	RateLimit      internal.RateLimitConfig
	Tracing        internal.TracingConfig
	// OpenAPIPath is the document served at /openapi.yml; empty disables docs.
	OpenAPIPath string
}

// NewRouter builds the full HTTP handler, wrapped for tracing when enabled.
func NewRouter(cfg RouterConfig, db *sqlx.DB, h Handlers, logger *slog.Logger) http.Handler {
	router := chi.NewRouter()
	RegisterAllRoutes(router, cfg, db, h, logger)

	if cfg.Tracing.Enabled {
		return otelhttp.NewHandler(router, cfg.Tracing.ServiceName)
	}
	return router
}

func RegisterAllRoutes(router *chi.Mux, cfg RouterConfig, db *sqlx.DB, h Handlers, logger *slog.Logger) {
	base := transport.NewBaseHandler(logger)
	healthHandler := NewHealthHandler(db, base, nil)

	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.TraceID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.SecurityHeaders)
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.LoggingMiddleware(logger))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		base.WriteAppError(w, internal.NewNotFoundError("Route not found", internal.ErrCodeRouteNotFound))
	})

	if cfg.OpenAPIPath != "" {
		router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, cfg.OpenAPIPath)
		})
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api", func(r chi.Router) {
		if cfg.RateLimit.Enabled {
			limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, logger)
			r.Use(limiter.Middleware)
		}

		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if h.Auth == nil {
			return
		}

		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/register", h.Auth.Register)
			ar.Post("/login", h.Auth.Login)
			ar.Post("/refresh-token", h.Auth.RefreshToken)
			ar.Group(func(pr chi.Router) {
				pr.Use(h.Auth.AuthMiddleware)
				pr.Post("/logout", h.Auth.Logout)
				pr.Get("/me", h.Auth.Me)
			})
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.User != nil {
				pr.Route("/users", func(ur chi.Router) {
					ur.Put("/profile", h.User.UpdateProfile)
					ur.Put("/change-password", h.User.ChangePassword)

					ur.Group(func(admin chi.Router) {
						admin.Use(h.RBAC.RequireAdmin())
						admin.Get("/", h.User.ListUsers)
						admin.Get("/{id}", h.User.GetUser)
						admin.Put("/{id}", h.User.UpdateUser)
						admin.Delete("/{id}", h.User.DeactivateUser)
					})
				})
			}

			if h.Report != nil {
				pr.Route("/reports", func(rr chi.Router) {
					rr.Post("/", h.Report.CreateReport)
					rr.Get("/", h.Report.ListReports)
					rr.Get("/stats", h.Report.GetStats)
					rr.Get("/{id}", h.Report.GetReport)
					rr.Put("/{id}", h.Report.UpdateReport)
					rr.Delete("/{id}", h.Report.DeleteReport)
					rr.Put("/{id}/submit", h.Report.SubmitReport)
					rr.With(h.RBAC.RequireAdmin()).Put("/{id}/review", h.Report.ReviewReport)
				})
			}

			if h.Announcement != nil {
				pr.Route("/announcements", func(ar chi.Router) {
					ar.Get("/", h.Announcement.ListAnnouncements)
					ar.Get("/{id}", h.Announcement.GetAnnouncement)
					ar.Put("/{id}/read", h.Announcement.MarkRead)

					ar.Group(func(admin chi.Router) {
						admin.Use(h.RBAC.RequireAdmin())
						admin.Post("/", h.Announcement.CreateAnnouncement)
						admin.Put("/{id}", h.Announcement.UpdateAnnouncement)
						admin.Delete("/{id}", h.Announcement.DeleteAnnouncement)
					})
				})
			}

			if h.Notification != nil {
				pr.Route("/notifications", func(nr chi.Router) {
					nr.Get("/", h.Notification.ListNotifications)
					nr.Put("/mark-all-read", h.Notification.MarkAllRead)
					nr.Put("/{id}/read", h.Notification.MarkRead)
					nr.Delete("/{id}", h.Notification.DeleteNotification)
				})
			}
		})
	})
}
