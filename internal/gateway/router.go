package gateway

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/opsdesk/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	LoginPath   = "/login"
	LandingPath = "/chat"
)

// NewRouter mounts h behind the route guard.
func NewRouter(h *Handler, log logging.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(Guard(LoginPath, LandingPath))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, LandingPath, http.StatusFound)
	})
	r.Get(LoginPath, h.LoginForm)
	r.Post(LoginPath, h.Login)
	r.Post("/logout", h.Logout)

	r.Get(LandingPath, h.Chat)

	r.Route("/incidents", func(r chi.Router) {
		r.Get("/", h.Incidents)
		r.Get("/{id}", h.Incident)
		r.Post("/{id}/reply", h.ReplyIncident)
		r.Post("/{id}/read", h.MarkIncidentRead)
		r.Post("/{id}/unread", h.MarkIncidentUnread)
		r.Get("/{id}/station", h.NearestStation)
	})

	r.Get("/news", h.News)
	r.Post("/news", h.PublishNews)

	return r
}

// requestLogger logs one line per request through log.
func requestLogger(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info(r.Context(), "request",
					"request_id", middleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
