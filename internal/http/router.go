package http

import (
	"net/http"

	"rightguard/internal/alert"
	"rightguard/internal/auth"
	"rightguard/internal/config"
	"rightguard/internal/guide"
	"rightguard/internal/http/handler"
	mw "rightguard/internal/http/middleware"
	"rightguard/internal/incident"
	"rightguard/internal/metrics"
	"rightguard/internal/payment"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Deps are the services behind the API. JWT and Metrics may be nil.
type Deps struct {
	Users     *auth.Service
	JWT       *auth.JWT
	Guides    *guide.Service
	Incidents *incident.Service
	Alerts    *alert.Service
	Payments  *payment.Service
	Metrics   *metrics.Metrics
	Log       *zap.Logger
}

func NewRouter(cfg config.Config, d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.Observe(d.Log, d.Metrics))
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	ah := &handler.AuthHandler{Users: d.Users, JWT: d.JWT, Log: d.Log}
	me := &handler.MeHandler{Users: d.Users, Log: d.Log}
	gh := &handler.GuideHandler{Svc: d.Guides, Log: d.Log}
	rh := &handler.RecordingHandler{Svc: d.Incidents, Log: d.Log}
	alh := &handler.AlertHandler{Svc: d.Alerts, Log: d.Log}
	ph := &handler.PaymentHandler{Svc: d.Payments, Log: d.Log}

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth", ah.CreateOrUpdate)
		r.Get("/auth", ah.Get)

		r.Get("/legal-guides", gh.Get)
		r.Post("/legal-guides", gh.Create)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(d.JWT, cfg.RequireSession))

			if d.JWT != nil {
				r.Get("/me", me.Me)
			}

			r.Post("/recordings", rh.Save)
			r.Get("/recordings", rh.List)
			r.Delete("/recordings", rh.Delete)

			r.Post("/alerts", alh.Send)
			r.Get("/alerts", alh.List)
			r.Patch("/alerts", alh.UpdateStatus)

			r.Post("/payments", ph.Purchase)
			r.Get("/payments", ph.Entitlements)
			r.Patch("/payments", ph.ValidateAccess)
		})
	})

	return r
}
