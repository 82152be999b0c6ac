// Package httptransport assembles the portal's HTTP surface: public
// endpoints, the authenticated self-service group, and the admin console.
// Handlers stay thin and delegate to the domain services.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/markdevonuk/portal/internal/payment"
	"github.com/markdevonuk/portal/internal/platform/metrics"
	"github.com/markdevonuk/portal/internal/platform/middleware"
	profilehandler "github.com/markdevonuk/portal/internal/profile/handler"
	teamhandler "github.com/markdevonuk/portal/internal/team/handler"
	"github.com/markdevonuk/portal/internal/twofactor"
	id "github.com/markdevonuk/portal/pkg/domain"
	"github.com/markdevonuk/portal/pkg/platform/httputil"
)

// Deps carries everything the router mounts. Nil optional fields (Payment,
// TwoFactor, HTTPMetrics) leave their routes or middleware out.
type Deps struct {
	Logger         *slog.Logger
	TokenValidator middleware.TokenValidator
	AdminToken     string
	AdminActor     id.UserID

	Profile   *profilehandler.Handler
	Team      *teamhandler.Handler
	Payment   *payment.Handler
	TwoFactor *twofactor.Handler

	HTTPMetrics *metrics.HTTP
}

// NewRouter wires all endpoints behind their access-control middleware.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestMeta)
	if d.HTTPMetrics != nil {
		r.Use(d.HTTPMetrics.Middleware)
	}

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// The webhook authenticates by signature, not bearer token.
	if d.Payment != nil {
		d.Payment.Register(r)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(d.TokenValidator, d.Logger))
		d.Profile.Register(r)
		d.Team.Register(r)
	})

	adminActor := d.AdminActor
	if adminActor.IsZero() {
		adminActor = "admin"
	}
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(d.AdminToken, adminActor, d.Logger))
		d.Profile.RegisterAdmin(r)
		d.Team.RegisterAdmin(r)
		if d.TwoFactor != nil {
			d.TwoFactor.RegisterAdmin(r)
		}
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
