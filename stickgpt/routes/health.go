package routes

import (
	"net/http"

	"stickgpt/stickgpt/controllers"

	"github.com/go-chi/chi/v5"
)

func HealthRoutes(ctrl *controllers.HealthController) chi.Router {
	r := chi.NewRouter()
	r.Get("/", ctrl.HealthCheck)
	return r
}

// MetricsRoutes exposes a Prometheus handler.
func MetricsRoutes(handler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/", handler)
	return r
}
