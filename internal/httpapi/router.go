package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter arma el router del servicio.
func NewRouter(c *Controllers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware)
	r.Use(chimw.Recoverer)

	r.Post("/otp/email", c.SendEmail)
	r.Post("/otp/text", c.SendText)
	r.Post("/otp/validate", c.Validate)
	r.Get("/monitor", c.Monitor)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
