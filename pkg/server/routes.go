package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"mercator-hq/rhythm/pkg/telemetry/health"
)

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(s.recoverer)
	r.Use(s.requestID)
	r.Use(s.trace)
	r.Use(s.accessLog)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/requests/{key}", s.handleRequest)

		r.Get("/buckets/{key}", s.handleGetBucket)
		r.Delete("/buckets/{key}", s.handleResetBucket)

		r.Get("/vips", s.handleListVIPs)
		r.Get("/vips/{key}", s.handleGetVIP)
		r.Put("/vips/{key}", s.handlePutVIP)
		r.Delete("/vips/{key}", s.handleDeleteVIP)

		r.Get("/stats", s.handleStats)
	})

	tel := s.deps.Telemetry
	r.Get(pathOr(tel.Health.LivenessPath, "/healthz"), s.deps.Health.LivenessHandler())
	r.Get(pathOr(tel.Health.ReadinessPath, "/readyz"), s.deps.Health.ReadinessHandler())
	r.Get("/version", health.VersionHandler(s.deps.Version, s.deps.Commit, s.deps.BuildTime))

	if s.deps.Metrics != nil && tel.Metrics.Enabled {
		r.Handle(pathOr(tel.Metrics.Path, "/metrics"), s.deps.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

func pathOr(path, fallback string) string {
	if path == "" {
		return fallback
	}
	return path
}
