package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"mercator-hq/rhythm/pkg/ratelimit"
	"mercator-hq/rhythm/pkg/telemetry/logging"
	"mercator-hq/rhythm/pkg/telemetry/tracing"
	"mercator-hq/rhythm/pkg/vipstore"
)

// maxBodyBytes bounds VIP request bodies.
const maxBodyBytes = 4 << 10

// DecisionResponse is the body of POST /v1/requests/{key}.
type DecisionResponse struct {
	Key       string `json:"key"`
	Allowed   bool   `json:"allowed"`
	Remaining int64  `json:"remaining"`
}

// VIPRequest is the body of PUT /v1/vips/{key}.
type VIPRequest struct {
	Capacity   int64 `json:"capacity"`
	RefillRate int64 `json:"refill_rate"`
}

// VIPResponse describes one override.
type VIPResponse struct {
	Key        string `json:"key"`
	Capacity   int64  `json:"capacity"`
	RefillRate int64  `json:"refill_rate"`
}

// StatsResponse is the body of GET /v1/stats.
type StatsResponse struct {
	ratelimit.Stats
	Defaults DefaultsResponse `json:"defaults"`
}

// DefaultsResponse reports the limiter defaults.
type DefaultsResponse struct {
	Capacity       int64  `json:"capacity"`
	RefillRate     int64  `json:"refill_rate"`
	RefillInterval string `json:"refill_interval"`
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	key, ok := keyParam(w, r)
	if !ok {
		return
	}

	d := s.deps.Limiter.Decide(key)
	resp := DecisionResponse{Key: key, Allowed: d.Allowed, Remaining: d.Remaining}

	span := tracing.SpanFromContext(r.Context())
	tracing.SetDecisionAttributes(span, key, d.Allowed)

	status := http.StatusOK
	if !d.Allowed {
		status = http.StatusTooManyRequests
		w.Header().Set("Retry-After", retryAfter(d.RetryAfter))
		s.deps.Logger.DebugContext(logging.WithKey(r.Context(), key), "request denied")
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleGetBucket(w http.ResponseWriter, r *http.Request) {
	key, ok := keyParam(w, r)
	if !ok {
		return
	}

	snap, ok := s.deps.Limiter.Inspect(key)
	if !ok {
		writeError(w, r, http.StatusNotFound, "bucket not found")
		return
	}
	tracing.SetBucketAttributes(tracing.SpanFromContext(r.Context()), snap)
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleResetBucket(w http.ResponseWriter, r *http.Request) {
	key, ok := keyParam(w, r)
	if !ok {
		return
	}

	if !s.deps.Limiter.Reset(key) {
		writeError(w, r, http.StatusNotFound, "bucket not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListVIPs(w http.ResponseWriter, r *http.Request) {
	vips := s.deps.Limiter.VIPs()
	resp := make([]VIPResponse, 0, len(vips))
	for key, vip := range vips {
		resp = append(resp, VIPResponse{Key: key, Capacity: vip.Capacity, RefillRate: vip.RefillRate})
	}
	sortVIPs(resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetVIP(w http.ResponseWriter, r *http.Request) {
	key, ok := keyParam(w, r)
	if !ok {
		return
	}

	vip, ok := s.deps.Limiter.VIP(key)
	if !ok {
		writeError(w, r, http.StatusNotFound, "vip override not found")
		return
	}
	writeJSON(w, http.StatusOK, VIPResponse{Key: key, Capacity: vip.Capacity, RefillRate: vip.RefillRate})
}

func (s *Server) handlePutVIP(w http.ResponseWriter, r *http.Request) {
	key, ok := keyParam(w, r)
	if !ok {
		return
	}

	var req VIPRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	vip := ratelimit.VipConfig{Capacity: req.Capacity, RefillRate: req.RefillRate}
	span := tracing.SpanFromContext(r.Context())
	if err := vip.Validate(); err != nil {
		tracing.SetError(span, err, "validation")
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	tracing.SetVIPAttributes(span, key, vip)

	if s.deps.Store != nil {
		rec := vipstore.Record{Key: key, Capacity: vip.Capacity, RefillRate: vip.RefillRate, UpdatedAt: time.Now()}
		if err := s.deps.Store.Put(r.Context(), rec); err != nil {
			tracing.SetError(span, err, "store")
			s.deps.Logger.ErrorContext(r.Context(), "failed to persist vip override", "key", key, "error", err)
			writeError(w, r, http.StatusInternalServerError, "failed to persist vip override")
			return
		}
	}

	if err := s.deps.Limiter.SetVIP(key, vip.Capacity, vip.RefillRate); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteVIP(w http.ResponseWriter, r *http.Request) {
	key, ok := keyParam(w, r)
	if !ok {
		return
	}

	removed := s.deps.Limiter.RemoveVIP(key)

	if s.deps.Store != nil {
		err := s.deps.Store.Delete(r.Context(), key)
		switch {
		case err == nil:
			removed = true
		case !errors.Is(err, vipstore.ErrNotFound):
			s.deps.Logger.ErrorContext(r.Context(), "failed to delete persisted vip override", "key", key, "error", err)
			writeError(w, r, http.StatusInternalServerError, "failed to delete vip override")
			return
		}
	}

	if !removed {
		writeError(w, r, http.StatusNotFound, "vip override not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	defaults := s.deps.Limiter.Defaults()
	writeJSON(w, http.StatusOK, StatsResponse{
		Stats: s.deps.Limiter.Stats(),
		Defaults: DefaultsResponse{
			Capacity:       defaults.Capacity,
			RefillRate:     defaults.RefillRate,
			RefillInterval: defaults.RefillInterval.String(),
		},
	})
}

// keyParam returns the decoded {key} URL parameter. chi matches against
// RawPath when the request carries one (an escaped slash, say), and only
// then is the parameter still escaped.
func keyParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := chi.URLParam(r, "key")
	if r.URL.RawPath != "" {
		var err error
		if key, err = url.PathUnescape(key); err != nil {
			key = ""
		}
	}
	if key == "" {
		writeError(w, r, http.StatusBadRequest, "invalid key")
		return "", false
	}
	return key, true
}

// retryAfter rounds wait up to whole seconds, minimum one.
func retryAfter(wait time.Duration) string {
	secs := int64(math.Ceil(wait.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
