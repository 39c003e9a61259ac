// Package web exposes the public HTTP API: live schedule status,
// localized events, calendar feeds, form submissions and the
// shared-secret admin surface.
package web

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"churchsite/internal/config"
	"churchsite/internal/content"
	"churchsite/internal/ical"
	"churchsite/internal/metrics"
	"churchsite/internal/store"
)

// feedCacheTTL bounds how often the combined calendar feed is rebuilt.
// Calendar clients poll aggressively; the content only changes on refresh.
const feedCacheTTL = 60 * time.Second

// Server wires the HTTP routes over the schedule, content and submission
// stores.
type Server struct {
	cfg      *config.Config
	logger   zerolog.Logger
	content  *content.Store
	subs     store.Submissions
	exporter *ical.Exporter
	sink     metrics.Sink
	validate *validator.Validate
	loc      *time.Location

	// now is read once per request that does schedule math, so a request
	// straddling a minute rollover stays internally consistent.
	now func() time.Time

	router chi.Router

	feedMu    sync.RWMutex
	feedCache *feedCache
}

type feedCache struct {
	body      string
	updatedAt time.Time
}

// New constructs a Server. sink may be nil, which disables metrics.
func New(cfg *config.Config, logger zerolog.Logger, cs *content.Store, subs store.Submissions, sink metrics.Sink) *Server {
	if sink == nil {
		sink = metrics.NewNoopSink()
	}
	loc := cfg.Location()
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		content:  cs,
		subs:     subs,
		exporter: ical.NewExporter(cfg.Domain, loc),
		sink:     sink,
		validate: validator.New(),
		loc:      loc,
		now:      time.Now,
	}
	s.router = s.buildRouter()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/schedule/live", s.handleLive)
		r.Get("/schedule/upcoming", s.handleUpcoming)
		r.Get("/events", s.handleEvents)
		r.Get("/events/{id}", s.handleEvent)
		r.Post("/prayer-requests", s.handlePrayerRequest)
		r.Post("/contact", s.handleContact)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.adminOnly)
			r.Get("/prayer-requests", s.handleAdminPrayerRequests)
			r.Get("/contact-messages", s.handleAdminContactMessages)
			r.Post("/events/import", s.handleAdminImport)
		})
	})

	r.Get("/calendar.ics", s.handleCombinedCalendar)
	r.Get("/services/calendar.ics", s.handleServicesCalendar)
	r.Get("/events/{id}/calendar.ics", s.handleEventCalendar)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// observe logs each request and feeds the metrics sink.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		dur := time.Since(start)
		s.sink.RequestCompleted(route, ww.Status(), dur)
		s.logger.Debug().
			Str("method", r.Method).
			Str("route", route).
			Int("status", ww.Status()).
			Dur("duration", dur).
			Msg("request")
	})
}

// adminOnly gates the admin routes behind the shared secret. An empty
// configured secret disables the whole surface.
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AdminSecret == "" {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		if !secureCompare(r.Header.Get("X-Admin-Secret"), s.cfg.AdminSecret) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
