// Package api exposes the scheduling services over REST. It is a thin
// adapter: all rules live in pkg/core.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/squadcal/squadcal/pkg/core/calendar"
	"github.com/squadcal/squadcal/pkg/db"
)

// Server holds the HTTP layer's dependencies
type Server struct {
	store    db.Store
	cal      *calendar.HolidayCalendar
	anchor   calendar.Anchor
	logger   *zap.Logger
	validate *validator.Validate
}

// NewServer creates an API server over the given store
func NewServer(store db.Store, cal *calendar.HolidayCalendar, anchor calendar.Anchor, logger *zap.Logger) *Server {
	return &Server{
		store:    store,
		cal:      cal,
		anchor:   anchor,
		logger:   logger,
		validate: validator.New(),
	}
}

// Router builds the chi router for the API
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Route("/calendar", func(r chi.Router) {
		r.Get("/standup-hosting/{squadID}", s.handleStandupHosting)
		r.Get("/incident-rotation/{squadID}", s.handleIncidentRotation)
		r.Get("/duty/{squadID}", s.handleDuty)
		r.Get("/sprint", s.handleSprint)
		r.Post("/rotations", s.handleCreateRotation)
		r.Post("/swaps", s.handleCreateSwap)
		r.Post("/swaps/{swapID}/approve", s.handleApproveSwap)
		r.Post("/swaps/{swapID}/reject", s.handleRejectSwap)
		r.Post("/standup-hosting/{hostingID}/complete", s.handleCompleteHosting)
	})

	r.Get("/squads", s.handleListSquads)
	r.Get("/squads/{squadID}/members", s.handleListMembers)
	r.Get("/members/{memberID}/next-duty", s.handleNextDuty)
	r.Get("/members/{memberID}/duty-history", s.handleDutyHistory)

	return r
}

// requestLogger logs one line per request with duration and status
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("Request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
