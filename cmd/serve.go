package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/classify/internal/calendar"
	"github.com/sells-group/classify/internal/model"
	"github.com/sells-group/classify/internal/schedule"
	"github.com/sells-group/classify/internal/store"
)

var servePort int

// planner runs a scheduling request against a section table.
type planner interface {
	Plan(ctx context.Context, req model.PlanRequest, sections []model.Section) (*model.PlanResult, error)
}

// calendarWriter places entries on a named calendar.
type calendarWriter interface {
	GetOrCreate(ctx context.Context, name string) (string, error)
	AddEvents(ctx context.Context, calendarID string, entries []model.CalendarEntry) ([]model.CalendarEntry, error)
}

// server holds the HTTP API dependencies. Calendar and Term may be nil.
type server struct {
	Planner      planner
	Store        store.Store
	Calendar     calendarWriter
	Term         *calendar.Term
	Sections     func(ctx context.Context) ([]model.Section, error)
	CalendarName string
}

type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type generateResponse struct {
	RunID           string                       `json:"run_id,omitempty"`
	Degraded        bool                         `json:"degraded"`
	Recommendations []model.RecommendationRecord `json:"recommendations"`
	Comparison      model.Comparison             `json:"comparison"`
	Warnings        []model.Warning              `json:"warnings,omitempty"`
	Schedule        []model.CalendarEntry        `json:"schedule,omitempty"`
}

type addToCalendarRequest struct {
	Schedule     []model.CalendarEntry `json:"schedule"`
	CalendarName string                `json:"calendar_name"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the schedule planning HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		term, err := calendarTerm()
		if err != nil {
			return err
		}

		s := &server{
			Planner:      env.Planner,
			Store:        env.Store,
			Term:         term,
			CalendarName: cfg.Calendar.Name,
			Sections: func(ctx context.Context) ([]model.Section, error) {
				return env.LoadSections(ctx, "")
			},
		}
		if env.Calendar != nil {
			s.Calendar = env.Calendar
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildRouter(s, cfg.Server.CORSOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildRouter wires the API routes with CORS for the given origins.
func buildRouter(s *server, origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/generate-schedule", s.handleGenerate)
		r.Post("/add-to-calendar", s.handleAddToCalendar)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})

	return r
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req model.PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := schedule.ValidateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, schedule.UserMessage(err))
		return
	}
	if s.Planner == nil || s.Sections == nil {
		writeError(w, http.StatusServiceUnavailable, "planner is not configured")
		return
	}

	ctx := r.Context()
	sections, err := s.Sections(ctx)
	if err != nil {
		zap.L().Error("serve: load sections", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "The section table could not be loaded.")
		return
	}

	result, err := s.Planner.Plan(ctx, req, sections)
	if err != nil {
		zap.L().Error("serve: plan failed", zap.Strings("courses", req.Courses), zap.Error(err))
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, schedule.ErrInvalidRequest):
			status = http.StatusBadRequest
		case errors.Is(err, schedule.ErrNoCandidates):
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, schedule.UserMessage(err))
		return
	}

	resp := generateResponse{
		RunID:           result.RunID,
		Degraded:        result.Degraded,
		Recommendations: result.Recommendations,
		Comparison:      result.Comparison,
		Warnings:        result.Warnings,
	}
	if s.Term != nil {
		entries, warns := calendar.EntriesFromRecommendations(result.Recommendations, model.NewSectionSet(sections), *s.Term)
		resp.Schedule = entries
		resp.Warnings = append(resp.Warnings, warns...)
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: resp})
}

func (s *server) handleAddToCalendar(w http.ResponseWriter, r *http.Request) {
	if s.Calendar == nil {
		writeError(w, http.StatusServiceUnavailable, "calendar export is not configured")
		return
	}

	var req addToCalendarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Schedule) == 0 {
		writeError(w, http.StatusBadRequest, "schedule is required")
		return
	}
	name := req.CalendarName
	if name == "" {
		name = s.CalendarName
	}

	ctx := r.Context()
	calID, err := s.Calendar.GetOrCreate(ctx, name)
	if err != nil {
		zap.L().Error("serve: get calendar", zap.Error(err))
		writeError(w, http.StatusBadGateway, "The calendar could not be opened.")
		return
	}
	created, err := s.Calendar.AddEvents(ctx, calID, req.Schedule)
	if err != nil {
		zap.L().Error("serve: add events", zap.Int("created", len(created)), zap.Error(err))
		writeError(w, http.StatusBadGateway, fmt.Sprintf("Only %d of %d events were added to the calendar.", len(created), len(req.Schedule)))
		return
	}

	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: map[string]any{
		"calendar_id": calID,
		"events":      created,
	}})
}

func (s *server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is not configured")
		return
	}

	filter := store.RunFilter{
		Status: model.RunStatus(r.URL.Query().Get("status")),
		Limit:  50,
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		filter.Offset = n
	}

	runs, err := s.Store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("serve: list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "runs could not be listed")
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: runs})
}

func (s *server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is not configured")
		return
	}

	run, err := s.Store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		zap.L().Error("serve: get run", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "run could not be loaded")
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: run})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiResponse{Success: false, Error: msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
