package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/retailpulse/storevisits/internal/domain"
)

// Server is the HTTP adapter exposing job submission and status polling.
type Server struct {
	svc    *domain.JobService
	router chi.Router
	server *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(svc *domain.JobService, addr string) *Server {
	s := &Server{svc: svc}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Get("/health", s.handleHealth)
	r.Post("/api/submit", s.handleSubmit)
	r.Get("/api/status", s.handleStatus)

	s.router = r
	s.server = &http.Server{Addr: addr, Handler: r}
	return s
}

// submitRequest is the body for POST /api/submit. Count is a pointer so
// an absent field can be told apart from an explicit zero.
type submitRequest struct {
	Count  *int           `json:"count"`
	Visits []domain.Visit `json:"visits"`
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

type statusResponse struct {
	Status    string               `json:"status"`
	JobID     string               `json:"job_id"`
	Results   []domain.ImageResult `json:"results"`
	ErrorLogs []domain.ImageError  `json:"error_logs"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Count == nil || req.Visits == nil {
		s.writeError(w, http.StatusBadRequest, domain.ErrMissingFields.Error())
		return
	}

	job, err := s.svc.Submit(r.Context(), *req.Count, req.Visits)
	if err != nil {
		if errors.Is(err, domain.ErrMissingFields) || errors.Is(err, domain.ErrCountMismatch) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("submit error: %v", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.writeJSON(w, http.StatusCreated, submitResponse{JobID: job.ID})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("jobid")

	job, err := s.svc.Status(r.Context(), jobID)
	if err != nil {
		// Missing and unknown ids are both client errors here.
		if errors.Is(err, domain.ErrMissingJobID) {
			s.writeError(w, http.StatusBadRequest, "job id required")
			return
		}
		if errors.Is(err, domain.ErrJobNotFound) {
			s.writeError(w, http.StatusBadRequest, "job not found")
			return
		}
		log.Printf("status error: %v", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.writeJSON(w, http.StatusOK, jobToStatus(job))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func jobToStatus(job *domain.Job) statusResponse {
	resp := statusResponse{
		Status:    string(job.Status),
		JobID:     job.ID,
		Results:   job.Results,
		ErrorLogs: job.ErrorLogs,
	}
	// Slices serialize as [] rather than null.
	if resp.Results == nil {
		resp.Results = []domain.ImageResult{}
	}
	if resp.ErrorLogs == nil {
		resp.ErrorLogs = []domain.ImageError{}
	}
	return resp
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// ServeHTTP implements http.Handler for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Addr returns the server address.
func (s *Server) Addr() string {
	return s.server.Addr
}
