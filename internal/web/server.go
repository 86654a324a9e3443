// Package web serves the extraction, library and review operations as a JSON
// HTTP API.
package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/conorfennell/studyparse/internal/dispatch"
	"github.com/conorfennell/studyparse/internal/domain"
	"github.com/conorfennell/studyparse/internal/fsrs"
	"github.com/conorfennell/studyparse/internal/ingest"
	"github.com/conorfennell/studyparse/internal/ratelimit"
	"github.com/conorfennell/studyparse/internal/storage"
)

// Options tunes a Server. Zero values fall back to defaults.
type Options struct {
	// Limiter throttles requests per client IP. Nil disables limiting.
	Limiter *ratelimit.Limiter
	// MaxInputBytes caps request bodies. Defaults to 1 MiB.
	MaxInputBytes int64
	// Syncer runs POST /sync. Defaults to a Syncer cloning into "repos".
	Syncer *ingest.Syncer
	// Now is the clock used for reviews and rate limiting.
	Now func() time.Time
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	db       *storage.DB
	router   *http.ServeMux
	fsrs     *fsrs.Params
	limiter  *ratelimit.Limiter
	syncer   *ingest.Syncer
	maxBytes int64
	now      func() time.Time
}

// NewServer creates and configures a new server.
func NewServer(db *storage.DB, opts Options) *Server {
	s := &Server{
		db:       db,
		router:   http.NewServeMux(),
		fsrs:     fsrs.DefaultParams(),
		limiter:  opts.Limiter,
		syncer:   opts.Syncer,
		maxBytes: opts.MaxInputBytes,
		now:      opts.Now,
	}
	if s.maxBytes <= 0 {
		s.maxBytes = 1 << 20
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.syncer == nil {
		s.syncer = &ingest.Syncer{DB: db, ReposDir: "repos"}
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil && r.URL.Path != "/healthz" {
		if !s.limiter.Allow(clientIP(r), s.now()) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
	}
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("GET /healthz", s.handleHealth())
	s.router.HandleFunc("POST /extract", s.handleExtract())

	s.router.HandleFunc("GET /library", s.handleGetLibrary())
	s.router.HandleFunc("GET /review/next", s.handleGetNextReview())
	s.router.HandleFunc("POST /review/{hash}", s.handlePostReview())

	// Source management routes
	s.router.HandleFunc("GET /sources", s.handleGetSources())
	s.router.HandleFunc("POST /sources", s.handlePostSource())
	s.router.HandleFunc("DELETE /sources/{id}", s.handleDeleteSource())
	s.router.HandleFunc("POST /sync", s.handlePostSync())
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Error writing response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func isJSON(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/json"
}

// decodeJSON reads a JSON body into v, writing a 400 or 413 on failure.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type extractRequest struct {
	Text  string `json:"text"`
	Topic string `json:"topic"`
	Save  bool   `json:"save"`
}

type extractResponse struct {
	Types   []domain.ContentType `json:"types"`
	Records dispatch.Extraction  `json:"records"`
	Saved   int                  `json:"saved"`
}

// handleExtract parses a model response. The body is either raw text, with
// topic and save given as query parameters, or a JSON extractRequest.
func (s *Server) handleExtract() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req extractRequest
		if isJSON(r) {
			if !s.decodeJSON(w, r, &req) {
				return
			}
		} else {
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBytes))
			if err != nil {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			req.Text = string(body)
			req.Topic = r.URL.Query().Get("topic")
			req.Save, _ = strconv.ParseBool(r.URL.Query().Get("save"))
		}

		e := dispatch.DetectAndParseAll(req.Text, req.Topic)
		resp := extractResponse{Types: e.Types(), Records: e}
		if resp.Types == nil {
			resp.Types = []domain.ContentType{}
		}

		if req.Save {
			n, err := ingest.Save(s.db, e, req.Topic, 0)
			if err != nil {
				slog.Error("Error saving extracted records", "error", err)
				writeError(w, http.StatusInternalServerError, "failed to save records")
				return
			}
			resp.Saved = n
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleGetLibrary lists saved items, optionally of one content type.
func (s *Server) handleGetLibrary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ct domain.ContentType
		if t := r.URL.Query().Get("type"); t != "" {
			var err error
			if ct, err = domain.ParseContentType(t); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}

		items, err := s.db.ListItems(ct)
		if err != nil {
			slog.Error("Error listing library", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list library")
			return
		}
		views, err := ingest.Views(items)
		if err != nil {
			slog.Error("Error decoding library", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list library")
			return
		}
		writeJSON(w, http.StatusOK, views)
	}
}

// handleGetNextReview returns the most overdue item, or 204 when nothing is
// due.
func (s *Server) handleGetNextReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		due, err := s.db.DueItems(s.now(), 1)
		if err != nil {
			slog.Error("Error getting next due item", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get due items")
			return
		}
		if len(due) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		v, err := ingest.View(due[0])
		if err != nil {
			slog.Error("Error decoding due item", "hash", due[0].Hash, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get due items")
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

type reviewRequest struct {
	Grade int `json:"grade"`
}

// handlePostReview records a 1-4 grade for an item and returns its new
// schedule.
func (s *Server) handlePostReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hash := r.PathValue("hash")

		var req reviewRequest
		if isJSON(r) {
			if !s.decodeJSON(w, r, &req) {
				return
			}
		} else {
			grade, err := strconv.Atoi(r.PostFormValue("grade"))
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid grade")
				return
			}
			req.Grade = grade
		}
		if _, err := fsrs.ParseRating(req.Grade); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		it, err := ingest.Review(s.db, s.fsrs, hash, req.Grade, s.now())
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "item not found")
			return
		}
		if err != nil {
			slog.Error("Error reviewing item", "hash", hash, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to record review")
			return
		}
		v, err := ingest.View(*it)
		if err != nil {
			slog.Error("Error decoding reviewed item", "hash", hash, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to record review")
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// handleGetSources lists the configured sources.
func (s *Server) handleGetSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources, err := s.db.GetAllSources()
		if err != nil {
			slog.Error("Error getting sources", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get sources")
			return
		}
		if sources == nil {
			sources = []storage.Source{}
		}
		writeJSON(w, http.StatusOK, sources)
	}
}

type sourceRequest struct {
	Path string `json:"path"`
}

// handlePostSource adds a local directory or git URL as a source.
func (s *Server) handlePostSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sourceRequest
		if isJSON(r) {
			if !s.decodeJSON(w, r, &req) {
				return
			}
		} else {
			req.Path = r.PostFormValue("path")
		}
		if strings.TrimSpace(req.Path) == "" {
			writeError(w, http.StatusBadRequest, "path cannot be empty")
			return
		}

		src, err := ingest.AddSource(s.db, req.Path)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, src)
	}
}

// handleDeleteSource deletes a source together with its items.
func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid source ID")
			return
		}

		err = s.db.DeleteSource(id)
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "source not found")
			return
		}
		if err != nil {
			slog.Error("Error deleting source", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to delete source")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handlePostSync reconciles every source in the foreground and returns the
// run's report.
func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := s.syncer.Run(r.Context())
		if err != nil {
			slog.Error("Error running sync", "error", err)
			writeError(w, http.StatusInternalServerError, "sync failed")
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}
