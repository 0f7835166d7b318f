package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/logger"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// healthBody is the JSON shape of /health.
type healthBody struct {
	OK           bool   `json:"ok"`
	Version      string `json:"version"`
	Dependencies string `json:"dependencies"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if s.answer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "answer service not configured"})
		return
	}

	req, err := parseAskRequest(r, s.maxBody)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	result, err := s.answer.Answer(r.Context(), req.BookID, req.Question, req.TopK)
	if err != nil {
		s.writeAnswerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeAnswerError maps validation errors to 400 and everything else to a
// generic 500 carrying only the request id.
func (s *Server) writeAnswerError(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsValidation(err) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	requestID := domain.RequestIDOf(err)
	if requestID == "" {
		requestID = uuid.NewString()
		if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
			logger.Debug("request %s cancelled by client", requestID)
		} else {
			logger.RequestError(requestID, "ask failed: %v", err)
		}
	}
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", RequestID: requestID})
}

func (s *Server) handleTOC(w http.ResponseWriter, r *http.Request) {
	if s.toc == nil {
		s.handleNotFound(w, r)
		return
	}
	bookID := r.URL.Query().Get("book_id")
	if bookID == "" {
		bookID = domain.DefaultCollectionID
	}

	toc, err := s.toc.TOC(r.Context(), bookID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no table of contents for " + bookID})
	case err != nil:
		requestID := uuid.NewString()
		logger.RequestError(requestID, "toc of %s failed: %v", bookID, err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", RequestID: requestID})
	default:
		writeJSON(w, http.StatusOK, toc)
	}
}

// indexesBody is the JSON shape of /indexes.
type indexesBody struct {
	Count int      `json:"count"`
	Books []string `json:"books"`
}

func (s *Server) handleIndexes(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		s.handleNotFound(w, r)
		return
	}
	books, err := s.catalog.Books(r.Context())
	if err != nil {
		requestID := uuid.NewString()
		logger.RequestError(requestID, "listing books failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", RequestID: requestID})
		return
	}
	if books == nil {
		books = []string{}
	}
	writeJSON(w, http.StatusOK, indexesBody{Count: len(books), Books: books})
}

// handleHealth reports "healthy" when every probe passes and "partial"
// otherwise. The service itself is always reported ok.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	for name, check := range s.checks {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		err := check(ctx)
		cancel()
		if err != nil {
			logger.Warn("health check %s: %v", name, err)
			status = "partial"
		}
	}
	writeJSON(w, http.StatusOK, healthBody{OK: true, Version: s.version, Dependencies: status})
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{Error: "not found", Message: "Use /health, /indexes, /toc or /ask"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("writing response: %v", err)
	}
}
