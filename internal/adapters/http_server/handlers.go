// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"voice_reviews/internal/domain"
)

// ReviewsService is what the handlers need from the app layer.
type ReviewsService interface {
	CompanyReviews(ctx context.Context, businessID string) (domain.CompanyReviews, bool)
}

type Handlers struct {
	Reviews ReviewsService
	Widget  http.Handler
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/api/reviews/{businessID}", h.getReviews)
	if h.Widget != nil {
		s.mux.Get("/widget.js", h.Widget.ServeHTTP)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorBody{Error: msg}); err != nil {
		log.Error().Err(err).Msg("write JSON error response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func (h *Handlers) getReviews(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "businessID"))

	out, found := h.Reviews.CompanyReviews(r.Context(), id)
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Company with ID '%s' not available or found.", id))
		return
	}
	if out.Reviews == nil {
		out.Reviews = []domain.Review{}
	}

	etag, body := calcETagAndBody(out)
	if body == nil {
		writeError(w, http.StatusInternalServerError, "failed to encode reviews")
		return
	}
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write reviews body")
	}
}
