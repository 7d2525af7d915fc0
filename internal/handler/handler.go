package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/actuallystonmai/mate-recommendation-service/internal/domain"
	"github.com/actuallystonmai/mate-recommendation-service/internal/logging"
)

type ThemesService interface {
	GetRecommendedThemes(ctx context.Context, page int) (*domain.ThemesPage, error)
}

// Pinger is a dependency the health check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	service ThemesService
	checks  map[string]Pinger
}

func NewHandler(svc ThemesService, checks map[string]Pinger) *Handler {
	return &Handler{service: svc, checks: checks}
}

// write JSON response
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn().Err(err).Msg("write response")
	}
}

// writes JSON error response.
func writeError(w http.ResponseWriter, status int, errCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   errCode,
		Message: message,
	})
}
