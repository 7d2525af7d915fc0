package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/actuallystonmai/mate-recommendation-service/internal/domain"
	"github.com/actuallystonmai/mate-recommendation-service/internal/logging"
)

const maxPage = 10000

// GET /recommendations/themes?page=N
func (h *Handler) GetRecommendedThemes(w http.ResponseWriter, r *http.Request) {
	page := 0
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		parsed, err := strconv.Atoi(pageStr)
		if err != nil || parsed < 0 || parsed > maxPage {
			writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid page parameter")
			return
		}
		page = parsed
	}

	result, err := h.service.GetRecommendedThemes(r.Context(), page)
	if err != nil {
		h.writeThemesError(w, r, page, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeThemesError(w http.ResponseWriter, r *http.Request, page int, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidPage):
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid page parameter")
	// Request timeout
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "request_timeout",
			"Request timed out, please try again")
	case domain.IsUpstreamError(err):
		logging.Ctx(r.Context()).Error().Err(err).Int("page", page).Msg("recommendations unavailable")
		writeError(w, http.StatusServiceUnavailable, "recommendations_unavailable",
			"Couldn't load recommendations")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Int("page", page).Msg("build recommended themes")
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
