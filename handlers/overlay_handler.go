package handlers

import (
	"net/http"

	"github.com/scrabblecast/overlay-system/services"
)

// OverlayHandler - публичные читающие маршруты для браузерных оверлеев.
// Аутентификации нет: оверлеи живут в OBS и токенов не носят.
type OverlayHandler struct {
	overlayService services.OverlayService
}

func NewOverlayHandler(overlayService services.OverlayService) *OverlayHandler {
	return &OverlayHandler{overlayService: overlayService}
}

// Standings отдаёт турнирную таблицу дивизиона. Вариант сортировки
// задаётся query-параметром sort: record (по умолчанию), high_score,
// average_score, rating_gain.
func (h *OverlayHandler) Standings(w http.ResponseWriter, r *http.Request) {
	divisionID, err := urlParamInt(r, "divisionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	table, err := h.overlayService.Standings(r.Context(), divisionID, r.URL.Query().Get("sort"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": table}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *OverlayHandler) Stats(w http.ResponseWriter, r *http.Request) {
	divisionID, err := urlParamInt(r, "divisionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stats, err := h.overlayService.DivisionStats(r.Context(), divisionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"stats": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// TournamentStats - сводка по всем дивизионам турнира.
func (h *OverlayHandler) TournamentStats(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stats, err := h.overlayService.TournamentStats(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"stats": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *OverlayHandler) Games(w http.ResponseWriter, r *http.Request) {
	divisionID, err := urlParamInt(r, "divisionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	games, err := h.overlayService.Games(r.Context(), divisionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"games": games}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
