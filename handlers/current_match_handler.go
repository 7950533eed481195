package handlers

import (
	"net/http"

	"github.com/scrabblecast/overlay-system/services"
)

type CurrentMatchHandler struct {
	matchService services.CurrentMatchService
}

func NewCurrentMatchHandler(matchService services.CurrentMatchService) *CurrentMatchHandler {
	return &CurrentMatchHandler{matchService: matchService}
}

func (h *CurrentMatchHandler) Set(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(w, r)
	if !ok {
		return
	}

	var input services.SetCurrentMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	cm, err := h.matchService.Set(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"current_match": cm}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Get - публичный: оверлей матча запрашивает текущую пару по id
// пользователя из своего URL.
func (h *CurrentMatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := urlParamInt(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	cm, err := h.matchService.Get(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"current_match": cm}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CurrentMatchHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(w, r)
	if !ok {
		return
	}

	if err := h.matchService.Clear(r.Context(), userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
