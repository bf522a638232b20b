package handlers

import (
	"net/http"

	"github.com/candemet/matchup/services"
)

type LadderHandler struct {
	standingsService services.StandingsService
}

func NewLadderHandler(standingsService services.StandingsService) *LadderHandler {
	return &LadderHandler{standingsService: standingsService}
}

func (h *LadderHandler) Standings(w http.ResponseWriter, r *http.Request) {
	ladderID, err := getIDFromURL(r, "ladderID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.standingsService.LadderStandings(r.Context(), ladderID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LadderHandler) Overview(w http.ResponseWriter, r *http.Request) {
	ladderID, err := getIDFromURL(r, "ladderID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	overview, err := h.standingsService.LadderOverview(r.Context(), ladderID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"overview": overview}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
