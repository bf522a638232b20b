package handlers

import (
	"net/http"

	"github.com/candemet/matchup/middleware"
	"github.com/candemet/matchup/models"
	"github.com/candemet/matchup/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

func (h *MatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.GetUserIDFromContext(r.Context()); err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.CreateChallengeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.LadderID <= 0 || input.HomeTeamID <= 0 || input.AwayTeamID <= 0 {
		badRequestResponse(w, r, errNotPositive("ladder_id, home_team_id and away_team_id"))
		return
	}

	match, err := h.matchService.CreateChallenge(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) ListByLadder(w http.ResponseWriter, r *http.Request) {
	ladderID, err := getIDFromURL(r, "ladderID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var statusFilter *models.MatchStatus
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		status := models.MatchStatus(statusStr)
		statusFilter = &status
	}

	matches, err := h.matchService.ListByLadder(r.Context(), ladderID, statusFilter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ReportResult принимает результат матча и запускает его проведение:
// статус, рейтинги и ранги лестницы меняются одной транзакцией.
func (h *MatchHandler) ReportResult(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.ReportResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.ReportedBy = userID

	result, err := h.matchService.ReportResult(r.Context(), matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"message": "match result recorded",
		"result":  result,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
