package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/candemet/matchup/middleware"
	"github.com/candemet/matchup/models"
	"github.com/candemet/matchup/services"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMatchService struct {
	createMatch *models.Match
	createErr   error

	matches []*models.Match
	listErr error

	result    *services.SettlementResult
	reportErr error

	gotMatchID int
	gotInput   services.ReportResultInput
	gotStatus  *models.MatchStatus
}

func (s *stubMatchService) CreateChallenge(ctx context.Context, input services.CreateChallengeInput) (*models.Match, error) {
	return s.createMatch, s.createErr
}

func (s *stubMatchService) ListByLadder(ctx context.Context, ladderID int, status *models.MatchStatus) ([]*models.Match, error) {
	s.gotStatus = status
	return s.matches, s.listErr
}

func (s *stubMatchService) ReportResult(ctx context.Context, matchID int, input services.ReportResultInput) (*services.SettlementResult, error) {
	s.gotMatchID = matchID
	s.gotInput = input
	if s.reportErr != nil {
		return nil, s.reportErr
	}
	return s.result, nil
}

func newMatchTestRouter(svc services.MatchService, userID int) http.Handler {
	handler := NewMatchHandler(svc)
	router := chi.NewRouter()
	if userID > 0 {
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				claims := jwt.MapClaims{"user_id": float64(userID)}
				next.ServeHTTP(w, r.WithContext(middleware.ContextWithClaims(r.Context(), claims)))
			})
		})
	}
	router.Post("/matches", handler.Create)
	router.Post("/matches/{matchID}/result", handler.ReportResult)
	router.Get("/ladders/{ladderID}/matches", handler.ListByLadder)
	return router
}

func TestMatchHandler_ReportResult_Success(t *testing.T) {
	svc := &stubMatchService{
		result: &services.SettlementResult{
			MatchID:         100,
			LadderID:        1,
			WinnerTeamID:    10,
			LoserTeamID:     20,
			NewWinnerRating: 1216,
			NewLoserRating:  1184,
			RankedTeams:     3,
		},
	}
	router := newMatchTestRouter(svc, 7)

	body := `{"winner_team_id": 10, "score_home": "6-3", "score_away": "4-6"}`
	req := httptest.NewRequest(http.MethodPost, "/matches/100/result", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 100, svc.gotMatchID)
	assert.Equal(t, 10, svc.gotInput.WinnerTeamID)
	assert.Equal(t, 7, svc.gotInput.ReportedBy, "reported_by должен браться из токена, не из тела")
	assert.Contains(t, rec.Body.String(), `"new_winner_rating": 1216`)
	assert.Contains(t, rec.Body.String(), `"new_loser_rating": 1184`)
}

func TestMatchHandler_ReportResult_NotSettleable(t *testing.T) {
	svc := &stubMatchService{reportErr: services.ErrMatchNotSettleable}
	router := newMatchTestRouter(svc, 7)

	req := httptest.NewRequest(http.MethodPost, "/matches/100/result", strings.NewReader(`{"winner_team_id": 10}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMatchHandler_ReportResult_InvalidWinner(t *testing.T) {
	svc := &stubMatchService{reportErr: services.ErrInvalidWinner}
	router := newMatchTestRouter(svc, 7)

	req := httptest.NewRequest(http.MethodPost, "/matches/100/result", strings.NewReader(`{"winner_team_id": 99}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMatchHandler_ReportResult_MalformedBody(t *testing.T) {
	svc := &stubMatchService{}
	router := newMatchTestRouter(svc, 7)

	req := httptest.NewRequest(http.MethodPost, "/matches/100/result", strings.NewReader(`{"winner_team_id":`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.gotMatchID, "сервис не должен вызываться при невалидном теле")
}

func TestMatchHandler_ReportResult_NoAuth(t *testing.T) {
	svc := &stubMatchService{}
	router := newMatchTestRouter(svc, 0)

	req := httptest.NewRequest(http.MethodPost, "/matches/100/result", strings.NewReader(`{"winner_team_id": 10}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMatchHandler_ReportResult_BadMatchID(t *testing.T) {
	svc := &stubMatchService{}
	router := newMatchTestRouter(svc, 7)

	req := httptest.NewRequest(http.MethodPost, "/matches/abc/result", strings.NewReader(`{"winner_team_id": 10}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMatchHandler_Create_Validation(t *testing.T) {
	svc := &stubMatchService{}
	router := newMatchTestRouter(svc, 7)

	req := httptest.NewRequest(http.MethodPost, "/matches",
		strings.NewReader(`{"ladder_id": 1, "home_team_id": 0, "away_team_id": 20}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMatchHandler_Create_Success(t *testing.T) {
	svc := &stubMatchService{
		createMatch: &models.Match{ID: 5, LadderID: 1, HomeTeamID: 10, AwayTeamID: 20, Status: models.MatchStatusPending},
	}
	router := newMatchTestRouter(svc, 7)

	req := httptest.NewRequest(http.MethodPost, "/matches",
		strings.NewReader(`{"ladder_id": 1, "home_team_id": 10, "away_team_id": 20}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status": "pending"`)
}

func TestMatchHandler_ListByLadder_StatusFilter(t *testing.T) {
	svc := &stubMatchService{matches: []*models.Match{}}
	router := newMatchTestRouter(svc, 0)

	req := httptest.NewRequest(http.MethodGet, "/ladders/1/matches?status=completed", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.gotStatus)
	assert.Equal(t, models.MatchStatusCompleted, *svc.gotStatus)
}
