package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/candemet/matchup/metrics"
	"github.com/candemet/matchup/models"
	"github.com/candemet/matchup/ratings"
	"github.com/candemet/matchup/repositories"
)

type MatchService interface {
	CreateChallenge(ctx context.Context, input CreateChallengeInput) (*models.Match, error)
	ListByLadder(ctx context.Context, ladderID int, status *models.MatchStatus) ([]*models.Match, error)
	// ReportResult проводит результат матча: валидирует победителя,
	// переводит матч в completed, пересчитывает рейтинги обеих команд и
	// ранги всей лестницы — всё в одной транзакции.
	ReportResult(ctx context.Context, matchID int, input ReportResultInput) (*SettlementResult, error)
}

type CreateChallengeInput struct {
	LadderID    int        `json:"ladder_id"`
	HomeTeamID  int        `json:"home_team_id"`
	AwayTeamID  int        `json:"away_team_id"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

type ReportResultInput struct {
	WinnerTeamID int     `json:"winner_team_id"`
	ScoreHome    *string `json:"score_home,omitempty"`
	ScoreAway    *string `json:"score_away,omitempty"`
	ReportedBy   int     `json:"-"`
}

// SettlementResult описывает эффект успешного проведения результата.
type SettlementResult struct {
	MatchID         int `json:"match_id"`
	LadderID        int `json:"ladder_id"`
	WinnerTeamID    int `json:"winner_team_id"`
	LoserTeamID     int `json:"loser_team_id"`
	NewWinnerRating int `json:"new_winner_rating"`
	NewLoserRating  int `json:"new_loser_rating"`
	RankedTeams     int `json:"ranked_teams"`
}

// LadderNotifier получает итог проведения после коммита транзакции.
type LadderNotifier interface {
	SettlementCompleted(ctx context.Context, result *SettlementResult)
}

type matchService struct {
	txm        repositories.TxManager
	matchRepo  repositories.MatchRepository
	teamRepo   repositories.TeamRepository
	ladderRepo repositories.LadderRepository
	notifier   LadderNotifier
	recorder   metrics.Recorder
	logger     *slog.Logger
}

func NewMatchService(
	txm repositories.TxManager,
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	ladderRepo repositories.LadderRepository,
	notifier LadderNotifier,
	recorder metrics.Recorder,
	logger *slog.Logger,
) MatchService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &matchService{
		txm:        txm,
		matchRepo:  matchRepo,
		teamRepo:   teamRepo,
		ladderRepo: ladderRepo,
		notifier:   notifier,
		recorder:   recorder,
		logger:     logger,
	}
}

func (s *matchService) CreateChallenge(ctx context.Context, input CreateChallengeInput) (*models.Match, error) {
	if input.HomeTeamID == input.AwayTeamID {
		return nil, ErrSameTeam
	}

	home, err := s.teamRepo.GetByID(ctx, nil, input.HomeTeamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to load home team %d: %w", input.HomeTeamID, err)
	}
	away, err := s.teamRepo.GetByID(ctx, nil, input.AwayTeamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to load away team %d: %w", input.AwayTeamID, err)
	}

	if home.LadderID != input.LadderID || away.LadderID != input.LadderID {
		return nil, ErrTeamsLadderMismatch
	}

	match := &models.Match{
		LadderID:    input.LadderID,
		HomeTeamID:  input.HomeTeamID,
		AwayTeamID:  input.AwayTeamID,
		ScheduledAt: input.ScheduledAt,
		Status:      models.MatchStatusPending,
	}
	if err := s.matchRepo.Create(ctx, nil, match); err != nil {
		if errors.Is(err, repositories.ErrMatchLadderInvalid) {
			return nil, ErrLadderNotFound
		}
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	return match, nil
}

func (s *matchService) ListByLadder(ctx context.Context, ladderID int, status *models.MatchStatus) ([]*models.Match, error) {
	if _, err := s.ladderRepo.GetByID(ctx, nil, ladderID); err != nil {
		if errors.Is(err, repositories.ErrLadderNotFound) {
			return nil, ErrLadderNotFound
		}
		return nil, fmt.Errorf("failed to load ladder %d: %w", ladderID, err)
	}
	matches, err := s.matchRepo.ListByLadder(ctx, nil, ladderID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for ladder %d: %w", ladderID, err)
	}
	return matches, nil
}

func (s *matchService) ReportResult(ctx context.Context, matchID int, input ReportResultInput) (*SettlementResult, error) {
	if input.WinnerTeamID <= 0 {
		return nil, ErrWinnerRequired
	}

	start := time.Now()
	var result *SettlementResult

	err := s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		snapshot, err := s.matchRepo.GetForSettlement(ctx, exec, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotSettleable
			}
			return fmt.Errorf("failed to load match %d for settlement: %w", matchID, err)
		}

		if input.WinnerTeamID != snapshot.HomeTeamID && input.WinnerTeamID != snapshot.AwayTeamID {
			return ErrInvalidWinner
		}

		// Блокировка лестницы: проведения в пределах одной лестницы строго
		// последовательны. Рейтинги читаются только после её взятия — иначе
		// конкурирующее проведение посчитало бы дельту от устаревшей базы
		// и затёрло чужое обновление.
		kFactor, err := s.ladderRepo.LockForSettlement(ctx, exec, snapshot.LadderID)
		if err != nil {
			return fmt.Errorf("failed to lock ladder %d: %w", snapshot.LadderID, err)
		}

		homeRating, awayRating, err := s.teamRepo.GetRatings(ctx, exec, snapshot.HomeTeamID, snapshot.AwayTeamID)
		if err != nil {
			return fmt.Errorf("failed to load team ratings for match %d: %w", matchID, err)
		}

		if err := s.matchRepo.CompleteMatch(ctx, exec, matchID, input.WinnerTeamID, input.ScoreHome, input.ScoreAway, input.ReportedBy); err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				// Конкурирующее проведение успело первым.
				return ErrMatchNotSettleable
			}
			return fmt.Errorf("failed to complete match %d: %w", matchID, err)
		}

		winnerRating, loserRating := homeRating, awayRating
		loserTeamID := snapshot.AwayTeamID
		if input.WinnerTeamID == snapshot.AwayTeamID {
			winnerRating, loserRating = awayRating, homeRating
			loserTeamID = snapshot.HomeTeamID
		}

		newWinnerRating, newLoserRating := ratings.Apply(winnerRating, loserRating, kFactor)

		if err := s.teamRepo.UpdateRating(ctx, exec, input.WinnerTeamID, newWinnerRating); err != nil {
			return fmt.Errorf("failed to update winner rating: %w", err)
		}
		if err := s.teamRepo.UpdateRating(ctx, exec, loserTeamID, newLoserRating); err != nil {
			return fmt.Errorf("failed to update loser rating: %w", err)
		}

		rankedTeams, err := s.teamRepo.RecomputeLadderRanks(ctx, exec, snapshot.LadderID)
		if err != nil {
			return fmt.Errorf("failed to recompute ranks for ladder %d: %w", snapshot.LadderID, err)
		}
		if rankedTeams <= 0 {
			return fmt.Errorf("%w: rank recompute touched no teams in ladder %d",
				ErrInvariantViolation, snapshot.LadderID)
		}

		result = &SettlementResult{
			MatchID:         matchID,
			LadderID:        snapshot.LadderID,
			WinnerTeamID:    input.WinnerTeamID,
			LoserTeamID:     loserTeamID,
			NewWinnerRating: newWinnerRating,
			NewLoserRating:  newLoserRating,
			RankedTeams:     rankedTeams,
		}
		return nil
	})

	if err != nil {
		s.recorder.IncSettlementsRejected()
		if errors.Is(err, ErrInvariantViolation) {
			s.logger.Error("settlement aborted on invariant violation",
				slog.Int("match_id", matchID), slog.Any("error", err))
		}
		return nil, err
	}

	s.recorder.IncSettlementsCompleted()
	s.recorder.ObserveSettlementDuration(time.Since(start).Seconds())
	s.logger.Info("match settled",
		slog.Int("match_id", result.MatchID),
		slog.Int("ladder_id", result.LadderID),
		slog.Int("winner_team_id", result.WinnerTeamID),
		slog.Int("new_winner_rating", result.NewWinnerRating),
		slog.Int("new_loser_rating", result.NewLoserRating),
	)

	if s.notifier != nil {
		s.notifier.SettlementCompleted(ctx, result)
	}
	return result, nil
}
