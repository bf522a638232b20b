package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/candemet/matchup/models"
	"github.com/candemet/matchup/repositories"
	"golang.org/x/sync/errgroup"
)

type StandingsService interface {
	LadderStandings(ctx context.Context, ladderID int) ([]*models.Team, error)
	// LadderOverview собирает таблицу лестницы и последние завершённые матчи
	// параллельно.
	LadderOverview(ctx context.Context, ladderID int) (*LadderOverview, error)
}

type LadderOverview struct {
	Ladder    *models.Ladder  `json:"ladder"`
	Standings []*models.Team  `json:"standings"`
	Completed []*models.Match `json:"completed_matches"`
}

type standingsService struct {
	teamRepo   repositories.TeamRepository
	matchRepo  repositories.MatchRepository
	ladderRepo repositories.LadderRepository
}

func NewStandingsService(
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	ladderRepo repositories.LadderRepository,
) StandingsService {
	return &standingsService{
		teamRepo:   teamRepo,
		matchRepo:  matchRepo,
		ladderRepo: ladderRepo,
	}
}

func (s *standingsService) LadderStandings(ctx context.Context, ladderID int) ([]*models.Team, error) {
	if _, err := s.ladderRepo.GetByID(ctx, nil, ladderID); err != nil {
		if errors.Is(err, repositories.ErrLadderNotFound) {
			return nil, ErrLadderNotFound
		}
		return nil, fmt.Errorf("failed to load ladder %d: %w", ladderID, err)
	}
	standings, err := s.teamRepo.ListLadderStandings(ctx, nil, ladderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings for ladder %d: %w", ladderID, err)
	}
	return standings, nil
}

func (s *standingsService) LadderOverview(ctx context.Context, ladderID int) (*LadderOverview, error) {
	ladder, err := s.ladderRepo.GetByID(ctx, nil, ladderID)
	if err != nil {
		if errors.Is(err, repositories.ErrLadderNotFound) {
			return nil, ErrLadderNotFound
		}
		return nil, fmt.Errorf("failed to load ladder %d: %w", ladderID, err)
	}

	overview := &LadderOverview{Ladder: ladder}
	completedStatus := models.MatchStatusCompleted

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		standings, err := s.teamRepo.ListLadderStandings(gCtx, nil, ladderID)
		if err != nil {
			return fmt.Errorf("failed to list standings for ladder %d: %w", ladderID, err)
		}
		overview.Standings = standings
		return nil
	})
	g.Go(func() error {
		completed, err := s.matchRepo.ListByLadder(gCtx, nil, ladderID, &completedStatus)
		if err != nil {
			return fmt.Errorf("failed to list completed matches for ladder %d: %w", ladderID, err)
		}
		overview.Completed = completed
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return overview, nil
}
