package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/candemet/matchup/models"
	"github.com/candemet/matchup/repositories"
)

// PadelSport — лестницы MatchUp пока существуют только для падела.
const PadelSport = "padel"

// minRatedMembers: рейтинг команды скрывается, пока состав не укомплектован.
const minRatedMembers = 2

type TeamService interface {
	List(ctx context.Context) ([]*TeamSummary, error)
	Create(ctx context.Context, userID int, teamName string) (*models.Team, error)
}

// TeamSummary — публичное представление команды в общем списке.
// Рейтинг скрыт (nil), пока в команде меньше двух игроков.
type TeamSummary struct {
	TeamID      int    `json:"team_id"`
	TeamName    string `json:"team_name"`
	TeamRating  *int   `json:"team_rating"`
	Rank        *int   `json:"rank,omitempty"`
	MemberCount int    `json:"member_count"`
}

type teamService struct {
	txm        repositories.TxManager
	teamRepo   repositories.TeamRepository
	ladderRepo repositories.LadderRepository
}

func NewTeamService(
	txm repositories.TxManager,
	teamRepo repositories.TeamRepository,
	ladderRepo repositories.LadderRepository,
) TeamService {
	return &teamService{
		txm:        txm,
		teamRepo:   teamRepo,
		ladderRepo: ladderRepo,
	}
}

func (s *teamService) List(ctx context.Context) ([]*TeamSummary, error) {
	teams, err := s.teamRepo.ListActive(ctx, nil, PadelSport)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}

	summaries := make([]*TeamSummary, 0, len(teams))
	for _, team := range teams {
		summary := &TeamSummary{
			TeamID:      team.ID,
			TeamName:    team.Name,
			MemberCount: team.MemberCount,
		}
		// Рейтинг и ранг неукомплектованной команды не показываются.
		if team.MemberCount >= minRatedMembers {
			rating := team.Rating
			summary.TeamRating = &rating
			summary.Rank = team.Rank
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *teamService) Create(ctx context.Context, userID int, teamName string) (*models.Team, error) {
	teamName = strings.TrimSpace(teamName)
	if teamName == "" {
		return nil, ErrTeamNameRequired
	}

	var team *models.Team
	err := s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		alreadyInTeam, err := s.teamRepo.HasTeamForSport(ctx, exec, userID, PadelSport)
		if err != nil {
			return fmt.Errorf("failed to check existing team membership: %w", err)
		}
		if alreadyInTeam {
			return ErrUserAlreadyInTeam
		}

		ladder, err := s.ladderRepo.GetActiveBySport(ctx, exec, PadelSport)
		if err != nil {
			if errors.Is(err, repositories.ErrLadderNotFound) {
				return ErrNoActiveLadder
			}
			return fmt.Errorf("failed to find active ladder: %w", err)
		}

		team = &models.Team{
			LadderID: ladder.ID,
			Name:     teamName,
		}
		if err := s.teamRepo.Create(ctx, exec, team); err != nil {
			return fmt.Errorf("failed to create team: %w", err)
		}
		if err := s.teamRepo.AddMember(ctx, exec, team.ID, userID); err != nil {
			return fmt.Errorf("failed to add creator to team %d: %w", team.ID, err)
		}
		team.MemberCount = 1
		return nil
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}
