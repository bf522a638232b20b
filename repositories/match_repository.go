package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/candemet/matchup/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchTeamInvalid   = errors.New("match team conflict or invalid")
	ErrMatchLadderInvalid = errors.New("match ladder conflict or invalid")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	ListByLadder(ctx context.Context, exec SQLExecutor, ladderID int, status *models.MatchStatus) ([]*models.Match, error)
	// GetForSettlement читает и блокирует строку матча. Возвращает
	// ErrMatchNotFound, если матч отсутствует либо уже в терминальном
	// статусе: для вызывающего это неразличимо, ему важно лишь "провести
	// нельзя". Рейтинги команд здесь намеренно не читаются — их берут
	// после блокировки лестницы, см. TeamRepository.GetRatings.
	GetForSettlement(ctx context.Context, exec SQLExecutor, id int) (*models.MatchSnapshot, error)
	// CompleteMatch переводит матч в completed при условии, что он всё ещё
	// settleable. Ноль затронутых строк означает, что конкурирующее
	// проведение успело первым — возвращается ErrMatchNotFound.
	CompleteMatch(ctx context.Context, exec SQLExecutor, id, winnerTeamID int, scoreHome, scoreAway *string, reportedBy int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, ladder_id, home_team_id, away_team_id, scheduled_at, status, winner_team_id, score_home, score_away, reported_by, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches (ladder_id, home_team_id, away_team_id, scheduled_at, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		match.LadderID,
		match.HomeTeamID,
		match.AwayTeamID,
		match.ScheduledAt,
		match.Status,
	).Scan(&match.ID, &match.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" { // foreign_key_violation
			switch pqErr.Constraint {
			case "matches_ladder_id_fkey":
				return ErrMatchLadderInvalid
			default:
				return ErrMatchTeamInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	executor := r.getExecutor(exec)
	match := &models.Match{}
	err := executor.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE id = $1`, id,
	).Scan(
		&match.ID,
		&match.LadderID,
		&match.HomeTeamID,
		&match.AwayTeamID,
		&match.ScheduledAt,
		&match.Status,
		&match.WinnerTeamID,
		&match.ScoreHome,
		&match.ScoreAway,
		&match.ReportedBy,
		&match.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByLadder(ctx context.Context, exec SQLExecutor, ladderID int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM matches WHERE ladder_id = $1`
	args := []interface{}{ladderID}

	if statusFilter != nil {
		query += ` AND status = $2`
		args = append(args, *statusFilter)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var match models.Match
		if scanErr := rows.Scan(
			&match.ID,
			&match.LadderID,
			&match.HomeTeamID,
			&match.AwayTeamID,
			&match.ScheduledAt,
			&match.Status,
			&match.WinnerTeamID,
			&match.ScoreHome,
			&match.ScoreAway,
			&match.ReportedBy,
			&match.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, &match)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) GetForSettlement(ctx context.Context, exec SQLExecutor, id int) (*models.MatchSnapshot, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, ladder_id, home_team_id, away_team_id, status
		FROM   matches
		WHERE  id = $1 AND status IN ('pending', 'confirmed')
		FOR UPDATE`

	var s models.MatchSnapshot
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&s.MatchID, &s.LadderID, &s.HomeTeamID, &s.AwayTeamID, &s.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresMatchRepository) CompleteMatch(ctx context.Context, exec SQLExecutor, id, winnerTeamID int, scoreHome, scoreAway *string, reportedBy int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches
		SET status = 'completed', winner_team_id = $1, score_home = $2, score_away = $3, reported_by = $4
		WHERE id = $5 AND status IN ('pending', 'confirmed')`

	result, err := executor.ExecContext(ctx, query, winnerTeamID, scoreHome, scoreAway, reportedBy, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}
