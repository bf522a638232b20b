package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/candemet/matchup/models"
)

var ErrLadderNotFound = errors.New("ladder not found")

type LadderRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Ladder, error)
	GetActiveBySport(ctx context.Context, exec SQLExecutor, sportName string) (*models.Ladder, error)
	// LockForSettlement берёт блокировку строки лестницы (SELECT ... FOR UPDATE)
	// и возвращает её k_factor. Сериализует проведения результатов в пределах
	// одной лестницы: пересчёты рангов не перемешиваются.
	LockForSettlement(ctx context.Context, exec SQLExecutor, id int) (kFactor int, err error)
}

type postgresLadderRepository struct {
	db *sql.DB
}

func NewPostgresLadderRepository(db *sql.DB) LadderRepository {
	return &postgresLadderRepository{db: db}
}

func (r *postgresLadderRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const ladderColumns = `id, club_id, sport_id, name, challenge_limit, scheduling_freq_days, k_factor, active, created_at`

func (r *postgresLadderRepository) scanLadder(row *sql.Row) (*models.Ladder, error) {
	var l models.Ladder
	err := row.Scan(
		&l.ID, &l.ClubID, &l.SportID, &l.Name, &l.ChallengeLimit,
		&l.SchedulingFreqDays, &l.KFactor, &l.Active, &l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLadderNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *postgresLadderRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Ladder, error) {
	executor := r.getExecutor(exec)
	row := executor.QueryRowContext(ctx, `SELECT `+ladderColumns+` FROM ladders WHERE id = $1`, id)
	return r.scanLadder(row)
}

func (r *postgresLadderRepository) GetActiveBySport(ctx context.Context, exec SQLExecutor, sportName string) (*models.Ladder, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT l.id, l.club_id, l.sport_id, l.name, l.challenge_limit,
		       l.scheduling_freq_days, l.k_factor, l.active, l.created_at
		FROM ladders l
		         JOIN sports s ON s.id = l.sport_id AND s.name = $1
		WHERE l.active = TRUE
		LIMIT 1`
	row := executor.QueryRowContext(ctx, query, sportName)
	return r.scanLadder(row)
}

func (r *postgresLadderRepository) LockForSettlement(ctx context.Context, exec SQLExecutor, id int) (int, error) {
	executor := r.getExecutor(exec)
	var kFactor int
	err := executor.QueryRowContext(ctx,
		`SELECT k_factor FROM ladders WHERE id = $1 FOR UPDATE`, id,
	).Scan(&kFactor)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrLadderNotFound
		}
		return 0, err
	}
	return kFactor, nil
}
