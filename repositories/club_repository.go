package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/candemet/matchup/models"
	"github.com/lib/pq"
)

var (
	ErrClubNotFound        = errors.New("club not found")
	ErrMemberAlreadyInClub = errors.New("user is already a member of a club")
	ErrMemberNotInClub     = errors.New("user is not a member of a club")
)

type ClubRepository interface {
	List(ctx context.Context, exec SQLExecutor) ([]*models.Club, error)
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Club, error)
	GetMembership(ctx context.Context, exec SQLExecutor, userID int) (*models.Member, error)
	AddMember(ctx context.Context, exec SQLExecutor, userID, clubID int) error
	RemoveMember(ctx context.Context, exec SQLExecutor, userID int) error
}

type postgresClubRepository struct {
	db *sql.DB
}

func NewPostgresClubRepository(db *sql.DB) ClubRepository {
	return &postgresClubRepository{db: db}
}

func (r *postgresClubRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresClubRepository) List(ctx context.Context, exec SQLExecutor) ([]*models.Club, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT c.id,
		       c.name,
		       c.city,
		       c.created_at,
		       ARRAY_AGG(DISTINCT s.name) FILTER (WHERE s.name IS NOT NULL) AS sports
		FROM clubs c
		         LEFT JOIN ladders l ON l.club_id = c.id
		         LEFT JOIN sports s ON s.id = l.sport_id
		GROUP BY c.id, c.name, c.city, c.created_at
		ORDER BY c.name`

	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clubs := make([]*models.Club, 0)
	for rows.Next() {
		var c models.Club
		if scanErr := rows.Scan(&c.ID, &c.Name, &c.City, &c.CreatedAt, pq.Array(&c.Sports)); scanErr != nil {
			return nil, scanErr
		}
		clubs = append(clubs, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return clubs, nil
}

func (r *postgresClubRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Club, error) {
	executor := r.getExecutor(exec)
	var c models.Club
	err := executor.QueryRowContext(ctx,
		`SELECT id, name, city, created_at FROM clubs WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.City, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClubNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *postgresClubRepository) GetMembership(ctx context.Context, exec SQLExecutor, userID int) (*models.Member, error) {
	executor := r.getExecutor(exec)
	var m models.Member
	err := executor.QueryRowContext(ctx,
		`SELECT user_id, club_id, is_admin, joined_at FROM members WHERE user_id = $1`, userID,
	).Scan(&m.UserID, &m.ClubID, &m.IsAdmin, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotInClub
		}
		return nil, err
	}
	return &m, nil
}

func (r *postgresClubRepository) AddMember(ctx context.Context, exec SQLExecutor, userID, clubID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx,
		`INSERT INTO members (user_id, club_id) VALUES ($1, $2)`, userID, clubID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505": // unique_violation
				return ErrMemberAlreadyInClub
			case "23503": // foreign_key_violation
				return ErrClubNotFound
			}
		}
		return err
	}
	return nil
}

func (r *postgresClubRepository) RemoveMember(ctx context.Context, exec SQLExecutor, userID int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM members WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMemberNotInClub)
}
