package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/candemet/matchup/models"
	"github.com/lib/pq"
)

var (
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamLadderInvalid  = errors.New("team ladder conflict or invalid")
	ErrTeamMemberConflict = errors.New("user is already a member of this team")
)

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error)
	ListActive(ctx context.Context, exec SQLExecutor, sportName string) ([]*models.Team, error)
	AddMember(ctx context.Context, exec SQLExecutor, teamID, userID int) error
	HasTeamForSport(ctx context.Context, exec SQLExecutor, userID int, sportName string) (bool, error)
	UpdateRating(ctx context.Context, exec SQLExecutor, teamID, newRating int) error
	// GetRatings читает текущие рейтинги обеих команд матча. При проведении
	// результата вызывается строго после LadderRepository.LockForSettlement:
	// все пишущие рейтинги держат блокировку лестницы, поэтому чтение под ней
	// видит последнюю зафиксированную базу.
	GetRatings(ctx context.Context, exec SQLExecutor, homeTeamID, awayTeamID int) (homeRating, awayRating int, err error)
	// RecomputeLadderRanks пересчитывает плотные ранги 1..N всех активных
	// команд лестницы по убыванию рейтинга; равные рейтинги упорядочиваются
	// по возрастанию id команды. У неактивных команд ранг снимается
	// (rank = NULL). Возвращает число проранжированных команд.
	RecomputeLadderRanks(ctx context.Context, exec SQLExecutor, ladderID int) (int, error)
	ListLadderStandings(ctx context.Context, exec SQLExecutor, ladderID int) ([]*models.Team, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO teams (ladder_id, name)
		VALUES ($1, $2)
		RETURNING id, rating, active, created_at`

	err := executor.QueryRowContext(ctx, query, team.LadderID, team.Name).
		Scan(&team.ID, &team.Rating, &team.Active, &team.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" { // foreign_key_violation
			return ErrTeamLadderInvalid
		}
		return err
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error) {
	executor := r.getExecutor(exec)
	var t models.Team
	err := executor.QueryRowContext(ctx,
		`SELECT id, ladder_id, name, rating, rank, active, created_at FROM teams WHERE id = $1`, id,
	).Scan(&t.ID, &t.LadderID, &t.Name, &t.Rating, &t.Rank, &t.Active, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *postgresTeamRepository) ListActive(ctx context.Context, exec SQLExecutor, sportName string) ([]*models.Team, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT t.id,
		       t.ladder_id,
		       t.name,
		       t.rating,
		       t.rank,
		       t.active,
		       t.created_at,
		       COUNT(tm.user_id) AS member_count
		FROM teams t
		         JOIN ladders l ON l.id = t.ladder_id
		         JOIN sports s ON s.id = l.sport_id AND s.name = $1
		         LEFT JOIN team_members tm ON tm.team_id = t.id
		WHERE t.active = TRUE
		GROUP BY t.id, t.ladder_id, t.name, t.rating, t.rank, t.active, t.created_at
		ORDER BY t.name`

	rows, err := executor.QueryContext(ctx, query, sportName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		var t models.Team
		if scanErr := rows.Scan(
			&t.ID, &t.LadderID, &t.Name, &t.Rating, &t.Rank,
			&t.Active, &t.CreatedAt, &t.MemberCount,
		); scanErr != nil {
			return nil, scanErr
		}
		teams = append(teams, &t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *postgresTeamRepository) AddMember(ctx context.Context, exec SQLExecutor, teamID, userID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx,
		`INSERT INTO team_members (team_id, user_id) VALUES ($1, $2)`, teamID, userID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505": // unique_violation
				return ErrTeamMemberConflict
			case "23503": // foreign_key_violation
				return ErrTeamNotFound
			}
		}
		return err
	}
	return nil
}

func (r *postgresTeamRepository) HasTeamForSport(ctx context.Context, exec SQLExecutor, userID int, sportName string) (bool, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT 1
		FROM team_members tm
		         JOIN teams t ON t.id = tm.team_id
		         JOIN ladders l ON l.id = t.ladder_id
		         JOIN sports s ON s.id = l.sport_id AND s.name = $2
		WHERE tm.user_id = $1`

	var one int
	err := executor.QueryRowContext(ctx, query, userID, sportName).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *postgresTeamRepository) UpdateRating(ctx context.Context, exec SQLExecutor, teamID, newRating int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE teams SET rating = $1 WHERE id = $2`, newRating, teamID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) GetRatings(ctx context.Context, exec SQLExecutor, homeTeamID, awayTeamID int) (int, int, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx,
		`SELECT id, rating FROM teams WHERE id = ANY($1)`,
		pq.Array([]int{homeTeamID, awayTeamID}))
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()

	found := make(map[int]int, 2)
	for rows.Next() {
		var id, rating int
		if scanErr := rows.Scan(&id, &rating); scanErr != nil {
			return 0, 0, scanErr
		}
		found[id] = rating
	}
	if err = rows.Err(); err != nil {
		return 0, 0, err
	}

	homeRating, ok := found[homeTeamID]
	if !ok {
		return 0, 0, ErrTeamNotFound
	}
	awayRating, ok := found[awayTeamID]
	if !ok {
		return 0, 0, ErrTeamNotFound
	}
	return homeRating, awayRating, nil
}

func (r *postgresTeamRepository) RecomputeLadderRanks(ctx context.Context, exec SQLExecutor, ladderID int) (int, error) {
	executor := r.getExecutor(exec)

	// Команда, выбывшая из лестницы, теряет ранг.
	if _, err := executor.ExecContext(ctx,
		`UPDATE teams SET rank = NULL WHERE ladder_id = $1 AND active = FALSE AND rank IS NOT NULL`,
		ladderID,
	); err != nil {
		return 0, err
	}

	query := `
		WITH ranked AS (
		    SELECT id, ROW_NUMBER() OVER (ORDER BY rating DESC, id ASC) AS new_rank
		    FROM   teams
		    WHERE  ladder_id = $1 AND active = TRUE
		)
		UPDATE teams t
		SET    rank = r.new_rank
		FROM   ranked r
		WHERE  t.id = r.id`

	result, err := executor.ExecContext(ctx, query, ladderID)
	if err != nil {
		return 0, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rowsAffected), nil
}

func (r *postgresTeamRepository) ListLadderStandings(ctx context.Context, exec SQLExecutor, ladderID int) ([]*models.Team, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, ladder_id, name, rating, rank, active, created_at
		FROM teams
		WHERE ladder_id = $1 AND active = TRUE
		ORDER BY rank ASC NULLS LAST, rating DESC, id ASC`

	rows, err := executor.QueryContext(ctx, query, ladderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		var t models.Team
		if scanErr := rows.Scan(
			&t.ID, &t.LadderID, &t.Name, &t.Rating, &t.Rank, &t.Active, &t.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		teams = append(teams, &t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}
