package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed    = errors.New("validation failed")
	ErrTeamNameRequired    = errors.New("team name is required")
	ErrUserAlreadyInTeam   = errors.New("user is already in a team for this sport")
	ErrNoActiveLadder      = errors.New("no active ladder found for this sport")
	ErrSameTeam            = errors.New("a match requires two distinct teams")
	ErrTeamsLadderMismatch = errors.New("both teams must belong to the same ladder")
	ErrWinnerRequired      = errors.New("winner_team_id is required")
	ErrInvalidWinner       = errors.New("winner must be one of the match's two teams")

	// Матч нельзя провести: отсутствует, уже завершён или в терминальном
	// статусе. Конкурирующее проведение, успевшее первым, выглядит так же.
	ErrMatchNotSettleable = errors.New("match not found or no longer settleable")

	// Нарушение инварианта ядра: транзакция откатывается целиком,
	// вызывающему детали не раскрываются.
	ErrInvariantViolation = errors.New("settlement invariant violation")

	// Ошибки конфликтов
	ErrClubAlreadyJoined = errors.New("user is already a member of a club")
	ErrClubNotJoined     = errors.New("user is not a member of a club")

	// Ошибки аутентификации
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")

	// Ошибки, специфичные для сущностей
	ErrClubNotFound   = errors.New("club not found")
	ErrTeamNotFound   = errors.New("team not found")
	ErrLadderNotFound = errors.New("ladder not found")
)
