package models

import "time"

// MatchStatus представляет статусы матча, соответствующие CHECK в БД.
type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusConfirmed MatchStatus = "confirmed"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusDeclined  MatchStatus = "declined"
	MatchStatusDisputed  MatchStatus = "disputed"
)

// Settleable reports whether a result may still be recorded for this status.
// completed, declined and disputed are terminal for settlement.
func (s MatchStatus) Settleable() bool {
	return s == MatchStatusPending || s == MatchStatusConfirmed
}

type Match struct {
	ID           int         `json:"id" db:"id"`
	LadderID     int         `json:"ladder_id" db:"ladder_id"`
	HomeTeamID   int         `json:"home_team_id" db:"home_team_id"`
	AwayTeamID   int         `json:"away_team_id" db:"away_team_id"`
	ScheduledAt  *time.Time  `json:"scheduled_at,omitempty" db:"scheduled_at"`
	Status       MatchStatus `json:"status" db:"status"`
	WinnerTeamID *int        `json:"winner_team_id,omitempty" db:"winner_team_id"`
	ScoreHome    *string     `json:"score_home,omitempty" db:"score_home"`
	ScoreAway    *string     `json:"score_away,omitempty" db:"score_away"`
	ReportedBy   *int        `json:"reported_by,omitempty" db:"reported_by"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

// MatchSnapshot содержит данные матча, прочитанные с блокировкой его строки
// при проведении результата. Рейтинги команд сюда не входят: они читаются
// отдельно, уже под блокировкой лестницы.
type MatchSnapshot struct {
	MatchID    int
	LadderID   int
	HomeTeamID int
	AwayTeamID int
	Status     MatchStatus
}
