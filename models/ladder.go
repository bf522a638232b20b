package models

import "time"

// Ladder представляет рейтинговую лестницу клуба по одному виду спорта.
type Ladder struct {
	ID                 int       `json:"id" db:"id"`
	ClubID             int       `json:"club_id" db:"club_id"`
	SportID            int       `json:"sport_id" db:"sport_id"`
	Name               string    `json:"name" db:"name"`
	ChallengeLimit     int       `json:"challenge_limit" db:"challenge_limit"`
	SchedulingFreqDays int       `json:"scheduling_freq_days" db:"scheduling_freq_days"`
	KFactor            int       `json:"k_factor" db:"k_factor"`
	Active             bool      `json:"active" db:"active"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`

	Sport *Sport `json:"sport,omitempty" db:"-"`
}
