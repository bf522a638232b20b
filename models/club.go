package models

import "time"

type Club struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	City      *string   `json:"city,omitempty" db:"city"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Виды спорта, по которым у клуба есть лестницы (не мапится напрямую)
	Sports []string `json:"sports,omitempty" db:"-"`
}

// Member связывает пользователя с клубом.
type Member struct {
	UserID   int       `json:"user_id" db:"user_id"`
	ClubID   int       `json:"club_id" db:"club_id"`
	IsAdmin  bool      `json:"is_admin" db:"is_admin"`
	JoinedAt time.Time `json:"joined_at" db:"joined_at"`
}
