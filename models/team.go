package models

import "time"

type Team struct {
	ID        int       `json:"id" db:"id"`
	LadderID  int       `json:"ladder_id" db:"ladder_id"`
	Name      string    `json:"name" db:"name"`
	Rating    int       `json:"rating" db:"rating"`
	Rank      *int      `json:"rank,omitempty" db:"rank"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Members     []User `json:"members,omitempty" db:"-"`
	MemberCount int    `json:"member_count" db:"-"`
}
