package models

import "time"

// UserSport и UserSkillLevel соответствуют CHECK-ограничениям в БД.
type UserSport string

const (
	SportTennis UserSport = "tennis"
	SportPadel  UserSport = "padel"
	SportBoth   UserSport = "both"
)

type UserSkillLevel string

const (
	SkillBeginner     UserSkillLevel = "beginner"
	SkillIntermediate UserSkillLevel = "intermediate"
	SkillAdvanced     UserSkillLevel = "advanced"
	SkillCompetitive  UserSkillLevel = "competitive"
	SkillProfessional UserSkillLevel = "professional"
)

type User struct {
	ID           int            `json:"id" db:"id"`
	FirstName    string         `json:"first_name" db:"first_name"`
	LastName     string         `json:"last_name" db:"last_name"`
	Email        string         `json:"email" db:"email"`
	Age          int            `json:"age" db:"age"`
	Sport        UserSport      `json:"sport" db:"sport"`
	SkillLevel   UserSkillLevel `json:"skill_level" db:"skill_level"`
	Club         string         `json:"club" db:"club"`
	PasswordHash string         `json:"-" db:"password_hash"`
	IsAdmin      bool           `json:"is_admin" db:"is_admin"`
	Elo          int            `json:"elo" db:"elo"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}
