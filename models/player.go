package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PlayerStatus представляет статус заявки игрока, соответствующий ENUM в БД.
type PlayerStatus string

const (
	PlayerStatusPending  PlayerStatus = "PENDING"
	PlayerStatusApproved PlayerStatus = "APPROVED"
	PlayerStatusRejected PlayerStatus = "REJECTED"
)

func (s PlayerStatus) IsValid() bool {
	switch s {
	case PlayerStatusPending, PlayerStatusApproved, PlayerStatusRejected:
		return true
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// Category - дисциплина турнира (одиночка/пара × пол × ветераны).
type Category string

const (
	CategoryMensSingles          Category = "Mens Singles"
	CategoryWomensSingles        Category = "Womens Singles"
	CategoryMensDoubles          Category = "Mens Doubles"
	CategoryWomensDoubles        Category = "Womens Doubles"
	CategoryMixedDoubles         Category = "Mixed Doubles"
	CategoryVeteranMensSingles   Category = "Veteran Mens Singles"
	CategoryVeteranWomensSingles Category = "Veteran Womens Singles"
	CategoryVeteranMensDoubles   Category = "Veteran Mens Doubles"
	CategoryVeteranWomensDoubles Category = "Veteran Womens Doubles"
	CategoryVeteranMixedDoubles  Category = "Veteran Mixed Doubles"
)

var AllCategories = []Category{
	CategoryMensSingles,
	CategoryWomensSingles,
	CategoryMensDoubles,
	CategoryWomensDoubles,
	CategoryMixedDoubles,
	CategoryVeteranMensSingles,
	CategoryVeteranWomensSingles,
	CategoryVeteranMensDoubles,
	CategoryVeteranWomensDoubles,
	CategoryVeteranMixedDoubles,
}

func (c Category) IsValid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// IsDoubles reports whether both sides of a match in this category are pairs.
func (c Category) IsDoubles() bool {
	return strings.HasSuffix(string(c), "Doubles")
}

func (c Category) IsVeteran() bool {
	return strings.HasPrefix(string(c), "Veteran ")
}

type Player struct {
	ID             uuid.UUID    `json:"id"`
	Name           string       `json:"name"`
	EmployeeNumber string       `json:"employee_number"`
	Location       string       `json:"location"`
	Designation    string       `json:"designation"`
	Age            int          `json:"age"`
	Gender         Gender       `json:"gender"`
	Categories     []Category   `json:"category"`
	Team           *string      `json:"team,omitempty"`
	PhotoURL       *string      `json:"photo_url,omitempty"`
	Phone          string       `json:"phone"`
	Email          *string      `json:"email,omitempty"`
	Status         PlayerStatus `json:"status"`
	RegisteredAt   time.Time    `json:"registered_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// HasCategory reports whether the player entered the given discipline.
func (p *Player) HasCategory(c Category) bool {
	for _, own := range p.Categories {
		if own == c {
			return true
		}
	}
	return false
}
