package models

import (
	"time"

	"github.com/google/uuid"
)

type WinnerPosition string

const (
	PositionWinner   WinnerPosition = "winner"
	PositionRunnerUp WinnerPosition = "runner_up"
)

func (p WinnerPosition) IsValid() bool {
	return p == PositionWinner || p == PositionRunnerUp
}

// TournamentWinner - объявленный чемпион категории. Не привязан к конкретному матчу;
// на пару (category, position) приходится не более одной записи.
type TournamentWinner struct {
	ID        uuid.UUID      `json:"id"`
	PlayerID  uuid.UUID      `json:"player_id"`
	PartnerID *uuid.UUID     `json:"partner_id,omitempty"`
	Category  Category       `json:"category"`
	Position  WinnerPosition `json:"position"`
	AwardedAt time.Time      `json:"awarded_at"`

	Player  *Player `json:"player,omitempty"`
	Partner *Player `json:"partner,omitempty"`
}
