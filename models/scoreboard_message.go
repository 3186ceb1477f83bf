package models

import "encoding/json"

// Типы сообщений websocket-канала табло.
const (
	MessageSnapshot    = "snapshot"
	MessageMatchChange = "match_change"
	MessageViewers     = "viewers"
)

// ScoreboardMessage is the envelope of every message on the scoreboard websocket.
type ScoreboardMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	RoomID  string      `json:"room_id,omitempty"`
}

// RawScoreboardMessage is the decoding side of ScoreboardMessage.
type RawScoreboardMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	RoomID  string          `json:"room_id,omitempty"`
}

type ViewerCount struct {
	Count int `json:"count"`
}
