package models

// DashboardStats - сводка для админ-панели турнира.
type DashboardStats struct {
	PlayersTotal     int `json:"players_total"`
	PlayersPending   int `json:"players_pending"`
	PlayersApproved  int `json:"players_approved"`
	PlayersRejected  int `json:"players_rejected"`
	MatchesTotal     int `json:"matches_total"`
	MatchesUpcoming  int `json:"matches_upcoming"`
	MatchesLive      int `json:"matches_live"`
	MatchesCompleted int `json:"matches_completed"`
	WinnersDeclared  int `json:"winners_declared"`
	Viewers          int `json:"viewers"`
}
