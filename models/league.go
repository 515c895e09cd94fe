package models

import "time"

// League представляет покерную лигу.
type League struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	BuyIn      int       `json:"buy_in" db:"buy_in"`
	MaxPlayers int       `json:"max_players" db:"max_players"`
	GameFormat string    `json:"game_format" db:"game_format"`
	AdminID    string    `json:"admin_id" db:"admin_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// LeagueMember связывает игрока с лигой.
type LeagueMember struct {
	LeagueID string    `json:"league_id" db:"league_id"`
	PlayerID string    `json:"player_id" db:"player_id"`
	IsAdmin  bool      `json:"is_admin" db:"is_admin"`
	JoinedAt time.Time `json:"joined_at" db:"joined_at"`
}
