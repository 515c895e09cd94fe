package models

import "time"

// SessionState представляет состояния игровой сессии, соответствующие ENUM в БД.
type SessionState string

const (
	SessionOpen      SessionState = "open"
	SessionStarted   SessionState = "started"
	SessionCompleted SessionState = "completed"
)

// Session — один игровой вечер лиги. В любой момент у лиги есть не более
// одной незавершённой сессии.
type Session struct {
	ID       string       `json:"id" db:"id"`
	LeagueID string       `json:"league_id" db:"league_id"`
	State    SessionState `json:"state" db:"state"`

	// PlayerCount фиксируется один раз при старте и задаёт масштаб
	// очков и призового фонда для всех выбываний этой сессии.
	PlayerCount int `json:"player_count" db:"player_count"`

	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// EliminationRecord фиксирует выбывание игрока с финальным местом и счётом.
// Создаётся ровно один раз на игрока за сессию.
type EliminationRecord struct {
	ID             int       `json:"id" db:"id"`
	SessionID      string    `json:"session_id" db:"session_id"`
	LeagueID       string    `json:"league_id" db:"league_id"`
	PlayerID       string    `json:"player_id" db:"player_id"`
	PlayerName     string    `json:"player_name" db:"player_name"`
	FinishPosition int       `json:"finish_position" db:"finish_position"`
	Points         int       `json:"points" db:"points"`
	BuyIn          int       `json:"buy_in" db:"buy_in"`
	Earnings       int       `json:"earnings" db:"earnings"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// SeatAssignment — производное место за столом. Никогда не хранится,
// пересчитывается из текущего набора отметившихся игроков.
type SeatAssignment struct {
	TableNumber  int    `json:"table_number"`
	SeatNumber   int    `json:"seat_number"`
	PlayerID     string `json:"player_id"`
	PlayerName   string `json:"player_name"`
	PlayerAvatar string `json:"player_avatar"`
}

// SessionStatus — проекция текущего состояния сессии для чтения.
type SessionStatus struct {
	GameID          string              `json:"game_id"`
	LeagueID        string              `json:"league_id"`
	LeagueName      string              `json:"league_name"`
	CheckedIn       int                 `json:"checked_in_players"`
	TotalPlayers    int                 `json:"total_players"`
	SeatAssignments []SeatAssignment    `json:"seat_assignments"`
	GameStarted     bool                `json:"game_started"`
	TablesNeeded    int                 `json:"tables_needed"`
	EliminatedCount int                 `json:"eliminated_count"`
	Eliminations    []EliminationRecord `json:"eliminations,omitempty"`
}
