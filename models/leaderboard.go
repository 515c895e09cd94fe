package models

// LeaderboardEntry — агрегированная статистика игрока по завершённым
// выбываниям. Вычисляется на каждый запрос, не хранится.
type LeaderboardEntry struct {
	Rank          int     `json:"rank"`
	PlayerID      string  `json:"player_id"`
	PlayerName    string  `json:"player_name"`
	PlayerAvatar  string  `json:"player_avatar"`
	TotalPoints   int     `json:"total_points"`
	GamesPlayed   int     `json:"games_played"`
	Wins          int     `json:"wins"`
	WinRate       float64 `json:"win_rate"`
	AvgFinish     float64 `json:"avg_finish"`
	TotalEarnings int     `json:"total_earnings"`
}
