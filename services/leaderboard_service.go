package services

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/pokernight/league-system/models"
	"github.com/pokernight/league-system/repositories"
	"github.com/pokernight/league-system/storage"
)

// LeaderboardService сворачивает записи выбываний в рейтинг игроков.
// Чистое идемпотентное чтение: одинаковые записи дают одинаковый рейтинг.
type LeaderboardService struct {
	elimRepo   repositories.EliminationRepository
	playerRepo repositories.PlayerRepository
	uploader   storage.FileUploader
}

func NewLeaderboardService(
	elimRepo repositories.EliminationRepository,
	playerRepo repositories.PlayerRepository,
	uploader storage.FileUploader,
) *LeaderboardService {
	return &LeaderboardService{
		elimRepo:   elimRepo,
		playerRepo: playerRepo,
		uploader:   uploader,
	}
}

// Leaderboard возвращает рейтинг в рамках лиги либо глобально при
// leagueID == nil.
func (s *LeaderboardService) Leaderboard(ctx context.Context, leagueID *string) ([]models.LeaderboardEntry, error) {
	records, err := s.elimRepo.ListByScope(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	type playerTotals struct {
		name      string
		points    int
		games     int
		wins      int
		finishSum int
		earnings  int
	}

	totals := make(map[string]*playerTotals)
	order := make([]string, 0)
	for _, rec := range records {
		t, ok := totals[rec.PlayerID]
		if !ok {
			t = &playerTotals{name: rec.PlayerName}
			totals[rec.PlayerID] = t
			order = append(order, rec.PlayerID)
		}
		t.points += rec.Points
		t.games++
		if rec.FinishPosition == 1 {
			t.wins++
		}
		t.finishSum += rec.FinishPosition
		t.earnings += rec.Earnings
	}

	// Профили подтягиваются параллельно по батчам — нужен только аватар.
	avatars := make(map[string]string, len(order))
	g, gCtx := errgroup.WithContext(ctx)
	const batchSize = 100
	var batches [][]string
	for start := 0; start < len(order); start += batchSize {
		end := start + batchSize
		if end > len(order) {
			end = len(order)
		}
		batches = append(batches, order[start:end])
	}
	results := make([]map[string]*models.Player, len(batches))
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			players, err := s.playerRepo.GetByIDs(gCtx, batch)
			if err != nil {
				return err
			}
			results[i] = players
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, players := range results {
		for id, p := range players {
			avatar := p.Avatar
			if s.uploader != nil && p.AvatarKey != nil {
				if url := s.uploader.GetPublicURL(*p.AvatarKey); url != "" {
					avatar = url
				}
			}
			avatars[id] = avatar
		}
	}

	entries := make([]models.LeaderboardEntry, 0, len(totals))
	for _, playerID := range order {
		t := totals[playerID]
		winRate := 0.0
		avgFinish := 0.0
		if t.games > 0 {
			winRate = roundTo1(float64(t.wins) / float64(t.games) * 100)
			avgFinish = roundTo1(float64(t.finishSum) / float64(t.games))
		}
		entries = append(entries, models.LeaderboardEntry{
			PlayerID:      playerID,
			PlayerName:    t.name,
			PlayerAvatar:  avatars[playerID],
			TotalPoints:   t.points,
			GamesPlayed:   t.games,
			Wins:          t.wins,
			WinRate:       winRate,
			AvgFinish:     avgFinish,
			TotalEarnings: t.earnings,
		})
	}

	// Очки по убыванию, при равенстве — id игрока, чтобы порядок был
	// детерминирован.
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalPoints != entries[j].TotalPoints {
			return entries[i].TotalPoints > entries[j].TotalPoints
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	return entries, nil
}

func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}
