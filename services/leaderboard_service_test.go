package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokernight/league-system/models"
)

func seedEliminations(elimRepo *fakeElimRepo, records []models.EliminationRecord) {
	for i := range records {
		rec := records[i]
		elimRepo.nextID++
		rec.ID = elimRepo.nextID
		elimRepo.records = append(elimRepo.records, rec)
	}
}

func TestLeaderboardAggregatesAcrossSessions(t *testing.T) {
	players := makePlayers(2)
	elimRepo := &fakeElimRepo{}
	seedEliminations(elimRepo, []models.EliminationRecord{
		{SessionID: "s1", LeagueID: "league-1", PlayerID: players[0].ID, PlayerName: players[0].Name, FinishPosition: 1, Points: 100, BuyIn: 100, Earnings: 100},
		{SessionID: "s1", LeagueID: "league-1", PlayerID: players[1].ID, PlayerName: players[1].Name, FinishPosition: 2, Points: 80, BuyIn: 100, Earnings: -100},
		{SessionID: "s2", LeagueID: "league-1", PlayerID: players[0].ID, PlayerName: players[0].Name, FinishPosition: 2, Points: 80, BuyIn: 100, Earnings: -100},
		{SessionID: "s2", LeagueID: "league-1", PlayerID: players[1].ID, PlayerName: players[1].Name, FinishPosition: 1, Points: 100, BuyIn: 100, Earnings: 100},
		{SessionID: "s3", LeagueID: "league-1", PlayerID: players[0].ID, PlayerName: players[0].Name, FinishPosition: 1, Points: 100, BuyIn: 100, Earnings: 100},
		{SessionID: "s3", LeagueID: "league-1", PlayerID: players[1].ID, PlayerName: players[1].Name, FinishPosition: 2, Points: 80, BuyIn: 100, Earnings: -100},
	})

	svc := NewLeaderboardService(elimRepo, newFakePlayerRepo(players), nil)
	entries, err := svc.Leaderboard(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	top := entries[0]
	assert.Equal(t, 1, top.Rank)
	assert.Equal(t, players[0].ID, top.PlayerID)
	assert.Equal(t, 280, top.TotalPoints)
	assert.Equal(t, 3, top.GamesPlayed)
	assert.Equal(t, 2, top.Wins)
	assert.InDelta(t, 66.7, top.WinRate, 0.001, "2 wins of 3, rounded to one decimal")
	assert.InDelta(t, 1.3, top.AvgFinish, 0.001)
	assert.Equal(t, 100, top.TotalEarnings)

	second := entries[1]
	assert.Equal(t, 2, second.Rank)
	assert.Equal(t, 260, second.TotalPoints)
	assert.InDelta(t, 33.3, second.WinRate, 0.001)
	assert.Equal(t, -100, second.TotalEarnings)
}

func TestLeaderboardTieBreaksByPlayerID(t *testing.T) {
	players := makePlayers(2)
	elimRepo := &fakeElimRepo{}
	// Одинаковые очки: записи специально в обратном порядке id.
	seedEliminations(elimRepo, []models.EliminationRecord{
		{SessionID: "s1", LeagueID: "league-1", PlayerID: players[1].ID, PlayerName: players[1].Name, FinishPosition: 1, Points: 100},
		{SessionID: "s2", LeagueID: "league-1", PlayerID: players[0].ID, PlayerName: players[0].Name, FinishPosition: 1, Points: 100},
	})

	svc := NewLeaderboardService(elimRepo, newFakePlayerRepo(players), nil)
	entries, err := svc.Leaderboard(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, players[0].ID, entries[0].PlayerID)
	assert.Equal(t, players[1].ID, entries[1].PlayerID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 2, entries[1].Rank)
}

func TestLeaderboardScopeFiltersLeague(t *testing.T) {
	players := makePlayers(2)
	elimRepo := &fakeElimRepo{}
	seedEliminations(elimRepo, []models.EliminationRecord{
		{SessionID: "s1", LeagueID: "league-1", PlayerID: players[0].ID, PlayerName: players[0].Name, FinishPosition: 1, Points: 100},
		{SessionID: "s2", LeagueID: "league-2", PlayerID: players[1].ID, PlayerName: players[1].Name, FinishPosition: 1, Points: 100},
	})

	svc := NewLeaderboardService(elimRepo, newFakePlayerRepo(players), nil)

	leagueID := "league-2"
	entries, err := svc.Leaderboard(context.Background(), &leagueID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, players[1].ID, entries[0].PlayerID)

	global, err := svc.Leaderboard(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, global, 2)
}

func TestLeaderboardIsIdempotent(t *testing.T) {
	players := makePlayers(3)
	elimRepo := &fakeElimRepo{}
	seedEliminations(elimRepo, []models.EliminationRecord{
		{SessionID: "s1", LeagueID: "league-1", PlayerID: players[0].ID, PlayerName: players[0].Name, FinishPosition: 1, Points: 100, Earnings: 140},
		{SessionID: "s1", LeagueID: "league-1", PlayerID: players[1].ID, PlayerName: players[1].Name, FinishPosition: 2, Points: 80, Earnings: 20},
		{SessionID: "s1", LeagueID: "league-1", PlayerID: players[2].ID, PlayerName: players[2].Name, FinishPosition: 3, Points: 60, Earnings: -60},
	})

	svc := NewLeaderboardService(elimRepo, newFakePlayerRepo(players), nil)

	first, err := svc.Leaderboard(context.Background(), nil)
	require.NoError(t, err)
	second, err := svc.Leaderboard(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same records must give the same standings")
}

func TestLeaderboardEmpty(t *testing.T) {
	svc := NewLeaderboardService(&fakeElimRepo{}, newFakePlayerRepo(nil), nil)

	entries, err := svc.Leaderboard(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
