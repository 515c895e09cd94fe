package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokernight/league-system/models"
)

func makePlayers(n int) []models.Player {
	players := make([]models.Player, 0, n)
	for i := 1; i <= n; i++ {
		players = append(players, models.Player{
			ID:     fmt.Sprintf("player-%02d", i),
			Name:   fmt.Sprintf("Player %d", i),
			Avatar: "🃏",
		})
	}
	return players
}

func TestTablesNeeded(t *testing.T) {
	cases := []struct {
		players int
		want    int
	}{
		{0, 1},
		{1, 1},
		{8, 1},
		{9, 1},
		{10, 2},
		{18, 2},
		{19, 3},
		{27, 3},
		{28, 4},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TablesNeeded(tc.players), "players=%d", tc.players)
	}
}

func TestAssignSeatsEmpty(t *testing.T) {
	assignments := AssignSeats(nil)
	require.NotNil(t, assignments)
	assert.Empty(t, assignments)
}

func TestAssignSeatsSingleTable(t *testing.T) {
	players := makePlayers(9)
	assignments := AssignSeats(players)

	require.Len(t, assignments, 9)
	for i, a := range assignments {
		assert.Equal(t, 1, a.TableNumber)
		assert.Equal(t, i+1, a.SeatNumber)
		assert.Equal(t, players[i].ID, a.PlayerID, "seats must follow check-in order")
	}
}

func TestAssignSeatsEvenSpread(t *testing.T) {
	for _, n := range []int{2, 10, 11, 17, 19, 23, 100} {
		assignments := AssignSeats(makePlayers(n))
		require.Len(t, assignments, n, "n=%d", n)

		tableSizes := make(map[int]int)
		seen := make(map[string]bool)
		for _, a := range assignments {
			tableSizes[a.TableNumber]++
			assert.False(t, seen[a.PlayerID], "n=%d: player %s seated twice", n, a.PlayerID)
			seen[a.PlayerID] = true
		}
		assert.Len(t, tableSizes, TablesNeeded(n), "n=%d", n)

		minSize, maxSize := n, 0
		for _, size := range tableSizes {
			assert.LessOrEqual(t, size, TableCapacity, "n=%d", n)
			if size < minSize {
				minSize = size
			}
			if size > maxSize {
				maxSize = size
			}
		}
		assert.LessOrEqual(t, maxSize-minSize, 1, "n=%d: tables must differ by at most one player", n)
	}
}

func TestAssignSeatsDeterministic(t *testing.T) {
	players := makePlayers(13)
	first := AssignSeats(players)
	second := AssignSeats(players)
	assert.Equal(t, first, second, "same check-in order must give the same seating")
}

func TestAssignSeatsPrefersUploadedAvatar(t *testing.T) {
	url := "https://cdn.example.com/avatars/player-01.png"
	players := makePlayers(2)
	players[0].AvatarURL = &url

	assignments := AssignSeats(players)
	require.Len(t, assignments, 2)
	assert.Equal(t, url, assignments[0].PlayerAvatar)
	assert.Equal(t, "🃏", assignments[1].PlayerAvatar)
}
