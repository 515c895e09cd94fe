package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointsForPosition(t *testing.T) {
	cases := []struct {
		position int
		want     int
	}{
		{1, 100},
		{2, 80},
		{3, 60},
		{4, 40},
		{5, 40},
		{6, 20},
		{7, 20},
		{8, 20},
		{9, 10},
		{25, 10},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PointsForPosition(tc.position), "position=%d", tc.position)
	}
}

func TestPointsNeverIncreaseWithPosition(t *testing.T) {
	prev := PointsForPosition(1)
	for position := 2; position <= 30; position++ {
		current := PointsForPosition(position)
		assert.LessOrEqual(t, current, prev, "position=%d", position)
		prev = current
	}
}

func TestPrizeDistributionHeadsUp(t *testing.T) {
	// Меньше трёх игроков — всё победителю.
	assert.Equal(t, map[int]int{1: 200}, PrizeDistribution(2, 100))
}

func TestPrizeDistributionSmallField(t *testing.T) {
	assert.Equal(t, map[int]int{1: 350, 2: 150}, PrizeDistribution(5, 100))
}

func TestPrizeDistributionFullField(t *testing.T) {
	assert.Equal(t, map[int]int{1: 250, 2: 150, 3: 100}, PrizeDistribution(10, 50))
}

func TestPrizeDistributionTruncates(t *testing.T) {
	// Фонд 105: доли усекаются, остаток не перераспределяется.
	dist := PrizeDistribution(7, 15)
	assert.Equal(t, map[int]int{1: 52, 2: 31, 3: 21}, dist)

	total := 0
	for _, share := range dist {
		total += share
	}
	assert.LessOrEqual(t, total, 105)
}

func TestEarnings(t *testing.T) {
	assert.Equal(t, 100, Earnings(1, 2, 100), "heads-up winner nets one buy-in")
	assert.Equal(t, -100, Earnings(2, 2, 100), "heads-up loser nets minus buy-in")
	assert.Equal(t, 200, Earnings(1, 10, 50))
	assert.Equal(t, -50, Earnings(7, 10, 50), "out of the money loses the buy-in")
}
