package services

// PointsForPosition возвращает очки за финальное место. Шкала
// фиксированная и не зависит от числа участников.
func PointsForPosition(position int) int {
	switch {
	case position == 1:
		return 100
	case position == 2:
		return 80
	case position == 3:
		return 60
	case position <= 5:
		return 40
	case position <= 8:
		return 20
	default:
		return 10
	}
}

// PrizeDistribution делит призовой фонд (totalPlayers * buyIn) между
// призовыми местами. Доли усекаются к нулю; остаток от округления не
// перераспределяется.
func PrizeDistribution(totalPlayers, buyIn int) map[int]int {
	prizePool := totalPlayers * buyIn

	switch {
	case totalPlayers < 3:
		return map[int]int{1: prizePool}
	case totalPlayers < 6:
		return map[int]int{
			1: prizePool * 70 / 100,
			2: prizePool * 30 / 100,
		}
	default:
		return map[int]int{
			1: prizePool * 50 / 100,
			2: prizePool * 30 / 100,
			3: prizePool * 20 / 100,
		}
	}
}

// Earnings — чистый результат игрока: призовая доля минус бай-ин.
func Earnings(position, totalPlayers, buyIn int) int {
	return PrizeDistribution(totalPlayers, buyIn)[position] - buyIn
}
