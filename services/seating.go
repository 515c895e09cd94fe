package services

import "github.com/pokernight/league-system/models"

// TableCapacity — максимум игроков за одним столом.
const TableCapacity = 9

// TablesNeeded возвращает количество столов для n игроков, минимум 1.
func TablesNeeded(n int) int {
	if n <= 0 {
		return 1
	}
	return (n + TableCapacity - 1) / TableCapacity
}

// AssignSeats распределяет игроков по столам максимально ровно:
// первые remainder столов получают на одного игрока больше. Места
// заполняются по возрастанию столов и мест, строго в порядке входного
// списка, поэтому результат детерминирован и воспроизводим — одинаковый
// порядок отметки даёт одинаковую рассадку.
func AssignSeats(players []models.Player) []models.SeatAssignment {
	if len(players) == 0 {
		return []models.SeatAssignment{}
	}

	numPlayers := len(players)
	numTables := TablesNeeded(numPlayers)

	base := numPlayers / numTables
	remainder := numPlayers % numTables

	assignments := make([]models.SeatAssignment, 0, numPlayers)
	playerIndex := 0

	for table := 1; table <= numTables; table++ {
		tableSize := base
		if table <= remainder {
			tableSize++
		}

		for seat := 1; seat <= tableSize; seat++ {
			p := players[playerIndex]
			avatar := p.Avatar
			if p.AvatarURL != nil && *p.AvatarURL != "" {
				avatar = *p.AvatarURL
			}
			assignments = append(assignments, models.SeatAssignment{
				TableNumber:  table,
				SeatNumber:   seat,
				PlayerID:     p.ID,
				PlayerName:   p.Name,
				PlayerAvatar: avatar,
			})
			playerIndex++
		}
	}

	return assignments
}
