package standings

import (
	"encoding/json"
	"math"

	"github.com/scrabblecast/overlay-system/models"
)

// DivisionStats - сводные показатели по сыгранным партиям дивизиона
// (или всего турнира, если подать партии всех дивизионов).
type DivisionStats struct {
	GamesPlayed             int     `json:"games_played"`
	PointsScored            int     `json:"points_scored"`
	AverageScore            float64 `json:"average_score"`
	AverageWinningScore     int     `json:"average_winning_score"`
	AverageLosingScore      int     `json:"average_losing_score"`
	HigherSeedWinPercentage float64 `json:"higher_seed_win_percentage"`
	GoingFirstWinPercentage float64 `json:"going_first_win_percentage"`
}

// StatsFromGames агрегирует обычные (не bye) партии с известными
// счетами. players - строки игроков по id базы; нужны для seed'ов и
// истории p12.
func StatsFromGames(games []models.Game, players map[int]models.Player) DivisionStats {
	var (
		gamesPlayed     int
		totalPoints     int
		winningSum      int
		winningCount    int
		losingSum       int
		losingCount     int
		higherSeedWins  int
		goingFirstWins  int
	)

	for _, g := range games {
		if g.IsBye || g.Player1Score == nil || g.Player2Score == nil {
			continue
		}
		p1, ok1 := players[g.Player1ID]
		p2, ok2 := players[g.Player2ID]
		if !ok1 || !ok2 {
			continue
		}

		score1, score2 := *g.Player1Score, *g.Player2Score
		gamesPlayed++
		totalPoints += score1 + score2

		switch {
		case score1 > score2:
			winningSum += score1
			winningCount++
			losingSum += score2
			losingCount++
		case score2 > score1:
			winningSum += score2
			winningCount++
			losingSum += score1
			losingCount++
		}

		// Меньший seed - более высокий посев.
		higherSeed := 1
		if p2.Seed < p1.Seed {
			higherSeed = 2
		}
		winner := 0
		if score1 > score2 {
			winner = 1
		} else if score2 > score1 {
			winner = 2
		}
		if winner == higherSeed {
			higherSeedWins++
		}

		switch p12At(p1.EtcData, g.RoundNumber-1) {
		case 1:
			if score1 > score2 {
				goingFirstWins++
			}
		case 2:
			if score2 > score1 {
				goingFirstWins++
			}
		}
	}

	stats := DivisionStats{
		GamesPlayed:  gamesPlayed,
		PointsScored: totalPoints,
	}
	if gamesPlayed > 0 {
		stats.AverageScore = round2(float64(totalPoints) / float64(gamesPlayed*2))
		stats.HigherSeedWinPercentage = round1(float64(higherSeedWins) / float64(gamesPlayed) * 100)
		stats.GoingFirstWinPercentage = round1(float64(goingFirstWins) / float64(gamesPlayed) * 100)
	}
	if winningCount > 0 {
		stats.AverageWinningScore = int(math.Round(float64(winningSum) / float64(winningCount)))
	}
	if losingCount > 0 {
		stats.AverageLosingScore = int(math.Round(float64(losingSum) / float64(losingCount)))
	}
	return stats
}

func p12At(etcData json.RawMessage, round int) int {
	if len(etcData) == 0 || round < 0 {
		return 0
	}
	var etc struct {
		P12 []int `json:"p12"`
	}
	if err := json.Unmarshal(etcData, &etc); err != nil {
		return 0
	}
	if round >= len(etc.P12) {
		return 0
	}
	return etc.P12[round]
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
func round1(f float64) float64 { return math.Round(f*10) / 10 }
