// Package standings считает турнирную таблицу дивизиона по сырым
// данным файла. Все функции чистые: никакого состояния и побочных
// эффектов, один вызов на дивизион.
package standings

import (
	"fmt"
	"sort"
	"strings"

	"github.com/scrabblecast/overlay-system/tsh"
)

// PlayerStanding - агрегированная статистика одного игрока.
type PlayerStanding struct {
	Seed          int     `json:"seed"`
	Name          string  `json:"name"`
	FirstLast     string  `json:"first_last"`
	Photo         string  `json:"photo,omitempty"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Ties          int     `json:"ties"`
	Spread        int     `json:"spread"`
	GamesPlayed   int     `json:"games_played"`
	AverageScore  float64 `json:"average_score"`
	AverageScoreDisplay string `json:"average_score_display"`
	HighScore     int     `json:"high_score"`
	InitialRating int     `json:"initial_rating"`
	CurrentRating int     `json:"current_rating"`
	RatingDiff    int     `json:"rating_diff"`
	Rank          int     `json:"rank"`
	RankOrdinal   string  `json:"rank_ordinal"`
}

// Calculate сворачивает параллельные массивы scores/pairings каждого
// игрока в его статистику. Bye (pairing == 0) даёт победу/поражение и
// спред, но не считается сыгранной партией: не участвует в среднем,
// рекорде и сумме очков.
func Calculate(div *tsh.Division) []PlayerStanding {
	out := make([]PlayerStanding, 0, len(div.Players))
	for _, p := range div.Players {
		if p == nil {
			continue
		}
		out = append(out, calculatePlayer(div, p))
	}
	return out
}

func calculatePlayer(div *tsh.Division, p *tsh.Player) PlayerStanding {
	var wins, losses, ties, spread, totalScore, highScore, gamesPlayed int

	for i := 0; i < len(p.Scores) && i < len(p.Pairings); i++ {
		score := p.Scores[i]
		opponentSeed := p.Pairings[i]

		if opponentSeed == 0 {
			// Bye или форфейт: очки идут в спред как есть.
			spread += score
			if score > 0 {
				wins++
			} else {
				losses++
			}
			continue
		}

		opponent := div.Player(opponentSeed)
		if opponent == nil {
			// Снятый игрок - раунд неразрешим, пропускаем.
			continue
		}
		opponentScore, ok := opponent.Score(i)
		if !ok {
			continue
		}

		spread += score - opponentScore
		switch {
		case score > opponentScore:
			wins++
		case score < opponentScore:
			losses++
		default:
			ties++
		}
		totalScore += score
		if score > highScore {
			highScore = score
		}
		gamesPlayed++
	}

	avg := 0.0
	if gamesPlayed > 0 {
		avg = float64(totalScore) / float64(gamesPlayed)
	}

	current := p.CurrentRating()
	return PlayerStanding{
		Seed:                p.ID,
		Name:                p.CleanName(),
		FirstLast:           FormatName(p.CleanName()),
		Photo:               p.Photo,
		Wins:                wins,
		Losses:              losses,
		Ties:                ties,
		Spread:              spread,
		GamesPlayed:         gamesPlayed,
		AverageScore:        avg,
		AverageScoreDisplay: fmt.Sprintf("%.2f", avg),
		HighScore:           highScore,
		InitialRating:       p.Rating,
		CurrentRating:       current,
		RatingDiff:          current - p.Rating,
	}
}

// RankByRecord - основная таблица: победы по убыванию, поражения по
// возрастанию, спред по убыванию. Ранг позиционный (index+1), равные
// показатели НЕ получают одинаковый ранг - это сознательное упрощение.
func RankByRecord(players []PlayerStanding) []PlayerStanding {
	return rank(players, func(a, b PlayerStanding) bool {
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.Losses != b.Losses {
			return a.Losses < b.Losses
		}
		return a.Spread > b.Spread
	})
}

// RankByHighScore - таблица по лучшей партии.
func RankByHighScore(players []PlayerStanding) []PlayerStanding {
	return rank(players, func(a, b PlayerStanding) bool {
		return a.HighScore > b.HighScore
	})
}

// RankByAverageScore - таблица по среднему счёту.
func RankByAverageScore(players []PlayerStanding) []PlayerStanding {
	return rank(players, func(a, b PlayerStanding) bool {
		return a.AverageScore > b.AverageScore
	})
}

// RankByRatingGain - таблица по приросту рейтинга с начала турнира.
func RankByRatingGain(players []PlayerStanding) []PlayerStanding {
	return rank(players, func(a, b PlayerStanding) bool {
		return a.RatingDiff > b.RatingDiff
	})
}

// rank сортирует копию стабильно (порядок при полном равенстве не
// меняется между запусками) и назначает позиционные ранги.
func rank(players []PlayerStanding, less func(a, b PlayerStanding) bool) []PlayerStanding {
	sorted := make([]PlayerStanding, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})
	for i := range sorted {
		sorted[i].Rank = i + 1
		sorted[i].RankOrdinal = Ordinal(i + 1)
	}
	return sorted
}

// Ordinal - "1st", "2nd", "3rd", "11th"...
func Ordinal(n int) string {
	if d := n % 100; d >= 11 && d <= 13 {
		return fmt.Sprintf("%dth", n)
	}
	switch n % 10 {
	case 1:
		return fmt.Sprintf("%dst", n)
	case 2:
		return fmt.Sprintf("%dnd", n)
	case 3:
		return fmt.Sprintf("%drd", n)
	default:
		return fmt.Sprintf("%dth", n)
	}
}

// FormatName превращает "Last, First" в "First Last"; имена без запятой
// возвращаются как есть.
func FormatName(name string) string {
	last, first, found := strings.Cut(name, ", ")
	if !found || first == "" || last == "" {
		return name
	}
	return first + " " + last
}
