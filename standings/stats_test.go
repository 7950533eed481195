package standings

import (
	"encoding/json"
	"testing"

	"github.com/scrabblecast/overlay-system/models"
)

func intPtr(v int) *int { return &v }

func TestStatsFromGames(t *testing.T) {
	players := map[int]models.Player{
		101: {ID: 101, Seed: 1, EtcData: json.RawMessage(`{"p12":[1,2]}`)},
		102: {ID: 102, Seed: 2, EtcData: json.RawMessage(`{"p12":[2,1]}`)},
		103: {ID: 103, Seed: 3, EtcData: json.RawMessage(`{"p12":[2]}`)},
	}

	games := []models.Game{
		// Раунд 1: сеяный выше игрок (seed 1) ходит первым и выигрывает.
		{RoundNumber: 1, Player1ID: 101, Player2ID: 102,
			Player1Score: intPtr(450), Player2Score: intPtr(400), PairingID: 1},
		// Раунд 2: игрок 102 ходит первым (p12[1] == 1), но проигрывает
		// более высокому посеву.
		{RoundNumber: 2, Player1ID: 101, Player2ID: 102,
			Player1Score: intPtr(500), Player2Score: intPtr(380), PairingID: 1},
		// Bye не входит в статистику.
		{RoundNumber: 1, Player1ID: 103, Player2ID: 103,
			Player1Score: intPtr(50), Player2Score: intPtr(0), IsBye: true, PairingID: 3},
		// Партия без счёта не входит.
		{RoundNumber: 3, Player1ID: 101, Player2ID: 102, PairingID: 1},
	}

	stats := StatsFromGames(games, players)

	if stats.GamesPlayed != 2 {
		t.Fatalf("games played = %d, want 2 (byes and unscored excluded)", stats.GamesPlayed)
	}
	if stats.PointsScored != 1730 {
		t.Errorf("points scored = %d, want 1730", stats.PointsScored)
	}
	if stats.AverageScore != 432.5 {
		t.Errorf("average score = %v, want 432.5", stats.AverageScore)
	}
	if stats.AverageWinningScore != 475 {
		t.Errorf("average winning score = %d, want 475", stats.AverageWinningScore)
	}
	if stats.AverageLosingScore != 390 {
		t.Errorf("average losing score = %d, want 390", stats.AverageLosingScore)
	}
	if stats.HigherSeedWinPercentage != 100 {
		t.Errorf("higher seed win %% = %v, want 100", stats.HigherSeedWinPercentage)
	}
	// Первый ход выиграл только в раунде 1.
	if stats.GoingFirstWinPercentage != 50 {
		t.Errorf("going first win %% = %v, want 50", stats.GoingFirstWinPercentage)
	}
}

func TestStatsFromGamesEmpty(t *testing.T) {
	stats := StatsFromGames(nil, nil)
	if stats.GamesPlayed != 0 || stats.AverageScore != 0 {
		t.Fatalf("empty input must produce zero stats, got %+v", stats)
	}
}
