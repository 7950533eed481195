package standings

import (
	"testing"

	"github.com/scrabblecast/overlay-system/tsh"
)

// Два сыгранных раунда: в первом игрок 1 обыграл игрока 2 (450:400),
// игрок 3 получил bye (+50); во втором игрок 3 обыграл игрока 1
// (500:380), у игрока 2 форфейт (-50).
func testDivision() *tsh.Division {
	return &tsh.Division{
		Name: "A",
		Players: []*tsh.Player{
			nil,
			{
				ID: 1, Name: "Alpha, Anna", Rating: 1700,
				Scores: []int{450, 380}, Pairings: []int{2, 3},
				Etc: tsh.Etc{NewR: []int{1710, 1695}},
			},
			{
				ID: 2, Name: "Beta, Boris:XT4242", Rating: 1650,
				Scores: []int{400, -50}, Pairings: []int{1, 0},
				Etc: tsh.Etc{NewR: []int{1640, 1640}},
			},
			{
				ID: 3, Name: "Gamma, Grigory", Rating: 1600,
				Scores: []int{50, 500}, Pairings: []int{0, 1},
				Etc: tsh.Etc{NewR: []int{1600, 1625}},
			},
		},
	}
}

func standingBySeed(t *testing.T, table []PlayerStanding, seed int) PlayerStanding {
	t.Helper()
	for _, s := range table {
		if s.Seed == seed {
			return s
		}
	}
	t.Fatalf("seed %d not found in standings", seed)
	return PlayerStanding{}
}

func TestCalculateRecordsAndSpread(t *testing.T) {
	table := Calculate(testDivision())
	if len(table) != 3 {
		t.Fatalf("got %d standings, want 3", len(table))
	}

	tests := []struct {
		seed               int
		wins, losses       int
		spread             int
		gamesPlayed        int
		highScore          int
		avgDisplay         string
		ratingDiff         int
	}{
		// 1: победа 450:400 (+50), поражение 380:500 (-120).
		{seed: 1, wins: 1, losses: 1, spread: -70, gamesPlayed: 2, highScore: 450, avgDisplay: "415.00", ratingDiff: -5},
		// 2: поражение 400:450 (-50), форфейт -50 идёт в спред и в поражения.
		{seed: 2, wins: 0, losses: 2, spread: -100, gamesPlayed: 1, highScore: 400, avgDisplay: "400.00", ratingDiff: -10},
		// 3: bye +50 это победа, но не сыгранная партия; победа 500:380.
		{seed: 3, wins: 2, losses: 0, spread: 170, gamesPlayed: 1, highScore: 500, avgDisplay: "500.00", ratingDiff: 25},
	}

	for _, tc := range tests {
		s := standingBySeed(t, table, tc.seed)
		if s.Wins != tc.wins || s.Losses != tc.losses {
			t.Errorf("seed %d: record %d-%d, want %d-%d", tc.seed, s.Wins, s.Losses, tc.wins, tc.losses)
		}
		if s.Spread != tc.spread {
			t.Errorf("seed %d: spread %d, want %d", tc.seed, s.Spread, tc.spread)
		}
		if s.GamesPlayed != tc.gamesPlayed {
			t.Errorf("seed %d: games played %d, want %d (byes are excluded)", tc.seed, s.GamesPlayed, tc.gamesPlayed)
		}
		if s.HighScore != tc.highScore {
			t.Errorf("seed %d: high score %d, want %d", tc.seed, s.HighScore, tc.highScore)
		}
		if s.AverageScoreDisplay != tc.avgDisplay {
			t.Errorf("seed %d: average %q, want %q", tc.seed, s.AverageScoreDisplay, tc.avgDisplay)
		}
		if s.RatingDiff != tc.ratingDiff {
			t.Errorf("seed %d: rating diff %d, want %d", tc.seed, s.RatingDiff, tc.ratingDiff)
		}
	}
}

func TestCalculateSingleRoundWithBye(t *testing.T) {
	div := &tsh.Division{
		Name: "B",
		Players: []*tsh.Player{
			nil,
			{ID: 1, Name: "One, P", Scores: []int{420}, Pairings: []int{2}},
			{ID: 2, Name: "Two, P", Scores: []int{380}, Pairings: []int{1}},
			{ID: 3, Name: "Three, P", Scores: []int{50}, Pairings: []int{0}},
		},
	}

	table := Calculate(div)

	three := standingBySeed(t, table, 3)
	if three.Wins != 1 || three.GamesPlayed != 0 {
		t.Errorf("bye only: record %d wins / %d played, want 1 win and 0 played", three.Wins, three.GamesPlayed)
	}
	if three.Spread != 50 || three.AverageScore != 0 || three.HighScore != 0 {
		t.Errorf("bye only: spread=%d avg=%v high=%d, want 50/0/0", three.Spread, three.AverageScore, three.HighScore)
	}

	// Оба победителя 1-0, выше тот, у кого спред больше: +50 против +40.
	ranked := RankByRecord(table)
	if ranked[0].Seed != 3 || ranked[1].Seed != 1 || ranked[2].Seed != 2 {
		t.Fatalf("rank order = %d,%d,%d, want 3,1,2", ranked[0].Seed, ranked[1].Seed, ranked[2].Seed)
	}
	if one := standingBySeed(t, table, 1); one.AverageScoreDisplay != "420.00" {
		t.Errorf("seed 1 average = %q, want 420.00", one.AverageScoreDisplay)
	}
}

func TestCalculateCleansNames(t *testing.T) {
	table := Calculate(testDivision())
	s := standingBySeed(t, table, 2)
	if s.Name != "Beta, Boris" {
		t.Errorf("cross-reference suffix must be stripped, got %q", s.Name)
	}
	if s.FirstLast != "Boris Beta" {
		t.Errorf("first-last form = %q, want %q", s.FirstLast, "Boris Beta")
	}
}

func TestRankByRecord(t *testing.T) {
	ranked := RankByRecord(Calculate(testDivision()))

	wantOrder := []int{3, 1, 2}
	for i, seed := range wantOrder {
		if ranked[i].Seed != seed {
			t.Fatalf("position %d: seed %d, want %d", i+1, ranked[i].Seed, seed)
		}
		if ranked[i].Rank != i+1 {
			t.Fatalf("position %d: rank %d, want %d", i+1, ranked[i].Rank, i+1)
		}
	}
	if ranked[0].RankOrdinal != "1st" || ranked[1].RankOrdinal != "2nd" || ranked[2].RankOrdinal != "3rd" {
		t.Fatalf("unexpected ordinals: %s %s %s",
			ranked[0].RankOrdinal, ranked[1].RankOrdinal, ranked[2].RankOrdinal)
	}
}

func TestRankVariants(t *testing.T) {
	table := Calculate(testDivision())

	byHigh := RankByHighScore(table)
	if byHigh[0].Seed != 3 || byHigh[0].HighScore != 500 {
		t.Errorf("high score leader seed = %d, want 3", byHigh[0].Seed)
	}

	byAvg := RankByAverageScore(table)
	if byAvg[0].Seed != 3 {
		t.Errorf("average score leader seed = %d, want 3", byAvg[0].Seed)
	}

	byGain := RankByRatingGain(table)
	if byGain[0].Seed != 3 || byGain[0].RatingDiff != 25 {
		t.Errorf("rating gain leader seed = %d (diff %d), want 3 (+25)", byGain[0].Seed, byGain[0].RatingDiff)
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	table := Calculate(testDivision())
	original := table[0].Seed
	RankByRecord(table)
	if table[0].Seed != original {
		t.Fatal("ranking must sort a copy, not the input slice")
	}
}

func TestOrdinal(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "1st"}, {2, "2nd"}, {3, "3rd"}, {4, "4th"},
		{11, "11th"}, {12, "12th"}, {13, "13th"},
		{21, "21st"}, {102, "102nd"}, {111, "111th"},
	}
	for _, tc := range tests {
		if got := Ordinal(tc.n); got != tc.want {
			t.Errorf("Ordinal(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestFormatName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Alpha, Anna", "Anna Alpha"},
		{"Madonna", "Madonna"},
		{"Van Der Berg, Jan", "Jan Van Der Berg"},
	}
	for _, tc := range tests {
		if got := FormatName(tc.in); got != tc.want {
			t.Errorf("FormatName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
