package reconcile

import (
	"reflect"
	"testing"

	"github.com/scrabblecast/overlay-system/models"
	"github.com/scrabblecast/overlay-system/tsh"
)

// testDivision: три игрока, раунд 1 - игрок 1 против игрока 2 (420:380),
// у игрока 3 bye (+50). Нулевой индекс players всегда nil.
func testDivision() *tsh.Division {
	return &tsh.Division{
		Name: "A",
		Players: []*tsh.Player{
			nil,
			{
				ID: 1, Name: "Alpha, Anna", Rating: 1700,
				Scores: []int{420}, Pairings: []int{2},
				Etc: tsh.Etc{P12: []int{1}},
			},
			{
				ID: 2, Name: "Beta, Boris", Rating: 1650,
				Scores: []int{380}, Pairings: []int{1},
				Etc: tsh.Etc{P12: []int{2}},
			},
			{
				ID: 3, Name: "Gamma, Grigory", Rating: 1600,
				Scores: []int{50}, Pairings: []int{0},
			},
		},
	}
}

func seedMap(pairs ...int) map[int]int {
	m := make(map[int]int, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		m[pairs[i]] = pairs[i+1]
	}
	return m
}

func TestKeySymmetry(t *testing.T) {
	if Key(3, 5, 9, false) != Key(3, 9, 5, false) {
		t.Fatal("game key must not depend on traversal order")
	}
	if Key(3, 5, 9, false) != "3-5-9" {
		t.Fatalf("unexpected key %q", Key(3, 5, 9, false))
	}
	if Key(2, 7, 7, true) != "2-7-bye" {
		t.Fatalf("unexpected bye key %q", Key(2, 7, 7, true))
	}
	if Key(2, 7, 7, true) == Key(2, 7, 7, false) {
		t.Fatal("bye key must never collide with a regular pairing key")
	}
}

func TestExtractGamesDeduplicatesPair(t *testing.T) {
	div := testDivision()
	games, skipped := ExtractGames(div, seedMap(1, 101, 2, 102, 3, 103))

	if skipped != 0 {
		t.Fatalf("skipped = %d, want 0", skipped)
	}
	// Партия 1-2 видна из обоих массивов, но извлекается один раз.
	if len(games) != 2 {
		t.Fatalf("got %d games, want 2", len(games))
	}

	game := games[0]
	if game.IsBye {
		t.Fatal("first extracted game should be the round 1 pairing")
	}
	// p12 игрока 1 равен 1 - он ходит первым.
	if game.Player1Seed != 1 || game.Player2Seed != 2 {
		t.Fatalf("player order = (%d, %d), want (1, 2)", game.Player1Seed, game.Player2Seed)
	}
	if game.Player1Score != 420 || game.Player2Score != 380 {
		t.Fatalf("scores = (%d, %d), want (420, 380)", game.Player1Score, game.Player2Score)
	}
	if game.PairingID != 1 {
		t.Fatalf("pairing id = %d, want 1 (lower seed)", game.PairingID)
	}

	bye := games[1]
	if !bye.IsBye || bye.Player1Seed != 3 || bye.Player1Score != 50 || bye.PairingID != 3 {
		t.Fatalf("unexpected bye game: %+v", bye)
	}
}

func TestExtractGamesGoesFirstWinsRegardlessOfOrder(t *testing.T) {
	div := testDivision()
	// Теперь первым ходит игрок 2: порядок в строке должен развернуться.
	div.Players[1].Etc.P12 = []int{2}
	div.Players[2].Etc.P12 = []int{1}

	games, _ := ExtractGames(div, seedMap(1, 101, 2, 102, 3, 103))
	if games[0].Player1Seed != 2 || games[0].Player2Seed != 1 {
		t.Fatalf("player order = (%d, %d), want (2, 1)", games[0].Player1Seed, games[0].Player2Seed)
	}
	if games[0].Player1Score != 380 || games[0].Player2Score != 420 {
		t.Fatalf("scores must follow the seat swap, got (%d, %d)", games[0].Player1Score, games[0].Player2Score)
	}
	if games[0].PairingID != 1 {
		t.Fatalf("pairing id must stay the lower seed, got %d", games[0].PairingID)
	}
}

func TestExtractGamesLowerSeedFallback(t *testing.T) {
	div := testDivision()
	div.Players[1].Etc.P12 = nil
	div.Players[2].Etc.P12 = nil

	games, _ := ExtractGames(div, seedMap(1, 101, 2, 102, 3, 103))
	if games[0].Player1Seed != 1 {
		t.Fatalf("without p12 the lower seed sits first, got seed %d", games[0].Player1Seed)
	}
}

func TestExtractGamesSkipsUnscoredRound(t *testing.T) {
	div := testDivision()
	// Раунд 2 объявлен (пары известны), но очков ещё нет.
	div.Players[1].Pairings = append(div.Players[1].Pairings, 3)
	div.Players[3].Pairings = append(div.Players[3].Pairings, 1)
	div.Players[2].Pairings = append(div.Players[2].Pairings, 0)

	games, skipped := ExtractGames(div, seedMap(1, 101, 2, 102, 3, 103))
	if skipped != 0 {
		t.Fatalf("skipped = %d, want 0", skipped)
	}
	for _, g := range games {
		if g.RoundNumber == 2 {
			t.Fatalf("round 2 has no scores yet and must not be extracted: %+v", g)
		}
	}
}

func TestExtractGamesSkipsWithdrawnOpponent(t *testing.T) {
	div := testDivision()
	div.Players[2] = nil // игрок 2 снят, его слот в массиве пуст

	games, skipped := ExtractGames(div, seedMap(1, 101, 3, 103))
	if skipped != 1 {
		t.Fatalf("skipped = %d, want 1", skipped)
	}
	// Bye игрока 3 обрабатывается несмотря на снятого соседа.
	if len(games) != 1 || !games[0].IsBye {
		t.Fatalf("expected only the bye to survive, got %+v", games)
	}
}

func TestExtractGamesDeterministic(t *testing.T) {
	div := testDivision()
	ids := seedMap(1, 101, 2, 102, 3, 103)

	first, _ := ExtractGames(div, ids)
	second, _ := ExtractGames(div, ids)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("repeated extraction of the same file must be identical")
	}
}

func TestReconcileFirstPollInsertsEverything(t *testing.T) {
	div := testDivision()
	res := Reconcile(div, nil, seedMap(1, 101, 2, 102, 3, 103))

	if len(res.ToInsert) != 2 || len(res.ToUpdate) != 0 || res.Unchanged != 0 {
		t.Fatalf("first poll: insert=%d update=%d unchanged=%d, want 2/0/0",
			len(res.ToInsert), len(res.ToUpdate), res.Unchanged)
	}
}

func TestReconcileReplayIsIdempotent(t *testing.T) {
	div := testDivision()
	ids := seedMap(1, 101, 2, 102, 3, 103)

	first := Reconcile(div, nil, ids)
	persisted := persistResult(first)

	second := Reconcile(div, persisted, ids)
	if len(second.ToInsert) != 0 || len(second.ToUpdate) != 0 {
		t.Fatalf("replaying the same file must be a no-op, got insert=%d update=%d",
			len(second.ToInsert), len(second.ToUpdate))
	}
	if second.Unchanged != 2 {
		t.Fatalf("unchanged = %d, want 2", second.Unchanged)
	}
}

func TestReconcileScoreCorrectionSingleUpdate(t *testing.T) {
	div := testDivision()
	ids := seedMap(1, 101, 2, 102, 3, 103)
	persisted := persistResult(Reconcile(div, nil, ids))

	// Судья исправил 420 на 430.
	div.Players[1].Scores[0] = 430

	res := Reconcile(div, persisted, ids)
	if len(res.ToInsert) != 0 {
		t.Fatalf("a score correction must not insert new rows, got %d", len(res.ToInsert))
	}
	if len(res.ToUpdate) != 1 {
		t.Fatalf("got %d updates, want exactly 1", len(res.ToUpdate))
	}
	if res.ToUpdate[0].Data.Player1Score != 430 {
		t.Fatalf("updated score = %d, want 430", res.ToUpdate[0].Data.Player1Score)
	}
}

func TestReconcileNeverTouchesRowsMissingFromFile(t *testing.T) {
	div := testDivision()
	ids := seedMap(1, 101, 2, 102, 3, 103)
	persisted := persistResult(Reconcile(div, nil, ids))

	// Усечённая выгрузка: файл пришёл вообще без сыгранных раундов.
	for _, p := range div.Players {
		if p != nil {
			p.Scores = nil
			p.Pairings = nil
		}
	}

	res := Reconcile(div, persisted, ids)
	if len(res.ToInsert) != 0 || len(res.ToUpdate) != 0 {
		t.Fatalf("a shrunken file must not produce writes, got insert=%d update=%d",
			len(res.ToInsert), len(res.ToUpdate))
	}
}

func TestScoresChangedNullStoredScore(t *testing.T) {
	fresh := GameData{Player1Score: 400, Player2Score: 350}
	stored := models.Game{Player1Score: nil, Player2Score: nil}
	if !scoresChanged(fresh, stored) {
		t.Fatal("a stored NULL score must always count as changed")
	}
}

// persistResult превращает вставки в строки базы, как это сделал бы
// слой записи.
func persistResult(res Result) []models.Game {
	games := make([]models.Game, 0, len(res.ToInsert))
	for i, d := range res.ToInsert {
		p1 := d.Player1Score
		p2 := d.Player2Score
		games = append(games, models.Game{
			ID:           i + 1,
			RoundNumber:  d.RoundNumber,
			Player1ID:    d.Player1ID,
			Player2ID:    d.Player2ID,
			Player1Score: &p1,
			Player2Score: &p2,
			IsBye:        d.IsBye,
			PairingID:    d.PairingID,
		})
	}
	return games
}
