package tsh

import (
	"errors"
	"testing"
)

func TestParseLiteralRealisticExport(t *testing.T) {
	src := []byte(`newt = {
	// экспорт движка, ключи без кавычек
	config: {event_name: 'Spring Open', max_rounds: 7},
	divisions: [
		{
			name: "A",
			players: [
				undefined,
				{id: 1, name: 'Alpha, Anna', rating: 1700,
					scores: [450, 380], pairings: [2, 3],
					etc: {p12: [1, 2], newr: [1710, 1695], xtid: [42]},
				},
				{id: 2, name: "Beta, Boris", rating: 1650,
					scores: [400], pairings: [1],
					etc: {p12: [2], newr: [NaN]},
				},
			],
		},
	],
};`)

	root, err := ParseLiteral(src)
	if err != nil {
		t.Fatalf("ParseLiteral: %v", err)
	}

	cfg, ok := root["config"].(map[string]any)
	if !ok {
		t.Fatal("config must decode as an object")
	}
	if cfg["event_name"] != "Spring Open" {
		t.Errorf("event_name = %v", cfg["event_name"])
	}
	if cfg["max_rounds"] != float64(7) {
		t.Errorf("max_rounds = %v, want 7", cfg["max_rounds"])
	}

	file, err := DecodeFile(root)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if len(file.Divisions) != 1 {
		t.Fatalf("got %d divisions, want 1", len(file.Divisions))
	}
	div := file.Divisions[0]
	if div.Name != "A" {
		t.Errorf("division name = %q", div.Name)
	}
	// undefined на нулевой позиции остаётся nil-заглушкой.
	if len(div.Players) != 3 || div.Players[0] != nil {
		t.Fatalf("players decoded incorrectly: len=%d", len(div.Players))
	}

	anna := div.Players[1]
	if anna.ID != 1 || anna.Rating != 1700 {
		t.Errorf("player 1 decoded as %+v", anna)
	}
	if len(anna.Scores) != 2 || anna.Scores[1] != 380 {
		t.Errorf("scores = %v", anna.Scores)
	}
	if len(anna.Etc.NewR) != 2 || anna.Etc.NewR[1] != 1695 {
		t.Errorf("newr = %v", anna.Etc.NewR)
	}
	// Незнакомый ключ etc сохраняется в сыром блоке.
	if _, ok := anna.Etc.Raw["xtid"]; !ok {
		t.Error("etc raw block must keep unknown keys")
	}
}

func TestParseLiteralNonJSONValues(t *testing.T) {
	root, err := ParseLiteral([]byte(`{a: NaN, b: undefined, c: Infinity, d: -Infinity, e: null}`))
	if err != nil {
		t.Fatalf("ParseLiteral: %v", err)
	}
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		if root[k] != nil {
			t.Errorf("%s = %v, want nil", k, root[k])
		}
	}
}

func TestParseLiteralEscapes(t *testing.T) {
	root, err := ParseLiteral([]byte(`{name: 'O\'Brien, Seán', note: "tab\there", emoji: "🏆"}`))
	if err != nil {
		t.Fatalf("ParseLiteral: %v", err)
	}
	if root["name"] != "O'Brien, Seán" {
		t.Errorf("name = %q", root["name"])
	}
	if root["note"] != "tab\there" {
		t.Errorf("note = %q", root["note"])
	}
	// Суррогатная пара собирается в одну руну.
	if root["emoji"] != "\U0001f3c6" {
		t.Errorf("emoji = %q", root["emoji"])
	}
}

func TestParseLiteralNumbers(t *testing.T) {
	root, err := ParseLiteral([]byte(`{a: -50, b: +3, c: 1.5e2}`))
	if err != nil {
		t.Fatalf("ParseLiteral: %v", err)
	}
	if root["a"] != float64(-50) || root["b"] != float64(3) || root["c"] != float64(150) {
		t.Errorf("numbers = %v %v %v", root["a"], root["b"], root["c"])
	}
}

func TestParseLiteralErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"no object", `var x = 42;`},
		{"unterminated object", `{a: 1`},
		{"unterminated string", `{a: 'oops}`},
		{"trailing garbage", `{a: 1} extra`},
		{"function call", `{a: foo()}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseLiteral([]byte(tc.src))
			if !errors.Is(err, ErrParse) {
				t.Fatalf("want ErrParse, got %v", err)
			}
		})
	}
}

func TestParseRoundTripsToJSON(t *testing.T) {
	src := []byte(`newt = {divisions: [{name: 'A', players: [undefined, {id: 1, name: 'X, Y', rating: 1500, scores: [NaN], pairings: [0]}]}]};`)

	_, raw, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	// Канонический блоб обязан быть валидным JSON: NaN уже сведён к null.
	reparsed, err := ParseLiteral(raw)
	if err != nil {
		t.Fatalf("canonical blob must reparse cleanly: %v", err)
	}
	if _, ok := reparsed["divisions"].([]any); !ok {
		t.Fatal("divisions lost in round trip")
	}
}
