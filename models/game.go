package models

// Game - одна партия (или bye). Уникальна по
// (division_id, round_number, pairing_id): это инвариант против
// дублей, реконсилер обязан его соблюдать, база - подстраховывает.
//
// Player1ID/Player2ID - id строк players (у bye оба указывают на одного
// игрока). PairingID - меньший из двух файловых seed'ов, у bye - seed
// самого игрока.
type Game struct {
	ID           int  `json:"id"`
	DivisionID   int  `json:"division_id"`
	RoundNumber  int  `json:"round_number"`
	Player1ID    int  `json:"player1_id"`
	Player2ID    int  `json:"player2_id"`
	Player1Score *int `json:"player1_score"`
	Player2Score *int `json:"player2_score"`
	IsBye        bool `json:"is_bye"`
	PairingID    int  `json:"pairing_id"`
}

// GameChanges - результат одного опроса для рассылки оверлеям.
type GameChanges struct {
	Added   []Game `json:"added"`
	Updated []Game `json:"updated"`
}
