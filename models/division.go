package models

// Division - независимо ранжируемая группа внутри турнира. Имя в файле
// не уникально между опросами, поэтому стабильный ключ - position.
type Division struct {
	ID           int    `json:"id"`
	TournamentID int    `json:"tournament_id"`
	Name         string `json:"name"`
	Position     int    `json:"position"`
}
