package models

import "encoding/json"

// Player - участник дивизиона. Seed - это 1-based id игрока из файла
// (позиция в массиве players), НЕ id в базе: он нужен, чтобы на каждом
// опросе заново разрешать pairings из файла в строки базы.
type Player struct {
	ID            int             `json:"id"`
	TournamentID  int             `json:"tournament_id"`
	DivisionID    int             `json:"division_id"`
	Seed          int             `json:"seed"`
	Name          string          `json:"name"`
	InitialRating int             `json:"initial_rating"`
	Photo         *string         `json:"photo,omitempty"`
	EtcData       json.RawMessage `json:"etc_data,omitempty"`
}
