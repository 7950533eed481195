package models

import "time"

// CurrentMatch - закреплённый за пользователем матч, на который
// оверлеи переключаются по умолчанию, если в URL не указан явный.
type CurrentMatch struct {
	UserID       int       `json:"user_id"`
	TournamentID int       `json:"tournament_id"`
	DivisionID   int       `json:"division_id"`
	Round        int       `json:"round"`
	PairingID    int       `json:"pairing_id"`
	UpdatedAt    time.Time `json:"updated_at"`
}
