package models

import (
	"encoding/json"
	"time"
)

// Tournament хранит метаданные одного турнира. Сырые данные файла живут
// отдельно в TournamentData, чтобы не таскать блоб в каждом запросе.
type Tournament struct {
	ID           int       `json:"id"`
	UserID       int       `json:"user_id"`
	Name         string    `json:"name"`
	City         *string   `json:"city,omitempty"`
	Year         *int      `json:"year,omitempty"`
	Lexicon      *string   `json:"lexicon,omitempty"`
	LongFormName *string   `json:"long_form_name,omitempty"`
	Theme        *string   `json:"theme,omitempty"`
	PollUntil    *time.Time `json:"poll_until,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// TournamentData - зеркало последнего успешно распарсенного файла.
type TournamentData struct {
	ID           int             `json:"id"`
	TournamentID int             `json:"tournament_id"`
	DataURL      string          `json:"data_url"`
	Data         json.RawMessage `json:"data"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TournamentDataVersion - append-only история блобов (для отладки/отката).
type TournamentDataVersion struct {
	ID           int             `json:"id"`
	TournamentID int             `json:"tournament_id"`
	Data         json.RawMessage `json:"data"`
	CreatedAt    time.Time       `json:"created_at"`
}
