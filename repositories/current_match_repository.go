package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/scrabblecast/overlay-system/models"
)

var ErrCurrentMatchNotFound = errors.New("current match not found")

type CurrentMatchRepository interface {
	Upsert(ctx context.Context, cm *models.CurrentMatch) error
	GetByUser(ctx context.Context, userID int) (*models.CurrentMatch, error)
	Clear(ctx context.Context, userID int) error
}

type postgresCurrentMatchRepository struct {
	db *sql.DB
}

func NewPostgresCurrentMatchRepository(db *sql.DB) CurrentMatchRepository {
	return &postgresCurrentMatchRepository{db: db}
}

// Upsert - у пользователя ровно одна текущая пара на экране,
// запись перезаписывается целиком.
func (r *postgresCurrentMatchRepository) Upsert(ctx context.Context, cm *models.CurrentMatch) error {
	query := `
		INSERT INTO current_matches (user_id, tournament_id, division_id, round, pairing_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET tournament_id = EXCLUDED.tournament_id,
		    division_id = EXCLUDED.division_id,
		    round = EXCLUDED.round,
		    pairing_id = EXCLUDED.pairing_id,
		    updated_at = NOW()
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		cm.UserID, cm.TournamentID, cm.DivisionID, cm.Round, cm.PairingID,
	).Scan(&cm.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert current match for user %d: %w", cm.UserID, err)
	}
	return nil
}

func (r *postgresCurrentMatchRepository) GetByUser(ctx context.Context, userID int) (*models.CurrentMatch, error) {
	cm := models.CurrentMatch{}
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, tournament_id, division_id, round, pairing_id, updated_at
		FROM current_matches
		WHERE user_id = $1`, userID,
	).Scan(&cm.UserID, &cm.TournamentID, &cm.DivisionID, &cm.Round, &cm.PairingID, &cm.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCurrentMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan current match: %w", err)
	}
	return &cm, nil
}

func (r *postgresCurrentMatchRepository) Clear(ctx context.Context, userID int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM current_matches WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear current match for user %d: %w", userID, err)
	}
	return checkAffectedRows(result, ErrCurrentMatchNotFound)
}
