package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/scrabblecast/overlay-system/models"
)

var ErrDivisionNotFound = errors.New("division not found")

type DivisionRepository interface {
	// Upsert вставляет дивизион либо обновляет имя существующего.
	// Стабильный ключ - (tournament_id, position): имя дивизиона может
	// меняться между опросами.
	Upsert(ctx context.Context, exec SQLExecutor, d *models.Division) error
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Division, error)
	GetByID(ctx context.Context, id int) (*models.Division, error)
}

type postgresDivisionRepository struct {
	db *sql.DB
}

func NewPostgresDivisionRepository(db *sql.DB) DivisionRepository {
	return &postgresDivisionRepository{db: db}
}

func (r *postgresDivisionRepository) Upsert(ctx context.Context, exec SQLExecutor, d *models.Division) error {
	query := `
		INSERT INTO divisions (tournament_id, name, position)
		VALUES ($1, $2, $3)
		ON CONFLICT (tournament_id, position)
		DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	err := exec.QueryRowContext(ctx, query, d.TournamentID, d.Name, d.Position).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert division %q (position %d): %w", d.Name, d.Position, err)
	}
	return nil
}

func (r *postgresDivisionRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Division, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tournament_id, name, position
		FROM divisions
		WHERE tournament_id = $1
		ORDER BY position ASC`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query divisions for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	divisions := make([]*models.Division, 0)
	for rows.Next() {
		d := &models.Division{}
		if err := rows.Scan(&d.ID, &d.TournamentID, &d.Name, &d.Position); err != nil {
			return nil, fmt.Errorf("failed to scan division row: %w", err)
		}
		divisions = append(divisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during division rows iteration: %w", err)
	}
	return divisions, nil
}

func (r *postgresDivisionRepository) GetByID(ctx context.Context, id int) (*models.Division, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT id, tournament_id, name, position
		FROM divisions
		WHERE id = $1`, id))
}

func (r *postgresDivisionRepository) scanOne(row *sql.Row) (*models.Division, error) {
	d := &models.Division{}
	err := row.Scan(&d.ID, &d.TournamentID, &d.Name, &d.Position)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDivisionNotFound
		}
		return nil, fmt.Errorf("failed to scan division: %w", err)
	}
	return d, nil
}
