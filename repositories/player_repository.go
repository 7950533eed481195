package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/scrabblecast/overlay-system/models"
)

var ErrPlayerNotFound = errors.New("player not found")

type PlayerRepository interface {
	Create(ctx context.Context, exec SQLExecutor, p *models.Player) error
	// UpdateFromFile обновляет поля, приезжающие из файла на каждом
	// опросе (имя, etc_data с историей рейтингов). Seed неизменяем.
	UpdateFromFile(ctx context.Context, exec SQLExecutor, p *models.Player) error
	UpdatePhoto(ctx context.Context, id int, photo *string) error
	ListByDivision(ctx context.Context, divisionID int) ([]*models.Player, error)
	GetByID(ctx context.Context, id int) (*models.Player, error)
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

const playerColumns = `id, tournament_id, division_id, seed, name, initial_rating, photo, etc_data`

func (r *postgresPlayerRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Player) error {
	query := `
		INSERT INTO players (tournament_id, division_id, seed, name, initial_rating, photo, etc_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := exec.QueryRowContext(ctx, query,
		p.TournamentID,
		p.DivisionID,
		p.Seed,
		p.Name,
		p.InitialRating,
		p.Photo,
		[]byte(p.EtcData),
	).Scan(&p.ID)

	if err != nil {
		if isUniqueViolation(err, "players_division_id_seed_key") {
			return fmt.Errorf("player seed %d already exists in division %d: %w", p.Seed, p.DivisionID, err)
		}
		return fmt.Errorf("failed to insert player %q: %w", p.Name, err)
	}
	return nil
}

func (r *postgresPlayerRepository) UpdateFromFile(ctx context.Context, exec SQLExecutor, p *models.Player) error {
	query := `
		UPDATE players
		SET name = $1, initial_rating = $2, etc_data = $3
		WHERE id = $4`

	result, err := exec.ExecContext(ctx, query, p.Name, p.InitialRating, []byte(p.EtcData), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update player %d: %w", p.ID, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) UpdatePhoto(ctx context.Context, id int, photo *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE players SET photo = $1 WHERE id = $2`, photo, id)
	if err != nil {
		return fmt.Errorf("failed to update photo for player %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) ListByDivision(ctx context.Context, divisionID int) ([]*models.Player, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE division_id = $1 ORDER BY seed ASC`, divisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players for division %d: %w", divisionID, err)
	}
	defer rows.Close()

	players := make([]*models.Player, 0)
	for rows.Next() {
		p := &models.Player{}
		if err := rows.Scan(
			&p.ID,
			&p.TournamentID,
			&p.DivisionID,
			&p.Seed,
			&p.Name,
			&p.InitialRating,
			&p.Photo,
			&p.EtcData,
		); err != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during player rows iteration: %w", err)
	}
	return players, nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	p := &models.Player{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = $1`, id,
	).Scan(
		&p.ID,
		&p.TournamentID,
		&p.DivisionID,
		&p.Seed,
		&p.Name,
		&p.InitialRating,
		&p.Photo,
		&p.EtcData,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to scan player by id %d: %w", id, err)
	}
	return p, nil
}
