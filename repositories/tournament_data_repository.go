package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/scrabblecast/overlay-system/models"
)

var (
	ErrTournamentDataNotFound    = errors.New("tournament data not found")
	ErrTournamentVersionNotFound = errors.New("tournament data version not found")
)

type TournamentDataRepository interface {
	GetByTournamentID(ctx context.Context, tournamentID int) (*models.TournamentData, error)
	Upsert(ctx context.Context, exec SQLExecutor, tournamentID int, dataURL string, data json.RawMessage) error
	InsertVersion(ctx context.Context, exec SQLExecutor, tournamentID int, data json.RawMessage) error
	ListVersions(ctx context.Context, tournamentID int) ([]*models.TournamentDataVersion, error)
	GetVersionByID(ctx context.Context, versionID int) (*models.TournamentDataVersion, error)
}

type postgresTournamentDataRepository struct {
	db *sql.DB
}

func NewPostgresTournamentDataRepository(db *sql.DB) TournamentDataRepository {
	return &postgresTournamentDataRepository{db: db}
}

func (r *postgresTournamentDataRepository) GetByTournamentID(ctx context.Context, tournamentID int) (*models.TournamentData, error) {
	td := &models.TournamentData{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tournament_id, data_url, data, updated_at
		FROM tournament_data
		WHERE tournament_id = $1`, tournamentID,
	).Scan(&td.ID, &td.TournamentID, &td.DataURL, &td.Data, &td.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentDataNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament data for tournament %d: %w", tournamentID, err)
	}
	return td, nil
}

func (r *postgresTournamentDataRepository) Upsert(ctx context.Context, exec SQLExecutor, tournamentID int, dataURL string, data json.RawMessage) error {
	query := `
		INSERT INTO tournament_data (tournament_id, data_url, data, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (tournament_id)
		DO UPDATE SET data_url = EXCLUDED.data_url, data = EXCLUDED.data, updated_at = NOW()`

	if _, err := exec.ExecContext(ctx, query, tournamentID, dataURL, []byte(data)); err != nil {
		return fmt.Errorf("failed to upsert tournament data for tournament %d: %w", tournamentID, err)
	}
	return nil
}

// InsertVersion добавляет снапшот в append-only историю. Версии никогда
// не изменяются после записи.
func (r *postgresTournamentDataRepository) InsertVersion(ctx context.Context, exec SQLExecutor, tournamentID int, data json.RawMessage) error {
	query := `
		INSERT INTO tournament_data_versions (tournament_id, data, created_at)
		VALUES ($1, $2, NOW())`

	if _, err := exec.ExecContext(ctx, query, tournamentID, []byte(data)); err != nil {
		return fmt.Errorf("failed to insert tournament data version for tournament %d: %w", tournamentID, err)
	}
	return nil
}

func (r *postgresTournamentDataRepository) ListVersions(ctx context.Context, tournamentID int) ([]*models.TournamentDataVersion, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tournament_id, data, created_at
		FROM tournament_data_versions
		WHERE tournament_id = $1
		ORDER BY created_at DESC, id DESC`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query versions for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	versions := make([]*models.TournamentDataVersion, 0)
	for rows.Next() {
		v := &models.TournamentDataVersion{}
		if err := rows.Scan(&v.ID, &v.TournamentID, &v.Data, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan version row: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during version rows iteration: %w", err)
	}
	return versions, nil
}

func (r *postgresTournamentDataRepository) GetVersionByID(ctx context.Context, versionID int) (*models.TournamentDataVersion, error) {
	v := &models.TournamentDataVersion{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tournament_id, data, created_at
		FROM tournament_data_versions
		WHERE id = $1`, versionID,
	).Scan(&v.ID, &v.TournamentID, &v.Data, &v.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentVersionNotFound
		}
		return nil, fmt.Errorf("failed to scan version %d: %w", versionID, err)
	}
	return v, nil
}
