package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/scrabblecast/overlay-system/models"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	ListByUser(ctx context.Context, userID int) ([]*models.Tournament, error)
	UpdateMetadata(ctx context.Context, exec SQLExecutor, t *models.Tournament) error
	Delete(ctx context.Context, id int) error
	UpdatePollUntil(ctx context.Context, id int, pollUntil *time.Time) error
	ListActivePollable(ctx context.Context) ([]*models.Tournament, error)
	EndExpiredPollable(ctx context.Context) (int64, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `id, user_id, name, city, year, lexicon, long_form_name, theme, poll_until, created_at`

func (r *postgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (user_id, name, city, year, lexicon, long_form_name, theme)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		t.UserID,
		t.Name,
		t.City,
		t.Year,
		t.Lexicon,
		t.LongFormName,
		t.Theme,
	).Scan(&t.ID, &t.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert tournament: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1`, id)
	return scanTournament(row)
}

func scanTournament(row *sql.Row) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Name,
		&t.City,
		&t.Year,
		&t.Lexicon,
		&t.LongFormName,
		&t.Theme,
		&t.PollUntil,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament: %w", err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) ListByUser(ctx context.Context, userID int) ([]*models.Tournament, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tournamentColumns+` FROM tournaments WHERE user_id = $1 ORDER BY name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments for user %d: %w", userID, err)
	}
	defer rows.Close()
	return collectTournaments(rows)
}

func (r *postgresTournamentRepository) ListActivePollable(ctx context.Context) ([]*models.Tournament, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+tournamentColumns+`
		FROM tournaments
		WHERE poll_until IS NOT NULL AND poll_until > NOW()`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pollable tournaments: %w", err)
	}
	defer rows.Close()
	return collectTournaments(rows)
}

func collectTournaments(rows *sql.Rows) ([]*models.Tournament, error) {
	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t := &models.Tournament{}
		if err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.Name,
			&t.City,
			&t.Year,
			&t.Lexicon,
			&t.LongFormName,
			&t.Theme,
			&t.PollUntil,
			&t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", err)
		}
		tournaments = append(tournaments, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tournament rows iteration: %w", err)
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) UpdateMetadata(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	query := `
		UPDATE tournaments
		SET name = $1, city = $2, year = $3, lexicon = $4, long_form_name = $5, theme = $6
		WHERE id = $7`

	result, err := exec.ExecContext(ctx, query,
		t.Name, t.City, t.Year, t.Lexicon, t.LongFormName, t.Theme, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update tournament %d: %w", t.ID, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdatePollUntil(ctx context.Context, id int, pollUntil *time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tournaments SET poll_until = $1 WHERE id = $2`, pollUntil, id)
	if err != nil {
		return fmt.Errorf("failed to update poll_until for tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// EndExpiredPollable сбрасывает истёкшие poll_until, чтобы планировщик
// перестал опрашивать завершённые турниры.
func (r *postgresTournamentRepository) EndExpiredPollable(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE tournaments
		SET poll_until = NULL
		WHERE poll_until IS NOT NULL AND poll_until <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to end expired pollable tournaments: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return n, nil
}
