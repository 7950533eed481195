package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/scrabblecast/overlay-system/models"
)

var (
	ErrGameNotFound = errors.New("game not found")
	// ErrGameConflict - нарушение уникальности
	// (division_id, round_number, pairing_id). Реконсилер структурно не
	// допускает дублей, база страхует; транзакция опроса откатывается.
	ErrGameConflict = errors.New("game already exists for division/round/pairing")
)

type GameRepository interface {
	BatchInsert(ctx context.Context, exec SQLExecutor, games []*models.Game) error
	UpdateScores(ctx context.Context, exec SQLExecutor, g *models.Game) error
	ListByDivision(ctx context.Context, divisionID int) ([]models.Game, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Game, error)
	GetByPairing(ctx context.Context, divisionID, roundNumber, pairingID int) (*models.Game, error)
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

const gameColumns = `id, division_id, round_number, player1_id, player2_id, player1_score, player2_score, is_bye, pairing_id`

// BatchInsert вставляет партии одним запросом и проставляет им id.
// Порядок RETURNING соответствует порядку VALUES.
func (r *postgresGameRepository) BatchInsert(ctx context.Context, exec SQLExecutor, games []*models.Game) error {
	if len(games) == 0 {
		return nil
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		INSERT INTO games
			(division_id, round_number, player1_id, player2_id, player1_score, player2_score, is_bye, pairing_id)
		VALUES `)

	args := make([]interface{}, 0, len(games)*8)
	for i, g := range games {
		if i > 0 {
			queryBuilder.WriteString(", ")
		}
		base := i * 8
		fmt.Fprintf(&queryBuilder, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8)
		args = append(args,
			g.DivisionID,
			g.RoundNumber,
			g.Player1ID,
			g.Player2ID,
			g.Player1Score,
			g.Player2Score,
			g.IsBye,
			g.PairingID,
		)
	}
	queryBuilder.WriteString(" RETURNING id")

	rows, err := exec.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		if isUniqueViolation(err, "games_division_id_round_number_pairing_id_key") {
			return fmt.Errorf("%w: %v", ErrGameConflict, err)
		}
		return fmt.Errorf("failed to batch insert %d games: %w", len(games), err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if i >= len(games) {
			return fmt.Errorf("batch insert returned more ids than games inserted")
		}
		if err := rows.Scan(&games[i].ID); err != nil {
			return fmt.Errorf("failed to scan inserted game id: %w", err)
		}
		i++
	}
	if err := rows.Err(); err != nil {
		if isUniqueViolation(err, "games_division_id_round_number_pairing_id_key") {
			return fmt.Errorf("%w: %v", ErrGameConflict, err)
		}
		return fmt.Errorf("error during inserted game ids iteration: %w", err)
	}
	if i != len(games) {
		return fmt.Errorf("batch insert returned %d ids for %d games", i, len(games))
	}
	return nil
}

func (r *postgresGameRepository) UpdateScores(ctx context.Context, exec SQLExecutor, g *models.Game) error {
	query := `
		UPDATE games
		SET player1_id = $1, player2_id = $2, player1_score = $3, player2_score = $4
		WHERE id = $5`

	result, err := exec.ExecContext(ctx, query,
		g.Player1ID, g.Player2ID, g.Player1Score, g.Player2Score, g.ID)
	if err != nil {
		return fmt.Errorf("failed to update game %d: %w", g.ID, err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) ListByDivision(ctx context.Context, divisionID int) ([]models.Game, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+gameColumns+`
		FROM games
		WHERE division_id = $1
		ORDER BY round_number ASC, pairing_id ASC`, divisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query games for division %d: %w", divisionID, err)
	}
	defer rows.Close()
	return collectGames(rows)
}

func (r *postgresGameRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.Game, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT g.`+strings.ReplaceAll(gameColumns, ", ", ", g.")+`
		FROM games g
		JOIN divisions d ON g.division_id = d.id
		WHERE d.tournament_id = $1
		ORDER BY g.division_id ASC, g.round_number ASC, g.pairing_id ASC`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query games for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()
	return collectGames(rows)
}

func (r *postgresGameRepository) GetByPairing(ctx context.Context, divisionID, roundNumber, pairingID int) (*models.Game, error) {
	g := models.Game{}
	err := r.db.QueryRowContext(ctx, `
		SELECT `+gameColumns+`
		FROM games
		WHERE division_id = $1 AND round_number = $2 AND pairing_id = $3`,
		divisionID, roundNumber, pairingID,
	).Scan(
		&g.ID,
		&g.DivisionID,
		&g.RoundNumber,
		&g.Player1ID,
		&g.Player2ID,
		&g.Player1Score,
		&g.Player2Score,
		&g.IsBye,
		&g.PairingID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to scan game: %w", err)
	}
	return &g, nil
}

func collectGames(rows *sql.Rows) ([]models.Game, error) {
	games := make([]models.Game, 0)
	for rows.Next() {
		var g models.Game
		if err := rows.Scan(
			&g.ID,
			&g.DivisionID,
			&g.RoundNumber,
			&g.Player1ID,
			&g.Player2ID,
			&g.Player1Score,
			&g.Player2Score,
			&g.IsBye,
			&g.PairingID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during game rows iteration: %w", err)
	}
	return games, nil
}
