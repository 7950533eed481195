package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/scrabblecast/overlay-system/models"
	"github.com/scrabblecast/overlay-system/repositories"
)

type CreateTournamentInput struct {
	Name         string  `json:"name"`
	DataURL      string  `json:"data_url"`
	City         *string `json:"city,omitempty"`
	Year         *int    `json:"year,omitempty"`
	Lexicon      *string `json:"lexicon,omitempty"`
	LongFormName *string `json:"long_form_name,omitempty"`
	Theme        *string `json:"theme,omitempty"`
}

type UpdateTournamentInput struct {
	Name         *string `json:"name,omitempty"`
	City         *string `json:"city,omitempty"`
	Year         *int    `json:"year,omitempty"`
	Lexicon      *string `json:"lexicon,omitempty"`
	LongFormName *string `json:"long_form_name,omitempty"`
	Theme        *string `json:"theme,omitempty"`
}

// TournamentTree - турнир со всеми дивизионами и игроками, как его
// запрашивают оверлеи при загрузке.
type TournamentTree struct {
	Tournament *models.Tournament `json:"tournament"`
	Divisions  []TreeDivision     `json:"divisions"`
}

type TreeDivision struct {
	Division *models.Division `json:"division"`
	Players  []*models.Player `json:"players"`
}

type TournamentService interface {
	Create(ctx context.Context, userID int, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	GetTree(ctx context.Context, id int) (*TournamentTree, error)
	ListByUser(ctx context.Context, userID int) ([]*models.Tournament, error)
	UpdateMetadata(ctx context.Context, userID, id int, input UpdateTournamentInput) (*models.Tournament, error)
	Delete(ctx context.Context, userID, id int) error

	// StartPolling открывает окно автоматического опроса до указанного
	// момента. StopPolling закрывает его немедленно.
	StartPolling(ctx context.Context, userID, id int, until time.Time) error
	StopPolling(ctx context.Context, userID, id int) error

	// Poll запускает ручной цикл опроса вне планировщика.
	Poll(ctx context.Context, userID, id int) (*PollOutcome, error)
}

type tournamentService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	dataRepo       repositories.TournamentDataRepository
	divisionRepo   repositories.DivisionRepository
	playerRepo     repositories.PlayerRepository
	poller         PollService
	logger         *slog.Logger
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	dataRepo repositories.TournamentDataRepository,
	divisionRepo repositories.DivisionRepository,
	playerRepo repositories.PlayerRepository,
	poller PollService,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:             db,
		tournamentRepo: tournamentRepo,
		dataRepo:       dataRepo,
		divisionRepo:   divisionRepo,
		playerRepo:     playerRepo,
		poller:         poller,
		logger:         logger,
	}
}

// Create заводит турнир и сразу выполняет первичный импорт файла тем же
// конвейером, что и регулярный опрос. Если файл не удалось скачать или
// разобрать, турнир не остаётся в полусобранном виде - строка удаляется.
func (s *tournamentService) Create(ctx context.Context, userID int, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	}
	if input.DataURL == "" {
		return nil, ErrDataURLRequired
	}

	tournament := &models.Tournament{
		UserID:       userID,
		Name:         input.Name,
		City:         input.City,
		Year:         input.Year,
		Lexicon:      input.Lexicon,
		LongFormName: input.LongFormName,
		Theme:        input.Theme,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin create transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.tournamentRepo.Create(ctx, tx, tournament); err != nil {
		return nil, fmt.Errorf("ошибка создания турнира: %w", err)
	}
	// Пустой блоб: первый цикл опроса его заполнит.
	if err := s.dataRepo.Upsert(ctx, tx, tournament.ID, input.DataURL, nil); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit create transaction: %w", err)
	}

	if _, err := s.poller.PollTournament(ctx, tournament.ID); err != nil {
		if delErr := s.tournamentRepo.Delete(ctx, tournament.ID); delErr != nil {
			s.logger.Error("failed to clean up tournament after failed import",
				slog.Int("tournament_id", tournament.ID),
				slog.Any("error", delErr))
		}
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", id, err)
	}
	return tournament, nil
}

func (s *tournamentService) GetTree(ctx context.Context, id int) (*TournamentTree, error) {
	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	divisions, err := s.divisionRepo.ListByTournament(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list divisions for tournament %d: %w", id, err)
	}

	tree := &TournamentTree{Tournament: tournament, Divisions: make([]TreeDivision, 0, len(divisions))}
	for _, d := range divisions {
		players, err := s.playerRepo.ListByDivision(ctx, d.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list players for division %d: %w", d.ID, err)
		}
		tree.Divisions = append(tree.Divisions, TreeDivision{Division: d, Players: players})
	}
	return tree, nil
}

func (s *tournamentService) ListByUser(ctx context.Context, userID int) ([]*models.Tournament, error) {
	tournaments, err := s.tournamentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments for user %d: %w", userID, err)
	}
	return tournaments, nil
}

func (s *tournamentService) UpdateMetadata(ctx context.Context, userID, id int, input UpdateTournamentInput) (*models.Tournament, error) {
	tournament, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, fmt.Errorf("%w: tournament name cannot be empty", ErrValidationFailed)
		}
		tournament.Name = *input.Name
	}
	if input.City != nil {
		tournament.City = input.City
	}
	if input.Year != nil {
		tournament.Year = input.Year
	}
	if input.Lexicon != nil {
		tournament.Lexicon = input.Lexicon
	}
	if input.LongFormName != nil {
		tournament.LongFormName = input.LongFormName
	}
	if input.Theme != nil {
		tournament.Theme = input.Theme
	}

	if err := s.tournamentRepo.UpdateMetadata(ctx, s.db, tournament); err != nil {
		return nil, fmt.Errorf("ошибка обновления турнира: %w", err)
	}
	return tournament, nil
}

func (s *tournamentService) Delete(ctx context.Context, userID, id int) error {
	if _, err := s.getOwned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.tournamentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("ошибка удаления турнира: %w", err)
	}
	return nil
}

func (s *tournamentService) StartPolling(ctx context.Context, userID, id int, until time.Time) error {
	if _, err := s.getOwned(ctx, userID, id); err != nil {
		return err
	}
	if !until.After(time.Now()) {
		return fmt.Errorf("%w: polling deadline must be in the future", ErrValidationFailed)
	}
	return s.tournamentRepo.UpdatePollUntil(ctx, id, &until)
}

func (s *tournamentService) StopPolling(ctx context.Context, userID, id int) error {
	if _, err := s.getOwned(ctx, userID, id); err != nil {
		return err
	}
	return s.tournamentRepo.UpdatePollUntil(ctx, id, nil)
}

func (s *tournamentService) Poll(ctx context.Context, userID, id int) (*PollOutcome, error) {
	if _, err := s.getOwned(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.poller.PollTournament(ctx, id)
}

func (s *tournamentService) getOwned(ctx context.Context, userID, id int) (*models.Tournament, error) {
	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tournament.UserID != userID {
		return nil, ErrForbiddenOperation
	}
	return tournament, nil
}
