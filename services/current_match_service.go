package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/scrabblecast/overlay-system/models"
	"github.com/scrabblecast/overlay-system/repositories"
)

type SetCurrentMatchInput struct {
	TournamentID int `json:"tournament_id"`
	DivisionID   int `json:"division_id"`
	Round        int `json:"round"`
	PairingID    int `json:"pairing_id"`
}

type CurrentMatchService interface {
	Set(ctx context.Context, userID int, input SetCurrentMatchInput) (*models.CurrentMatch, error)
	Get(ctx context.Context, userID int) (*models.CurrentMatch, error)
	Clear(ctx context.Context, userID int) error
}

type currentMatchService struct {
	matchRepo    repositories.CurrentMatchRepository
	divisionRepo repositories.DivisionRepository
	gameRepo     repositories.GameRepository
}

func NewCurrentMatchService(
	matchRepo repositories.CurrentMatchRepository,
	divisionRepo repositories.DivisionRepository,
	gameRepo repositories.GameRepository,
) CurrentMatchService {
	return &currentMatchService{
		matchRepo:    matchRepo,
		divisionRepo: divisionRepo,
		gameRepo:     gameRepo,
	}
}

// Set проверяет, что названная пара действительно существует в базе,
// прежде чем закрепить её за пользователем: оверлей, открытый по
// битой ссылке, хуже пустого.
func (s *currentMatchService) Set(ctx context.Context, userID int, input SetCurrentMatchInput) (*models.CurrentMatch, error) {
	division, err := s.divisionRepo.GetByID(ctx, input.DivisionID)
	if err != nil {
		if errors.Is(err, repositories.ErrDivisionNotFound) {
			return nil, ErrDivisionNotFound
		}
		return nil, err
	}
	if division.TournamentID != input.TournamentID {
		return nil, fmt.Errorf("%w: division %d does not belong to tournament %d",
			ErrValidationFailed, input.DivisionID, input.TournamentID)
	}

	if _, err := s.gameRepo.GetByPairing(ctx, input.DivisionID, input.Round, input.PairingID); err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	cm := &models.CurrentMatch{
		UserID:       userID,
		TournamentID: input.TournamentID,
		DivisionID:   input.DivisionID,
		Round:        input.Round,
		PairingID:    input.PairingID,
	}
	if err := s.matchRepo.Upsert(ctx, cm); err != nil {
		return nil, err
	}
	return cm, nil
}

func (s *currentMatchService) Get(ctx context.Context, userID int) (*models.CurrentMatch, error) {
	cm, err := s.matchRepo.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrCurrentMatchNotFound) {
			return nil, ErrCurrentMatchNotFound
		}
		return nil, err
	}
	return cm, nil
}

func (s *currentMatchService) Clear(ctx context.Context, userID int) error {
	err := s.matchRepo.Clear(ctx, userID)
	if err != nil && !errors.Is(err, repositories.ErrCurrentMatchNotFound) {
		return err
	}
	return nil
}
