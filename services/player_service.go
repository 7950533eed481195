package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/scrabblecast/overlay-system/models"
	"github.com/scrabblecast/overlay-system/repositories"
	"github.com/scrabblecast/overlay-system/storage"
)

var allowedPhotoTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type PlayerService interface {
	GetByID(ctx context.Context, id int) (*models.Player, error)
	// UploadPhoto кладёт фото игрока в объектное хранилище и сохраняет
	// публичный URL. Без сконфигурированного хранилища возвращает
	// ErrStorageNotConfigured.
	UploadPhoto(ctx context.Context, userID, playerID int, contentType string, file io.Reader) (*models.Player, error)
	RemovePhoto(ctx context.Context, userID, playerID int) error
}

type playerService struct {
	playerRepo     repositories.PlayerRepository
	tournamentRepo repositories.TournamentRepository
	uploader       storage.FileUploader // nil, если R2 не сконфигурирован
}

func NewPlayerService(
	playerRepo repositories.PlayerRepository,
	tournamentRepo repositories.TournamentRepository,
	uploader storage.FileUploader,
) PlayerService {
	return &playerService{
		playerRepo:     playerRepo,
		tournamentRepo: tournamentRepo,
		uploader:       uploader,
	}
}

func (s *playerService) GetByID(ctx context.Context, id int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return player, nil
}

func (s *playerService) UploadPhoto(ctx context.Context, userID, playerID int, contentType string, file io.Reader) (*models.Player, error) {
	if s.uploader == nil {
		return nil, ErrStorageNotConfigured
	}
	ext, ok := allowedPhotoTypes[strings.ToLower(contentType)]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported photo content type %q", ErrValidationFailed, contentType)
	}

	player, err := s.getEditable(ctx, userID, playerID)
	if err != nil {
		return nil, err
	}

	key := path.Join("players",
		fmt.Sprintf("%d", player.TournamentID),
		fmt.Sprintf("%d_%d%s", player.ID, time.Now().Unix(), ext))

	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки фото: %w", err)
	}

	if err := s.playerRepo.UpdatePhoto(ctx, player.ID, &result.Location); err != nil {
		return nil, err
	}
	player.Photo = &result.Location
	return player, nil
}

func (s *playerService) RemovePhoto(ctx context.Context, userID, playerID int) error {
	player, err := s.getEditable(ctx, userID, playerID)
	if err != nil {
		return err
	}
	if player.Photo == nil {
		return nil
	}
	return s.playerRepo.UpdatePhoto(ctx, player.ID, nil)
}

func (s *playerService) getEditable(ctx context.Context, userID, playerID int) (*models.Player, error) {
	player, err := s.GetByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, player.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tournament %d: %w", player.TournamentID, err)
	}
	if tournament.UserID != userID {
		return nil, ErrForbiddenOperation
	}
	return player, nil
}
