package services

import (
	"context"
	"errors"

	"github.com/scrabblecast/overlay-system/models"
	"github.com/scrabblecast/overlay-system/repositories"
)

type UserService interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	// UpdateTheme сохраняет тему оформления оверлеев пользователя.
	// nil сбрасывает на тему по умолчанию.
	UpdateTheme(ctx context.Context, id int, theme *string) (*models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) UpdateTheme(ctx context.Context, id int, theme *string) (*models.User, error) {
	if err := s.userRepo.UpdateTheme(ctx, id, theme); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.GetByID(ctx, id)
}
