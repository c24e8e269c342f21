package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"studentmarket/internal/model"
	"studentmarket/internal/repository"
)

func (s *Service) Register(ctx context.Context, username, usermail, password string) (*model.User, error) {
	taken, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	newID, err := s.repo.CreateUser(ctx, username, usermail, string(hash))
	if err != nil {
		// A racing registration can win between the existence check and
		// the insert; it surfaces as the same taken-username failure.
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return s.repo.GetUserByID(ctx, newID)
}

func (s *Service) Login(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID int, email, password string, about *string) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user, err := s.repo.UpdateUserProfile(ctx, userID, email, string(hash), about)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

func (s *Service) AddBalance(ctx context.Context, userID int, amount float64) (float64, error) {
	if amount <= 0 {
		return 0, errValidation("amount must be greater than zero")
	}
	balance, err := s.repo.AddUserBalance(ctx, userID, amount)
	if err != nil {
		return 0, mapNoRows(err)
	}
	return balance, nil
}

func (s *Service) GetBalance(ctx context.Context, userID int) (float64, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, ErrNotFound
	}
	return user.Balance, nil
}

// EmailsByUserIDs resolves usermail addresses for up to 10 user ids. The cap
// mirrors the store's batched-lookup limit.
func (s *Service) EmailsByUserIDs(ctx context.Context, userIDs []int) ([]string, error) {
	if len(userIDs) == 0 {
		return nil, errValidation("a non-empty list of user IDs is required")
	}
	if len(userIDs) > 10 {
		return nil, errValidation("maximum 10 user IDs allowed per request")
	}
	emails, err := s.repo.EmailsByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	if len(emails) == 0 {
		return nil, ErrNotFound
	}
	return emails, nil
}
