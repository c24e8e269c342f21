package service

import (
	"context"
	"errors"
	"fmt"

	"studentmarket/internal/model"
	"studentmarket/internal/repository"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidCredentials  = errors.New("incorrect password")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrItemUnavailable     = errors.New("item is no longer available")
)

// ValidationError marks rejected input so handlers answer 400 rather than
// treating it as an internal failure.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func errValidation(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// Repository is the persistence surface the service needs. The pgx
// implementation lives in internal/repository; tests supply a mock.
type Repository interface {
	RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error

	CreateUser(ctx context.Context, username, usermail, passwordHash string) (int, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByID(ctx context.Context, id int) (*model.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	GetUserBalanceForUpdate(ctx context.Context, userID int) (float64, error)
	AddUserBalance(ctx context.Context, userID int, amount float64) (float64, error)
	DebitUserBalance(ctx context.Context, userID int, amount float64) error
	CreditUserBalance(ctx context.Context, userID int, amount float64) error
	UpdateUserProfile(ctx context.Context, userID int, usermail, passwordHash string, about *string) (*model.User, error)
	EmailsByUserIDs(ctx context.Context, userIDs []int) ([]string, error)

	CreateItem(ctx context.Context, item *model.Item) error
	ListItems(ctx context.Context) ([]model.Item, error)
	GetItemByID(ctx context.Context, id string) (*model.Item, error)
	GetItemForUpdate(ctx context.Context, id string) (*model.Item, error)
	UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (*model.Item, error)
	MarkItemsUnavailable(ctx context.Context, ids []string) (int, error)
	AppendItemReview(ctx context.Context, id string, review string) error

	CreateOrder(ctx context.Context, order *model.Order) error
	ListOrdersByUser(ctx context.Context, userID int) ([]model.Order, error)

	CreateRating(ctx context.Context, sellerID, points int) error
	RatingAverage(ctx context.Context, sellerID int) (float64, int, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// mapNoRows translates storage-level sentinels into the service taxonomy.
func mapNoRows(err error) error {
	switch {
	case errors.Is(err, repository.ErrNoRows):
		return ErrNotFound
	case errors.Is(err, repository.ErrInsufficientFunds):
		return ErrInsufficientBalance
	default:
		return err
	}
}
