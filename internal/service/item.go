package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"studentmarket/internal/model"
)

type NewItem struct {
	Name      string
	Category  string
	Condition string
	Grade     string
	Subject   string
	OwnerID   int
	Price     float64
	Images    []string
}

func (s *Service) AddItem(ctx context.Context, in NewItem) (*model.Item, error) {
	if in.Price <= 0 {
		return nil, errValidation("price must be greater than zero")
	}
	owner, err := s.repo.GetUserByID(ctx, in.OwnerID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, fmt.Errorf("owner %d: %w", in.OwnerID, ErrNotFound)
	}

	item := &model.Item{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Category:  in.Category,
		Condition: in.Condition,
		Grade:     in.Grade,
		Subject:   in.Subject,
		OwnerID:   in.OwnerID,
		Price:     in.Price,
		Images:    in.Images,
		Reviews:   []string{},
		Available: true,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) ListItems(ctx context.Context) ([]model.Item, error) {
	return s.repo.ListItems(ctx)
}

func (s *Service) GetItem(ctx context.Context, id string) (*model.Item, error) {
	item, err := s.repo.GetItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}
	return item, nil
}

func (s *Service) EditItem(ctx context.Context, id string, patch model.ItemPatch) (*model.Item, error) {
	if patch.Price != nil && *patch.Price <= 0 {
		return nil, errValidation("price must be greater than zero")
	}
	item, err := s.repo.UpdateItem(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}
	return item, nil
}

func (s *Service) MarkUnavailable(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return errValidation("a non-empty list of item IDs is required")
	}
	marked, err := s.repo.MarkItemsUnavailable(ctx, ids)
	if err != nil {
		return err
	}
	if marked == 0 {
		return ErrNotFound
	}
	return nil
}

type ItemComment struct {
	ItemID  string
	Comment string
}

// AddComments appends each review to its item. Comments are applied
// independently; the first missing item aborts the rest.
func (s *Service) AddComments(ctx context.Context, comments []ItemComment) error {
	if len(comments) == 0 {
		return errValidation("at least one comment is required")
	}
	for _, c := range comments {
		if err := s.repo.AppendItemReview(ctx, c.ItemID, c.Comment); err != nil {
			return fmt.Errorf("item %s: %w", c.ItemID, mapNoRows(err))
		}
	}
	return nil
}
