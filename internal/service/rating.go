package service

import (
	"context"
	"fmt"
)

type SellerRating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

func (s *Service) AddRating(ctx context.Context, sellerID, points int) error {
	if points < 1 || points > 5 {
		return errValidation("points must be between 1 and 5")
	}
	seller, err := s.repo.GetUserByID(ctx, sellerID)
	if err != nil {
		return err
	}
	if seller == nil {
		return fmt.Errorf("seller %d: %w", sellerID, ErrNotFound)
	}
	return s.repo.CreateRating(ctx, sellerID, points)
}

func (s *Service) SellerAverage(ctx context.Context, sellerID int) (SellerRating, error) {
	avg, count, err := s.repo.RatingAverage(ctx, sellerID)
	if err != nil {
		return SellerRating{}, err
	}
	return SellerRating{Average: avg, Count: count}, nil
}
