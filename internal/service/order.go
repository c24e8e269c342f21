package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"studentmarket/internal/model"
)

type OrderRequest struct {
	DeliveryAddress string
	Lines           []OrderLineRequest
}

type OrderLineRequest struct {
	ItemID   string
	Quantity int
}

// PlaceOrder settles a checkout in one transaction: the buyer is debited,
// every seller is credited their subtotal, the order is recorded and the
// purchased items become unavailable. A failure at any step rolls back all
// of them, so no partial settlement is ever visible.
//
// Prices, names and seller ids are read from the locked item rows rather
// than taken from the request, so a stale cart cannot buy at an old price.
func (s *Service) PlaceOrder(ctx context.Context, buyerID int, req OrderRequest) (*model.Order, error) {
	if len(req.Lines) == 0 {
		return nil, errValidation("order must contain at least one item")
	}
	for _, line := range req.Lines {
		if line.Quantity <= 0 {
			return nil, errValidation("quantity must be greater than zero")
		}
	}

	var order *model.Order
	err := s.repo.RunAtomic(ctx, func(ctx context.Context) error {
		// Lock the buyer first: every concurrent checkout against the same
		// account serializes here.
		balance, err := s.repo.GetUserBalanceForUpdate(ctx, buyerID)
		if err != nil {
			return mapNoRows(err)
		}

		var (
			total        float64
			lines        []model.OrderLine
			itemIDs      []string
			sellerShares = make(map[int]float64)
		)
		for _, reqLine := range req.Lines {
			item, err := s.repo.GetItemForUpdate(ctx, reqLine.ItemID)
			if err != nil {
				return err
			}
			if item == nil {
				return fmt.Errorf("item %s: %w", reqLine.ItemID, ErrNotFound)
			}
			if !item.Available {
				return fmt.Errorf("item %q: %w", item.Name, ErrItemUnavailable)
			}

			subtotal := item.Price * float64(reqLine.Quantity)
			total += subtotal
			sellerShares[item.OwnerID] += subtotal
			itemIDs = append(itemIDs, item.ID)
			lines = append(lines, model.OrderLine{
				ItemID:   item.ID,
				ItemName: item.Name,
				Price:    item.Price,
				Quantity: reqLine.Quantity,
				SellerID: item.OwnerID,
			})
		}

		if balance < total {
			return ErrInsufficientBalance
		}

		order = &model.Order{
			ID:              uuid.NewString(),
			UserID:          buyerID,
			DeliveryAddress: req.DeliveryAddress,
			Lines:           lines,
			TotalPrice:      total,
			CreatedAt:       time.Now().UTC(),
		}
		if err := s.repo.CreateOrder(ctx, order); err != nil {
			return err
		}

		if err := s.repo.DebitUserBalance(ctx, buyerID, total); err != nil {
			return mapNoRows(err)
		}

		// Credit sellers in a fixed order so concurrent settlements take
		// their row locks consistently.
		sellerIDs := make([]int, 0, len(sellerShares))
		for id := range sellerShares {
			sellerIDs = append(sellerIDs, id)
		}
		sort.Ints(sellerIDs)
		for _, sellerID := range sellerIDs {
			if err := s.repo.CreditUserBalance(ctx, sellerID, sellerShares[sellerID]); err != nil {
				return mapNoRows(err)
			}
		}

		if _, err := s.repo.MarkItemsUnavailable(ctx, itemIDs); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) OrdersByUser(ctx context.Context, userID int) ([]model.Order, error) {
	return s.repo.ListOrdersByUser(ctx, userID)
}
