package repository

import (
	"context"

	"github.com/pkg/errors"

	"studentmarket/internal/model"
)

func (r *MarketRepository) CreateOrder(ctx context.Context, order *model.Order) error {
	exec := r.getExecutor(ctx)

	query := `INSERT INTO orders (id, user_id, delivery_address, total_price, created_at)
	          VALUES ($1, $2, $3, $4, $5);`
	_, err := exec.Exec(ctx, query,
		order.ID, order.UserID, order.DeliveryAddress, order.TotalPrice, order.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "repo: CreateOrder")
	}

	lineQuery := `INSERT INTO order_lines (order_id, item_id, item_name, price, quantity, seller_id)
	              VALUES ($1, $2, $3, $4, $5, $6);`
	for _, line := range order.Lines {
		_, err := exec.Exec(ctx, lineQuery,
			order.ID, line.ItemID, line.ItemName, line.Price, line.Quantity, line.SellerID)
		if err != nil {
			return errors.Wrap(err, "repo: CreateOrder line")
		}
	}
	return nil
}

func (r *MarketRepository) ListOrdersByUser(ctx context.Context, userID int) ([]model.Order, error) {
	query := `SELECT id, user_id, delivery_address, total_price, created_at
	          FROM orders
	          WHERE user_id = $1
	          ORDER BY created_at DESC;`
	rows, err := r.getExecutor(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, errors.Wrap(err, "repo: ListOrdersByUser")
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.DeliveryAddress, &o.TotalPrice, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		lines, err := r.listOrderLines(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Lines = lines
	}
	return orders, nil
}

func (r *MarketRepository) listOrderLines(ctx context.Context, orderID string) ([]model.OrderLine, error) {
	query := `SELECT item_id, item_name, price, quantity, seller_id
	          FROM order_lines
	          WHERE order_id = $1
	          ORDER BY item_name;`
	rows, err := r.getExecutor(ctx).Query(ctx, query, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "repo: listOrderLines")
	}
	defer rows.Close()

	var lines []model.OrderLine
	for rows.Next() {
		var l model.OrderLine
		if err := rows.Scan(&l.ItemID, &l.ItemName, &l.Price, &l.Quantity, &l.SellerID); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
