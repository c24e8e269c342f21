package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"studentmarket/internal/model"
)

const itemColumns = `id, name, category, condition, grade, subject, owner_id, price, images, reviews, available`

func (r *MarketRepository) CreateItem(ctx context.Context, item *model.Item) error {
	query := `INSERT INTO items (id, name, category, condition, grade, subject, owner_id, price, images, reviews, available)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`
	_, err := r.getExecutor(ctx).Exec(ctx, query,
		item.ID, item.Name, item.Category, item.Condition, item.Grade, item.Subject,
		item.OwnerID, item.Price, item.Images, item.Reviews, item.Available)
	if err != nil {
		return errors.Wrap(err, "repo: CreateItem")
	}
	return nil
}

func (r *MarketRepository) ListItems(ctx context.Context) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items ORDER BY name;`
	rows, err := r.getExecutor(ctx).Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "repo: ListItems")
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var it model.Item
		if err := scanItem(rows, &it); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *MarketRepository) GetItemByID(ctx context.Context, id string) (*model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1;`
	it := &model.Item{}
	if err := scanItem(r.getExecutor(ctx).QueryRow(ctx, query, id), it); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "repo: GetItemByID")
	}
	return it, nil
}

// GetItemForUpdate locks the item row for the duration of the surrounding
// transaction.
func (r *MarketRepository) GetItemForUpdate(ctx context.Context, id string) (*model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1 FOR UPDATE;`
	it := &model.Item{}
	if err := scanItem(r.getExecutor(ctx).QueryRow(ctx, query, id), it); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "repo: GetItemForUpdate")
	}
	return it, nil
}

func (r *MarketRepository) UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (*model.Item, error) {
	query := `UPDATE items SET
	              name      = COALESCE($1, name),
	              category  = COALESCE($2, category),
	              condition = COALESCE($3, condition),
	              grade     = COALESCE($4, grade),
	              subject   = COALESCE($5, subject),
	              price     = COALESCE($6, price),
	              images    = COALESCE($7, images)
	          WHERE id = $8
	          RETURNING ` + itemColumns + `;`
	it := &model.Item{}
	row := r.getExecutor(ctx).QueryRow(ctx, query,
		patch.Name, patch.Category, patch.Condition, patch.Grade, patch.Subject,
		patch.Price, patch.Images, id)
	if err := scanItem(row, it); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "repo: UpdateItem")
	}
	return it, nil
}

func (r *MarketRepository) MarkItemsUnavailable(ctx context.Context, ids []string) (int, error) {
	query := `UPDATE items SET available = FALSE WHERE id = ANY($1);`
	res, err := r.getExecutor(ctx).Exec(ctx, query, ids)
	if err != nil {
		return 0, errors.Wrap(err, "repo: MarkItemsUnavailable")
	}
	return int(res.RowsAffected()), nil
}

// AppendItemReview appends a review string to the item's reviews array.
func (r *MarketRepository) AppendItemReview(ctx context.Context, id string, review string) error {
	query := `UPDATE items SET reviews = array_append(reviews, $1) WHERE id = $2;`
	res, err := r.getExecutor(ctx).Exec(ctx, query, review, id)
	if err != nil {
		return errors.Wrap(err, "repo: AppendItemReview")
	}
	if res.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

func scanItem(row pgx.Row, it *model.Item) error {
	return row.Scan(&it.ID, &it.Name, &it.Category, &it.Condition, &it.Grade,
		&it.Subject, &it.OwnerID, &it.Price, &it.Images, &it.Reviews, &it.Available)
}
