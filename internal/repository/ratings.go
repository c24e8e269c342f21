package repository

import (
	"context"

	"github.com/pkg/errors"
)

func (r *MarketRepository) CreateRating(ctx context.Context, sellerID, points int) error {
	query := `INSERT INTO ratings (seller_id, points) VALUES ($1, $2);`
	_, err := r.getExecutor(ctx).Exec(ctx, query, sellerID, points)
	if err != nil {
		return errors.Wrap(err, "repo: CreateRating")
	}
	return nil
}

// RatingAverage returns the mean of all recorded points for the seller and
// how many ratings contributed. Both are zero when none are recorded.
func (r *MarketRepository) RatingAverage(ctx context.Context, sellerID int) (float64, int, error) {
	query := `SELECT COALESCE(AVG(points), 0), COUNT(*) FROM ratings WHERE seller_id = $1;`
	var avg float64
	var count int
	if err := r.getExecutor(ctx).QueryRow(ctx, query, sellerID).Scan(&avg, &count); err != nil {
		return 0, 0, errors.Wrap(err, "repo: RatingAverage")
	}
	return avg, count, nil
}
