package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"studentmarket/internal/model"
)

const userColumns = `id, username, usermail, password_hash, balance, about`

func (r *MarketRepository) CreateUser(ctx context.Context, username, usermail, passwordHash string) (int, error) {
	query := `INSERT INTO users (username, usermail, password_hash, balance)
	          VALUES ($1, $2, $3, 100) RETURNING id;`
	var newID int
	if err := r.getExecutor(ctx).QueryRow(ctx, query, username, usermail, passwordHash).Scan(&newID); err != nil {
		// A concurrent registration can pass the service-level existence
		// check and still trip the username unique constraint here.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrUniqueViolation
		}
		return 0, errors.Wrap(err, "repo: CreateUser")
	}
	return newID, nil
}

func (r *MarketRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1;`
	return r.scanUser(r.getExecutor(ctx).QueryRow(ctx, query, username), "GetUserByUsername")
}

func (r *MarketRepository) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1;`
	return r.scanUser(r.getExecutor(ctx).QueryRow(ctx, query, id), "GetUserByID")
}

func (r *MarketRepository) scanUser(row pgx.Row, op string) (*model.User, error) {
	u := &model.User{}
	if err := row.Scan(&u.ID, &u.Username, &u.Usermail, &u.PasswordHash, &u.Balance, &u.About); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "repo: "+op)
	}
	return u, nil
}

func (r *MarketRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1);`
	if err := r.getExecutor(ctx).QueryRow(ctx, query, username).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "repo: UsernameExists")
	}
	return exists, nil
}

// GetUserBalanceForUpdate locks the user row and returns the current balance.
func (r *MarketRepository) GetUserBalanceForUpdate(ctx context.Context, userID int) (float64, error) {
	var balance float64
	query := `SELECT balance FROM users WHERE id = $1 FOR UPDATE;`
	err := r.getExecutor(ctx).QueryRow(ctx, query, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNoRows
		}
		return 0, errors.Wrap(err, "repo: GetUserBalanceForUpdate")
	}
	return balance, nil
}

// AddUserBalance atomically increments the balance and returns the new value.
func (r *MarketRepository) AddUserBalance(ctx context.Context, userID int, amount float64) (float64, error) {
	var balance float64
	query := `UPDATE users SET balance = balance + $1 WHERE id = $2 RETURNING balance;`
	err := r.getExecutor(ctx).QueryRow(ctx, query, amount, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNoRows
		}
		return 0, errors.Wrap(err, "repo: AddUserBalance")
	}
	return balance, nil
}

// DebitUserBalance subtracts amount from the user's balance. The update only
// matches when the balance covers the amount, so a concurrent debit can never
// drive the balance negative.
func (r *MarketRepository) DebitUserBalance(ctx context.Context, userID int, amount float64) error {
	query := `UPDATE users SET balance = balance - $1 WHERE id = $2 AND balance >= $1;`
	res, err := r.getExecutor(ctx).Exec(ctx, query, amount, userID)
	if err != nil {
		return errors.Wrap(err, "repo: DebitUserBalance")
	}
	if res.RowsAffected() == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

func (r *MarketRepository) CreditUserBalance(ctx context.Context, userID int, amount float64) error {
	query := `UPDATE users SET balance = balance + $1 WHERE id = $2;`
	res, err := r.getExecutor(ctx).Exec(ctx, query, amount, userID)
	if err != nil {
		return errors.Wrap(err, "repo: CreditUserBalance")
	}
	if res.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

func (r *MarketRepository) UpdateUserProfile(ctx context.Context, userID int, usermail, passwordHash string, about *string) (*model.User, error) {
	query := `UPDATE users
	          SET usermail = $1, password_hash = $2, about = COALESCE($3, about)
	          WHERE id = $4
	          RETURNING ` + userColumns + `;`
	return r.scanUser(r.getExecutor(ctx).QueryRow(ctx, query, usermail, passwordHash, about, userID), "UpdateUserProfile")
}

func (r *MarketRepository) EmailsByUserIDs(ctx context.Context, userIDs []int) ([]string, error) {
	query := `SELECT usermail FROM users WHERE id = ANY($1) ORDER BY id;`
	rows, err := r.getExecutor(ctx).Query(ctx, query, userIDs)
	if err != nil {
		return nil, errors.Wrap(err, "repo: EmailsByUserIDs")
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var mail string
		if err := rows.Scan(&mail); err != nil {
			return nil, err
		}
		emails = append(emails, mail)
	}
	return emails, rows.Err()
}
