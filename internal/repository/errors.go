package repository

import "errors"

var (
	ErrNoRows            = errors.New("no matching rows")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUniqueViolation   = errors.New("unique constraint violation")
)
