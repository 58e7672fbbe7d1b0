// Package token abstracts the token accounts Subledger moves funds between.
//
// The engine never holds raw balances itself; it asks a Service to read
// them and to move funds in and out of its custody account. Bank is an
// in-memory Service for tests and development.
package token

import (
	"context"
	"errors"

	"github.com/xraph/subledger/id"
	"github.com/xraph/subledger/types"
)

// Sentinel errors returned by transfer guards.
var (
	ErrInsufficientBalance   = errors.New("subledger/token: insufficient balance")
	ErrInsufficientAllowance = errors.New("subledger/token: insufficient allowance")
)

// Service moves token funds between accounts. Transfer spends the caller's
// own funds; TransferFrom spends funds the owner previously approved for
// the spender. Zero-amount transfers succeed without moving anything.
type Service interface {
	// BalanceOf returns the spendable balance of account.
	BalanceOf(ctx context.Context, account id.AccountID) (types.Amount, error)

	// Transfer moves amount from one account to another.
	Transfer(ctx context.Context, from, to id.AccountID, amount types.Amount) error

	// TransferFrom moves amount out of from into to, consuming the
	// allowance from granted to spender.
	TransferFrom(ctx context.Context, spender, from, to id.AccountID, amount types.Amount) error
}
