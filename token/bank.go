package token

import (
	"context"
	"sync"

	"github.com/xraph/subledger/id"
	"github.com/xraph/subledger/types"
)

// Bank is an in-memory Service with ERC-20 style balances and allowances.
// Mint seeds accounts; the sum of all balances always equals Supply.
type Bank struct {
	mu         sync.RWMutex
	balances   map[id.AccountID]types.Amount
	allowances map[id.AccountID]map[id.AccountID]types.Amount
	supply     types.Amount
}

var _ Service = (*Bank)(nil)

// NewBank creates an empty Bank.
func NewBank() *Bank {
	return &Bank{
		balances:   make(map[id.AccountID]types.Amount),
		allowances: make(map[id.AccountID]map[id.AccountID]types.Amount),
		supply:     types.Zero(types.UnitToken),
	}
}

// Mint credits amount to account, growing the total supply.
func (b *Bank) Mint(account id.AccountID, amount types.Amount) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.balances[account] = b.balance(account).Add(amount)
	b.supply = b.supply.Add(amount)
}

// Approve lets spender move up to amount out of owner's account.
// It replaces any previous allowance.
func (b *Bank) Approve(owner, spender id.AccountID, amount types.Amount) {
	b.mu.Lock()
	defer b.mu.Unlock()

	grants, ok := b.allowances[owner]
	if !ok {
		grants = make(map[id.AccountID]types.Amount)
		b.allowances[owner] = grants
	}
	grants[spender] = amount
}

// Allowance returns how much spender may still move out of owner's account.
func (b *Bank) Allowance(owner, spender id.AccountID) types.Amount {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.allowance(owner, spender)
}

// Supply returns the total minted supply.
func (b *Bank) Supply() types.Amount {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.supply
}

// BalanceOf implements Service.
func (b *Bank) BalanceOf(_ context.Context, account id.AccountID) (types.Amount, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.balance(account), nil
}

// Transfer implements Service.
func (b *Bank) Transfer(_ context.Context, from, to id.AccountID, amount types.Amount) error {
	if amount.IsZero() {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	fromBalance, ok := b.balance(from).SubChecked(amount)
	if !ok {
		return ErrInsufficientBalance
	}

	b.balances[from] = fromBalance
	b.balances[to] = b.balance(to).Add(amount)

	return nil
}

// TransferFrom implements Service.
func (b *Bank) TransferFrom(_ context.Context, spender, from, to id.AccountID, amount types.Amount) error {
	if amount.IsZero() {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	remaining, ok := b.allowance(from, spender).SubChecked(amount)
	if !ok {
		return ErrInsufficientAllowance
	}

	fromBalance, ok := b.balance(from).SubChecked(amount)
	if !ok {
		return ErrInsufficientBalance
	}

	b.allowances[from][spender] = remaining
	b.balances[from] = fromBalance
	b.balances[to] = b.balance(to).Add(amount)

	return nil
}

// balance reads an account balance without locking. Callers hold b.mu.
func (b *Bank) balance(account id.AccountID) types.Amount {
	if amount, ok := b.balances[account]; ok {
		return amount
	}

	return types.Zero(types.UnitToken)
}

// allowance reads a grant without locking. Callers hold b.mu.
func (b *Bank) allowance(owner, spender id.AccountID) types.Amount {
	if grants, ok := b.allowances[owner]; ok {
		if amount, ok := grants[spender]; ok {
			return amount
		}
	}

	return types.Zero(types.UnitToken)
}
