package token_test

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/subledger/id"
	"github.com/xraph/subledger/token"
	"github.com/xraph/subledger/types"
)

func TestBankMintAndBalance(t *testing.T) {
	bank := token.NewBank()
	alice := id.NewAccountID()

	bank.Mint(alice, types.Tokens(100))
	bank.Mint(alice, types.Tokens(50))

	got, err := bank.BalanceOf(context.Background(), alice)
	if err != nil {
		t.Fatalf("BalanceOf failed: %v", err)
	}
	if !got.Equal(types.Tokens(150)) {
		t.Errorf("balance: got %v, want 150 tok", got)
	}
	if !bank.Supply().Equal(types.Tokens(150)) {
		t.Errorf("supply: got %v, want 150 tok", bank.Supply())
	}
}

func TestBankUnknownAccountIsZero(t *testing.T) {
	bank := token.NewBank()

	got, err := bank.BalanceOf(context.Background(), id.NewAccountID())
	if err != nil {
		t.Fatalf("BalanceOf failed: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("expected zero balance, got %v", got)
	}
}

func TestBankTransfer(t *testing.T) {
	ctx := context.Background()
	bank := token.NewBank()
	alice := id.NewAccountID()
	bob := id.NewAccountID()
	bank.Mint(alice, types.Tokens(100))

	if err := bank.Transfer(ctx, alice, bob, types.Tokens(30)); err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}

	assertBalance(t, bank, alice, types.Tokens(70))
	assertBalance(t, bank, bob, types.Tokens(30))
}

func TestBankTransferInsufficient(t *testing.T) {
	ctx := context.Background()
	bank := token.NewBank()
	alice := id.NewAccountID()
	bob := id.NewAccountID()
	bank.Mint(alice, types.Tokens(10))

	err := bank.Transfer(ctx, alice, bob, types.Tokens(20))
	if !errors.Is(err, token.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	// Nothing moved.
	assertBalance(t, bank, alice, types.Tokens(10))
	assertBalance(t, bank, bob, types.Zero(types.UnitToken))
}

func TestBankTransferZeroIsNoop(t *testing.T) {
	ctx := context.Background()
	bank := token.NewBank()
	alice := id.NewAccountID()
	bob := id.NewAccountID()

	// Zero moves succeed even for empty accounts.
	if err := bank.Transfer(ctx, alice, bob, types.Zero(types.UnitToken)); err != nil {
		t.Fatalf("zero transfer failed: %v", err)
	}
}

func TestBankTransferFrom(t *testing.T) {
	ctx := context.Background()
	bank := token.NewBank()
	alice := id.NewAccountID()
	custody := id.NewAccountID()
	bank.Mint(alice, types.Tokens(100))
	bank.Approve(alice, custody, types.Tokens(60))

	if err := bank.TransferFrom(ctx, custody, alice, custody, types.Tokens(40)); err != nil {
		t.Fatalf("TransferFrom failed: %v", err)
	}

	assertBalance(t, bank, alice, types.Tokens(60))
	assertBalance(t, bank, custody, types.Tokens(40))

	if got := bank.Allowance(alice, custody); !got.Equal(types.Tokens(20)) {
		t.Errorf("allowance: got %v, want 20 tok", got)
	}
}

func TestBankTransferFromGuards(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mint    types.Amount
		approve types.Amount
		move    types.Amount
		wantErr error
	}{
		{"no allowance", types.Tokens(100), types.Zero(types.UnitToken), types.Tokens(10), token.ErrInsufficientAllowance},
		{"allowance too small", types.Tokens(100), types.Tokens(5), types.Tokens(10), token.ErrInsufficientAllowance},
		{"balance too small", types.Tokens(5), types.Tokens(100), types.Tokens(10), token.ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bank := token.NewBank()
			alice := id.NewAccountID()
			custody := id.NewAccountID()
			bank.Mint(alice, tt.mint)
			bank.Approve(alice, custody, tt.approve)

			err := bank.TransferFrom(ctx, custody, alice, custody, tt.move)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			// Failed pulls must not touch balances or allowances.
			assertBalance(t, bank, alice, tt.mint)
			if got := bank.Allowance(alice, custody); !got.Equal(tt.approve) {
				t.Errorf("allowance changed on failure: got %v, want %v", got, tt.approve)
			}
		})
	}
}

func TestBankConservation(t *testing.T) {
	ctx := context.Background()
	bank := token.NewBank()
	accounts := []id.AccountID{id.NewAccountID(), id.NewAccountID(), id.NewAccountID()}

	for _, account := range accounts {
		bank.Mint(account, types.Tokens(100))
	}

	_ = bank.Transfer(ctx, accounts[0], accounts[1], types.Tokens(25))
	bank.Approve(accounts[1], accounts[2], types.Tokens(50))
	_ = bank.TransferFrom(ctx, accounts[2], accounts[1], accounts[2], types.Tokens(50))

	total := types.Zero(types.UnitToken)
	for _, account := range accounts {
		balance, err := bank.BalanceOf(ctx, account)
		if err != nil {
			t.Fatalf("BalanceOf failed: %v", err)
		}
		total = total.Add(balance)
	}

	if !total.Equal(bank.Supply()) {
		t.Errorf("conservation broken: balances sum to %v, supply is %v", total, bank.Supply())
	}
}

func assertBalance(t *testing.T, bank *token.Bank, account id.AccountID, want types.Amount) {
	t.Helper()

	got, err := bank.BalanceOf(context.Background(), account)
	if err != nil {
		t.Fatalf("BalanceOf failed: %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("balance of %s: got %v, want %v", account, got, want)
	}
}
