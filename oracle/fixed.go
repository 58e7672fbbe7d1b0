package oracle

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/xraph/subledger/types"
)

// FixedFeed is an in-memory Feed with a settable answer. It backs tests
// and development environments where no external aggregator exists.
type FixedFeed struct {
	mu        sync.RWMutex
	answer    *big.Int
	decimals  uint8
	updatedAt time.Time
}

var _ Feed = (*FixedFeed)(nil)

// NewFixedFeed creates a feed reporting answer at the given decimal
// precision, last updated at updatedAt.
func NewFixedFeed(answer *big.Int, decimals uint8, updatedAt time.Time) *FixedFeed {
	return &FixedFeed{
		answer:    new(big.Int).Set(answer),
		decimals:  decimals,
		updatedAt: updatedAt,
	}
}

// SetAnswer replaces the current answer and its observation time.
func (f *FixedFeed) SetAnswer(answer *big.Int, updatedAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.answer = new(big.Int).Set(answer)
	f.updatedAt = updatedAt
}

// Decimals implements Feed.
func (f *FixedFeed) Decimals(_ context.Context) (uint8, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.decimals, nil
}

// LatestRound implements Feed.
func (f *FixedFeed) LatestRound(_ context.Context) (Round, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return Round{
		Answer:    new(big.Int).Set(f.answer),
		UpdatedAt: f.updatedAt,
	}, nil
}

// dollarFeed reports a constant 1 USD per token and is never stale.
type dollarFeed struct{}

var _ Feed = dollarFeed{}

// NewDollarFeed returns a Feed pinning the token at exactly 1 USD, with
// every round timestamped at read time. It backs development wiring
// where no external aggregator exists.
func NewDollarFeed() Feed { return dollarFeed{} }

func (dollarFeed) Decimals(_ context.Context) (uint8, error) {
	return types.Decimals, nil
}

func (dollarFeed) LatestRound(_ context.Context) (Round, error) {
	return Round{
		Answer:    pow10(types.Decimals),
		UpdatedAt: time.Now(),
	}, nil
}
