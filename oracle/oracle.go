// Package oracle reads token/USD prices from an external feed and values
// token amounts in USD.
//
// A Feed reports raw price rounds at whatever decimal precision it was
// deployed with. A Reader validates rounds (freshness, positivity),
// normalizes prices to 18 decimals, and performs conversions. The Convert
// function is the pure conversion arithmetic, exposed for callers that
// already hold a validated price.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/xraph/subledger/types"
)

// Sentinel errors returned by round validation.
var (
	ErrStalePrice   = errors.New("subledger/oracle: price is stale")
	ErrInvalidPrice = errors.New("subledger/oracle: price is not positive")
)

// DefaultFreshness is the maximum age of a round before it is rejected.
const DefaultFreshness = 3 * time.Hour

// Round is a single price observation from a feed.
type Round struct {
	Answer    *big.Int  `json:"answer"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Feed reports the latest token/USD price. Implementations typically wrap
// an external aggregator; FixedFeed serves tests and development.
type Feed interface {
	// Decimals returns the precision the feed reports prices at.
	Decimals(ctx context.Context) (uint8, error)

	// LatestRound returns the most recent price observation.
	LatestRound(ctx context.Context) (Round, error)
}

// Reader validates feed rounds and values token amounts in USD.
type Reader struct {
	feed      Feed
	freshness time.Duration
	now       func() time.Time
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithFreshness overrides the staleness window.
func WithFreshness(d time.Duration) ReaderOption {
	return func(r *Reader) {
		if d > 0 {
			r.freshness = d
		}
	}
}

// WithClock overrides the time source used for staleness checks.
func WithClock(now func() time.Time) ReaderOption {
	return func(r *Reader) {
		if now != nil {
			r.now = now
		}
	}
}

// NewReader creates a Reader over feed with the default freshness window.
func NewReader(feed Feed, opts ...ReaderOption) *Reader {
	r := &Reader{
		feed:      feed,
		freshness: DefaultFreshness,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Price returns the latest feed price normalized to 18 decimals.
// Returns ErrStalePrice when the round is older than the freshness window
// and ErrInvalidPrice when the answer is zero or negative.
func (r *Reader) Price(ctx context.Context) (*big.Int, error) {
	round, err := r.feed.LatestRound(ctx)
	if err != nil {
		return nil, fmt.Errorf("subledger/oracle: failed to read latest round: %w", err)
	}

	if r.now().Sub(round.UpdatedAt) > r.freshness {
		return nil, fmt.Errorf("%w: last update %s", ErrStalePrice, round.UpdatedAt.Format(time.RFC3339))
	}

	if round.Answer == nil || round.Answer.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}

	decimals, err := r.feed.Decimals(ctx)
	if err != nil {
		return nil, fmt.Errorf("subledger/oracle: failed to read decimals: %w", err)
	}

	return normalize(round.Answer, decimals), nil
}

// Value converts amount (token base units) to its USD value at the latest
// validated price.
func (r *Reader) Value(ctx context.Context, amount types.Amount) (types.Amount, error) {
	price, err := r.Price(ctx)
	if err != nil {
		return types.Amount{}, err
	}

	return convertNormalized(amount, price), nil
}

// Convert values amount at price with the given feed decimals, returning
// USD in 18-decimal base units. The price must already be validated; a
// non-positive price yields a zero or nonsensical result, not an error.
func Convert(amount types.Amount, price *big.Int, decimals uint8) types.Amount {
	return convertNormalized(amount, normalize(price, decimals))
}

// normalize scales a raw feed price to 18 decimals: up when the feed
// reports fewer, down (truncating) when it reports more.
func normalize(price *big.Int, decimals uint8) *big.Int {
	switch {
	case decimals < types.Decimals:
		exp := pow10(int64(types.Decimals - decimals))
		return new(big.Int).Mul(price, exp)
	case decimals > types.Decimals:
		exp := pow10(int64(decimals - types.Decimals))
		return new(big.Int).Quo(price, exp)
	default:
		return new(big.Int).Set(price)
	}
}

// convertNormalized computes amount * price / 1e18 with price at 18 decimals.
func convertNormalized(amount types.Amount, price *big.Int) types.Amount {
	return amount.MulDiv(price, pow10(types.Decimals), types.UnitUSD)
}

func pow10(n int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil)
}
