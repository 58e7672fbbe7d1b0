package oracle_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/xraph/subledger/oracle"
	"github.com/xraph/subledger/types"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name     string
		amount   types.Amount
		price    *big.Int
		decimals uint8
		want     types.Amount
	}{
		{
			// $2.00 reported at 8 decimals, the common aggregator precision.
			name:     "8 decimal feed",
			amount:   types.Tokens(60),
			price:    big.NewInt(200_000_000),
			decimals: 8,
			want:     types.USD(120),
		},
		{
			name:     "18 decimal feed",
			amount:   types.Tokens(50),
			price:    new(big.Int).Mul(big.NewInt(3), pow10(18)),
			decimals: 18,
			want:     types.USD(150),
		},
		{
			// Scaling down truncates toward zero.
			name:     "20 decimal feed",
			amount:   types.Tokens(10),
			price:    new(big.Int).Mul(big.NewInt(5), pow10(20)),
			decimals: 20,
			want:     types.USD(50),
		},
		{
			name:     "fractional price",
			amount:   types.Tokens(100),
			price:    big.NewInt(50_000_000), // $0.50 at 8 decimals
			decimals: 8,
			want:     types.USD(50),
		},
		{
			name:     "zero amount",
			amount:   types.Zero(types.UnitToken),
			price:    big.NewInt(200_000_000),
			decimals: 8,
			want:     types.Zero(types.UnitUSD),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := oracle.Convert(tt.amount, tt.price, tt.decimals)
			if !got.Equal(tt.want) {
				t.Errorf("Convert: got %v, want %v", got, tt.want)
			}
			if got.Unit() != types.UnitUSD {
				t.Errorf("Convert: got unit %s, want %s", got.Unit(), types.UnitUSD)
			}
		})
	}
}

func TestReaderPrice(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	tests := []struct {
		name      string
		answer    *big.Int
		updatedAt time.Time
		wantErr   error
	}{
		{"fresh round", big.NewInt(200_000_000), now.Add(-time.Hour), nil},
		{"exactly at window", big.NewInt(200_000_000), now.Add(-oracle.DefaultFreshness), nil},
		{"stale round", big.NewInt(200_000_000), now.Add(-4 * time.Hour), oracle.ErrStalePrice},
		{"zero answer", big.NewInt(0), now.Add(-time.Hour), oracle.ErrInvalidPrice},
		{"negative answer", big.NewInt(-1), now.Add(-time.Hour), oracle.ErrInvalidPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := oracle.NewFixedFeed(tt.answer, 8, tt.updatedAt)
			reader := oracle.NewReader(feed, oracle.WithClock(clock))

			price, err := reader.Price(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Price failed: %v", err)
			}

			// $2 at 8 decimals normalizes to 2e18.
			want := new(big.Int).Mul(big.NewInt(2), pow10(18))
			if price.Cmp(want) != 0 {
				t.Errorf("normalized price: got %s, want %s", price, want)
			}
		})
	}
}

func TestReaderValue(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	feed := oracle.NewFixedFeed(big.NewInt(200_000_000), 8, now.Add(-time.Minute))
	reader := oracle.NewReader(feed, oracle.WithClock(func() time.Time { return now }))

	got, err := reader.Value(context.Background(), types.Tokens(30))
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if !got.Equal(types.USD(60)) {
		t.Errorf("Value: got %v, want %v", got, types.USD(60))
	}
}

func TestReaderFreshnessOption(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	feed := oracle.NewFixedFeed(big.NewInt(200_000_000), 8, now.Add(-30*time.Minute))

	strict := oracle.NewReader(feed,
		oracle.WithClock(func() time.Time { return now }),
		oracle.WithFreshness(10*time.Minute),
	)
	if _, err := strict.Price(context.Background()); !errors.Is(err, oracle.ErrStalePrice) {
		t.Errorf("expected stale price with 10m window, got %v", err)
	}

	relaxed := oracle.NewReader(feed,
		oracle.WithClock(func() time.Time { return now }),
		oracle.WithFreshness(time.Hour),
	)
	if _, err := relaxed.Price(context.Background()); err != nil {
		t.Errorf("expected fresh price with 1h window, got %v", err)
	}
}

func TestReaderFeedError(t *testing.T) {
	reader := oracle.NewReader(failingFeed{})
	if _, err := reader.Price(context.Background()); err == nil {
		t.Error("expected error from failing feed")
	}
}

func TestFixedFeedSetAnswer(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	feed := oracle.NewFixedFeed(big.NewInt(100_000_000), 8, now.Add(-time.Hour))
	feed.SetAnswer(big.NewInt(300_000_000), now)

	round, err := feed.LatestRound(context.Background())
	if err != nil {
		t.Fatalf("LatestRound failed: %v", err)
	}
	if round.Answer.Cmp(big.NewInt(300_000_000)) != 0 {
		t.Errorf("answer: got %s, want 300000000", round.Answer)
	}
	if !round.UpdatedAt.Equal(now) {
		t.Errorf("updatedAt: got %v, want %v", round.UpdatedAt, now)
	}
}

type failingFeed struct{}

func (failingFeed) Decimals(context.Context) (uint8, error) {
	return 0, errors.New("feed unavailable")
}

func (failingFeed) LatestRound(context.Context) (oracle.Round, error) {
	return oracle.Round{}, errors.New("feed unavailable")
}

func pow10(n int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil)
}
