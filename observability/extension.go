// Package observability provides a metrics extension for Subledger that
// records lifecycle event counts via a pluggable MetricFactory.
package observability

import (
	"context"
	"math/big"

	"github.com/xraph/subledger/event"
	"github.com/xraph/subledger/hook"
	"github.com/xraph/subledger/id"
	"github.com/xraph/subledger/provider"
	"github.com/xraph/subledger/subscriber"
	"github.com/xraph/subledger/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ hook.Hook                   = (*MetricsExtension)(nil)
	_ hook.OnInit                 = (*MetricsExtension)(nil)
	_ hook.OnProviderRegistered   = (*MetricsExtension)(nil)
	_ hook.OnProviderRemoved      = (*MetricsExtension)(nil)
	_ hook.OnProviderStateUpdated = (*MetricsExtension)(nil)
	_ hook.OnSubscriberRegistered = (*MetricsExtension)(nil)
	_ hook.OnDepositIncreased     = (*MetricsExtension)(nil)
	_ hook.OnEarningsWithdrawn    = (*MetricsExtension)(nil)
	_ hook.OnJournalError         = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Subledger hook to automatically track ledger activity.
type MetricsExtension struct {
	factory MetricFactory

	// Provider metrics
	ProviderRegistered   Counter
	ProviderRemoved      Counter
	ProviderStateUpdated Counter
	ProviderPayout       Histogram

	// Subscriber metrics
	SubscriberRegistered Counter
	SubscriberDeposit    Histogram
	SubscriptionFanout   Histogram

	// Deposit metrics
	DepositIncreased Counter

	// Withdrawal metrics
	EarningsWithdrawn  Counter
	WithdrawalUSDValue Histogram

	// Error metrics
	JournalErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Provider metrics
		ProviderRegistered:   factory.Counter("subledger.provider.registered"),
		ProviderRemoved:      factory.Counter("subledger.provider.removed"),
		ProviderStateUpdated: factory.Counter("subledger.provider.state_updated"),
		ProviderPayout:       factory.Histogram("subledger.provider.payout"),

		// Subscriber metrics
		SubscriberRegistered: factory.Counter("subledger.subscriber.registered"),
		SubscriberDeposit:    factory.Histogram("subledger.subscriber.deposit"),
		SubscriptionFanout:   factory.Histogram("subledger.subscriber.fanout"),

		// Deposit metrics
		DepositIncreased: factory.Counter("subledger.deposit.increased"),

		// Withdrawal metrics
		EarningsWithdrawn:  factory.Counter("subledger.earnings.withdrawn"),
		WithdrawalUSDValue: factory.Histogram("subledger.earnings.usd_value"),

		// Error metrics
		JournalErrors: factory.Counter("subledger.journal.errors"),
	}
}

// Name implements hook.Hook.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements hook.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Provider lifecycle hooks
// ──────────────────────────────────────────────────

// OnProviderRegistered implements hook.OnProviderRegistered.
func (m *MetricsExtension) OnProviderRegistered(_ context.Context, _ *provider.Provider) error {
	m.ProviderRegistered.Inc()
	return nil
}

// OnProviderRemoved implements hook.OnProviderRemoved.
func (m *MetricsExtension) OnProviderRemoved(_ context.Context, _ *provider.Provider, payout types.Amount) error {
	m.ProviderRemoved.Inc()
	m.ProviderPayout.Observe(amountValue(payout))
	return nil
}

// OnProviderStateUpdated implements hook.OnProviderStateUpdated.
func (m *MetricsExtension) OnProviderStateUpdated(_ context.Context, _ *provider.Provider) error {
	m.ProviderStateUpdated.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Subscriber lifecycle hooks
// ──────────────────────────────────────────────────

// OnSubscriberRegistered implements hook.OnSubscriberRegistered.
func (m *MetricsExtension) OnSubscriberRegistered(_ context.Context, s *subscriber.Subscriber) error {
	m.SubscriberRegistered.Inc()
	m.SubscriberDeposit.Observe(amountValue(s.Balance))
	m.SubscriptionFanout.Observe(float64(len(s.Providers)))
	return nil
}

// OnDepositIncreased implements hook.OnDepositIncreased.
func (m *MetricsExtension) OnDepositIncreased(_ context.Context, _ *subscriber.Subscriber, _ types.Amount) error {
	m.DepositIncreased.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Withdrawal hooks
// ──────────────────────────────────────────────────

// OnEarningsWithdrawn implements hook.OnEarningsWithdrawn.
func (m *MetricsExtension) OnEarningsWithdrawn(_ context.Context, _ uint64, _ id.AccountID, _, usdValue types.Amount) error {
	m.EarningsWithdrawn.Inc()
	m.WithdrawalUSDValue.Observe(amountValue(usdValue))
	return nil
}

// ──────────────────────────────────────────────────
// Journal hooks
// ──────────────────────────────────────────────────

// OnJournalError implements hook.OnJournalError.
func (m *MetricsExtension) OnJournalError(_ context.Context, _ *event.Event, _ error) error {
	m.JournalErrors.Inc()
	return nil
}

var histScale = new(big.Float).SetFloat64(1e18)

// amountValue converts an Amount to a float64 in major units for
// histogram observation. Precision loss is acceptable for metrics.
func amountValue(a types.Amount) float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(a.Big()), histScale).Float64()
	return f
}
