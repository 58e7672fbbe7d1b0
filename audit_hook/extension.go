// Package audithook bridges Subledger lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/xraph/subledger/event"
	"github.com/xraph/subledger/hook"
	"github.com/xraph/subledger/id"
	"github.com/xraph/subledger/provider"
	"github.com/xraph/subledger/subscriber"
	"github.com/xraph/subledger/types"
)

// Compile-time interface checks.
var (
	_ hook.Hook                   = (*Extension)(nil)
	_ hook.OnProviderRegistered   = (*Extension)(nil)
	_ hook.OnProviderRemoved      = (*Extension)(nil)
	_ hook.OnProviderStateUpdated = (*Extension)(nil)
	_ hook.OnSubscriberRegistered = (*Extension)(nil)
	_ hook.OnDepositIncreased     = (*Extension)(nil)
	_ hook.OnEarningsWithdrawn    = (*Extension)(nil)
	_ hook.OnJournalError         = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly — callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Subledger lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements hook.Hook.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Provider lifecycle hooks
// ──────────────────────────────────────────────────

// OnProviderRegistered implements hook.OnProviderRegistered.
func (e *Extension) OnProviderRegistered(ctx context.Context, p *provider.Provider) error {
	return e.record(ctx, ActionProviderRegistered, SeverityInfo, OutcomeSuccess,
		ResourceProvider, providerKey(p.ID), CategoryRegistry, nil,
		"provider_id", p.ID,
		"owner", p.Owner.String(),
		"fee", p.Fee.String(),
	)
}

// OnProviderRemoved implements hook.OnProviderRemoved.
func (e *Extension) OnProviderRemoved(ctx context.Context, p *provider.Provider, payout types.Amount) error {
	return e.record(ctx, ActionProviderRemoved, SeverityInfo, OutcomeSuccess,
		ResourceProvider, providerKey(p.ID), CategoryRegistry, nil,
		"provider_id", p.ID,
		"owner", p.Owner.String(),
		"payout", payout.String(),
	)
}

// OnProviderStateUpdated implements hook.OnProviderStateUpdated.
func (e *Extension) OnProviderStateUpdated(ctx context.Context, p *provider.Provider) error {
	severity := SeverityInfo
	if !p.Active {
		severity = SeverityWarning
	}
	return e.record(ctx, ActionProviderStateUpdated, severity, OutcomeSuccess,
		ResourceProvider, providerKey(p.ID), CategoryAccess, nil,
		"provider_id", p.ID,
		"active", p.Active,
	)
}

// ──────────────────────────────────────────────────
// Subscriber lifecycle hooks
// ──────────────────────────────────────────────────

// OnSubscriberRegistered implements hook.OnSubscriberRegistered.
func (e *Extension) OnSubscriberRegistered(ctx context.Context, s *subscriber.Subscriber) error {
	return e.record(ctx, ActionSubscriberRegistered, SeverityInfo, OutcomeSuccess,
		ResourceSubscriber, subscriberKey(s.ID), CategoryRegistry, nil,
		"subscriber_id", s.ID,
		"owner", s.Owner.String(),
		"deposit", s.Balance.String(),
		"providers", len(s.Providers),
	)
}

// OnDepositIncreased implements hook.OnDepositIncreased.
func (e *Extension) OnDepositIncreased(ctx context.Context, s *subscriber.Subscriber, amount types.Amount) error {
	return e.record(ctx, ActionDepositIncreased, SeverityInfo, OutcomeSuccess,
		ResourceSubscriber, subscriberKey(s.ID), CategoryFunds, nil,
		"subscriber_id", s.ID,
		"amount", amount.String(),
		"balance", s.Balance.String(),
	)
}

// ──────────────────────────────────────────────────
// Withdrawal hooks
// ──────────────────────────────────────────────────

// OnEarningsWithdrawn implements hook.OnEarningsWithdrawn.
func (e *Extension) OnEarningsWithdrawn(ctx context.Context, providerID uint64, owner id.AccountID, amount, usdValue types.Amount) error {
	return e.record(ctx, ActionEarningsWithdrawn, SeverityInfo, OutcomeSuccess,
		ResourceProvider, providerKey(providerID), CategoryFunds, nil,
		"provider_id", providerID,
		"owner", owner.String(),
		"amount", amount.String(),
		"usd_value", usdValue.String(),
	)
}

// ──────────────────────────────────────────────────
// Journal hooks
// ──────────────────────────────────────────────────

// OnJournalError implements hook.OnJournalError. The operation has
// already committed and funds have moved; the audit record flags the
// journal divergence for reconciliation.
func (e *Extension) OnJournalError(ctx context.Context, evt *event.Event, err error) error {
	return e.record(ctx, ActionJournalError, SeverityCritical, OutcomePartial,
		ResourceJournal, evt.ID.String(), CategoryStorage, err,
		"event_type", string(evt.Type),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}

func providerKey(providerID uint64) string {
	return "provider/" + strconv.FormatUint(providerID, 10)
}

func subscriberKey(subscriberID uint64) string {
	return "subscriber/" + strconv.FormatUint(subscriberID, 10)
}
