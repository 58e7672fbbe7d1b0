package audithook

// Action constants for audit events.
const (
	// Provider actions
	ActionProviderRegistered   = "provider.registered"
	ActionProviderRemoved      = "provider.removed"
	ActionProviderStateUpdated = "provider.state_updated"

	// Subscriber actions
	ActionSubscriberRegistered = "subscriber.registered"
	ActionDepositIncreased     = "deposit.increased"

	// Withdrawal actions
	ActionEarningsWithdrawn = "earnings.withdrawn"

	// Journal actions
	ActionJournalError = "journal.error"
)

// Resource constants for audit events.
const (
	ResourceProvider   = "provider"
	ResourceSubscriber = "subscriber"
	ResourceJournal    = "journal"
)

// Category constants for audit events.
const (
	CategoryRegistry = "registry"
	CategoryFunds    = "funds"
	CategoryAccess   = "access"
	CategoryStorage  = "storage"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
