package event

import (
	"time"

	"github.com/xraph/subledger/id"
	"github.com/xraph/subledger/types"
)

// Type classifies a journal event.
type Type string

const (
	TypeProviderRegistered   Type = "provider_registered"
	TypeProviderRemoved      Type = "provider_removed"
	TypeProviderStateUpdated Type = "provider_state_updated"
	TypeSubscriberRegistered Type = "subscriber_registered"
	TypeDepositIncreased     Type = "deposit_increased"
	TypeEarningsWithdrawn    Type = "earnings_withdrawn"
)

// Event is an append-only journal record of a completed state change.
// Fields beyond ID, Type, Time and Account are populated per type:
// registrations carry the amounts involved, withdrawals carry both the
// token amount and its USD valuation at withdrawal time, and state
// updates carry the new active flag.
type Event struct {
	ID           id.EventID   `json:"id"`
	Type         Type         `json:"type"`
	Time         time.Time    `json:"time"`
	Account      id.AccountID `json:"account"`
	ProviderID   uint64       `json:"provider_id,omitempty"`
	SubscriberID uint64       `json:"subscriber_id,omitempty"`
	Amount       types.Amount `json:"amount"`
	USDValue     types.Amount `json:"usd_value"`
	ProviderIDs  []uint64     `json:"provider_ids,omitempty"`
	Active       *bool        `json:"active,omitempty"`
}

// ListOpts filters journal queries. Zero-value fields are ignored.
type ListOpts struct {
	Types        []Type
	Account      id.AccountID
	ProviderID   uint64
	SubscriberID uint64
	Since        time.Time
	Until        time.Time
	Limit        int
}
