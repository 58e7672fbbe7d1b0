package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/subledger/event"
	"github.com/xraph/subledger/id"
	"github.com/xraph/subledger/provider"
	"github.com/xraph/subledger/subscriber"
	"github.com/xraph/subledger/types"
)

// Amounts persist as raw 18-decimal integer strings; BSON integers are
// 64-bit and cannot hold them.

// ==================== Provider models ====================

type providerModel struct {
	grove.BaseModel `grove:"table:subledger_providers"`

	ID          int64     `grove:"id,pk"       bson:"_id"`
	Owner       string    `grove:"owner"       bson:"owner"`
	Fee         string    `grove:"fee"         bson:"fee"`
	Balance     string    `grove:"balance"     bson:"balance"`
	Subscribers int64     `grove:"subscribers" bson:"subscribers"`
	Active      bool      `grove:"active"      bson:"active"`
	CreatedAt   time.Time `grove:"created_at"  bson:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"  bson:"updated_at"`
}

func toProviderModel(p *provider.Provider) *providerModel {
	return &providerModel{
		ID:          int64(p.ID),
		Owner:       p.Owner.String(),
		Fee:         p.Fee.RawString(),
		Balance:     p.Balance.RawString(),
		Subscribers: int64(p.Subscribers),
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func fromProviderModel(m *providerModel) (*provider.Provider, error) {
	owner, err := id.ParseAccountID(m.Owner)
	if err != nil {
		return nil, err
	}

	fee, err := types.ParseRaw(m.Fee, types.UnitToken)
	if err != nil {
		return nil, err
	}

	balance, err := types.ParseRaw(m.Balance, types.UnitToken)
	if err != nil {
		return nil, err
	}

	return &provider.Provider{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          uint64(m.ID),
		Owner:       owner,
		Fee:         fee,
		Balance:     balance,
		Subscribers: uint32(m.Subscribers),
		Active:      m.Active,
	}, nil
}

// ==================== Subscriber models ====================

type subscriberModel struct {
	grove.BaseModel `grove:"table:subledger_subscribers"`

	ID        int64     `grove:"id,pk"      bson:"_id"`
	Owner     string    `grove:"owner"      bson:"owner"`
	Balance   string    `grove:"balance"    bson:"balance"`
	Providers []int64   `grove:"providers"  bson:"providers"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
}

func toSubscriberModel(s *subscriber.Subscriber) *subscriberModel {
	providers := make([]int64, len(s.Providers))
	for i, pid := range s.Providers {
		providers[i] = int64(pid)
	}

	return &subscriberModel{
		ID:        int64(s.ID),
		Owner:     s.Owner.String(),
		Balance:   s.Balance.RawString(),
		Providers: providers,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func fromSubscriberModel(m *subscriberModel) (*subscriber.Subscriber, error) {
	owner, err := id.ParseAccountID(m.Owner)
	if err != nil {
		return nil, err
	}

	balance, err := types.ParseRaw(m.Balance, types.UnitToken)
	if err != nil {
		return nil, err
	}

	var providers []uint64
	if len(m.Providers) > 0 {
		providers = make([]uint64, len(m.Providers))
		for i, pid := range m.Providers {
			providers[i] = uint64(pid)
		}
	}

	return &subscriber.Subscriber{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:        uint64(m.ID),
		Owner:     owner,
		Balance:   balance,
		Providers: providers,
	}, nil
}

// ==================== Event models ====================

type eventModel struct {
	grove.BaseModel `grove:"table:subledger_events"`

	ID           string    `grove:"id,pk"         bson:"_id"`
	Type         string    `grove:"type"          bson:"type"`
	Time         time.Time `grove:"time"          bson:"time"`
	Account      string    `grove:"account"       bson:"account"`
	ProviderID   int64     `grove:"provider_id"   bson:"provider_id"`
	SubscriberID int64     `grove:"subscriber_id" bson:"subscriber_id"`
	Amount       string    `grove:"amount"        bson:"amount"`
	AmountUnit   string    `grove:"amount_unit"   bson:"amount_unit"`
	USDValue     string    `grove:"usd_value"     bson:"usd_value"`
	USDUnit      string    `grove:"usd_unit"      bson:"usd_unit"`
	ProviderIDs  []int64   `grove:"provider_ids"  bson:"provider_ids,omitempty"`
	Active       *bool     `grove:"active"        bson:"active,omitempty"`
}

func toEventModel(evt *event.Event) *eventModel {
	var providerIDs []int64
	if len(evt.ProviderIDs) > 0 {
		providerIDs = make([]int64, len(evt.ProviderIDs))
		for i, pid := range evt.ProviderIDs {
			providerIDs[i] = int64(pid)
		}
	}

	return &eventModel{
		ID:           evt.ID.String(),
		Type:         string(evt.Type),
		Time:         evt.Time,
		Account:      evt.Account.String(),
		ProviderID:   int64(evt.ProviderID),
		SubscriberID: int64(evt.SubscriberID),
		Amount:       evt.Amount.RawString(),
		AmountUnit:   string(evt.Amount.Unit()),
		USDValue:     evt.USDValue.RawString(),
		USDUnit:      string(evt.USDValue.Unit()),
		ProviderIDs:  providerIDs,
		Active:       evt.Active,
	}
}

func fromEventModel(m *eventModel) (*event.Event, error) {
	eventID, err := id.ParseEventID(m.ID)
	if err != nil {
		return nil, err
	}

	account, err := id.ParseAccountID(m.Account)
	if err != nil {
		return nil, err
	}

	amount, err := types.ParseRaw(m.Amount, types.Unit(m.AmountUnit))
	if err != nil {
		return nil, err
	}

	usdValue, err := types.ParseRaw(m.USDValue, types.Unit(m.USDUnit))
	if err != nil {
		return nil, err
	}

	var providerIDs []uint64
	if len(m.ProviderIDs) > 0 {
		providerIDs = make([]uint64, len(m.ProviderIDs))
		for i, pid := range m.ProviderIDs {
			providerIDs[i] = uint64(pid)
		}
	}

	return &event.Event{
		ID:           eventID,
		Type:         event.Type(m.Type),
		Time:         m.Time,
		Account:      account,
		ProviderID:   uint64(m.ProviderID),
		SubscriberID: uint64(m.SubscriberID),
		Amount:       amount,
		USDValue:     usdValue,
		ProviderIDs:  providerIDs,
		Active:       m.Active,
	}, nil
}
