package sqlite

import (
	"encoding/json"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/subledger/event"
	"github.com/xraph/subledger/id"
	"github.com/xraph/subledger/provider"
	"github.com/xraph/subledger/subscriber"
	"github.com/xraph/subledger/types"
)

// Amounts persist as raw 18-decimal integer strings; SQLite TEXT affinity
// keeps them exact. JSON columns are plain TEXT.

// ==================== Provider models ====================

type providerModel struct {
	grove.BaseModel `grove:"table:subledger_providers"`

	ID          int64     `grove:"id,pk"`
	Owner       string    `grove:"owner"`
	Fee         string    `grove:"fee"`
	Balance     string    `grove:"balance"`
	Subscribers int64     `grove:"subscribers"`
	Active      bool      `grove:"active"`
	CreatedAt   time.Time `grove:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"`
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

	ID        int64     `grove:"id,pk"`
	Owner     string    `grove:"owner"`
	Balance   string    `grove:"balance"`
	Providers string    `grove:"providers"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func toSubscriberModel(s *subscriber.Subscriber) *subscriberModel {
	providers, _ := json.Marshal(s.Providers) //nolint:errcheck // best-effort

	return &subscriberModel{
		ID:        int64(s.ID),
		Owner:     s.Owner.String(),
		Balance:   s.Balance.RawString(),
		Providers: string(providers),
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
	if m.Providers != "" {
		_ = json.Unmarshal([]byte(m.Providers), &providers) //nolint:errcheck // best-effort
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

	ID           string    `grove:"id,pk"`
	Type         string    `grove:"type"`
	Time         time.Time `grove:"time"`
	Account      string    `grove:"account"`
	ProviderID   int64     `grove:"provider_id"`
	SubscriberID int64     `grove:"subscriber_id"`
	Amount       string    `grove:"amount"`
	AmountUnit   string    `grove:"amount_unit"`
	USDValue     string    `grove:"usd_value"`
	USDUnit      string    `grove:"usd_unit"`
	ProviderIDs  string    `grove:"provider_ids"`
	Active       *bool     `grove:"active"`
}

func toEventModel(evt *event.Event) *eventModel {
	providerIDs, _ := json.Marshal(evt.ProviderIDs) //nolint:errcheck // best-effort

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
		ProviderIDs:  string(providerIDs),
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
	if m.ProviderIDs != "" {
		_ = json.Unmarshal([]byte(m.ProviderIDs), &providerIDs) //nolint:errcheck // best-effort
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
