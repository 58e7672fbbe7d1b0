package subscriber

import (
	"github.com/xraph/subledger/id"
	"github.com/xraph/subledger/types"
)

// Subscriber is a registered subscriber account. Balance records the full
// deposit taken at registration; Providers lists the registry numbers the
// subscriber signed up with, in the order given, duplicates included.
type Subscriber struct {
	types.Entity
	ID        uint64       `json:"id"`
	Owner     id.AccountID `json:"owner"`
	Balance   types.Amount `json:"balance"`
	Providers []uint64     `json:"providers"`
}

// OwnedBy reports whether account is the registered owner.
func (s *Subscriber) OwnedBy(account id.AccountID) bool {
	return s.Owner == account
}

// Clone returns a deep copy safe to mutate independently.
func (s *Subscriber) Clone() *Subscriber {
	cp := *s
	cp.Providers = make([]uint64, len(s.Providers))
	copy(cp.Providers, s.Providers)
	return &cp
}
