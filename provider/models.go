package provider

import (
	"github.com/xraph/subledger/id"
	"github.com/xraph/subledger/types"
)

// Provider is a registered service provider. It is keyed by a sequential
// registry number and accrues subscription fees into Balance until the
// owner withdraws them.
type Provider struct {
	types.Entity
	ID          uint64       `json:"id"`
	Owner       id.AccountID `json:"owner"`
	Fee         types.Amount `json:"fee"`
	Balance     types.Amount `json:"balance"`
	Subscribers uint32       `json:"subscribers"`
	Active      bool         `json:"active"`
}

// OwnedBy reports whether account is the registered owner.
func (p *Provider) OwnedBy(account id.AccountID) bool {
	return p.Owner == account
}
