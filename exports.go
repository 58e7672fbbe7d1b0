package subledger

import "github.com/xraph/subledger/types"

// Re-export common types for convenience so users don't have to import types package.

// Amount is re-exported from types package.
type Amount = types.Amount

// Unit is re-exported from types package.
type Unit = types.Unit

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export Amount constructors
var (
	Tokens = types.Tokens
	USD    = types.USD
	Zero   = types.Zero
	Sum    = types.Sum
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
