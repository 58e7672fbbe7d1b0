package subledger

import "github.com/xraph/subledger/id"

// ID is the identifier type for Subledger accounts and journal events.
type ID = id.ID

// AccountID identifies a token account (owner or custody).
type AccountID = id.AccountID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
