// Package subledger provides a provider/subscriber accounting ledger for Go applications.
//
// Subledger is designed as a library, not a service. Import it directly into your
// Go application and wire in a token transfer service and a price oracle feed.
// It provides:
//
//   - A provider registry with oracle-validated fee floors and a capacity cap
//   - Subscriber deposits with immediate fee debits to each subscribed provider
//   - Reentrancy-safe withdrawals (balances are zeroed before funds move)
//   - USD valuations of fees, deposits and withdrawals via a staleness-checked
//     price feed
//   - A durable journal of every committed state change
//   - Lifecycle hooks for audit trails and metrics
//
// # Quick Start
//
// Create an engine with your preferred store and collaborators:
//
//	import (
//	    "github.com/xraph/subledger"
//	    "github.com/xraph/subledger/oracle"
//	    "github.com/xraph/subledger/store/postgres"
//	    "github.com/xraph/subledger/token"
//	)
//
//	// Initialize store
//	store := postgres.New(db)
//
//	// Wire collaborators
//	reader := oracle.NewReader(feed)
//
//	// Create the ledger engine
//	l := subledger.New(store, tokens, reader,
//	    subledger.WithAdmin(adminID),
//	    subledger.WithAccount(custodyID),
//	)
//
//	// Start the engine (migrates and restores the ledger tables)
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Core Concepts
//
// Providers register to offer a metered service for a recurring token fee.
// The fee must be worth at least the configured USD floor at the current
// oracle price:
//
//	err := l.RegisterProvider(ctx, owner, 1, types.Tokens(60))
//
// Subscribers deposit their entire token balance and subscribe to one or
// more providers. Each provider's fee is debited from the deposit and
// credited to that provider immediately:
//
//	err := l.RegisterSubscriber(ctx, owner, 7, []uint64{1, 2})
//
// Providers withdraw accrued earnings at any time; the balance is zeroed
// before the tokens move:
//
//	withdrawn, err := l.WithdrawEarnings(ctx, owner, 1)
//
// # Money
//
// All amounts use the types.Amount fixed-point type: arbitrary-precision
// integer arithmetic at 18 decimal places, tagged with a unit ("tok" or
// "usd"). There is no floating point anywhere in balance math.
//
// # Reentrancy
//
// Every balance-affecting operation commits ledger state strictly before
// performing the outbound token transfer, and collaborators must never
// call back into the engine. A transfer failure rolls the operation back
// completely.
//
// # TypeID
//
// Accounts and journal events use TypeID for globally unique, type-safe
// identifiers:
//
//	acct_01h2xcejqtf2nbrexx3vqjhp41  // Account ID
//	evt_01h455vb4pex5vsknk084sn02q   // Journal event ID
//
// Provider and subscriber records themselves are keyed by caller-supplied
// uint64 registry numbers.
package subledger
