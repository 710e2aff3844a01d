// Package ledger provides a composable fungible-token engine for Go applications.
//
// Ledger is designed as a library, not a service. Import it directly into your Go
// application and give it a store. It provides:
//
//   - A fungible-token ledger with an operator model: holders, explicit
//     grants, and configurable default operators with per-holder revocation
//   - A fixed-curve exchange between a base currency and the token, with
//     whole-percent entry and exit fees and a tracked base reserve
//   - Time-locked staking with tiered early-withdrawal penalties and
//     compound interest at full maturity
//   - A periodic lottery whose pot splits between the drawn winner and the
//     treasury
//   - An append-only journal of every movement, flushed in batches
//   - A plugin system for reacting to ledger events
//
// # Quick Start
//
// Create a ledger instance with your preferred store:
//
//	import (
//	    "github.com/mintworks/ledger"
//	    "github.com/mintworks/ledger/store/sqlite"
//	)
//
//	// Initialize store
//	store, err := sqlite.New("ledger.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create ledger
//	l, err := ledger.New(store, ledger.Config{
//	    Name:          "Points",
//	    Symbol:        "PTS",
//	    Owner:         "admin",
//	    Treasury:      "treasury",
//	    MaxSupply:     ledger.Units(150_000_000),
//	    InitialSupply: ledger.Units(1_000_000),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Start the ledger (migrates the store, begins background workers)
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Core Concepts
//
// Balances move with Transfer, or with OperatorSend when an authorized
// operator acts for a holder:
//
//	err := l.Transfer(ctx, "alice", "bob", ledger.Units(5))
//	err  = l.OperatorSend(ctx, "custodian", "alice", "bob", ledger.Units(5))
//
// The exchange converts base currency to tokens and back at a fixed curve:
//
//	tokens, err := l.BuyTokens(ctx, "alice", ledger.Base(4200))
//	baseOut, err := l.SellTokens(ctx, "alice", tokens)
//
// Engines bind to the ledger and share its store and lock:
//
//	stk, _ := ledger.NewStaking(ledger.StakingConfig{ ... })
//	stk.Bind(l)
//	stakeID, err := stk.Stake(ctx, "alice", "alice", ledger.Units(1000))
//
// # Precision
//
// All token arithmetic uses integer base units with 18 decimals; there is
// no floating point anywhere in a balance path. Fees and penalties floor,
// so rounding dust always stays with the treasury.
//
// # TypeID
//
// Journal and audit records use TypeID for globally unique, type-safe
// identifiers:
//
//	jrnl_01h2xcejqtf2nbrexx3vqjhp41  // Journal entry ID
//	adt_01h455vb4pex5vsknk084sn02q   // Audit record ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package ledger
