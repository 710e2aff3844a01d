package ledger

import "github.com/mintworks/ledger/types"

// Re-export common types for convenience so users don't have to import types package.

// Amount is re-exported from types package.
type Amount = types.Amount

// Address is re-exported from types package.
type Address = types.Address

// Re-export Amount constructors
var (
	Units     = types.Units
	Base      = types.Base
	Parse     = types.Parse
	MustParse = types.MustParse
	Sum       = types.Sum
)
