package ledger

import "github.com/mintworks/ledger/id"

// ID is the primary identifier type for all Ledger entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
