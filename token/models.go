// Package token defines the account model and operator relation for the
// fungible-token ledger.
package token

import (
	"github.com/mintworks/ledger/types"
)

// Account is the per-holder ledger record: a balance plus the holder's
// operator overrides. Operator authority resolves against the ledger's
// default-operator list at check time, so an account only stores the
// holder's own decisions.
type Account struct {
	Address types.Address `json:"address"`
	Balance types.Amount  `json:"balance"`

	// Authorized holds operators the holder explicitly granted.
	Authorized types.AddressSet `json:"authorized,omitempty"`

	// RevokedDefaults holds default operators this holder has denied.
	// Revoking a default operator never affects other holders.
	RevokedDefaults types.AddressSet `json:"revoked_defaults,omitempty"`
}

// NewAccount returns an empty account for the given address.
func NewAccount(addr types.Address) *Account {
	return &Account{
		Address:         addr,
		Authorized:      make(types.AddressSet),
		RevokedDefaults: make(types.AddressSet),
	}
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	c := &Account{
		Address:         a.Address,
		Balance:         a.Balance,
		Authorized:      make(types.AddressSet, len(a.Authorized)),
		RevokedDefaults: make(types.AddressSet, len(a.RevokedDefaults)),
	}
	for op := range a.Authorized {
		c.Authorized[op] = struct{}{}
	}
	for op := range a.RevokedDefaults {
		c.RevokedDefaults[op] = struct{}{}
	}
	return c
}

// OperatorFor reports whether operator may move this holder's tokens,
// given the ledger's default-operator list. A holder is always their own
// operator.
func (a *Account) OperatorFor(operator types.Address, defaults types.AddressSet) bool {
	if operator == a.Address {
		return true
	}
	if a.Authorized.Contains(operator) {
		return true
	}
	return defaults.Contains(operator) && !a.RevokedDefaults.Contains(operator)
}

// Authorize grants operator authority. For a default operator this clears
// any previous per-holder revocation; for any other operator it records an
// explicit grant.
func (a *Account) Authorize(operator types.Address, defaults types.AddressSet) {
	if defaults.Contains(operator) {
		delete(a.RevokedDefaults, operator)
		return
	}
	a.Authorized[operator] = struct{}{}
}

// Revoke removes operator authority. For a default operator this records a
// per-holder denial; for any other operator it drops the explicit grant.
func (a *Account) Revoke(operator types.Address, defaults types.AddressSet) {
	if defaults.Contains(operator) {
		a.RevokedDefaults[operator] = struct{}{}
		return
	}
	delete(a.Authorized, operator)
}
