package types

// Address identifies an account in the ledger. Addresses are opaque
// strings chosen by the host application (user IDs, wallet addresses,
// engine account names). The empty address is never a valid holder.
type Address string

// String returns the address string.
func (a Address) String() string { return string(a) }

// IsZero reports whether the address is empty.
func (a Address) IsZero() bool { return a == "" }

// AddressSet is a small set of addresses keyed for membership checks.
type AddressSet map[Address]struct{}

// NewAddressSet builds a set from the given addresses.
func NewAddressSet(addrs ...Address) AddressSet {
	s := make(AddressSet, len(addrs))
	for _, a := range addrs {
		s[a] = struct{}{}
	}
	return s
}

// Contains reports set membership.
func (s AddressSet) Contains(a Address) bool {
	_, ok := s[a]
	return ok
}
