package token

import (
	"testing"

	"github.com/mintworks/ledger/types"
)

func TestOperatorFor(t *testing.T) {
	defaults := types.NewAddressSet("staking", "lottery")

	tests := []struct {
		name     string
		setup    func(a *Account)
		operator types.Address
		want     bool
	}{
		{"self is always operator", func(*Account) {}, "alice", true},
		{"stranger is not operator", func(*Account) {}, "bob", false},
		{"default operator", func(*Account) {}, "staking", true},
		{"explicit grant", func(a *Account) {
			a.Authorize("bob", defaults)
		}, "bob", true},
		{"revoked default", func(a *Account) {
			a.Revoke("staking", defaults)
		}, "staking", false},
		{"revoke then re-authorize default", func(a *Account) {
			a.Revoke("staking", defaults)
			a.Authorize("staking", defaults)
		}, "staking", true},
		{"revoking one default leaves the other", func(a *Account) {
			a.Revoke("staking", defaults)
		}, "lottery", true},
		{"revoked explicit grant", func(a *Account) {
			a.Authorize("bob", defaults)
			a.Revoke("bob", defaults)
		}, "bob", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAccount("alice")
			tt.setup(a)
			if got := a.OperatorFor(tt.operator, defaults); got != tt.want {
				t.Errorf("OperatorFor(%s): got %v, want %v", tt.operator, got, tt.want)
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	defaults := types.NewAddressSet("staking")

	a := NewAccount("alice")
	a.Balance = types.Units(100)
	a.Authorize("bob", defaults)

	c := a.Clone()
	c.Authorize("carol", defaults)
	c.Revoke("staking", defaults)
	c.Balance = types.Units(7)

	if a.OperatorFor("carol", defaults) {
		t.Error("clone mutation leaked into original Authorized set")
	}
	if !a.OperatorFor("staking", defaults) {
		t.Error("clone mutation leaked into original RevokedDefaults set")
	}
	if !a.Balance.Equal(types.Units(100)) {
		t.Errorf("original balance changed: %s", a.Balance)
	}
}
