// Package staking defines the stake model, the penalty tiers, and the
// compound-interest math for the time-locked staking engine.
package staking

import (
	"time"

	"github.com/mintworks/ledger/types"
)

const (
	// TierDays is the width of one maturity tier.
	TierDays = 360

	// PeriodDays is the length of one compounding period.
	PeriodDays = 30

	// MatureTier is the tier at which a stake earns full principal plus
	// compound interest.
	MatureTier = 3
)

// DefaultSizes is the allowed stake size menu used when no custom menu is
// configured.
func DefaultSizes() []types.Amount {
	return []types.Amount{
		types.Units(1000),
		types.Units(3000),
		types.Units(5000),
		types.Units(10000),
	}
}

// Stake is a single time-locked deposit.
type Stake struct {
	ID          uint64        `json:"id"`
	Owner       types.Address `json:"owner"`
	Principal   types.Amount  `json:"principal"`
	CreatedAt   time.Time     `json:"created_at"`
	WithdrawnAt time.Time     `json:"withdrawn_at,omitzero"`
}

// Withdrawn reports whether the stake has been paid out.
func (s *Stake) Withdrawn() bool { return !s.WithdrawnAt.IsZero() }

// HeldDays returns the number of whole days the stake has been held.
func (s *Stake) HeldDays(now time.Time) uint64 {
	d := now.Sub(s.CreatedAt)
	if d < 0 {
		return 0
	}
	return uint64(d / (24 * time.Hour))
}

// Clone returns a copy of the stake.
func (s *Stake) Clone() *Stake {
	c := *s
	return &c
}

// Tier buckets held days into maturity tiers 0 through MatureTier.
func Tier(heldDays uint64) int {
	t := heldDays / TierDays
	if t > MatureTier {
		t = MatureTier
	}
	return int(t)
}

// PenaltySplit divides the principal of an early withdrawal between the
// staker and the treasury. Tier n returns (n+1)/4 of the principal to the
// staker; the remainder is forfeited to the treasury. Only tiers below
// MatureTier carry a penalty.
func PenaltySplit(principal types.Amount, tier int) (staker, treasury types.Amount) {
	staker = principal.MulDiv(int64(tier+1), 4)
	return staker, principal.Sub(staker)
}
