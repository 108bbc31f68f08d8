// Package quota maps performer subscription tiers to request limits.
package quota

import "github.com/cabina-live/cabina/internal/domain/model"

// Default per-event limits on distinct aggregated requests. Tier3 and
// unrecognized tiers are unbounded.
const (
	defaultTier1Limit = 50
	defaultTier2Limit = 100
)

// Policy is a pure lookup from tier to the maximum number of distinct
// aggregated requests allowed per event.
type Policy struct {
	limits map[model.Tier]int
}

// Option applies a configuration option to the Policy.
type Option func(*Policy)

// WithLimit overrides the limit for a tier. A non-positive max removes the
// bound for that tier.
func WithLimit(tier model.Tier, max int) Option {
	return func(p *Policy) {
		if max > 0 {
			p.limits[tier] = max
		} else {
			delete(p.limits, tier)
		}
	}
}

// NewPolicy creates a Policy with the default tier mapping.
func NewPolicy(opts ...Option) *Policy {
	p := &Policy{
		limits: map[model.Tier]int{
			model.Tier1: defaultTier1Limit,
			model.Tier2: defaultTier2Limit,
		},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// MaxRequests returns the limit for a tier. bounded is false when the tier
// has no limit, in which case max is meaningless.
func (p *Policy) MaxRequests(tier model.Tier) (max int, bounded bool) {
	max, bounded = p.limits[tier]
	return max, bounded
}
