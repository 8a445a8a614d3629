package resolver

import (
	"IoMTSpectra/internal/model"
)

// Resolver maps a flow's source address (and, when an address is shared by
// multiple profiles, its destination port) to a device profile. The table is
// built once from configuration and is read-only afterwards, so a Resolver
// can be shared across goroutines and distinct runs can use distinct tables.
type Resolver struct {
	byAddr map[string][]*model.DeviceProfile
}

// New builds a resolver from the static device table.
func New(profiles []model.DeviceProfile) *Resolver {
	byAddr := make(map[string][]*model.DeviceProfile, len(profiles))
	for i := range profiles {
		p := &profiles[i]
		byAddr[p.Address] = append(byAddr[p.Address], p)
	}
	return &Resolver{byAddr: byAddr}
}

// Resolve returns the profile for a flow record, or false when the flow's
// source address maps to no known device. Unresolved flows are excluded
// from aggregation by the caller, never folded into a default bucket.
func (r *Resolver) Resolve(rec *model.FlowRecord) (*model.DeviceProfile, bool) {
	candidates := r.byAddr[rec.SrcAddr]
	switch len(candidates) {
	case 0:
		return nil, false
	case 1:
		return candidates[0], true
	}

	// Address shared across profiles: the destination port disambiguates
	// the role (control vs. telemetry on one host).
	for _, p := range candidates {
		if p.Port == rec.DstPort {
			return p, true
		}
	}
	return nil, false
}

// Size returns the number of distinct source addresses in the table.
func (r *Resolver) Size() int {
	return len(r.byAddr)
}
