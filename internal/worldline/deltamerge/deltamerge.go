// Package deltamerge resolves worldline metadata against a parent worldline.
//
// Resolution deep-copies the parent's metadata tree and applies the caller's
// overlay keys on top. Each applied key whose value differs from the parent's
// is recorded in the delta map, except the snapshot log (copied but never
// diffed) and the delta bookkeeping keys (always recomputed, never read from
// input). Without a parent the overlay itself becomes the delta.
package deltamerge

import (
	"github.com/louisbranch/worldline.studio/internal/worldline/domain"
)

// Resolve computes the effective metadata and delta for a worldline given its
// parent's resolved metadata and the caller's overlay. Either argument may be
// nil.
func Resolve(parent *domain.Metadata, overlay map[string]any) (domain.Metadata, map[string]any) {
	base := make(map[string]any)
	if parent != nil {
		base = parent.Map()
	}

	delta := make(map[string]any)
	for key, value := range overlay {
		if domain.IsDeltaBookkeepingKey(key) {
			continue
		}
		copied := domain.CloneValue(value)
		if !domain.NoDiffKeys[key] && !domain.ValuesEqual(base[key], copied) {
			delta[key] = domain.CloneValue(value)
		}
		base[key] = copied
	}

	return domain.ParseMetadata(base), delta
}
