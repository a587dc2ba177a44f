package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// Recognized metadata keys.
const (
	KeyNodes     = "nodes"
	KeyChoices   = "choices"
	KeySnapshots = "snapshots"
	KeyAssets    = "assets"
	KeyTimeline  = "timeline"
	KeyDelta     = "delta"
	KeyDeltaBase = "delta_base"
)

// NoDiffKeys lists metadata keys excluded from delta computation: the
// append-only snapshot log and the delta bookkeeping keys, which are always
// recomputed and never read from caller input.
var NoDiffKeys = map[string]bool{
	KeySnapshots: true,
	KeyDelta:     true,
	KeyDeltaBase: true,
}

// IsDeltaBookkeepingKey reports whether a key holds derived delta state.
func IsDeltaBookkeepingKey(key string) bool {
	return key == KeyDelta || key == KeyDeltaBase
}

// Timeline carries an explicit node ordering for display.
type Timeline struct {
	Order []string
}

// Metadata is the semantic tree attached to a worldline. Recognized fields
// are typed; unrecognized keys ride along in Extra for forward compatibility.
type Metadata struct {
	Nodes     []string
	Choices   map[string]map[string]any // pov -> node -> choice value
	Snapshots []SnapshotEntry
	Assets    []string
	Timeline  *Timeline
	Extra     map[string]any
}

// ParseMetadata builds typed metadata from a raw key/value tree. Delta
// bookkeeping keys are dropped; unrecognized keys land in Extra.
func ParseMetadata(raw map[string]any) Metadata {
	var m Metadata
	for key, value := range raw {
		switch key {
		case KeyNodes:
			m.Nodes = toStringSlice(value)
		case KeyChoices:
			m.Choices = toChoiceMap(value)
		case KeySnapshots:
			m.Snapshots = toSnapshots(value)
		case KeyAssets:
			m.Assets = toStringSlice(value)
		case KeyTimeline:
			m.Timeline = toTimeline(value)
		case KeyDelta, KeyDeltaBase:
			// Derived state, never accepted from input.
		default:
			if m.Extra == nil {
				m.Extra = make(map[string]any)
			}
			m.Extra[key] = CloneValue(value)
		}
	}
	return m
}

// Map returns the canonical key/value form of the metadata. Empty fields are
// omitted so the map round-trips byte-stable through canonical JSON.
func (m Metadata) Map() map[string]any {
	out := make(map[string]any)
	if len(m.Nodes) > 0 {
		out[KeyNodes] = CloneValue(m.Nodes)
	}
	if len(m.Choices) > 0 {
		choices := make(map[string]any, len(m.Choices))
		for pov, byNode := range m.Choices {
			nodeValues := make(map[string]any, len(byNode))
			for node, value := range byNode {
				nodeValues[node] = CloneValue(value)
			}
			choices[pov] = nodeValues
		}
		out[KeyChoices] = choices
	}
	if len(m.Snapshots) > 0 {
		snapshots := make([]any, len(m.Snapshots))
		for i, entry := range m.Snapshots {
			snapshots[i] = entry.Map()
		}
		out[KeySnapshots] = snapshots
	}
	if len(m.Assets) > 0 {
		out[KeyAssets] = CloneValue(m.Assets)
	}
	if m.Timeline != nil && len(m.Timeline.Order) > 0 {
		out[KeyTimeline] = map[string]any{"order": CloneValue(m.Timeline.Order)}
	}
	for key, value := range m.Extra {
		out[key] = CloneValue(value)
	}
	return out
}

// Clone deep-copies the metadata.
func (m Metadata) Clone() Metadata {
	clone := Metadata{
		Nodes:  append([]string(nil), m.Nodes...),
		Assets: append([]string(nil), m.Assets...),
	}
	if m.Choices != nil {
		clone.Choices = make(map[string]map[string]any, len(m.Choices))
		for pov, byNode := range m.Choices {
			inner := make(map[string]any, len(byNode))
			for node, value := range byNode {
				inner[node] = CloneValue(value)
			}
			clone.Choices[pov] = inner
		}
	}
	if m.Snapshots != nil {
		clone.Snapshots = make([]SnapshotEntry, len(m.Snapshots))
		for i, entry := range m.Snapshots {
			clone.Snapshots[i] = entry.Clone()
		}
	}
	if m.Timeline != nil {
		clone.Timeline = &Timeline{Order: append([]string(nil), m.Timeline.Order...)}
	}
	if m.Extra != nil {
		clone.Extra = make(map[string]any, len(m.Extra))
		for key, value := range m.Extra {
			clone.Extra[key] = CloneValue(value)
		}
	}
	return clone
}

// NodeSet returns the reachable node ids as a set.
func (m Metadata) NodeSet() map[string]bool {
	set := make(map[string]bool, len(m.Nodes))
	for _, node := range m.Nodes {
		set[node] = true
	}
	return set
}

// ChoiceMap returns a deep copy of the full pov -> node -> value choice tree.
func (m Metadata) ChoiceMap() map[string]map[string]any {
	out := make(map[string]map[string]any, len(m.Choices))
	for pov, byNode := range m.Choices {
		inner := make(map[string]any, len(byNode))
		for node, value := range byNode {
			inner[node] = CloneValue(value)
		}
		out[pov] = inner
	}
	return out
}

// Hash returns a stable content digest over the canonical metadata map.
func (m Metadata) Hash() string {
	canonical, err := CanonicalJSON(m.Map())
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

func toStringSlice(v any) []string {
	switch value := v.(type) {
	case []string:
		out := make([]string, len(value))
		copy(out, value)
		return out
	case []any:
		out := make([]string, 0, len(value))
		for _, item := range value {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func toChoiceMap(v any) map[string]map[string]any {
	switch value := v.(type) {
	case map[string]map[string]any:
		out := make(map[string]map[string]any, len(value))
		for pov, byNode := range value {
			inner := make(map[string]any, len(byNode))
			for node, item := range byNode {
				inner[node] = CloneValue(item)
			}
			out[pov] = inner
		}
		return out
	case map[string]any:
		out := make(map[string]map[string]any, len(value))
		for pov, nested := range value {
			byNode, ok := nested.(map[string]any)
			if !ok {
				continue
			}
			inner := make(map[string]any, len(byNode))
			for node, item := range byNode {
				inner[node] = CloneValue(item)
			}
			out[pov] = inner
		}
		return out
	default:
		return nil
	}
}

func toSnapshots(v any) []SnapshotEntry {
	switch value := v.(type) {
	case []SnapshotEntry:
		out := make([]SnapshotEntry, len(value))
		for i, entry := range value {
			out[i] = entry.Clone()
		}
		return out
	case []any:
		out := make([]SnapshotEntry, 0, len(value))
		for _, item := range value {
			if raw, ok := item.(map[string]any); ok {
				out = append(out, snapshotEntryFromMap(raw))
			}
		}
		return out
	default:
		return nil
	}
}

func toTimeline(v any) *Timeline {
	switch value := v.(type) {
	case map[string]any:
		order := toStringSlice(value["order"])
		if len(order) == 0 {
			return nil
		}
		return &Timeline{Order: order}
	case []any, []string:
		order := toStringSlice(value)
		if len(order) == 0 {
			return nil
		}
		return &Timeline{Order: order}
	default:
		return nil
	}
}
