// Package diff compares two worldlines.
//
// Comparison is pure: both worldlines are resolved once, then node sets,
// POV-scoped choice maps, asset sets, and choice-level deltas are derived
// without touching registry state again. A concurrent writer may mutate one
// side between the two resolutions; diffing is deliberately not transactional
// across worldlines.
package diff

import (
	"sort"

	"github.com/louisbranch/worldline.studio/internal/worldline/domain"
)

// Resolver fetches worldline snapshots by id.
type Resolver interface {
	Ensure(id string) (domain.Worldline, error)
}

// ScenarioLookup resolves display labels for scene/node ids. A nil lookup
// leaves timelines undecorated.
type ScenarioLookup interface {
	Label(id string) (string, bool)
}

// Engine computes worldline diffs.
type Engine struct {
	resolver  Resolver
	scenarios ScenarioLookup
}

// NewEngine creates a diff engine. scenarios may be nil.
func NewEngine(resolver Resolver, scenarios ScenarioLookup) *Engine {
	return &Engine{resolver: resolver, scenarios: scenarios}
}

// NodeDiff partitions two node sets.
type NodeDiff struct {
	OnlyInSource []string `json:"only_in_a"`
	OnlyInTarget []string `json:"only_in_b"`
	Shared       []string `json:"shared"`
}

// AssetDiff partitions two asset sets.
type AssetDiff struct {
	OnlyInSource []string `json:"only_in_source"`
	OnlyInTarget []string `json:"only_in_target"`
	Shared       []string `json:"shared"`
}

// ChoiceDelta is one choice-level difference keyed by (pov, node).
type ChoiceDelta struct {
	Pov    string `json:"pov"`
	Node   string `json:"node"`
	Source any    `json:"source_value,omitempty"`
	Target any    `json:"target_value,omitempty"`
}

// TimelineEntry is one ordered node, optionally decorated with a scenario
// label.
type TimelineEntry struct {
	Node  string `json:"node"`
	Label string `json:"label,omitempty"`
}

// Result is the full comparison of two worldlines.
type Result struct {
	Source string `json:"source"`
	Target string `json:"target"`

	Nodes  NodeDiff  `json:"nodes"`
	Assets AssetDiff `json:"assets"`

	SourceChoices map[string]map[string]any `json:"choices_a"`
	TargetChoices map[string]map[string]any `json:"choices_b"`

	Added   []ChoiceDelta `json:"added"`
	Removed []ChoiceDelta `json:"removed"`
	Changed []ChoiceDelta `json:"changed"`

	// ChangedNodes lists nodes with at least one changed tracked choice.
	// Content edits outside tracked choices are invisible here.
	ChangedNodes []string `json:"changed_nodes"`

	SourceTimeline []TimelineEntry `json:"timeline_a,omitempty"`
	TargetTimeline []TimelineEntry `json:"timeline_b,omitempty"`
}

// Compare diffs the source worldline against the target worldline. With
// maskByPov, each side's choice map exposes only that side's own POV.
func (e *Engine) Compare(sourceID, targetID string, maskByPov bool) (Result, error) {
	source, err := e.resolver.Ensure(sourceID)
	if err != nil {
		return Result{}, err
	}
	target, err := e.resolver.Ensure(targetID)
	if err != nil {
		return Result{}, err
	}

	result := Result{Source: source.ID, Target: target.ID}

	sourceNodes := source.Metadata.NodeSet()
	targetNodes := target.Metadata.NodeSet()
	result.Nodes.OnlyInSource, result.Nodes.OnlyInTarget, result.Nodes.Shared = partition(sourceNodes, targetNodes)

	sourceAssets := toSet(source.Metadata.Assets)
	targetAssets := toSet(target.Metadata.Assets)
	result.Assets.OnlyInSource, result.Assets.OnlyInTarget, result.Assets.Shared = partition(sourceAssets, targetAssets)

	result.SourceChoices = maskChoices(source.Metadata.ChoiceMap(), source.Pov, maskByPov)
	result.TargetChoices = maskChoices(target.Metadata.ChoiceMap(), target.Pov, maskByPov)

	result.Added, result.Removed, result.Changed = choiceDeltas(result.SourceChoices, result.TargetChoices)
	result.ChangedNodes = changedNodes(result.Changed)

	result.SourceTimeline = e.timeline(source)
	result.TargetTimeline = e.timeline(target)

	return result, nil
}

// partition splits two sets into sorted only-left, only-right, and shared
// slices. The slices are never nil so results serialize as empty lists.
func partition(left, right map[string]bool) (onlyLeft, onlyRight, shared []string) {
	onlyLeft, onlyRight, shared = []string{}, []string{}, []string{}
	for id := range left {
		if right[id] {
			shared = append(shared, id)
		} else {
			onlyLeft = append(onlyLeft, id)
		}
	}
	for id := range right {
		if !left[id] {
			onlyRight = append(onlyRight, id)
		}
	}
	sort.Strings(onlyLeft)
	sort.Strings(onlyRight)
	sort.Strings(shared)
	return onlyLeft, onlyRight, shared
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

// maskChoices restricts a choice map to the worldline's own POV when masking
// is requested.
func maskChoices(choices map[string]map[string]any, ownPov string, mask bool) map[string]map[string]any {
	if !mask {
		return choices
	}
	masked := make(map[string]map[string]any)
	if byNode, ok := choices[ownPov]; ok {
		masked[ownPov] = byNode
	}
	return masked
}

// choiceDeltas walks the union of POV keys across both maps. A (pov, node)
// present on both sides with differing values is changed; one present only in
// the target is added, only in the source removed. All lists sort by
// (pov, node).
func choiceDeltas(source, target map[string]map[string]any) (added, removed, changed []ChoiceDelta) {
	added, removed, changed = []ChoiceDelta{}, []ChoiceDelta{}, []ChoiceDelta{}

	povs := make(map[string]bool)
	for pov := range source {
		povs[pov] = true
	}
	for pov := range target {
		povs[pov] = true
	}

	for pov := range povs {
		sourceByNode := source[pov]
		targetByNode := target[pov]
		nodes := make(map[string]bool)
		for node := range sourceByNode {
			nodes[node] = true
		}
		for node := range targetByNode {
			nodes[node] = true
		}

		for node := range nodes {
			sourceValue, inSource := sourceByNode[node]
			targetValue, inTarget := targetByNode[node]
			switch {
			case inSource && inTarget:
				if !domain.ValuesEqual(sourceValue, targetValue) {
					changed = append(changed, ChoiceDelta{Pov: pov, Node: node, Source: sourceValue, Target: targetValue})
				}
			case inTarget:
				added = append(added, ChoiceDelta{Pov: pov, Node: node, Target: targetValue})
			default:
				removed = append(removed, ChoiceDelta{Pov: pov, Node: node, Source: sourceValue})
			}
		}
	}

	sortDeltas(added)
	sortDeltas(removed)
	sortDeltas(changed)
	return added, removed, changed
}

func sortDeltas(deltas []ChoiceDelta) {
	sort.Slice(deltas, func(i, j int) bool {
		if deltas[i].Pov != deltas[j].Pov {
			return deltas[i].Pov < deltas[j].Pov
		}
		return deltas[i].Node < deltas[j].Node
	})
}

func changedNodes(changed []ChoiceDelta) []string {
	seen := make(map[string]bool)
	nodes := []string{}
	for _, delta := range changed {
		if !seen[delta.Node] {
			seen[delta.Node] = true
			nodes = append(nodes, delta.Node)
		}
	}
	sort.Strings(nodes)
	return nodes
}

// timeline reconstructs a side's ordered node sequence: the explicit
// timeline order when present, else the sorted node set, else empty. Labels
// come from the scenario lookup; nodes without a scenario entry stay
// unlabeled.
func (e *Engine) timeline(w domain.Worldline) []TimelineEntry {
	order := OrderedNodes(w)
	entries := make([]TimelineEntry, 0, len(order))
	for _, node := range order {
		entry := TimelineEntry{Node: node}
		if e.scenarios != nil {
			if label, ok := e.scenarios.Label(node); ok {
				entry.Label = label
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

// OrderedNodes returns a worldline's display node order: the explicit
// timeline order when present, else its node set sorted.
func OrderedNodes(w domain.Worldline) []string {
	if w.Metadata.Timeline != nil && len(w.Metadata.Timeline.Order) > 0 {
		return append([]string(nil), w.Metadata.Timeline.Order...)
	}
	nodes := append([]string(nil), w.Metadata.Nodes...)
	sort.Strings(nodes)
	return nodes
}
