// Package merge combines two worldlines structurally.
//
// A merge unions node sets and per-POV choice maps. Any (pov, node) tracked
// on both sides with disagreeing values is a conflict; conflicts are an
// expected authoring outcome reported as data, never as an error, and a
// conflicted merge mutates nothing regardless of the apply flag.
package merge

import (
	"sort"

	"github.com/louisbranch/worldline.studio/internal/worldline/domain"
	"github.com/louisbranch/worldline.studio/internal/worldline/registry"
)

// Store resolves worldlines and commits merge results.
type Store interface {
	Ensure(id string) (domain.Worldline, error)
	Update(in registry.WriteInput) (domain.Worldline, map[string]any, error)
}

// Engine merges worldlines through a store.
type Engine struct {
	store Store
}

// NewEngine creates a merge engine.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Conflict is one (pov, node) choice disagreement between source and target.
type Conflict struct {
	Pov         string `json:"pov"`
	Node        string `json:"node"`
	SourceValue any    `json:"source_value"`
	TargetValue any    `json:"target_value"`
}

// Result reports a merge outcome. On conflict OK is false, Conflicts is
// populated, and TargetPreview is nil; otherwise TargetPreview always holds
// the target with merged metadata, even when the merge was not applied.
type Result struct {
	OK          bool
	FastForward bool
	Conflicts   []Conflict
	AddedNodes  []string

	Source        domain.Worldline
	Target        domain.Worldline
	TargetPreview *domain.Worldline
}

// Merge merges the source worldline into the target. With apply, the merged
// metadata is committed through the registry's standard update path so the
// merge also gets delta bookkeeping; the commit is all-or-nothing under the
// registry lock.
func (e *Engine) Merge(sourceID, targetID string, apply bool) (Result, error) {
	source, err := e.store.Ensure(sourceID)
	if err != nil {
		return Result{}, err
	}
	target, err := e.store.Ensure(targetID)
	if err != nil {
		return Result{}, err
	}

	sourceChoices := source.Metadata.ChoiceMap()
	targetChoices := target.Metadata.ChoiceMap()

	conflicts := findConflicts(sourceChoices, targetChoices)
	if len(conflicts) > 0 {
		return Result{
			OK:        false,
			Conflicts: conflicts,
			Source:    source,
			Target:    target,
		}, nil
	}

	sourceNodes := source.Metadata.NodeSet()
	targetNodes := target.Metadata.NodeSet()

	mergedNodes := unionSorted(sourceNodes, targetNodes)

	// Safe to overlay: conflict detection already ruled out value-level
	// disagreement on overlapping (pov, node) pairs.
	mergedChoices := sourceChoices
	for pov, byNode := range targetChoices {
		if mergedChoices[pov] == nil {
			mergedChoices[pov] = make(map[string]any, len(byNode))
		}
		for node, value := range byNode {
			mergedChoices[pov][node] = value
		}
	}

	fastForward := subset(targetNodes, sourceNodes)

	addedNodes := []string{}
	for node := range sourceNodes {
		if !targetNodes[node] {
			addedNodes = append(addedNodes, node)
		}
	}
	sort.Strings(addedNodes)

	preview := target.Clone()
	preview.Metadata.Nodes = mergedNodes
	preview.Metadata.Choices = mergedChoices

	if apply {
		overlay := target.Metadata.Map()
		overlay[domain.KeyNodes] = domain.CloneValue(mergedNodes)
		overlay[domain.KeyChoices] = domain.CloneValue(mergedChoices)

		committed, _, err := e.store.Update(registry.WriteInput{ID: target.ID, Metadata: overlay})
		if err != nil {
			return Result{}, err
		}
		target = committed
		preview = committed.Clone()
	}

	return Result{
		OK:            true,
		FastForward:   fastForward,
		AddedNodes:    addedNodes,
		Source:        source,
		Target:        target,
		TargetPreview: &preview,
	}, nil
}

// findConflicts reports every (pov, node) present in both choice maps with
// differing values, sorted by (pov, node). Absence on either side is never a
// conflict.
func findConflicts(source, target map[string]map[string]any) []Conflict {
	conflicts := []Conflict{}
	for pov, sourceByNode := range source {
		targetByNode, ok := target[pov]
		if !ok {
			continue
		}
		for node, sourceValue := range sourceByNode {
			targetValue, ok := targetByNode[node]
			if !ok {
				continue
			}
			if !domain.ValuesEqual(sourceValue, targetValue) {
				conflicts = append(conflicts, Conflict{
					Pov:         pov,
					Node:        node,
					SourceValue: sourceValue,
					TargetValue: targetValue,
				})
			}
		}
	}
	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].Pov != conflicts[j].Pov {
			return conflicts[i].Pov < conflicts[j].Pov
		}
		return conflicts[i].Node < conflicts[j].Node
	})
	return conflicts
}

func unionSorted(left, right map[string]bool) []string {
	union := make(map[string]bool, len(left)+len(right))
	for node := range left {
		union[node] = true
	}
	for node := range right {
		union[node] = true
	}
	out := make([]string, 0, len(union))
	for node := range union {
		out = append(out, node)
	}
	sort.Strings(out)
	return out
}

// subset reports whether every member of inner is in outer.
func subset(inner, outer map[string]bool) bool {
	for node := range inner {
		if !outer[node] {
			return false
		}
	}
	return true
}
