// Package graph composes worldlines into a cross-branch node/edge graph.
//
// The builder is a display surface: unresolvable ids from an explicit subset
// are dropped instead of failing the whole call, and an empty resolution
// yields a well-formed empty payload.
package graph

import (
	"sort"

	"github.com/louisbranch/worldline.studio/internal/worldline/diff"
	"github.com/louisbranch/worldline.studio/internal/worldline/domain"
	"github.com/louisbranch/worldline.studio/internal/worldline/merge"
)

// Store lists worldline snapshots and the active pointer.
type Store interface {
	List() []domain.Worldline
	ActiveID() string
}

// MergePreviewer runs no-apply merge previews for the fast-forward matrix.
type MergePreviewer interface {
	Merge(sourceID, targetID string, apply bool) (merge.Result, error)
}

// Builder assembles worldline graphs.
type Builder struct {
	store  Store
	merges MergePreviewer
}

// NewBuilder creates a graph builder. merges may be nil, which disables the
// fast-forward matrix.
func NewBuilder(store Store, merges MergePreviewer) *Builder {
	return &Builder{store: store, merges: merges}
}

// BuildInput selects the worldlines to compose.
type BuildInput struct {
	// TargetID selects the comparison target. When empty or unresolvable the
	// active worldline is used, then the first resolved worldline.
	TargetID string
	// WorldIDs restricts the graph to a subset. Empty means all worldlines.
	WorldIDs []string
	// IncludeFastForward adds a merge-preview matrix against the target.
	IncludeFastForward bool
}

// WorldSummary is one worldline's display row.
type WorldSummary struct {
	ID           string   `json:"id"`
	Label        string   `json:"label"`
	Pov          string   `json:"pov"`
	RootNode     string   `json:"root_node"`
	Notes        string   `json:"notes,omitempty"`
	Lane         string   `json:"lane"`
	NodeCount    int      `json:"node_count"`
	Active       bool     `json:"active"`
	Assets       []string `json:"assets"`
	MetadataHash string   `json:"metadata_hash"`

	// Overlap and Divergence count this worldline's nodes inside and outside
	// the comparison target's node set.
	Overlap    int `json:"overlap"`
	Divergence int `json:"divergence"`

	// Lineage derived by walking parent references to the root.
	ParentID string `json:"parent_id,omitempty"`
	Origin   string `json:"origin,omitempty"`
	Depth    int    `json:"depth"`
}

// Node is one unique narrative node tagged with every worldline containing it.
type Node struct {
	ID     string   `json:"id"`
	Worlds []string `json:"worlds"`
}

// Edge is one directed step in a worldline's ordered node sequence.
type Edge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	World    string `json:"world"`
	Position int    `json:"position"`
}

// MergeOutlook is one fast-forward matrix cell.
type MergeOutlook struct {
	OK          bool             `json:"ok"`
	FastForward bool             `json:"fast_forward,omitempty"`
	AddedNodes  []string         `json:"added_nodes,omitempty"`
	Conflicts   []merge.Conflict `json:"conflicts,omitempty"`
}

// GraphPayload holds the node/edge graph.
type GraphPayload struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Payload is the composed graph response.
type Payload struct {
	Worlds      []WorldSummary          `json:"worlds"`
	Graph       GraphPayload            `json:"graph"`
	Timeline    map[string][]string     `json:"timeline"`
	Target      *WorldSummary           `json:"target"`
	FastForward map[string]MergeOutlook `json:"fast_forward,omitempty"`
}

// Build composes the selected worldlines into a graph payload.
func (b *Builder) Build(in BuildInput) Payload {
	all := b.store.List()
	byID := make(map[string]domain.Worldline, len(all))
	for _, w := range all {
		byID[w.ID] = w
	}

	selected := selectWorldlines(all, byID, in.WorldIDs)
	payload := Payload{
		Worlds:   []WorldSummary{},
		Graph:    GraphPayload{Nodes: []Node{}, Edges: []Edge{}},
		Timeline: map[string][]string{},
	}
	if len(selected) == 0 {
		return payload
	}

	target := resolveTarget(in.TargetID, b.store.ActiveID(), byID, selected)
	targetNodes := target.Metadata.NodeSet()

	activeID := b.store.ActiveID()
	for _, w := range selected {
		payload.Worlds = append(payload.Worlds, summarize(w, targetNodes, activeID == w.ID, byID))
	}

	payload.Graph = buildGraph(selected)

	for _, w := range selected {
		payload.Timeline[w.ID] = diff.OrderedNodes(w)
	}

	targetSummary := summarize(target, targetNodes, activeID == target.ID, byID)
	payload.Target = &targetSummary

	if in.IncludeFastForward && b.merges != nil {
		matrix := make(map[string]MergeOutlook)
		for _, w := range selected {
			if w.ID == target.ID {
				continue
			}
			result, err := b.merges.Merge(w.ID, target.ID, false)
			if err != nil {
				continue
			}
			matrix[w.ID] = MergeOutlook{
				OK:          result.OK,
				FastForward: result.FastForward,
				AddedNodes:  result.AddedNodes,
				Conflicts:   result.Conflicts,
			}
		}
		if len(matrix) > 0 {
			payload.FastForward = matrix
		}
	}

	return payload
}

// selectWorldlines resolves an explicit subset in request order, dropping
// unresolvable ids, or returns all worldlines.
func selectWorldlines(all []domain.Worldline, byID map[string]domain.Worldline, ids []string) []domain.Worldline {
	if len(ids) == 0 {
		return all
	}
	selected := make([]domain.Worldline, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if w, ok := byID[id]; ok {
			selected = append(selected, w)
		}
	}
	return selected
}

func resolveTarget(targetID, activeID string, byID map[string]domain.Worldline, selected []domain.Worldline) domain.Worldline {
	if w, ok := byID[targetID]; ok {
		return w
	}
	if w, ok := byID[activeID]; ok {
		return w
	}
	return selected[0]
}

func summarize(w domain.Worldline, targetNodes map[string]bool, active bool, byID map[string]domain.Worldline) WorldSummary {
	overlap, divergence := 0, 0
	for _, node := range w.Metadata.Nodes {
		if targetNodes[node] {
			overlap++
		} else {
			divergence++
		}
	}

	origin, depth := lineage(w, byID)

	assets := w.Metadata.Assets
	if assets == nil {
		assets = []string{}
	}

	return WorldSummary{
		ID:           w.ID,
		Label:        w.Label,
		Pov:          w.Pov,
		RootNode:     w.RootNode,
		Notes:        w.Notes,
		Lane:         string(w.Lane),
		NodeCount:    len(w.Metadata.Nodes),
		Active:       active,
		Assets:       assets,
		MetadataHash: w.Metadata.Hash(),
		Overlap:      overlap,
		Divergence:   divergence,
		ParentID:     w.ParentID,
		Origin:       origin,
		Depth:        depth,
	}
}

// lineage walks parent references back to the root of the fork chain. A
// visited set guards against accidental parent cycles.
func lineage(w domain.Worldline, byID map[string]domain.Worldline) (origin string, depth int) {
	visited := map[string]bool{w.ID: true}
	current := w
	for current.ParentID != "" && !visited[current.ParentID] {
		parent, ok := byID[current.ParentID]
		if !ok {
			break
		}
		visited[parent.ID] = true
		depth++
		origin = parent.ID
		current = parent
	}
	return origin, depth
}

// buildGraph emits one node per unique node id, tagged with every worldline
// containing it, and one directed edge per consecutive pair in each
// worldline's ordered node sequence.
func buildGraph(selected []domain.Worldline) GraphPayload {
	worldsByNode := make(map[string][]string)
	edges := []Edge{}

	for _, w := range selected {
		order := diff.OrderedNodes(w)
		seen := make(map[string]bool, len(order))
		// Tag membership from the node set union the ordered sequence, so a
		// timeline entry outside the node set still renders.
		for _, node := range append(append([]string{}, w.Metadata.Nodes...), order...) {
			if !seen[node] {
				seen[node] = true
				worldsByNode[node] = append(worldsByNode[node], w.ID)
			}
		}
		for i := 0; i+1 < len(order); i++ {
			edges = append(edges, Edge{
				From:     order[i],
				To:       order[i+1],
				World:    w.ID,
				Position: i,
			})
		}
	}

	nodes := make([]Node, 0, len(worldsByNode))
	for id, worlds := range worldsByNode {
		sort.Strings(worlds)
		nodes = append(nodes, Node{ID: id, Worlds: worlds})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	return GraphPayload{Nodes: nodes, Edges: edges}
}
