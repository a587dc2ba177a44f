package graph

import (
	"reflect"
	"testing"

	"github.com/louisbranch/worldline.studio/internal/telemetry"
	"github.com/louisbranch/worldline.studio/internal/worldline/merge"
	"github.com/louisbranch/worldline.studio/internal/worldline/pov"
	"github.com/louisbranch/worldline.studio/internal/worldline/registry"
)

func newStore(t *testing.T) *registry.Registry {
	t.Helper()
	return registry.New(pov.NewManager(), telemetry.NewEmitter(nil))
}

func write(t *testing.T, store *registry.Registry, in registry.WriteInput) {
	t.Helper()
	if _, _, _, err := store.CreateOrUpdate(in); err != nil {
		t.Fatalf("write %s: %v", in.ID, err)
	}
}

func TestBuildEmptyRegistry(t *testing.T) {
	builder := NewBuilder(newStore(t), nil)

	payload := builder.Build(BuildInput{})

	if payload.Worlds == nil || len(payload.Worlds) != 0 {
		t.Fatalf("worlds = %v", payload.Worlds)
	}
	if payload.Graph.Nodes == nil || payload.Graph.Edges == nil {
		t.Fatal("graph lists must serialize as empty lists")
	}
	if payload.Timeline == nil {
		t.Fatal("timeline map must not be nil")
	}
	if payload.Target != nil {
		t.Fatal("empty payload has no target")
	}
}

func TestBuildTagsNodesWithWorlds(t *testing.T) {
	store := newStore(t)
	write(t, store, registry.WriteInput{ID: "a", Metadata: map[string]any{"nodes": []string{"start", "n1"}}})
	write(t, store, registry.WriteInput{ID: "b", Metadata: map[string]any{"nodes": []string{"start", "n2"}}})

	payload := NewBuilder(store, nil).Build(BuildInput{})

	byNode := make(map[string][]string)
	for _, node := range payload.Graph.Nodes {
		byNode[node.ID] = node.Worlds
	}
	if !reflect.DeepEqual(byNode["start"], []string{"a", "b"}) {
		t.Fatalf("start worlds = %v", byNode["start"])
	}
	if !reflect.DeepEqual(byNode["n1"], []string{"a"}) {
		t.Fatalf("n1 worlds = %v", byNode["n1"])
	}

	// Edges follow each worldline's ordered node sequence.
	var aEdges []Edge
	for _, edge := range payload.Graph.Edges {
		if edge.World == "a" {
			aEdges = append(aEdges, edge)
		}
	}
	if len(aEdges) != 1 || aEdges[0].From != "n1" || aEdges[0].To != "start" {
		t.Fatalf("a edges = %+v, sorted node order without a timeline", aEdges)
	}
	if aEdges[0].Position != 0 {
		t.Fatalf("position = %d", aEdges[0].Position)
	}
}

func TestBuildTimelineOrderDrivesEdges(t *testing.T) {
	store := newStore(t)
	write(t, store, registry.WriteInput{ID: "a", Metadata: map[string]any{
		"nodes":    []string{"start", "n1", "n2"},
		"timeline": map[string]any{"order": []string{"n2", "start", "n1"}},
	}})

	payload := NewBuilder(store, nil).Build(BuildInput{})

	if !reflect.DeepEqual(payload.Timeline["a"], []string{"n2", "start", "n1"}) {
		t.Fatalf("timeline = %v", payload.Timeline["a"])
	}
	edges := payload.Graph.Edges
	if len(edges) != 2 {
		t.Fatalf("edges = %+v", edges)
	}
	if edges[0].From != "n2" || edges[0].To != "start" || edges[1].To != "n1" {
		t.Fatalf("edges = %+v", edges)
	}
}

func TestBuildOverlapAndDivergence(t *testing.T) {
	store := newStore(t)
	write(t, store, registry.WriteInput{ID: "target", Metadata: map[string]any{"nodes": []string{"start", "n1"}}, SetActive: true})
	write(t, store, registry.WriteInput{ID: "other", Metadata: map[string]any{"nodes": []string{"start", "n2", "n3"}}})

	payload := NewBuilder(store, nil).Build(BuildInput{})

	if payload.Target == nil || payload.Target.ID != "target" {
		t.Fatalf("target = %+v, active worldline must be the default target", payload.Target)
	}
	var other WorldSummary
	for _, summary := range payload.Worlds {
		if summary.ID == "other" {
			other = summary
		}
	}
	if other.Overlap != 1 || other.Divergence != 2 {
		t.Fatalf("overlap/divergence = %d/%d", other.Overlap, other.Divergence)
	}
	if other.Active {
		t.Fatal("only the active worldline is flagged")
	}
	if other.MetadataHash == "" {
		t.Fatal("summaries carry a metadata hash")
	}
	if other.Assets == nil {
		t.Fatal("assets must serialize as an empty list")
	}
}

func TestBuildLineage(t *testing.T) {
	store := newStore(t)
	write(t, store, registry.WriteInput{ID: "root", Metadata: map[string]any{"nodes": []string{"start"}}})
	if _, _, _, err := store.Fork(registry.ForkInput{SourceID: "root", NewID: "child"}); err != nil {
		t.Fatalf("fork child: %v", err)
	}
	if _, _, _, err := store.Fork(registry.ForkInput{SourceID: "child", NewID: "grandchild"}); err != nil {
		t.Fatalf("fork grandchild: %v", err)
	}

	payload := NewBuilder(store, nil).Build(BuildInput{TargetID: "root"})

	summaries := make(map[string]WorldSummary)
	for _, summary := range payload.Worlds {
		summaries[summary.ID] = summary
	}
	if summaries["root"].Depth != 0 || summaries["root"].Origin != "" {
		t.Fatalf("root lineage = %+v", summaries["root"])
	}
	if summaries["child"].Depth != 1 || summaries["child"].Origin != "root" {
		t.Fatalf("child lineage = %+v", summaries["child"])
	}
	if summaries["grandchild"].Depth != 2 || summaries["grandchild"].Origin != "root" {
		t.Fatalf("grandchild lineage = %+v", summaries["grandchild"])
	}
	if summaries["grandchild"].ParentID != "child" {
		t.Fatalf("grandchild parent = %q", summaries["grandchild"].ParentID)
	}
}

func TestBuildExplicitSubsetDropsUnknownIDs(t *testing.T) {
	store := newStore(t)
	write(t, store, registry.WriteInput{ID: "a", Metadata: map[string]any{"nodes": []string{"start"}}})
	write(t, store, registry.WriteInput{ID: "b", Metadata: map[string]any{"nodes": []string{"start"}}})

	payload := NewBuilder(store, nil).Build(BuildInput{WorldIDs: []string{"b", "ghost", "b", "a"}})

	ids := make([]string, len(payload.Worlds))
	for i, summary := range payload.Worlds {
		ids[i] = summary.ID
	}
	if !reflect.DeepEqual(ids, []string{"b", "a"}) {
		t.Fatalf("ids = %v, request order kept, unknown and duplicate ids dropped", ids)
	}
}

func TestBuildFastForwardMatrix(t *testing.T) {
	store := newStore(t)
	write(t, store, registry.WriteInput{ID: "target", Metadata: map[string]any{"nodes": []string{"start"}}})
	write(t, store, registry.WriteInput{ID: "ahead", Metadata: map[string]any{"nodes": []string{"start", "n1"}}})
	write(t, store, registry.WriteInput{ID: "conflicted", Metadata: map[string]any{
		"nodes":   []string{"start"},
		"choices": map[string]any{"rin": map[string]any{"n1": "left"}},
	}})
	write(t, store, registry.WriteInput{ID: "target", Metadata: map[string]any{
		"nodes":   []string{"start"},
		"choices": map[string]any{"rin": map[string]any{"n1": "right"}},
	}})

	merges := merge.NewEngine(store)
	payload := NewBuilder(store, merges).Build(BuildInput{TargetID: "target", IncludeFastForward: true})

	if payload.FastForward == nil {
		t.Fatal("expected fast-forward matrix")
	}
	if _, ok := payload.FastForward["target"]; ok {
		t.Fatal("target must not merge into itself")
	}
	ahead := payload.FastForward["ahead"]
	if !ahead.OK || !ahead.FastForward {
		t.Fatalf("ahead outlook = %+v", ahead)
	}
	if !reflect.DeepEqual(ahead.AddedNodes, []string{"n1"}) {
		t.Fatalf("ahead added = %v", ahead.AddedNodes)
	}
	conflicted := payload.FastForward["conflicted"]
	if conflicted.OK || len(conflicted.Conflicts) != 1 {
		t.Fatalf("conflicted outlook = %+v", conflicted)
	}
}

func TestBuildWithoutMergeEngineSkipsMatrix(t *testing.T) {
	store := newStore(t)
	write(t, store, registry.WriteInput{ID: "a", Metadata: map[string]any{"nodes": []string{"start"}}})

	payload := NewBuilder(store, nil).Build(BuildInput{IncludeFastForward: true})
	if payload.FastForward != nil {
		t.Fatalf("matrix = %v, nil merge engine disables it", payload.FastForward)
	}
}

func TestBuildTargetFallsBackToFirstSelected(t *testing.T) {
	store := newStore(t)
	write(t, store, registry.WriteInput{ID: "only", Metadata: map[string]any{"nodes": []string{"start"}}})

	payload := NewBuilder(store, nil).Build(BuildInput{TargetID: "ghost"})
	if payload.Target == nil || payload.Target.ID != "only" {
		t.Fatalf("target = %+v", payload.Target)
	}
}

func TestBuildTimelineNodeOutsideNodeSetStillTagged(t *testing.T) {
	store := newStore(t)
	write(t, store, registry.WriteInput{ID: "a", Metadata: map[string]any{
		"nodes":    []string{"start"},
		"timeline": map[string]any{"order": []string{"start", "phantom"}},
	}})

	payload := NewBuilder(store, nil).Build(BuildInput{})

	found := false
	for _, node := range payload.Graph.Nodes {
		if node.ID == "phantom" {
			found = true
			if !reflect.DeepEqual(node.Worlds, []string{"a"}) {
				t.Fatalf("phantom worlds = %v", node.Worlds)
			}
		}
	}
	if !found {
		t.Fatal("timeline-only node missing from the graph")
	}
}
