package domain

import (
	"reflect"
	"testing"
)

func TestParseMetadata(t *testing.T) {
	raw := map[string]any{
		"nodes":   []any{"start", "n1"},
		"assets":  []string{"bg.png"},
		"choices": map[string]any{"rin": map[string]any{"n1": "left"}},
		"timeline": map[string]any{
			"order": []any{"start", "n1"},
		},
		"snapshots": []any{
			map[string]any{"cache_key": "k1", "node": "n1"},
		},
		"delta":      map[string]any{"poisoned": true},
		"delta_base": "x",
		"author":     "rin",
	}

	m := ParseMetadata(raw)

	if !reflect.DeepEqual(m.Nodes, []string{"start", "n1"}) {
		t.Fatalf("nodes = %v", m.Nodes)
	}
	if !reflect.DeepEqual(m.Assets, []string{"bg.png"}) {
		t.Fatalf("assets = %v", m.Assets)
	}
	if m.Choices["rin"]["n1"] != "left" {
		t.Fatalf("choices = %v", m.Choices)
	}
	if m.Timeline == nil || !reflect.DeepEqual(m.Timeline.Order, []string{"start", "n1"}) {
		t.Fatalf("timeline = %+v", m.Timeline)
	}
	if len(m.Snapshots) != 1 || m.Snapshots[0].CacheKey != "k1" {
		t.Fatalf("snapshots = %+v", m.Snapshots)
	}
	if _, ok := m.Extra["delta"]; ok {
		t.Fatal("delta bookkeeping key must be dropped")
	}
	if _, ok := m.Extra["delta_base"]; ok {
		t.Fatal("delta_base bookkeeping key must be dropped")
	}
	if m.Extra["author"] != "rin" {
		t.Fatalf("extra = %v", m.Extra)
	}
}

func TestMetadataMapOmitsEmptyFields(t *testing.T) {
	m := Metadata{}
	got := m.Map()
	if len(got) != 0 {
		t.Fatalf("empty metadata map = %v, want empty", got)
	}
}

func TestMetadataMapRoundTrip(t *testing.T) {
	m := Metadata{
		Nodes:    []string{"start", "n1"},
		Choices:  map[string]map[string]any{"rin": {"n1": "left"}},
		Assets:   []string{"bg.png"},
		Timeline: &Timeline{Order: []string{"start", "n1"}},
		Extra:    map[string]any{"author": "rin"},
	}

	parsed := ParseMetadata(m.Map())
	if !ValuesEqual(m.Map(), parsed.Map()) {
		t.Fatalf("round trip changed metadata:\n%v\n%v", m.Map(), parsed.Map())
	}
}

func TestMetadataCloneIsolation(t *testing.T) {
	m := Metadata{
		Nodes:   []string{"start"},
		Choices: map[string]map[string]any{"rin": {"n1": "left"}},
		Extra:   map[string]any{"k": map[string]any{"inner": 1}},
	}
	clone := m.Clone()
	clone.Nodes[0] = "changed"
	clone.Choices["rin"]["n1"] = "changed"
	clone.Extra["k"].(map[string]any)["inner"] = 2

	if m.Nodes[0] != "start" {
		t.Fatal("nodes shared between clone and original")
	}
	if m.Choices["rin"]["n1"] != "left" {
		t.Fatal("choices shared between clone and original")
	}
	if m.Extra["k"].(map[string]any)["inner"] != 1 {
		t.Fatal("extra shared between clone and original")
	}
}

func TestMetadataHashStable(t *testing.T) {
	a := Metadata{Nodes: []string{"start", "n1"}, Extra: map[string]any{"b": 1, "a": 2}}
	b := Metadata{Nodes: []string{"start", "n1"}, Extra: map[string]any{"a": 2, "b": 1}}
	if a.Hash() == "" {
		t.Fatal("expected non-empty hash")
	}
	if a.Hash() != b.Hash() {
		t.Fatal("hash must not depend on map insertion order")
	}

	c := Metadata{Nodes: []string{"start", "n2"}}
	if a.Hash() == c.Hash() {
		t.Fatal("different metadata must hash differently")
	}
}

func TestMetadataNodeSet(t *testing.T) {
	m := Metadata{Nodes: []string{"start", "n1"}}
	set := m.NodeSet()
	if !set["start"] || !set["n1"] || set["n2"] {
		t.Fatalf("node set = %v", set)
	}
}

func TestIsDeltaBookkeepingKey(t *testing.T) {
	if !IsDeltaBookkeepingKey(KeyDelta) || !IsDeltaBookkeepingKey(KeyDeltaBase) {
		t.Fatal("delta keys must be bookkeeping")
	}
	if IsDeltaBookkeepingKey(KeySnapshots) {
		t.Fatal("snapshots is excluded from diffs but is not bookkeeping")
	}
}
