package domain

import "testing"

func TestSnapshotEntryWithDefaultsFromCacheKey(t *testing.T) {
	entry := SnapshotEntry{
		CacheKey: "forest:n3:canon:rin:42:dusk:rain:digest123",
	}.WithDefaults()

	if entry.Scene != "forest" {
		t.Fatalf("scene = %q, want forest", entry.Scene)
	}
	if entry.Node != "n3" {
		t.Fatalf("node = %q, want n3", entry.Node)
	}
	if entry.Pov != "rin" {
		t.Fatalf("pov = %q, want rin", entry.Pov)
	}
	if entry.Seed != "42" || entry.Theme != "dusk" || entry.Weather != "rain" {
		t.Fatalf("presentation fields = %q/%q/%q", entry.Seed, entry.Theme, entry.Weather)
	}
	if entry.VarsDigest != "digest123" {
		t.Fatalf("vars digest = %q, want digest123", entry.VarsDigest)
	}
	if entry.Hash == "" || entry.WorkflowHash == "" {
		t.Fatal("expected synthesized hash and workflow hash")
	}
	if entry.Hash == entry.WorkflowHash {
		t.Fatal("hash and workflow hash must differ")
	}
	if entry.Sidecar.Tool != sidecarTool || entry.Sidecar.Version != sidecarVersion {
		t.Fatalf("sidecar = %+v", entry.Sidecar)
	}
	if entry.Sidecar.Workflow != entry.WorkflowHash || entry.Sidecar.Capture != entry.Hash {
		t.Fatalf("sidecar digests = %+v", entry.Sidecar)
	}
}

func TestSnapshotEntryWithDefaultsKeepsExplicitFields(t *testing.T) {
	entry := SnapshotEntry{
		CacheKey: "forest:n3:canon:rin:42:dusk:rain:digest123",
		Scene:    "throne-room",
		Hash:     "explicit-hash",
	}.WithDefaults()

	if entry.Scene != "throne-room" {
		t.Fatalf("scene = %q, explicit value must win", entry.Scene)
	}
	if entry.Hash != "explicit-hash" {
		t.Fatalf("hash = %q, explicit value must win", entry.Hash)
	}
}

func TestSnapshotEntryWithDefaultsPlaceholderSegments(t *testing.T) {
	entry := SnapshotEntry{
		CacheKey: "_:n3:canon:_:42:dusk:rain:digest123",
	}.WithDefaults()

	if entry.Scene != "" {
		t.Fatalf("scene = %q, placeholder segment must stay unset", entry.Scene)
	}
	if entry.Pov != "" {
		t.Fatalf("pov = %q, placeholder segment must stay unset", entry.Pov)
	}
	if entry.Node != "n3" {
		t.Fatalf("node = %q", entry.Node)
	}
}

func TestSnapshotEntryWithDefaultsMalformedKey(t *testing.T) {
	entry := SnapshotEntry{CacheKey: "just-a-key"}.WithDefaults()
	if entry.Scene != "" || entry.Node != "" {
		t.Fatalf("segments filled from malformed key: %+v", entry)
	}
	if entry.Hash == "" || entry.WorkflowHash == "" || entry.VarsDigest == "" {
		t.Fatal("digest fallbacks must still apply")
	}
}

func TestSnapshotEntryWithDefaultsDeterministic(t *testing.T) {
	first := SnapshotEntry{CacheKey: "forest:n3:canon:rin:42:dusk:rain:d"}.WithDefaults()
	second := SnapshotEntry{CacheKey: "forest:n3:canon:rin:42:dusk:rain:d"}.WithDefaults()
	if first.Hash != second.Hash || first.WorkflowHash != second.WorkflowHash {
		t.Fatal("defaults must be deterministic per cache key")
	}
}

func TestSnapshotEntryMapRoundTrip(t *testing.T) {
	entry := SnapshotEntry{
		CacheKey: "forest:n3:canon:rin:42:dusk:rain:d",
		Badges:   []string{"ff", "conflict"},
	}.WithDefaults()

	parsed := snapshotEntryFromMap(entry.Map())
	if parsed.CacheKey != entry.CacheKey {
		t.Fatalf("cache key = %q", parsed.CacheKey)
	}
	if parsed.Scene != entry.Scene || parsed.Pov != entry.Pov {
		t.Fatalf("segments lost: %+v", parsed)
	}
	if len(parsed.Badges) != 2 || parsed.Badges[0] != "ff" {
		t.Fatalf("badges = %v", parsed.Badges)
	}
	if parsed.Sidecar != entry.Sidecar {
		t.Fatalf("sidecar = %+v, want %+v", parsed.Sidecar, entry.Sidecar)
	}
}

func TestSnapshotEntryCloneIsolatesBadges(t *testing.T) {
	entry := SnapshotEntry{CacheKey: "k", Badges: []string{"a"}}
	clone := entry.Clone()
	clone.Badges[0] = "changed"
	if entry.Badges[0] != "a" {
		t.Fatal("badges shared between clone and original")
	}
}
