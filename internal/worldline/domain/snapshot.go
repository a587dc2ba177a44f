package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SnapshotSidecar records capture provenance for a snapshot entry.
type SnapshotSidecar struct {
	Tool     string
	Version  string
	Workflow string
	Capture  string
}

// SnapshotEntry is one point-in-time capture in a worldline's snapshot log.
type SnapshotEntry struct {
	Scene        string
	Node         string
	Pov          string
	CacheKey     string
	Hash         string
	Thumbnail    string
	WorkflowHash string
	VarsDigest   string
	Seed         string
	Theme        string
	Weather      string
	Badges       []string
	Sidecar      SnapshotSidecar
}

const (
	sidecarTool    = "worldline.studio"
	sidecarVersion = "0.1.0"
)

// WithDefaults fills absent entry fields deterministically from the cache
// key: the key's own segments supply scene/node/pov/seed/theme/weather, and
// hashes over the key supply the remaining digests. The synthesized workflow
// hash and sidecar are convenience fallbacks, not tamper-evident commitments.
func (e SnapshotEntry) WithDefaults() SnapshotEntry {
	key := e.CacheKey

	if parts := strings.Split(key, ":"); len(parts) == 8 {
		e.Scene = defaultSegment(e.Scene, parts[0])
		e.Node = defaultSegment(e.Node, parts[1])
		e.Pov = defaultSegment(e.Pov, parts[3])
		e.Seed = defaultSegment(e.Seed, parts[4])
		e.Theme = defaultSegment(e.Theme, parts[5])
		e.Weather = defaultSegment(e.Weather, parts[6])
		e.VarsDigest = defaultSegment(e.VarsDigest, parts[7])
	}

	if e.Hash == "" {
		e.Hash = hashHex(key)
	}
	if e.WorkflowHash == "" {
		e.WorkflowHash = hashHex("workflow:" + key)
	}
	if e.VarsDigest == "" {
		e.VarsDigest = hashHex("vars:" + key)
	}
	if e.Sidecar.Tool == "" {
		e.Sidecar.Tool = sidecarTool
	}
	if e.Sidecar.Version == "" {
		e.Sidecar.Version = sidecarVersion
	}
	if e.Sidecar.Workflow == "" {
		e.Sidecar.Workflow = e.WorkflowHash
	}
	if e.Sidecar.Capture == "" {
		e.Sidecar.Capture = e.Hash
	}
	return e
}

// Clone copies the entry.
func (e SnapshotEntry) Clone() SnapshotEntry {
	clone := e
	clone.Badges = append([]string(nil), e.Badges...)
	return clone
}

// Map returns the canonical key/value form of the entry. Empty fields are
// omitted.
func (e SnapshotEntry) Map() map[string]any {
	out := make(map[string]any)
	putNonEmpty(out, "scene", e.Scene)
	putNonEmpty(out, "node", e.Node)
	putNonEmpty(out, "pov", e.Pov)
	putNonEmpty(out, "cache_key", e.CacheKey)
	putNonEmpty(out, "hash", e.Hash)
	putNonEmpty(out, "thumbnail", e.Thumbnail)
	putNonEmpty(out, "workflow_hash", e.WorkflowHash)
	putNonEmpty(out, "vars_digest", e.VarsDigest)
	putNonEmpty(out, "seed", e.Seed)
	putNonEmpty(out, "theme", e.Theme)
	putNonEmpty(out, "weather", e.Weather)
	if len(e.Badges) > 0 {
		out["badges"] = CloneValue(e.Badges)
	}
	sidecar := make(map[string]any)
	putNonEmpty(sidecar, "tool", e.Sidecar.Tool)
	putNonEmpty(sidecar, "version", e.Sidecar.Version)
	putNonEmpty(sidecar, "workflow", e.Sidecar.Workflow)
	putNonEmpty(sidecar, "capture", e.Sidecar.Capture)
	if len(sidecar) > 0 {
		out["sidecar"] = sidecar
	}
	return out
}

func snapshotEntryFromMap(raw map[string]any) SnapshotEntry {
	entry := SnapshotEntry{
		Scene:        toString(raw["scene"]),
		Node:         toString(raw["node"]),
		Pov:          toString(raw["pov"]),
		CacheKey:     toString(raw["cache_key"]),
		Hash:         toString(raw["hash"]),
		Thumbnail:    toString(raw["thumbnail"]),
		WorkflowHash: toString(raw["workflow_hash"]),
		VarsDigest:   toString(raw["vars_digest"]),
		Seed:         toString(raw["seed"]),
		Theme:        toString(raw["theme"]),
		Weather:      toString(raw["weather"]),
		Badges:       toStringSlice(raw["badges"]),
	}
	if sidecar, ok := raw["sidecar"].(map[string]any); ok {
		entry.Sidecar = SnapshotSidecar{
			Tool:     toString(sidecar["tool"]),
			Version:  toString(sidecar["version"]),
			Workflow: toString(sidecar["workflow"]),
			Capture:  toString(sidecar["capture"]),
		}
	}
	return entry
}

// defaultSegment keeps an explicit value, otherwise adopts a cache key
// segment unless it is the blank placeholder.
func defaultSegment(current, segment string) string {
	if current != "" {
		return current
	}
	if segment == "_" {
		return ""
	}
	return segment
}

func putNonEmpty(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func hashHex(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
