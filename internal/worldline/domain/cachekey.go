package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/worldline.studio/internal/platform/errors"
)

// CacheKeyInput carries the eight fields identifying a unique
// narrative+presentation state combination. All fields are required.
type CacheKeyInput struct {
	Scene     string
	Node      string
	Worldline string
	Pov       string
	Vars      map[string]any
	Seed      string
	Theme     string
	Weather   string
}

// SnapshotCacheKey builds the deterministic snapshot cache key
// "scene:node:worldline:pov:seed:theme:weather:digest", where digest is the
// SHA-256 of the canonical JSON encoding of vars. Existing cached keys depend
// on this exact byte layout.
func SnapshotCacheKey(in CacheKeyInput) (string, error) {
	fields := []struct {
		name  string
		value string
	}{
		{"scene", in.Scene},
		{"node", in.Node},
		{"worldline", in.Worldline},
		{"pov", in.Pov},
		{"seed", in.Seed},
		{"theme", in.Theme},
		{"weather", in.Weather},
	}
	for _, field := range fields {
		if strings.TrimSpace(field.value) == "" {
			return "", missingCacheKeyField(field.name)
		}
	}
	if in.Vars == nil {
		return "", missingCacheKeyField("vars")
	}

	canonical, err := CanonicalJSON(in.Vars)
	if err != nil {
		return "", fmt.Errorf("canonicalize vars: %w", err)
	}
	sum := sha256.Sum256(canonical)
	digest := hex.EncodeToString(sum[:])

	segments := []string{
		segmentOrPlaceholder(in.Scene),
		segmentOrPlaceholder(in.Node),
		segmentOrPlaceholder(in.Worldline),
		segmentOrPlaceholder(in.Pov),
		segmentOrPlaceholder(in.Seed),
		segmentOrPlaceholder(in.Theme),
		segmentOrPlaceholder(in.Weather),
		digest,
	}
	return strings.Join(segments, ":"), nil
}

// segmentOrPlaceholder substitutes "_" for blank segments so the key always
// has eight colon-separated parts.
func segmentOrPlaceholder(value string) string {
	if strings.TrimSpace(value) == "" {
		return "_"
	}
	return value
}

func missingCacheKeyField(name string) error {
	return apperrors.WithMetadata(
		apperrors.CodeCacheKeyFieldMissing,
		fmt.Sprintf("cache key field %s is required", name),
		map[string]string{"field": name},
	)
}
