package domain

import (
	"errors"
	"strings"
	"testing"

	apperrors "github.com/louisbranch/worldline.studio/internal/platform/errors"
)

func validCacheKeyInput() CacheKeyInput {
	return CacheKeyInput{
		Scene:     "forest",
		Node:      "n3",
		Worldline: "canon",
		Pov:       "rin",
		Vars:      map[string]any{"mood": "grim", "flags": []string{"a", "b"}},
		Seed:      "42",
		Theme:     "dusk",
		Weather:   "rain",
	}
}

func TestSnapshotCacheKeyGolden(t *testing.T) {
	// sha256 of {"flags":["a","b"],"mood":"grim"}
	const varsDigest = "af4e53c64fa1f9cbcf227db3f757a547056db91d23b8a4508f3a8c197a2a8f10"

	key, err := SnapshotCacheKey(validCacheKeyInput())
	if err != nil {
		t.Fatalf("cache key: %v", err)
	}
	want := "forest:n3:canon:rin:42:dusk:rain:" + varsDigest
	if key != want {
		t.Fatalf("cache key = %q, want %q", key, want)
	}
}

func TestSnapshotCacheKeyEmptyVars(t *testing.T) {
	// sha256 of {}
	const emptyDigest = "44136fa355b3678a1146ad16f7e8649e94fb4fc21fe77e8310c060f61caaff8a"

	in := validCacheKeyInput()
	in.Vars = map[string]any{}
	key, err := SnapshotCacheKey(in)
	if err != nil {
		t.Fatalf("cache key: %v", err)
	}
	if !strings.HasSuffix(key, ":"+emptyDigest) {
		t.Fatalf("cache key %q does not end with empty-vars digest", key)
	}
}

func TestSnapshotCacheKeyVarsOrderInsensitive(t *testing.T) {
	a := validCacheKeyInput()
	a.Vars = map[string]any{"one": 1, "two": 2, "three": 3}
	b := validCacheKeyInput()
	b.Vars = map[string]any{"three": 3, "one": 1, "two": 2}

	keyA, err := SnapshotCacheKey(a)
	if err != nil {
		t.Fatalf("cache key a: %v", err)
	}
	keyB, err := SnapshotCacheKey(b)
	if err != nil {
		t.Fatalf("cache key b: %v", err)
	}
	if keyA != keyB {
		t.Fatalf("keys differ across vars insertion order: %q vs %q", keyA, keyB)
	}
}

func TestSnapshotCacheKeyRequiredFields(t *testing.T) {
	tests := []struct {
		field  string
		mutate func(*CacheKeyInput)
	}{
		{"scene", func(in *CacheKeyInput) { in.Scene = "" }},
		{"node", func(in *CacheKeyInput) { in.Node = "  " }},
		{"worldline", func(in *CacheKeyInput) { in.Worldline = "" }},
		{"pov", func(in *CacheKeyInput) { in.Pov = "" }},
		{"seed", func(in *CacheKeyInput) { in.Seed = "" }},
		{"theme", func(in *CacheKeyInput) { in.Theme = "" }},
		{"weather", func(in *CacheKeyInput) { in.Weather = "" }},
		{"vars", func(in *CacheKeyInput) { in.Vars = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			in := validCacheKeyInput()
			tt.mutate(&in)

			_, err := SnapshotCacheKey(in)
			if err == nil {
				t.Fatalf("expected error for missing %s", tt.field)
			}
			var domainErr *apperrors.Error
			if !errors.As(err, &domainErr) {
				t.Fatalf("expected domain error, got %T", err)
			}
			if domainErr.Code != apperrors.CodeCacheKeyFieldMissing {
				t.Fatalf("code = %q, want %q", domainErr.Code, apperrors.CodeCacheKeyFieldMissing)
			}
			if domainErr.Metadata["field"] != tt.field {
				t.Fatalf("field metadata = %q, want %q", domainErr.Metadata["field"], tt.field)
			}
		})
	}
}

func TestSnapshotCacheKeyPure(t *testing.T) {
	in := validCacheKeyInput()
	first, err := SnapshotCacheKey(in)
	if err != nil {
		t.Fatalf("cache key: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := SnapshotCacheKey(in)
		if err != nil {
			t.Fatalf("cache key: %v", err)
		}
		if again != first {
			t.Fatalf("cache key changed between calls: %q vs %q", first, again)
		}
	}
}
