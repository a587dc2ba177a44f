package domain

import "testing"

func TestCanonicalJSONSortsKeys(t *testing.T) {
	got, err := CanonicalJSON(map[string]any{"zeta": 1, "alpha": 2})
	if err != nil {
		t.Fatalf("canonical json: %v", err)
	}
	if string(got) != `{"alpha":2,"zeta":1}` {
		t.Fatalf("canonical json = %s", got)
	}
}

func TestCanonicalJSONNoHTMLEscape(t *testing.T) {
	got, err := CanonicalJSON(map[string]any{"route": "a<b>&c"})
	if err != nil {
		t.Fatalf("canonical json: %v", err)
	}
	if string(got) != `{"route":"a<b>&c"}` {
		t.Fatalf("canonical json = %s", got)
	}
}

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"identical maps", map[string]any{"x": 1}, map[string]any{"x": 1}, true},
		{"string slice vs any slice", []string{"a", "b"}, []any{"a", "b"}, true},
		{"int vs float same value", map[string]any{"x": 1}, map[string]any{"x": 1.0}, true},
		{"different values", map[string]any{"x": 1}, map[string]any{"x": 2}, false},
		{"nil vs empty map", nil, map[string]any{}, false},
		{"both nil", nil, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValuesEqual(tt.a, tt.b); got != tt.want {
				t.Fatalf("ValuesEqual = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCloneValueIsolation(t *testing.T) {
	original := map[string]any{
		"nested": map[string]any{"k": "v"},
		"list":   []any{"a", "b"},
		"tags":   []string{"x"},
	}
	clone := CloneValue(original).(map[string]any)

	clone["nested"].(map[string]any)["k"] = "changed"
	clone["list"].([]any)[0] = "changed"
	clone["tags"].([]string)[0] = "changed"

	if original["nested"].(map[string]any)["k"] != "v" {
		t.Fatal("nested map shared between clone and original")
	}
	if original["list"].([]any)[0] != "a" {
		t.Fatal("list shared between clone and original")
	}
	if original["tags"].([]string)[0] != "x" {
		t.Fatal("string slice shared between clone and original")
	}
}
