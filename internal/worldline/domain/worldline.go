package domain

import "time"

// Defaults applied when a worldline is created without explicit values.
const (
	// DefaultPov is the viewpoint assigned to new worldlines.
	DefaultPov = "narrator"
	// DefaultRootNode is the entry node assigned to new worldlines.
	DefaultRootNode = "start"
)

// Worldline is one branch of narrative state.
type Worldline struct {
	ID        string
	Label     string
	Pov       string
	RootNode  string
	Notes     string
	Lane      Lane
	ParentID  string
	CreatedAt time.Time
	UpdatedAt time.Time
	Metadata  Metadata

	// Delta holds the metadata keys differing from the resolved parent
	// metadata. It is derived on every write and never read back from input.
	Delta map[string]any
}

// Clone deep-copies the worldline so callers cannot mutate registry state.
func (w Worldline) Clone() Worldline {
	clone := w
	clone.Metadata = w.Metadata.Clone()
	if w.Delta != nil {
		clone.Delta = make(map[string]any, len(w.Delta))
		for key, value := range w.Delta {
			clone.Delta[key] = CloneValue(value)
		}
	}
	return clone
}
