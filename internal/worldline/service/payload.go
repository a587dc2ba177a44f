package service

import (
	"time"

	"github.com/louisbranch/worldline.studio/internal/worldline/domain"
	"github.com/louisbranch/worldline.studio/internal/worldline/merge"
)

// WorldPayload is the serializable view of a worldline handed to HTTP/GUI
// layers. Timestamps are ISO-8601 UTC with a 'Z' suffix.
type WorldPayload struct {
	ID        string         `json:"id"`
	Label     string         `json:"label"`
	Pov       string         `json:"pov"`
	RootNode  string         `json:"root_node"`
	Notes     string         `json:"notes,omitempty"`
	Lane      string         `json:"lane"`
	LaneLabel string         `json:"lane_label"`
	LaneColor string         `json:"lane_color"`
	ParentID  string         `json:"parent_id,omitempty"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
	Metadata  map[string]any `json:"metadata"`
	Delta     map[string]any `json:"delta,omitempty"`
	Active    bool           `json:"active"`
}

// WorldResult pairs a worldline payload with write outcome details.
type WorldResult struct {
	World       WorldPayload   `json:"world"`
	Created     bool           `json:"created"`
	PovSnapshot map[string]any `json:"pov,omitempty"`
}

// MergePayload is the serializable merge outcome.
type MergePayload struct {
	OK            bool             `json:"ok"`
	FastForward   bool             `json:"fast_forward"`
	Conflicts     []merge.Conflict `json:"conflicts,omitempty"`
	AddedNodes    []string         `json:"added_nodes,omitempty"`
	Source        WorldPayload     `json:"source"`
	Target        WorldPayload     `json:"target"`
	TargetPreview *WorldPayload    `json:"target_preview,omitempty"`
}

func worldPayload(w domain.Worldline, active bool) WorldPayload {
	delta := w.Delta
	if len(delta) == 0 {
		delta = nil
	}
	return WorldPayload{
		ID:        w.ID,
		Label:     w.Label,
		Pov:       w.Pov,
		RootNode:  w.RootNode,
		Notes:     w.Notes,
		Lane:      string(w.Lane),
		LaneLabel: w.Lane.Label(),
		LaneColor: w.Lane.Color(),
		ParentID:  w.ParentID,
		CreatedAt: formatTimestamp(w.CreatedAt),
		UpdatedAt: formatTimestamp(w.UpdatedAt),
		Metadata:  w.Metadata.Map(),
		Delta:     delta,
		Active:    active,
	}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
