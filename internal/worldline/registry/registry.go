// Package registry owns the worldline map and the active worldline pointer.
//
// All mutations run under one mutex for their full duration. Reads take the
// same lock to capture a consistent view and return defensive copies, never
// live references. The active worldline id and the shared POV pointer move
// together under that lock so they cannot desynchronize.
package registry

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/worldline.studio/internal/telemetry"
	"github.com/louisbranch/worldline.studio/internal/worldline/deltamerge"
	"github.com/louisbranch/worldline.studio/internal/worldline/domain"
)

// Event names emitted by the registry. Emission is best-effort: sink
// failures never fail the triggering operation.
const (
	EventWorldlineCreated = "worldline_created"
	EventSnapshotRecorded = "snapshot_recorded"
)

// DefaultSnapshotLimit is the snapshot log retention applied when callers do
// not specify one.
const DefaultSnapshotLimit = 250

// POVManager is the external collaborator tracking the active point of view.
type POVManager interface {
	Get() string
	Set(id string)
	Snapshot() map[string]any
}

// Registry stores all worldlines plus the active pointer.
type Registry struct {
	mu         sync.Mutex
	worldlines map[string]*domain.Worldline
	activeID   string
	pov        POVManager
	events     *telemetry.Emitter
	clock      func() time.Time
}

// New creates an empty registry coordinating with the given POV manager.
// The emitter may be nil.
func New(pov POVManager, events *telemetry.Emitter) *Registry {
	return &Registry{
		worldlines: make(map[string]*domain.Worldline),
		pov:        pov,
		events:     events,
		clock:      time.Now,
	}
}

// WriteInput describes a create-or-update request. Nil optional fields leave
// the current value unchanged.
type WriteInput struct {
	ID        string
	Label     *string
	Pov       *string
	RootNode  *string
	Notes     *string
	Metadata  map[string]any
	Lane      *string
	ParentID  *string
	SetActive bool
}

// ForkInput describes a fork request.
type ForkInput struct {
	SourceID  string
	NewID     string
	Label     *string
	Lane      *string
	Notes     *string
	Metadata  map[string]any
	SetActive bool
}

// Ensure returns a copy of the worldline with the given id.
func (r *Registry) Ensure(id string) (domain.Worldline, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Worldline{}, domain.ErrWorldlineIDEmpty
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.worldlines[id]
	if !ok {
		return domain.Worldline{}, domain.NotFoundError(id)
	}
	return current.Clone(), nil
}

// CreateOrUpdate writes a worldline, creating it when absent. It returns the
// stored copy, whether the record was created, and the POV snapshot when the
// write also moved the active pointer.
func (r *Registry) CreateOrUpdate(in WriteInput) (domain.Worldline, bool, map[string]any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writeLocked(in, false)
}

// Update writes an existing worldline; it never implicitly creates one.
func (r *Registry) Update(in WriteInput) (domain.Worldline, map[string]any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	worldline, _, povSnapshot, err := r.writeLocked(in, true)
	return worldline, povSnapshot, err
}

// Switch moves the active pointer to the given worldline and aligns the POV
// manager with its viewpoint.
func (r *Registry) Switch(id string) (domain.Worldline, map[string]any, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Worldline{}, nil, domain.ErrWorldlineIDEmpty
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.worldlines[id]
	if !ok {
		return domain.Worldline{}, nil, domain.NotFoundError(id)
	}

	r.activeID = id
	povSnapshot := r.movePOVLocked(current.Pov)
	return current.Clone(), povSnapshot, nil
}

// Fork creates (or re-targets) a worldline branching from a source worldline.
// The new worldline inherits the source's POV and root node on creation and
// records the source as its parent.
func (r *Registry) Fork(in ForkInput) (domain.Worldline, bool, map[string]any, error) {
	newID := strings.TrimSpace(in.NewID)
	if newID == "" {
		return domain.Worldline{}, false, nil, domain.ErrWorldlineIDEmpty
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	source, ok := r.worldlines[strings.TrimSpace(in.SourceID)]
	if !ok {
		return domain.Worldline{}, false, nil, domain.NotFoundError(in.SourceID)
	}

	write := WriteInput{
		ID:        newID,
		Label:     in.Label,
		Lane:      in.Lane,
		Notes:     in.Notes,
		Metadata:  in.Metadata,
		ParentID:  &source.ID,
		SetActive: in.SetActive,
	}
	if _, exists := r.worldlines[newID]; !exists {
		pov := source.Pov
		rootNode := source.RootNode
		write.Pov = &pov
		write.RootNode = &rootNode
	}
	return r.writeLocked(write, false)
}

// RecordSnapshot appends a snapshot entry to a worldline's log. With dedupe,
// a prior entry with the same cache key is removed first so the re-recorded
// entry moves to the tail. A positive limit evicts the oldest entries once
// the log exceeds it.
func (r *Registry) RecordSnapshot(id string, entry domain.SnapshotEntry, dedupe bool, limit int) (domain.Worldline, error) {
	if strings.TrimSpace(entry.CacheKey) == "" {
		return domain.Worldline{}, domain.ErrSnapshotCacheKeyMissing
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Worldline{}, domain.ErrWorldlineIDEmpty
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.worldlines[id]
	if !ok {
		return domain.Worldline{}, domain.NotFoundError(id)
	}

	entry = entry.WithDefaults()

	snapshots := current.Metadata.Snapshots
	if dedupe {
		kept := snapshots[:0]
		for _, existing := range snapshots {
			if existing.CacheKey != entry.CacheKey {
				kept = append(kept, existing)
			}
		}
		snapshots = kept
	}
	snapshots = append(snapshots, entry.Clone())
	if limit > 0 && len(snapshots) > limit {
		snapshots = append([]domain.SnapshotEntry(nil), snapshots[len(snapshots)-limit:]...)
	}
	current.Metadata.Snapshots = snapshots
	current.UpdatedAt = r.now()

	r.events.Emit(EventSnapshotRecorded, map[string]any{
		"worldline": id,
		"cache_key": entry.CacheKey,
		"node":      entry.Node,
	})
	return current.Clone(), nil
}

// List returns copies of all worldlines sorted by id.
func (r *Registry) List() []domain.Worldline {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Worldline, 0, len(r.worldlines))
	for _, current := range r.worldlines {
		out = append(out, current.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ActiveID returns the active worldline id, or empty when none is active.
func (r *Registry) ActiveID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeID
}

// ActiveSnapshot returns a copy of the active worldline when one is set.
func (r *Registry) ActiveSnapshot() (domain.Worldline, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.worldlines[r.activeID]
	if !ok {
		return domain.Worldline{}, false
	}
	return current.Clone(), true
}

// Reset drops every worldline, clears the active pointer, and returns the
// POV manager to the default narrator viewpoint.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.worldlines = make(map[string]*domain.Worldline)
	r.activeID = ""
	if r.pov != nil {
		r.pov.Set(domain.DefaultPov)
	}
}

// writeLocked performs the shared create-or-update path. The caller must
// hold the registry lock; the mutex is not re-entrant.
func (r *Registry) writeLocked(in WriteInput, mustExist bool) (domain.Worldline, bool, map[string]any, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return domain.Worldline{}, false, nil, domain.ErrWorldlineIDEmpty
	}

	now := r.now()
	current, ok := r.worldlines[id]
	if !ok && mustExist {
		return domain.Worldline{}, false, nil, domain.NotFoundError(id)
	}

	created := !ok
	if created {
		current = &domain.Worldline{
			ID:        id,
			Label:     id,
			Pov:       domain.DefaultPov,
			RootNode:  domain.DefaultRootNode,
			Lane:      domain.ResolveLane("", id),
			CreatedAt: now,
		}
	}

	if in.Label != nil {
		current.Label = *in.Label
	}
	if in.Pov != nil {
		current.Pov = *in.Pov
	}
	if in.RootNode != nil {
		current.RootNode = *in.RootNode
	}
	if in.Notes != nil {
		current.Notes = *in.Notes
	}
	if in.Lane != nil {
		current.Lane = domain.ResolveLane(*in.Lane, id)
	}

	parentChanged := false
	if in.ParentID != nil && *in.ParentID != current.ParentID {
		current.ParentID = *in.ParentID
		parentChanged = true
	}

	if in.Metadata != nil || created || parentChanged {
		overlay := in.Metadata
		if overlay == nil {
			overlay = current.Metadata.Map()
		}
		current.Metadata, current.Delta = deltamerge.Resolve(r.parentMetadataLocked(current), overlay)
	}

	current.UpdatedAt = now
	r.worldlines[id] = current

	var povSnapshot map[string]any
	if in.SetActive {
		r.activeID = id
		povSnapshot = r.movePOVLocked(current.Pov)
	}

	if created {
		r.events.Emit(EventWorldlineCreated, map[string]any{
			"worldline": id,
			"lane":      string(current.Lane),
			"parent_id": current.ParentID,
		})
	}
	return current.Clone(), created, povSnapshot, nil
}

// parentMetadataLocked resolves the parent's metadata for delta computation.
// An unresolvable or self-referencing parent id behaves as no parent.
func (r *Registry) parentMetadataLocked(w *domain.Worldline) *domain.Metadata {
	if w.ParentID == "" || w.ParentID == w.ID {
		return nil
	}
	parent, ok := r.worldlines[w.ParentID]
	if !ok {
		return nil
	}
	meta := parent.Metadata.Clone()
	return &meta
}

func (r *Registry) movePOVLocked(povID string) map[string]any {
	if r.pov == nil {
		return nil
	}
	r.pov.Set(povID)
	return r.pov.Snapshot()
}

func (r *Registry) now() time.Time {
	if r.clock == nil {
		return time.Now().UTC()
	}
	return r.clock().UTC()
}
