// Package service is the programmatic surface consumed by out-of-scope
// HTTP and GUI layers. It wraps the registry and the diff/merge/graph
// engines, returns serializable payloads, and maps domain errors to gRPC
// statuses.
package service

import (
	"context"
	"errors"

	apperrors "github.com/louisbranch/worldline.studio/internal/platform/errors"
	"github.com/louisbranch/worldline.studio/internal/worldline/diff"
	"github.com/louisbranch/worldline.studio/internal/worldline/domain"
	"github.com/louisbranch/worldline.studio/internal/worldline/graph"
	"github.com/louisbranch/worldline.studio/internal/worldline/merge"
	"github.com/louisbranch/worldline.studio/internal/worldline/registry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const tracerName = "worldline.studio/worldline"

// Service exposes worldline operations to external callers.
type Service struct {
	registry *registry.Registry
	diffs    *diff.Engine
	merges   *merge.Engine
	graphs   *graph.Builder
	tracer   trace.Tracer
}

// New wires a service over a registry. scenarios may be nil.
func New(reg *registry.Registry, scenarios diff.ScenarioLookup) *Service {
	merges := merge.NewEngine(reg)
	return &Service{
		registry: reg,
		diffs:    diff.NewEngine(reg, scenarios),
		merges:   merges,
		graphs:   graph.NewBuilder(reg, merges),
		tracer:   otel.Tracer(tracerName),
	}
}

// CreateWorldRequest describes a create-or-update call. Nil optional fields
// leave existing values unchanged.
type CreateWorldRequest struct {
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

// ForkWorldRequest describes a fork call.
type ForkWorldRequest struct {
	SourceID  string
	NewID     string
	Label     *string
	Lane      *string
	Notes     *string
	Metadata  map[string]any
	SetActive bool
}

// RecordSnapshotRequest describes a snapshot append. Nil Dedupe defaults to
// true and nil Limit to the registry's default retention.
type RecordSnapshotRequest struct {
	WorldID string
	Entry   domain.SnapshotEntry
	Dedupe  *bool
	Limit   *int
}

// CreateWorld creates or updates a worldline.
func (s *Service) CreateWorld(ctx context.Context, in CreateWorldRequest) (WorldResult, error) {
	_, span := s.tracer.Start(ctx, "worldline.create_world",
		trace.WithAttributes(attribute.String("worldline.id", in.ID)))
	defer span.End()

	worldline, created, povSnapshot, err := s.registry.CreateOrUpdate(writeInput(in))
	if err != nil {
		span.RecordError(err)
		return WorldResult{}, statusError(err)
	}
	return WorldResult{
		World:       worldPayload(worldline, s.registry.ActiveID() == worldline.ID),
		Created:     created,
		PovSnapshot: povSnapshot,
	}, nil
}

// UpdateWorld updates an existing worldline; it never implicitly creates.
func (s *Service) UpdateWorld(ctx context.Context, in CreateWorldRequest) (WorldResult, error) {
	_, span := s.tracer.Start(ctx, "worldline.update_world",
		trace.WithAttributes(attribute.String("worldline.id", in.ID)))
	defer span.End()

	worldline, povSnapshot, err := s.registry.Update(writeInput(in))
	if err != nil {
		span.RecordError(err)
		return WorldResult{}, statusError(err)
	}
	return WorldResult{
		World:       worldPayload(worldline, s.registry.ActiveID() == worldline.ID),
		PovSnapshot: povSnapshot,
	}, nil
}

// ListWorlds returns all worldline payloads, each tagged with the active
// flag.
func (s *Service) ListWorlds(ctx context.Context) ([]WorldPayload, error) {
	_, span := s.tracer.Start(ctx, "worldline.list_worlds")
	defer span.End()

	activeID := s.registry.ActiveID()
	worldlines := s.registry.List()
	payloads := make([]WorldPayload, 0, len(worldlines))
	for _, worldline := range worldlines {
		payloads = append(payloads, worldPayload(worldline, worldline.ID == activeID))
	}
	span.SetAttributes(attribute.Int("worldline.count", len(payloads)))
	return payloads, nil
}

// GetWorld returns one worldline payload.
func (s *Service) GetWorld(ctx context.Context, id string) (WorldPayload, error) {
	_, span := s.tracer.Start(ctx, "worldline.get_world",
		trace.WithAttributes(attribute.String("worldline.id", id)))
	defer span.End()

	worldline, err := s.registry.Ensure(id)
	if err != nil {
		span.RecordError(err)
		return WorldPayload{}, statusError(err)
	}
	return worldPayload(worldline, s.registry.ActiveID() == worldline.ID), nil
}

// SwitchWorld moves the active pointer.
func (s *Service) SwitchWorld(ctx context.Context, id string) (WorldResult, error) {
	_, span := s.tracer.Start(ctx, "worldline.switch_world",
		trace.WithAttributes(attribute.String("worldline.id", id)))
	defer span.End()

	worldline, povSnapshot, err := s.registry.Switch(id)
	if err != nil {
		span.RecordError(err)
		return WorldResult{}, statusError(err)
	}
	return WorldResult{
		World:       worldPayload(worldline, true),
		PovSnapshot: povSnapshot,
	}, nil
}

// ForkWorld branches a new worldline from a source worldline.
func (s *Service) ForkWorld(ctx context.Context, in ForkWorldRequest) (WorldResult, error) {
	_, span := s.tracer.Start(ctx, "worldline.fork_world",
		trace.WithAttributes(
			attribute.String("worldline.source", in.SourceID),
			attribute.String("worldline.id", in.NewID),
		))
	defer span.End()

	worldline, created, povSnapshot, err := s.registry.Fork(registry.ForkInput{
		SourceID:  in.SourceID,
		NewID:     in.NewID,
		Label:     in.Label,
		Lane:      in.Lane,
		Notes:     in.Notes,
		Metadata:  in.Metadata,
		SetActive: in.SetActive,
	})
	if err != nil {
		span.RecordError(err)
		return WorldResult{}, statusError(err)
	}
	return WorldResult{
		World:       worldPayload(worldline, s.registry.ActiveID() == worldline.ID),
		Created:     created,
		PovSnapshot: povSnapshot,
	}, nil
}

// RecordSnapshot appends a snapshot entry to a worldline's log.
func (s *Service) RecordSnapshot(ctx context.Context, in RecordSnapshotRequest) (WorldPayload, error) {
	_, span := s.tracer.Start(ctx, "worldline.record_snapshot",
		trace.WithAttributes(attribute.String("worldline.id", in.WorldID)))
	defer span.End()

	dedupe := true
	if in.Dedupe != nil {
		dedupe = *in.Dedupe
	}
	limit := registry.DefaultSnapshotLimit
	if in.Limit != nil {
		limit = *in.Limit
	}

	worldline, err := s.registry.RecordSnapshot(in.WorldID, in.Entry, dedupe, limit)
	if err != nil {
		span.RecordError(err)
		return WorldPayload{}, statusError(err)
	}
	return worldPayload(worldline, s.registry.ActiveID() == worldline.ID), nil
}

// ActiveWorld returns the active worldline payload, or nil when none is
// active.
func (s *Service) ActiveWorld(ctx context.Context) (*WorldPayload, error) {
	_, span := s.tracer.Start(ctx, "worldline.active_world")
	defer span.End()

	worldline, ok := s.registry.ActiveSnapshot()
	if !ok {
		return nil, nil
	}
	payload := worldPayload(worldline, true)
	return &payload, nil
}

// DiffWorlds compares two worldlines.
func (s *Service) DiffWorlds(ctx context.Context, sourceID, targetID string, maskByPov bool) (diff.Result, error) {
	_, span := s.tracer.Start(ctx, "worldline.diff_worlds",
		trace.WithAttributes(
			attribute.String("worldline.source", sourceID),
			attribute.String("worldline.target", targetID),
			attribute.Bool("worldline.mask_by_pov", maskByPov),
		))
	defer span.End()

	result, err := s.diffs.Compare(sourceID, targetID, maskByPov)
	if err != nil {
		span.RecordError(err)
		return diff.Result{}, statusError(err)
	}
	return result, nil
}

// MergeWorlds merges the source worldline into the target.
func (s *Service) MergeWorlds(ctx context.Context, sourceID, targetID string, apply bool) (MergePayload, error) {
	_, span := s.tracer.Start(ctx, "worldline.merge_worlds",
		trace.WithAttributes(
			attribute.String("worldline.source", sourceID),
			attribute.String("worldline.target", targetID),
			attribute.Bool("worldline.apply", apply),
		))
	defer span.End()

	result, err := s.merges.Merge(sourceID, targetID, apply)
	if err != nil {
		span.RecordError(err)
		return MergePayload{}, statusError(err)
	}

	activeID := s.registry.ActiveID()
	payload := MergePayload{
		OK:          result.OK,
		FastForward: result.FastForward,
		Conflicts:   result.Conflicts,
		AddedNodes:  result.AddedNodes,
		Source:      worldPayload(result.Source, result.Source.ID == activeID),
		Target:      worldPayload(result.Target, result.Target.ID == activeID),
	}
	if result.TargetPreview != nil {
		preview := worldPayload(*result.TargetPreview, result.TargetPreview.ID == activeID)
		payload.TargetPreview = &preview
	}
	span.SetAttributes(attribute.Bool("worldline.merge_ok", result.OK))
	return payload, nil
}

// WorldlineGraph composes worldlines into a node/edge graph payload.
func (s *Service) WorldlineGraph(ctx context.Context, in graph.BuildInput) (graph.Payload, error) {
	_, span := s.tracer.Start(ctx, "worldline.graph")
	defer span.End()

	payload := s.graphs.Build(in)
	span.SetAttributes(attribute.Int("worldline.count", len(payload.Worlds)))
	return payload, nil
}

// SnapshotCacheKey builds the deterministic snapshot cache key.
func (s *Service) SnapshotCacheKey(ctx context.Context, in domain.CacheKeyInput) (string, error) {
	_, span := s.tracer.Start(ctx, "worldline.snapshot_cache_key")
	defer span.End()

	key, err := domain.SnapshotCacheKey(in)
	if err != nil {
		span.RecordError(err)
		return "", statusError(err)
	}
	return key, nil
}

func writeInput(in CreateWorldRequest) registry.WriteInput {
	return registry.WriteInput{
		ID:        in.ID,
		Label:     in.Label,
		Pov:       in.Pov,
		RootNode:  in.RootNode,
		Notes:     in.Notes,
		Metadata:  in.Metadata,
		Lane:      in.Lane,
		ParentID:  in.ParentID,
		SetActive: in.SetActive,
	}
}

// statusError maps domain errors to gRPC statuses. Unknown errors surface as
// Internal.
func statusError(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		return domainErr.ToGRPCStatus()
	}
	return status.Errorf(codes.Internal, "%v", err)
}
