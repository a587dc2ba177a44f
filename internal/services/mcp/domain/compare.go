package domain

import (
	"context"
	"fmt"

	"github.com/louisbranch/worldline.studio/internal/worldline/diff"
	"github.com/louisbranch/worldline.studio/internal/worldline/domain"
	"github.com/louisbranch/worldline.studio/internal/worldline/graph"
	"github.com/louisbranch/worldline.studio/internal/worldline/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SnapshotRecordInput represents the MCP tool input for recording a render
// snapshot against a worldline.
type SnapshotRecordInput struct {
	WorldID   string   `json:"world_id" jsonschema:"worldline to append the snapshot to"`
	CacheKey  string   `json:"cache_key" jsonschema:"deterministic render cache key; segments fill missing fields"`
	Scene     string   `json:"scene,omitempty" jsonschema:"optional scene id"`
	Node      string   `json:"node,omitempty" jsonschema:"optional node id"`
	Pov       string   `json:"pov,omitempty" jsonschema:"optional point of view"`
	Seed      string   `json:"seed,omitempty" jsonschema:"optional render seed"`
	Theme     string   `json:"theme,omitempty" jsonschema:"optional theme"`
	Weather   string   `json:"weather,omitempty" jsonschema:"optional weather"`
	Thumbnail string   `json:"thumbnail,omitempty" jsonschema:"optional thumbnail reference"`
	Badges    []string `json:"badges,omitempty" jsonschema:"optional display badges"`
	Dedupe    *bool    `json:"dedupe,omitempty" jsonschema:"drop earlier entries with the same cache key (default true)"`
	Limit     *int     `json:"limit,omitempty" jsonschema:"retention limit, oldest entries evicted first (default 250)"`
}

// SnapshotCacheKeyInput represents the MCP tool input for building a cache
// key. All fields are required; vars may be empty but not absent.
type SnapshotCacheKeyInput struct {
	Scene     string         `json:"scene" jsonschema:"scene id"`
	Node      string         `json:"node" jsonschema:"node id"`
	Worldline string         `json:"worldline" jsonschema:"worldline id"`
	Pov       string         `json:"pov" jsonschema:"point of view"`
	Vars      map[string]any `json:"vars" jsonschema:"render variables, digested order-independently"`
	Seed      string         `json:"seed" jsonschema:"render seed"`
	Theme     string         `json:"theme" jsonschema:"theme"`
	Weather   string         `json:"weather" jsonschema:"weather"`
}

// SnapshotCacheKeyResult represents the MCP tool output for cache keys.
type SnapshotCacheKeyResult struct {
	CacheKey string `json:"cache_key" jsonschema:"colon-joined deterministic cache key"`
}

// WorldsDiffInput represents the MCP tool input for diffing two worldlines.
type WorldsDiffInput struct {
	Source    string `json:"source" jsonschema:"source worldline id"`
	Target    string `json:"target" jsonschema:"target worldline id"`
	MaskByPov bool   `json:"mask_by_pov,omitempty" jsonschema:"restrict each side's choices to its own active POV"`
}

// WorldsDiffResult represents the MCP tool output for diffs.
type WorldsDiffResult struct {
	Diff diff.Result `json:"diff" jsonschema:"node, asset, choice, and timeline comparison"`
}

// WorldsMergeInput represents the MCP tool input for merging worldlines.
type WorldsMergeInput struct {
	Source string `json:"source" jsonschema:"worldline merged from"`
	Target string `json:"target" jsonschema:"worldline merged into"`
	Apply  bool   `json:"apply,omitempty" jsonschema:"commit the merged metadata to the target (default preview only)"`
}

// WorldsMergeResult represents the MCP tool output for merges.
type WorldsMergeResult struct {
	Merge service.MergePayload `json:"merge" jsonschema:"merge outcome; ok=false carries the conflict list and mutates nothing"`
}

// WorldlineGraphInput represents the MCP tool input for the graph view.
type WorldlineGraphInput struct {
	TargetID           string   `json:"target_id,omitempty" jsonschema:"comparison target; defaults to the active worldline"`
	WorldIDs           []string `json:"world_ids,omitempty" jsonschema:"optional subset of worldlines to compose"`
	IncludeFastForward bool     `json:"include_fast_forward,omitempty" jsonschema:"include a merge-preview matrix against the target"`
}

// WorldlineGraphResult represents the MCP tool output for the graph view.
type WorldlineGraphResult struct {
	Payload graph.Payload `json:"payload" jsonschema:"world summaries, node/edge graph, and per-world timelines"`
}

// SnapshotRecordTool defines the MCP tool schema for recording snapshots.
func SnapshotRecordTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "snapshot_record",
		Description: "Append a render snapshot to a worldline's bounded snapshot log",
	}
}

// SnapshotCacheKeyTool defines the MCP tool schema for building cache keys.
func SnapshotCacheKeyTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "snapshot_cache_key",
		Description: "Build the deterministic snapshot cache key for a render request",
	}
}

// WorldsDiffTool defines the MCP tool schema for diffing worldlines.
func WorldsDiffTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "worlds_diff",
		Description: "Compare two worldlines: nodes, assets, choices, and timelines",
	}
}

// WorldsMergeTool defines the MCP tool schema for merging worldlines.
func WorldsMergeTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "worlds_merge",
		Description: "Merge one worldline into another, previewing or applying the result",
	}
}

// WorldlineGraphTool defines the MCP tool schema for the graph view.
func WorldlineGraphTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "worldline_graph",
		Description: "Compose worldlines into a cross-branch node/edge graph with overlap metrics",
	}
}

// SnapshotRecordHandler executes a snapshot append.
func SnapshotRecordHandler(svc *service.Service) mcp.ToolHandlerFor[SnapshotRecordInput, WorldGetResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SnapshotRecordInput) (*mcp.CallToolResult, WorldGetResult, error) {
		world, err := svc.RecordSnapshot(ctx, service.RecordSnapshotRequest{
			WorldID: input.WorldID,
			Entry: snapshotEntry(input.CacheKey, input.Scene, input.Node, input.Pov,
				input.Seed, input.Theme, input.Weather, input.Thumbnail, input.Badges),
			Dedupe: input.Dedupe,
			Limit:  input.Limit,
		})
		if err != nil {
			return nil, WorldGetResult{}, fmt.Errorf("snapshot record failed: %w", err)
		}
		return nil, WorldGetResult{World: world}, nil
	}
}

// SnapshotCacheKeyHandler builds a deterministic cache key.
func SnapshotCacheKeyHandler(svc *service.Service) mcp.ToolHandlerFor[SnapshotCacheKeyInput, SnapshotCacheKeyResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SnapshotCacheKeyInput) (*mcp.CallToolResult, SnapshotCacheKeyResult, error) {
		key, err := svc.SnapshotCacheKey(ctx, domain.CacheKeyInput{
			Scene:     input.Scene,
			Node:      input.Node,
			Worldline: input.Worldline,
			Pov:       input.Pov,
			Vars:      input.Vars,
			Seed:      input.Seed,
			Theme:     input.Theme,
			Weather:   input.Weather,
		})
		if err != nil {
			return nil, SnapshotCacheKeyResult{}, fmt.Errorf("snapshot cache key failed: %w", err)
		}
		return nil, SnapshotCacheKeyResult{CacheKey: key}, nil
	}
}

// WorldsDiffHandler executes a worldline diff.
func WorldsDiffHandler(svc *service.Service) mcp.ToolHandlerFor[WorldsDiffInput, WorldsDiffResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input WorldsDiffInput) (*mcp.CallToolResult, WorldsDiffResult, error) {
		result, err := svc.DiffWorlds(ctx, input.Source, input.Target, input.MaskByPov)
		if err != nil {
			return nil, WorldsDiffResult{}, fmt.Errorf("worlds diff failed: %w", err)
		}
		return nil, WorldsDiffResult{Diff: result}, nil
	}
}

// WorldsMergeHandler executes a worldline merge.
func WorldsMergeHandler(svc *service.Service) mcp.ToolHandlerFor[WorldsMergeInput, WorldsMergeResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input WorldsMergeInput) (*mcp.CallToolResult, WorldsMergeResult, error) {
		result, err := svc.MergeWorlds(ctx, input.Source, input.Target, input.Apply)
		if err != nil {
			return nil, WorldsMergeResult{}, fmt.Errorf("worlds merge failed: %w", err)
		}
		return nil, WorldsMergeResult{Merge: result}, nil
	}
}

// WorldlineGraphHandler composes the worldline graph.
func WorldlineGraphHandler(svc *service.Service) mcp.ToolHandlerFor[WorldlineGraphInput, WorldlineGraphResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input WorldlineGraphInput) (*mcp.CallToolResult, WorldlineGraphResult, error) {
		payload, err := svc.WorldlineGraph(ctx, graph.BuildInput{
			TargetID:           input.TargetID,
			WorldIDs:           input.WorldIDs,
			IncludeFastForward: input.IncludeFastForward,
		})
		if err != nil {
			return nil, WorldlineGraphResult{}, fmt.Errorf("worldline graph failed: %w", err)
		}
		return nil, WorldlineGraphResult{Payload: payload}, nil
	}
}
