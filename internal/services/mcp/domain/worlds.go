// Package domain defines the MCP tool schemas and handlers for the worldline
// surface.
package domain

import (
	"context"
	"fmt"

	"github.com/louisbranch/worldline.studio/internal/worldline/domain"
	"github.com/louisbranch/worldline.studio/internal/worldline/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// WorldCreateInput represents the MCP tool input for creating or updating a
// worldline.
type WorldCreateInput struct {
	ID        string         `json:"id" jsonschema:"worldline identifier"`
	Label     string         `json:"label,omitempty" jsonschema:"optional display label (defaults to the id)"`
	Pov       string         `json:"pov,omitempty" jsonschema:"optional active point of view (defaults to narrator)"`
	RootNode  string         `json:"root_node,omitempty" jsonschema:"optional entry node (defaults to start)"`
	Notes     string         `json:"notes,omitempty" jsonschema:"optional free-form notes"`
	Lane      string         `json:"lane,omitempty" jsonschema:"optional lane: official, vn_branch, scratch, or a free-text alias"`
	ParentID  string         `json:"parent_id,omitempty" jsonschema:"optional parent worldline for delta tracking"`
	Metadata  map[string]any `json:"metadata,omitempty" jsonschema:"optional metadata tree (nodes, choices, assets, timeline, extra keys)"`
	SetActive bool           `json:"set_active,omitempty" jsonschema:"whether to make this the active worldline"`
}

// WorldWriteResult represents the MCP tool output for worldline writes.
type WorldWriteResult struct {
	World   service.WorldPayload `json:"world" jsonschema:"worldline payload"`
	Created bool                 `json:"created" jsonschema:"whether the worldline was created by this call"`
	Pov     map[string]any       `json:"pov,omitempty" jsonschema:"POV manager snapshot when the active pointer moved"`
}

// WorldIDInput represents an MCP tool input naming one worldline.
type WorldIDInput struct {
	ID string `json:"id" jsonschema:"worldline identifier"`
}

// WorldListResult represents the MCP tool output for listing worldlines.
type WorldListResult struct {
	Worlds []service.WorldPayload `json:"worlds" jsonschema:"all worldlines, each tagged with the active flag"`
}

// WorldGetResult represents the MCP tool output for fetching one worldline.
type WorldGetResult struct {
	World service.WorldPayload `json:"world" jsonschema:"worldline payload"`
}

// WorldActiveResult represents the MCP tool output for the active worldline.
type WorldActiveResult struct {
	World *service.WorldPayload `json:"world,omitempty" jsonschema:"active worldline payload, absent when none is active"`
}

// WorldForkInput represents the MCP tool input for forking a worldline.
type WorldForkInput struct {
	SourceID  string         `json:"source_id" jsonschema:"worldline to branch from"`
	NewID     string         `json:"new_id,omitempty" jsonschema:"identifier for the forked worldline; generated when omitted"`
	Label     string         `json:"label,omitempty" jsonschema:"optional display label"`
	Lane      string         `json:"lane,omitempty" jsonschema:"optional lane for the fork"`
	Notes     string         `json:"notes,omitempty" jsonschema:"optional free-form notes"`
	Metadata  map[string]any `json:"metadata,omitempty" jsonschema:"optional metadata overlay applied on top of the source"`
	SetActive bool           `json:"set_active,omitempty" jsonschema:"whether to make the fork the active worldline"`
}

// WorldCreateTool defines the MCP tool schema for creating worldlines.
func WorldCreateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "world_create",
		Description: "Create a worldline, or update it when it already exists",
	}
}

// WorldUpdateTool defines the MCP tool schema for updating worldlines.
func WorldUpdateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "world_update",
		Description: "Update an existing worldline; fails when the worldline does not exist",
	}
}

// WorldListTool defines the MCP tool schema for listing worldlines.
func WorldListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "world_list",
		Description: "List all worldlines with lane and delta information",
	}
}

// WorldGetTool defines the MCP tool schema for fetching one worldline.
func WorldGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "world_get",
		Description: "Get one worldline by id",
	}
}

// WorldSwitchTool defines the MCP tool schema for switching worldlines.
func WorldSwitchTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "world_switch",
		Description: "Make a worldline active, moving the shared POV pointer with it",
	}
}

// WorldActiveTool defines the MCP tool schema for the active worldline.
func WorldActiveTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "world_active",
		Description: "Get the active worldline, if any",
	}
}

// WorldForkTool defines the MCP tool schema for forking worldlines.
func WorldForkTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "world_fork",
		Description: "Fork a worldline into a new branch that tracks its parent's metadata as a delta",
	}
}

// WorldCreateHandler executes a worldline create-or-update request.
func WorldCreateHandler(svc *service.Service) mcp.ToolHandlerFor[WorldCreateInput, WorldWriteResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input WorldCreateInput) (*mcp.CallToolResult, WorldWriteResult, error) {
		result, err := svc.CreateWorld(ctx, createRequest(input))
		if err != nil {
			return nil, WorldWriteResult{}, fmt.Errorf("world create failed: %w", err)
		}
		return nil, WorldWriteResult{World: result.World, Created: result.Created, Pov: result.PovSnapshot}, nil
	}
}

// WorldUpdateHandler executes a worldline update request.
func WorldUpdateHandler(svc *service.Service) mcp.ToolHandlerFor[WorldCreateInput, WorldWriteResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input WorldCreateInput) (*mcp.CallToolResult, WorldWriteResult, error) {
		result, err := svc.UpdateWorld(ctx, createRequest(input))
		if err != nil {
			return nil, WorldWriteResult{}, fmt.Errorf("world update failed: %w", err)
		}
		return nil, WorldWriteResult{World: result.World, Pov: result.PovSnapshot}, nil
	}
}

// WorldListHandler executes a worldline list request.
func WorldListHandler(svc *service.Service) mcp.ToolHandlerFor[struct{}, WorldListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, WorldListResult, error) {
		worlds, err := svc.ListWorlds(ctx)
		if err != nil {
			return nil, WorldListResult{}, fmt.Errorf("world list failed: %w", err)
		}
		return nil, WorldListResult{Worlds: worlds}, nil
	}
}

// WorldGetHandler executes a single worldline fetch.
func WorldGetHandler(svc *service.Service) mcp.ToolHandlerFor[WorldIDInput, WorldGetResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input WorldIDInput) (*mcp.CallToolResult, WorldGetResult, error) {
		world, err := svc.GetWorld(ctx, input.ID)
		if err != nil {
			return nil, WorldGetResult{}, fmt.Errorf("world get failed: %w", err)
		}
		return nil, WorldGetResult{World: world}, nil
	}
}

// WorldSwitchHandler executes a worldline switch.
func WorldSwitchHandler(svc *service.Service) mcp.ToolHandlerFor[WorldIDInput, WorldWriteResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input WorldIDInput) (*mcp.CallToolResult, WorldWriteResult, error) {
		result, err := svc.SwitchWorld(ctx, input.ID)
		if err != nil {
			return nil, WorldWriteResult{}, fmt.Errorf("world switch failed: %w", err)
		}
		return nil, WorldWriteResult{World: result.World, Pov: result.PovSnapshot}, nil
	}
}

// WorldActiveHandler returns the active worldline.
func WorldActiveHandler(svc *service.Service) mcp.ToolHandlerFor[struct{}, WorldActiveResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, WorldActiveResult, error) {
		world, err := svc.ActiveWorld(ctx)
		if err != nil {
			return nil, WorldActiveResult{}, fmt.Errorf("world active failed: %w", err)
		}
		return nil, WorldActiveResult{World: world}, nil
	}
}

// WorldForkHandler executes a worldline fork.
func WorldForkHandler(svc *service.Service) mcp.ToolHandlerFor[WorldForkInput, WorldWriteResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input WorldForkInput) (*mcp.CallToolResult, WorldWriteResult, error) {
		newID := input.NewID
		if newID == "" {
			generated, err := domain.NewID()
			if err != nil {
				return nil, WorldWriteResult{}, fmt.Errorf("generate fork id: %w", err)
			}
			newID = generated
		}
		result, err := svc.ForkWorld(ctx, service.ForkWorldRequest{
			SourceID:  input.SourceID,
			NewID:     newID,
			Label:     optional(input.Label),
			Lane:      optional(input.Lane),
			Notes:     optional(input.Notes),
			Metadata:  input.Metadata,
			SetActive: input.SetActive,
		})
		if err != nil {
			return nil, WorldWriteResult{}, fmt.Errorf("world fork failed: %w", err)
		}
		return nil, WorldWriteResult{World: result.World, Created: result.Created, Pov: result.PovSnapshot}, nil
	}
}

func createRequest(input WorldCreateInput) service.CreateWorldRequest {
	return service.CreateWorldRequest{
		ID:        input.ID,
		Label:     optional(input.Label),
		Pov:       optional(input.Pov),
		RootNode:  optional(input.RootNode),
		Notes:     optional(input.Notes),
		Metadata:  input.Metadata,
		Lane:      optional(input.Lane),
		ParentID:  optional(input.ParentID),
		SetActive: input.SetActive,
	}
}

// optional maps the MCP adapter's empty-string convention onto the service's
// nil-means-unchanged convention.
func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// snapshotEntry builds a domain snapshot entry from tool input fields.
func snapshotEntry(cacheKey, scene, node, pov, seed, theme, weather, thumbnail string, badges []string) domain.SnapshotEntry {
	return domain.SnapshotEntry{
		CacheKey:  cacheKey,
		Scene:     scene,
		Node:      node,
		Pov:       pov,
		Seed:      seed,
		Theme:     theme,
		Weather:   weather,
		Thumbnail: thumbnail,
		Badges:    badges,
	}
}
