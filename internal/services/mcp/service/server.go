// Package service assembles the MCP server over the worldline facade.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/worldline.studio/internal/platform/branding"
	mcpdomain "github.com/louisbranch/worldline.studio/internal/services/mcp/domain"
	worldsvc "github.com/louisbranch/worldline.studio/internal/worldline/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// serverVersion identifies the MCP server version.
const serverVersion = "0.1.0"

// Server hosts the worldline MCP tools over an in-process facade.
type Server struct {
	mcpServer *mcp.Server
	worlds    *worldsvc.Service
}

// NewServer builds an MCP server with every worldline tool registered.
func NewServer(worlds *worldsvc.Service) (*Server, error) {
	if worlds == nil {
		return nil, fmt.Errorf("worldline service is required")
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    branding.Slug,
		Title:   branding.AppName,
		Version: serverVersion,
	}, nil)

	registerWorldTools(mcpServer, worlds)
	registerCompareTools(mcpServer, worlds)

	return &Server{mcpServer: mcpServer, worlds: worlds}, nil
}

func registerWorldTools(server *mcp.Server, worlds *worldsvc.Service) {
	mcp.AddTool(server, mcpdomain.WorldCreateTool(), mcpdomain.WorldCreateHandler(worlds))
	mcp.AddTool(server, mcpdomain.WorldUpdateTool(), mcpdomain.WorldUpdateHandler(worlds))
	mcp.AddTool(server, mcpdomain.WorldListTool(), mcpdomain.WorldListHandler(worlds))
	mcp.AddTool(server, mcpdomain.WorldGetTool(), mcpdomain.WorldGetHandler(worlds))
	mcp.AddTool(server, mcpdomain.WorldSwitchTool(), mcpdomain.WorldSwitchHandler(worlds))
	mcp.AddTool(server, mcpdomain.WorldActiveTool(), mcpdomain.WorldActiveHandler(worlds))
	mcp.AddTool(server, mcpdomain.WorldForkTool(), mcpdomain.WorldForkHandler(worlds))
}

func registerCompareTools(server *mcp.Server, worlds *worldsvc.Service) {
	mcp.AddTool(server, mcpdomain.SnapshotRecordTool(), mcpdomain.SnapshotRecordHandler(worlds))
	mcp.AddTool(server, mcpdomain.SnapshotCacheKeyTool(), mcpdomain.SnapshotCacheKeyHandler(worlds))
	mcp.AddTool(server, mcpdomain.WorldsDiffTool(), mcpdomain.WorldsDiffHandler(worlds))
	mcp.AddTool(server, mcpdomain.WorldsMergeTool(), mcpdomain.WorldsMergeHandler(worlds))
	mcp.AddTool(server, mcpdomain.WorldlineGraphTool(), mcpdomain.WorldlineGraphHandler(worlds))
}

// Serve starts the MCP server on stdio and blocks until it stops or the
// context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("mcp server is not initialized")
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	return err
}
