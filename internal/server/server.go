// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package server

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/tejzpr/hippocampus/internal/config"
	"github.com/tejzpr/hippocampus/internal/engine"
	"github.com/tejzpr/hippocampus/internal/tools"
)

// MCPServer wraps the mcp-go server with our configuration
type MCPServer struct {
	mcpServer *server.MCPServer
	config    *config.Config
	toolCtx   *tools.ToolContext
}

// NewMCPServer creates a new MCP server instance with every tool registered
func NewMCPServer(cfg *config.Config, eng *engine.Engine, projectPath string) *MCPServer {
	mcpServer := server.NewMCPServer(
		cfg.Server.Name,
		cfg.Server.Version,
		server.WithToolCapabilities(true),
	)

	srv := &MCPServer{
		mcpServer: mcpServer,
		config:    cfg,
		toolCtx:   tools.NewToolContext(eng, projectPath, cfg),
	}
	srv.RegisterTools()
	return srv
}

// Tools returns the tool definitions paired with their handlers
func (s *MCPServer) Tools() []server.ServerTool {
	tc := s.toolCtx
	return []server.ServerTool{
		// memories
		{Tool: tools.NewAddTool(), Handler: tools.AddHandler(tc)},
		{Tool: tools.NewUpdateTool(), Handler: tools.UpdateHandler(tc)},
		{Tool: tools.NewDeleteTool(), Handler: tools.DeleteHandler(tc)},
		{Tool: tools.NewGetTool(), Handler: tools.GetHandler(tc)},

		// retrieval
		{Tool: tools.NewSearchTool(), Handler: tools.SearchHandler(tc)},
		{Tool: tools.NewSearchTypeTool(), Handler: tools.SearchTypeHandler(tc)},
		{Tool: tools.NewContextTool(), Handler: tools.ContextHandler(tc)},
		{Tool: tools.NewRecentTool(), Handler: tools.RecentHandler(tc)},

		// retention
		{Tool: tools.NewConsolidateTool(), Handler: tools.ConsolidateHandler(tc)},
		{Tool: tools.NewPruneTool(), Handler: tools.PruneHandler(tc)},
		{Tool: tools.NewChainTool(), Handler: tools.ChainHandler(tc)},
		{Tool: tools.NewSupersededTool(), Handler: tools.SupersededHandler(tc)},
		{Tool: tools.NewPurgeSupersededTool(), Handler: tools.PurgeSupersededHandler(tc)},
		{Tool: tools.NewPruneDataTool(), Handler: tools.PruneDataHandler(tc)},
		{Tool: tools.NewStatsTool(), Handler: tools.StatsHandler(tc)},

		// sessions
		{Tool: tools.NewSessionStartTool(), Handler: tools.SessionStartHandler(tc)},
		{Tool: tools.NewSessionEndTool(), Handler: tools.SessionEndHandler(tc)},
		{Tool: tools.NewTurnStartTool(), Handler: tools.TurnStartHandler(tc)},
		{Tool: tools.NewTurnFinishTool(), Handler: tools.TurnFinishHandler(tc)},
		{Tool: tools.NewToolCallTool(), Handler: tools.ToolCallHandler(tc)},
	}
}

// RegisterTools registers all MCP tools
func (s *MCPServer) RegisterTools() {
	s.mcpServer.AddTools(s.Tools()...)
}

// ServeStdio serves MCP over stdin/stdout until the input closes
func (s *MCPServer) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// GetMCPServer returns the underlying MCP server
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
