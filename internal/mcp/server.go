// Package mcp exposes the recipe store to MCP clients over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/yenulab/yenu/internal/config"
	"github.com/yenulab/yenu/internal/store"
)

// NewServer creates a new MCP server with the recipe tools registered.
func NewServer(st *store.Store, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"yenu",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(st, cfg)

	s.AddTool(searchToolDef, h.HandleSearch)
	s.AddTool(getToolDef, h.HandleGet)
	s.AddTool(createToolDef, h.HandleCreate)
	s.AddTool(updateToolDef, h.HandleUpdate)
	s.AddTool(deleteToolDef, h.HandleDelete)
	s.AddTool(bulkDeleteToolDef, h.HandleBulkDelete)
	s.AddTool(exportToolDef, h.HandleExport)
	s.AddTool(importToolDef, h.HandleImport)

	return s
}

// Run starts the MCP server using stdio transport.
func Run(st *store.Store, cfg *config.Config, version string) error {
	return server.ServeStdio(NewServer(st, cfg, version))
}
