// Package mcp provides an MCP (Model Context Protocol) server exposing
// simulation tools over stdio.
package mcp

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ensimdb/ensim/internal/catalog"
	"github.com/ensimdb/ensim/internal/compiler"
	"github.com/ensimdb/ensim/internal/model"
	"github.com/ensimdb/ensim/internal/storage"
)

// Server wraps the MCP SDK server with the simulation tools.
type Server struct {
	server   *sdk.Server
	adapter  *compiler.Adapter
	catalog  *catalog.Catalog
	provider *model.Provider
	dest     storage.Engine
}

// Config holds server configuration.
type Config struct {
	Name    string
	Version string
}

// NewServer creates an MCP server over an already-wired adapter.
func NewServer(cfg *Config, adapter *compiler.Adapter, cat *catalog.Catalog, provider *model.Provider, dest storage.Engine) *Server {
	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		server:   mcpServer,
		adapter:  adapter,
		catalog:  cat,
		provider: provider,
		dest:     dest,
	}
	s.registerTools()
	return s
}

// Run starts the server over stdio transport. Blocks until the client
// disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	return s.server.Run(ctx, &sdk.StdioTransport{})
}
