package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"seedling/internal/seed"
	"seedling/internal/services"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Seeding is the part of the seed service exposed as tools.
type Seeding interface {
	Run(ctx context.Context) (*seed.Result, error)
	List(ctx context.Context) ([]services.SeedInfo, error)
}

type Server struct {
	mcpServer *server.MCPServer
	seeds     Seeding
}

func NewServer(seeds Seeding) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Seedling",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		seeds: seeds,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_seeds",
			mcp.WithDescription("List the seeds of the active environment without running them"),
		),
		s.handleListSeeds,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"run_seed",
			mcp.WithDescription("Seed the active environment; records that already exist are matched, not duplicated"),
		),
		s.handleRunSeed,
	)
}

func (s *Server) handleListSeeds(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	infos, err := s.seeds.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list seeds: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(infos)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleRunSeed(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.seeds.Run(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to seed: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(result)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	// Use SSE server for /mcp/sse and /mcp/message endpoints
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
