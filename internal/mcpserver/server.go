// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the asset registry as tools for LLM integration via
// stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gabipgz/haras-project/internal/asset"
	"github.com/gabipgz/haras-project/internal/assetservice"
)

// Server wraps the MCP server with registry tools.
type Server struct {
	mcp    *server.MCPServer
	assets *assetservice.Service
}

// New creates a new MCP server with all registry tools registered.
func New(assets *assetservice.Service) *Server {
	s := &Server{assets: assets}

	s.mcp = server.NewMCPServer(
		"Haras",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_collection",
		mcp.WithDescription("Describe one NFT collection (token class): name, symbol, supply."),
		mcp.WithString("tokenId", mcp.Required(), mcp.Description("Token identifier (e.g. 0.0.12345)")),
	), s.getCollection)

	s.mcp.AddTool(mcp.NewTool("list_collection_assets",
		mcp.WithDescription("List every horse registered in a collection, each with its metadata and event history."),
		mcp.WithString("tokenId", mcp.Required(), mcp.Description("Token identifier of the collection")),
	), s.listCollectionAssets)

	s.mcp.AddTool(mcp.NewTool("get_asset_record",
		mcp.WithDescription("Fetch one horse's full record: mint-time metadata plus the ordered lifecycle event log."),
		mcp.WithString("identity", mcp.Required(), mcp.Description("Asset identity as tokenId:serial (e.g. 0.0.12345:7)")),
	), s.getAssetRecord)

	s.mcp.AddTool(mcp.NewTool("create_asset_event",
		mcp.WithDescription("Append one lifecycle event to a horse's log. "+
			"The event is permanent; events are never updated or removed. "+
			"Read the event format first via the haras://event-format resource."),
		mcp.WithString("identity", mcp.Required(), mcp.Description("Asset identity as tokenId:serial")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Short event name (e.g. Vaccination)")),
		mcp.WithString("description", mcp.Required(), mcp.Description("Human-readable event description")),
		mcp.WithString("eventType", mcp.Description("Category: MEDICAL, OWNERSHIP or GENERIC")),
	), s.createAssetEvent)

	// Resource: event format contract.
	s.mcp.AddResource(
		mcp.NewResource("haras://event-format", "Lifecycle Event Format",
			mcp.WithResourceDescription("Canonical format of asset lifecycle events."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readEventFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) getCollection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tokenID, err := req.RequireString("tokenId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	info, err := s.assets.GetClass(ctx, tokenID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(info, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listCollectionAssets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tokenID, err := req.RequireString("tokenId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	records, err := s.assets.ListUnits(ctx, tokenID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(records) == 0 {
		return mcp.NewToolResultText("no assets in collection"), nil
	}
	out, _ := json.MarshalIndent(records, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getAssetRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identity, err := req.RequireString("identity")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	record, err := s.assets.GetRecord(ctx, identity)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(record, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createAssetEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identity, err := req.RequireString("identity")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	description, err := req.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ev := asset.Event{
		Name:        name,
		Description: description,
		EventType:   req.GetString("eventType", asset.EventGeneric),
	}
	if err := s.assets.AppendEvent(ctx, identity, ev); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("event appended to %s", identity)), nil
}

func (s *Server) readEventFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "haras://event-format",
			MIMEType: "text/markdown",
			Text:     EventFormatContract,
		},
	}, nil
}
