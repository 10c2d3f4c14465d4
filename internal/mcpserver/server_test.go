package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gabipgz/haras-project/internal/asset"
	"github.com/gabipgz/haras-project/internal/assetservice"
	"github.com/gabipgz/haras-project/internal/contentstore"
	"github.com/gabipgz/haras-project/internal/testutil"
	"github.com/gabipgz/haras-project/internal/topic"
)

func testServer(t *testing.T) (*Server, *assetservice.Service) {
	t.Helper()

	fake := testutil.NewFakeLedger()
	store := contentstore.NewFileService(fake)
	sub := topic.NewSubscriber(fake, topic.WithRetryPolicy(3, 5*time.Millisecond))
	svc := assetservice.New(fake, store, sub,
		assetservice.WithHistoryPolicy(100, 500*time.Millisecond))

	return New(svc), svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we
	// invoke the handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "get_collection":
		result, err = srv.getCollection(ctx, req)
	case "list_collection_assets":
		result, err = srv.listCollectionAssets(ctx, req)
	case "get_asset_record":
		result, err = srv.getAssetRecord(ctx, req)
	case "create_asset_event":
		result, err = srv.createAssetEvent(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestGetCollection(t *testing.T) {
	srv, svc := testServer(t)
	info, err := svc.CreateClass(context.Background(), "Haras Los Alamos", "HLA", "")
	if err != nil {
		t.Fatalf("CreateClass: %v", err)
	}

	r := callTool(t, srv, "get_collection", map[string]interface{}{"tokenId": info.TokenID})
	if r.IsError {
		t.Fatalf("tool errored: %s", resultText(r))
	}
	var got asset.ClassInfo
	if err := json.Unmarshal([]byte(resultText(r)), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "Haras Los Alamos" || got.Symbol != "HLA" {
		t.Errorf("class = %+v", got)
	}
}

func TestGetCollection_Unknown(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_collection", map[string]interface{}{"tokenId": "0.0.404"})
	if !r.IsError {
		t.Error("expected error for unknown collection")
	}
}

func TestGetAssetRecordAndAppendEvent(t *testing.T) {
	srv, svc := testServer(t)
	ctx := context.Background()

	info, err := svc.CreateClass(ctx, "Stud Book", "STUD", "")
	if err != nil {
		t.Fatalf("CreateClass: %v", err)
	}
	id, err := svc.CreateAsset(ctx, info.TokenID, asset.Metadata{Name: "Tornado"})
	if err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}

	r := callTool(t, srv, "create_asset_event", map[string]interface{}{
		"identity":    id.String(),
		"name":        "Vaccination",
		"description": "annual influenza shot",
		"eventType":   "MEDICAL",
	})
	if r.IsError {
		t.Fatalf("append errored: %s", resultText(r))
	}

	r = callTool(t, srv, "get_asset_record", map[string]interface{}{"identity": id.String()})
	if r.IsError {
		t.Fatalf("get errored: %s", resultText(r))
	}
	var record asset.Record
	if err := json.Unmarshal([]byte(resultText(r)), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record.Metadata.Name != "Tornado" {
		t.Errorf("metadata name = %q", record.Metadata.Name)
	}
	if len(record.Events) != 2 {
		t.Fatalf("events = %d, want 2", len(record.Events))
	}
	if record.Events[1].EventType != asset.EventMedical {
		t.Errorf("event type = %q", record.Events[1].EventType)
	}
}

func TestCreateAssetEvent_MissingDescription(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "create_asset_event", map[string]interface{}{
		"identity": "0.0.5001:1",
		"name":     "Sold",
	})
	if !r.IsError {
		t.Error("expected error for missing description")
	}
}

func TestListCollectionAssets(t *testing.T) {
	srv, svc := testServer(t)
	ctx := context.Background()

	info, err := svc.CreateClass(ctx, "Stud Book", "STUD", "")
	if err != nil {
		t.Fatalf("CreateClass: %v", err)
	}

	r := callTool(t, srv, "list_collection_assets", map[string]interface{}{"tokenId": info.TokenID})
	if resultText(r) != "no assets in collection" {
		t.Errorf("empty list = %q", resultText(r))
	}

	if _, err := svc.CreateAsset(ctx, info.TokenID, asset.Metadata{Name: "Zafira"}); err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}
	r = callTool(t, srv, "list_collection_assets", map[string]interface{}{"tokenId": info.TokenID})
	if r.IsError {
		t.Fatalf("list errored: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "Zafira") {
		t.Errorf("list missing horse: %s", resultText(r))
	}
}
