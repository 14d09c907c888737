package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/food-agent/pkg/repositories"
	"github.com/ekaya-inc/food-agent/pkg/services"
	"github.com/ekaya-inc/food-agent/pkg/testhelpers"
)

// fixedNow is 2024-03-10 14:00 local time, after any reasonable cutoff hour.
var fixedNow = time.Date(2024, 3, 10, 14, 0, 0, 0, time.Local)

type toolFixture struct {
	server   *server.MCPServer
	dataRoot *testhelpers.DataRoot
}

// newToolFixture registers the food log and catalog tools over a fresh data root.
func newToolFixture(t *testing.T, requireTenant bool) *toolFixture {
	t.Helper()

	logger := zap.NewNop()
	root := testhelpers.NewDataRoot(t)
	base := BaseMCPToolDeps{Logger: logger, RequireTenant: requireTenant}

	foodLogRepo := repositories.NewFoodLogRepository(root.Layout, root.Locks, logger)
	catalogRepo := repositories.NewCatalogRepository(root.Layout, root.Locks, logger)

	s := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	RegisterFoodLogTools(s, &FoodLogToolDeps{
		BaseMCPToolDeps: base,
		FoodLogService:  services.NewFoodLogService(foodLogRepo, 4, func() time.Time { return fixedNow }, logger),
	})
	RegisterCatalogTools(s, &CatalogToolDeps{
		BaseMCPToolDeps: base,
		CatalogService:  services.NewCatalogService(catalogRepo, logger),
	})

	return &toolFixture{server: s, dataRoot: root}
}

// callTool invokes a tool through the JSON-RPC entry point and returns the
// first text content and the isError flag.
func callTool(t *testing.T, ctx context.Context, s *server.MCPServer, name string, args map[string]any) (string, bool) {
	t.Helper()

	params := map[string]any{"name": name}
	if args != nil {
		params["arguments"] = args
	}
	request, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  params,
	})
	require.NoError(t, err)

	resultBytes, err := json.Marshal(s.HandleMessage(ctx, request))
	require.NoError(t, err)

	var response struct {
		Result *struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resultBytes, &response))
	require.Nil(t, response.Error, "unexpected JSON-RPC error: %s", string(resultBytes))
	require.NotNil(t, response.Result)
	require.NotEmpty(t, response.Result.Content)

	return response.Result.Content[0].Text, response.Result.IsError
}

// callToolRPCError invokes a tool and returns the JSON-RPC error message, failing if there is none.
func callToolRPCError(t *testing.T, ctx context.Context, s *server.MCPServer, name string, args map[string]any) string {
	t.Helper()

	request, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	})
	require.NoError(t, err)

	resultBytes, err := json.Marshal(s.HandleMessage(ctx, request))
	require.NoError(t, err)

	var response struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resultBytes, &response))
	require.NotNil(t, response.Error, "expected JSON-RPC error, got %s", string(resultBytes))
	return response.Error.Message
}

// listToolNames returns the names reported by tools/list.
func listToolNames(t *testing.T, s *server.MCPServer) []string {
	t.Helper()

	result := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"tools/list","id":1}`))
	resultBytes, err := json.Marshal(result)
	require.NoError(t, err)

	var response struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(resultBytes, &response))

	names := make([]string, 0, len(response.Result.Tools))
	for _, tool := range response.Result.Tools {
		names = append(names, tool.Name)
	}
	return names
}

// decodeError parses a structured tool error.
func decodeError(t *testing.T, text string) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	require.True(t, resp.Error, "expected error response, got %s", text)
	return resp
}
