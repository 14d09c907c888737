package handlers

import (
	"net/http"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/food-agent/pkg/config"
	"github.com/ekaya-inc/food-agent/pkg/mcp"
	mcpauth "github.com/ekaya-inc/food-agent/pkg/mcp/auth"
	"github.com/ekaya-inc/food-agent/pkg/middleware"
)

// MCPHandler handles MCP protocol requests over HTTP.
type MCPHandler struct {
	httpServer *server.StreamableHTTPServer
	logger     *zap.Logger
	mcpConfig  config.MCPConfig
}

// NewMCPHandler creates a new MCP handler from an MCP server.
func NewMCPHandler(mcpServer *mcp.Server, logger *zap.Logger, mcpConfig config.MCPConfig) *MCPHandler {
	return &MCPHandler{
		httpServer: mcpServer.NewStreamableHTTPServer(),
		logger:     logger,
		mcpConfig:  mcpConfig,
	}
}

// RegisterRoutes registers the MCP endpoint. Each request authenticates with
// its own bearer token; the tenant comes from the token, never from the URL.
func (h *MCPHandler) RegisterRoutes(mux *http.ServeMux, mcpAuthMiddleware *mcpauth.Middleware) {
	// Wrap the MCP HTTP server with middleware layers:
	// 1. MCP request/response logging (innermost - logs JSON-RPC details with the tenant)
	// 2. Authentication (middle - resolves the bearer token to a tenant)
	// 3. Method check (outermost - rejects non-POST before auth)
	loggedHandler := middleware.MCPRequestLogger(h.logger, h.mcpConfig)(h.httpServer)
	authHandler := mcpAuthMiddleware.RequireAuth()(loggedHandler)
	methodCheckedHandler := h.requirePOST(authHandler)
	mux.Handle("/mcp", methodCheckedHandler)
}

// requirePOST returns 405 Method Not Allowed for non-POST requests.
// The stateless streamable HTTP transport only accepts JSON-RPC over POST.
func (h *MCPHandler) requirePOST(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}
