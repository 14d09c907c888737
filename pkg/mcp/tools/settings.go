package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/food-agent/pkg/services"
)

// SettingsToolDeps contains dependencies for the local settings tool.
type SettingsToolDeps struct {
	BaseMCPToolDeps
	SettingsService services.SettingsService
}

type settingsResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RegisterSettingsTools registers set_food_log_data_folder. It relocates the
// data root for every tenant, so it is only registered for local stdio use.
func RegisterSettingsTools(s *server.MCPServer, deps *SettingsToolDeps) {
	tool := mcp.NewTool(
		"set_food_log_data_folder",
		mcp.WithDescription(
			"Set the folder where food logs and the catalog are stored. "+
				"The setting is saved to settings.json in the config directory and takes effect on the next start.",
		),
		mcp.WithString(
			"path",
			mcp.Description("Absolute path to the data folder. Pass an empty string to reset to the default (XDG data home)."),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if _, err := AcquireToolAccess(ctx, deps, "set_food_log_data_folder"); err != nil {
			if result := AsToolAccessResult(err); result != nil {
				return result, nil
			}
			return nil, err
		}

		message, err := deps.SettingsService.SetDataFolder(ctx, getOptionalString(req, "path"))
		if err != nil {
			return HandleServiceError(err, "set_food_log_data_folder", deps.GetLogger())
		}
		return jsonResult(settingsResult{Success: true, Message: message})
	})
}
