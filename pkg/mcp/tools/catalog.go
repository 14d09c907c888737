package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/food-agent/pkg/models"
	"github.com/ekaya-inc/food-agent/pkg/services"
)

// CatalogToolDeps contains dependencies for the food catalog tools.
type CatalogToolDeps struct {
	BaseMCPToolDeps
	CatalogService services.CatalogService
}

// RegisterCatalogTools registers the catalog listing and mutation tools.
func RegisterCatalogTools(s *server.MCPServer, deps *CatalogToolDeps) {
	registerShowFoodCatalogTool(s, deps)
	registerAddFoodToCatalogTool(s, deps)
	registerUpdateFoodInCatalogTool(s, deps)
	registerRemoveFoodFromCatalogTool(s, deps)
}

func registerShowFoodCatalogTool(s *server.MCPServer, deps *CatalogToolDeps) {
	tool := mcp.NewTool(
		"show_food_catalog",
		mcp.WithDescription("Retrieve items from the food catalog, optionally filtering by name."),
		mcp.WithArray(
			"filter",
			mcp.Description("Optional - a term or list of terms matched case-insensitively against food_name. "+
				"Items matching ANY term are returned. Terms containing * or ? are wildcards (e.g. '*milk*')."),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithBoolean(
			"use_regex",
			mcp.Description("Optional - treat filter terms as regular expressions."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tenantID, err := AcquireToolAccess(ctx, deps, "show_food_catalog")
		if err != nil {
			if result := AsToolAccessResult(err); result != nil {
				return result, nil
			}
			return nil, err
		}

		filters, err := extractFilterTerms(toolArguments(req), "filter", deps.GetLogger())
		if err != nil {
			return NewErrorResult(CodeValidationError, err.Error()), nil
		}
		useRegex, _ := getOptionalBool(req, "use_regex")

		view, err := deps.CatalogService.List(ctx, tenantID, filters, useRegex)
		if err != nil {
			return HandleServiceError(err, "show_food_catalog", deps.GetLogger())
		}
		return jsonResult(view)
	})
}

func registerAddFoodToCatalogTool(s *server.MCPServer, deps *CatalogToolDeps) {
	tool := mcp.NewTool(
		"add_food_to_catalog",
		mcp.WithDescription(
			"Add a new verified food item to the catalog. "+
				"Only add items verified against official nutrition information such as the manufacturer's label; "+
				"the standard_serving must be the officially published serving size. "+
				"Prefer precise, unrounded values when the source provides them. "+
				"Names are unique case-insensitively; use update_food_in_catalog to change an existing item.",
		),
		mcp.WithObject(
			"food_item",
			mcp.Required(),
			mcp.Description("Food record with 'food_name', 'standard_serving' {size, nutrition}, 'confidence_score' and 'source_notes'."),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tenantID, err := AcquireToolAccess(ctx, deps, "add_food_to_catalog")
		if err != nil {
			if result := AsToolAccessResult(err); result != nil {
				return result, nil
			}
			return nil, err
		}

		raw, ok := toolArguments(req)["food_item"]
		if !ok || raw == nil {
			return NewErrorResult(CodeValidationError, "required argument \"food_item\" not found"), nil
		}
		obj, err := extractObjectParam(toolArguments(req), "food_item", deps.GetLogger())
		if err != nil {
			return NewErrorResult(CodeValidationError, err.Error()), nil
		}

		var record models.FoodRecord
		if err := decodeInto(obj, &record); err != nil {
			return NewErrorResult(CodeValidationError, fmt.Sprintf("food_item is invalid: %v", err)), nil
		}

		result, err := deps.CatalogService.Add(ctx, tenantID, record)
		if err != nil {
			return HandleServiceError(err, "add_food_to_catalog", deps.GetLogger())
		}
		return jsonResult(result)
	})
}

func registerUpdateFoodInCatalogTool(s *server.MCPServer, deps *CatalogToolDeps) {
	tool := mcp.NewTool(
		"update_food_in_catalog",
		mcp.WithDescription(
			"Update an existing food item in the catalog. "+
				"The listed top-level fields replace the stored ones and all other fields are kept. "+
				"Use verified nutrition from official sources and prefer unrounded values.",
		),
		mcp.WithString(
			"food_name",
			mcp.Required(),
			mcp.Description("Name of the catalog item to update (case-insensitive)."),
		),
		mcp.WithObject(
			"updates",
			mcp.Required(),
			mcp.Description("Top-level fields to replace."),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tenantID, err := AcquireToolAccess(ctx, deps, "update_food_in_catalog")
		if err != nil {
			if result := AsToolAccessResult(err); result != nil {
				return result, nil
			}
			return nil, err
		}

		foodName, err := req.RequireString("food_name")
		if err != nil {
			return NewErrorResult(CodeValidationError, err.Error()), nil
		}
		if trimString(foodName) == "" {
			return NewErrorResult(CodeValidationError, "parameter 'food_name' cannot be empty"), nil
		}

		updates, err := extractObjectParam(toolArguments(req), "updates", deps.GetLogger())
		if err != nil {
			return NewErrorResult(CodeValidationError, err.Error()), nil
		}
		if len(updates) == 0 {
			return NewErrorResult(CodeValidationError, "parameter 'updates' must contain at least one field"), nil
		}

		result, err := deps.CatalogService.Update(ctx, tenantID, foodName, updates)
		if err != nil {
			return HandleServiceError(err, "update_food_in_catalog", deps.GetLogger())
		}
		return jsonResult(result)
	})
}

func registerRemoveFoodFromCatalogTool(s *server.MCPServer, deps *CatalogToolDeps) {
	tool := mcp.NewTool(
		"remove_food_from_catalog",
		mcp.WithDescription("Remove a food item from the catalog. Every item whose name matches case-insensitively is removed."),
		mcp.WithString(
			"food_name",
			mcp.Required(),
			mcp.Description("Name of the catalog item to remove."),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tenantID, err := AcquireToolAccess(ctx, deps, "remove_food_from_catalog")
		if err != nil {
			if result := AsToolAccessResult(err); result != nil {
				return result, nil
			}
			return nil, err
		}

		foodName, err := req.RequireString("food_name")
		if err != nil {
			return NewErrorResult(CodeValidationError, err.Error()), nil
		}

		result, err := deps.CatalogService.Remove(ctx, tenantID, foodName)
		if err != nil {
			return HandleServiceError(err, "remove_food_from_catalog", deps.GetLogger())
		}
		return jsonResult(result)
	})
}
