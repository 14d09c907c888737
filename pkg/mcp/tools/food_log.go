package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/food-agent/pkg/models"
	"github.com/ekaya-inc/food-agent/pkg/services"
)

// FoodLogToolDeps contains dependencies for the daily food log tools.
type FoodLogToolDeps struct {
	BaseMCPToolDeps
	FoodLogService services.FoodLogService
}

// RegisterFoodLogTools registers log_meal, get_food_log and revise_log_entry.
func RegisterFoodLogTools(s *server.MCPServer, deps *FoodLogToolDeps) {
	registerLogMealTool(s, deps)
	registerGetFoodLogTool(s, deps)
	registerReviseLogEntryTool(s, deps)
}

const entrySchemaDescription = `Each entry is an object:
{
  "food_name": "Standard Name",
  "user_description": "User's exact words",
  "standard_serving": {
    "size": {"amount": number, "unit": "string"},
    "nutrition": {"calories": number, "protein": number, "carbs": number, "fat": number, ...}
  },
  "consumed": {
    "size": {"amount": number, "unit": "string"},
    "standard_servings": number,
    "nutrition": {"calories": number, "protein": number, "carbs": number, "fat": number, ...},
    "verified_calculation": boolean
  },
  "confidence_score": number (0-10),
  "source_notes": "string"
}`

func registerLogMealTool(s *server.MCPServer, deps *FoodLogToolDeps) {
	tool := mcp.NewTool(
		"log_meal",
		mcp.WithDescription(
			"Log one or more food items as a meal for a specific date. "+
				"Before calling, search the catalog for a confident match to use as the source of nutrition data; "+
				"if there is none, look up the official standard serving and nutrition facts. "+
				"Record the nutrition of the consumed amount exactly as calculated, without rounding: "+
				"daily totals are summed from stored values and rounded only when the log is read. "+
				"If the food is eaten habitually and the data is verified, also call add_food_to_catalog. "+
				"After a successful log, call get_food_log to show the updated day to the user.",
		),
		mcp.WithArray(
			"food_entries",
			mcp.Required(),
			mcp.Description("List of food entries to append. "+entrySchemaDescription),
			mcp.Items(map[string]any{"type": "object"}),
		),
		mcp.WithString(
			"entry_date",
			mcp.Description("Optional - date in YYYY-MM-DD format. Defaults to the effective today, which rolls back one day before the configured cutoff hour."),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tenantID, err := AcquireToolAccess(ctx, deps, "log_meal")
		if err != nil {
			if result := AsToolAccessResult(err); result != nil {
				return result, nil
			}
			return nil, err
		}

		rawEntries, err := extractArrayParam(toolArguments(req), "food_entries", deps.GetLogger())
		if err != nil {
			return NewErrorResult(CodeValidationError, err.Error()), nil
		}
		if len(rawEntries) == 0 {
			return NewErrorResult(CodeValidationError, "parameter 'food_entries' must contain at least one entry"), nil
		}

		entries := make([]models.ConsumedEntry, len(rawEntries))
		for i, raw := range rawEntries {
			if _, ok := raw.(map[string]any); !ok {
				return NewErrorResult(CodeValidationError, fmt.Sprintf("food_entries[%d] must be an object", i)), nil
			}
			if err := decodeInto(raw, &entries[i]); err != nil {
				return NewErrorResult(CodeValidationError, fmt.Sprintf("food_entries[%d] is invalid: %v", i, err)), nil
			}
		}

		result, err := deps.FoodLogService.LogFood(ctx, tenantID, entries, trimString(getOptionalString(req, "entry_date")))
		if err != nil {
			return HandleServiceError(err, "log_meal", deps.GetLogger())
		}
		return jsonResult(result)
	})
}

func registerGetFoodLogTool(s *server.MCPServer, deps *FoodLogToolDeps) {
	tool := mcp.NewTool(
		"get_food_log",
		mcp.WithDescription(
			"Retrieve food log entries for a specific date. "+
				"Nutritional totals are always included and are calculated from the items returned after filtering. "+
				"Totals and item nutrition are rounded to US nutrition label rules for display.",
		),
		mcp.WithString(
			"entry_date",
			mcp.Description("Optional - date in YYYY-MM-DD format. Defaults to the effective today."),
		),
		mcp.WithString(
			"include",
			mcp.Description("Optional - 'all' (items and totals, the default) or 'totals' (totals only)."),
			mcp.Enum(services.IncludeAll, services.IncludeTotals),
		),
		mcp.WithArray(
			"filter",
			mcp.Description("Optional - a term or list of terms matched against food_name and user_description. "+
				"Matching is case-insensitive substring; terms containing * or ? are wildcards. An entry matching any term is returned."),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithBoolean(
			"use_regex",
			mcp.Description("Optional - treat filter terms as regular expressions. Invalid expressions are skipped."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tenantID, err := AcquireToolAccess(ctx, deps, "get_food_log")
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

		view, err := deps.FoodLogService.GetFoodLog(ctx, tenantID, services.GetFoodLogRequest{
			Date:     trimString(getOptionalString(req, "entry_date")),
			Include:  trimString(getOptionalString(req, "include")),
			Filters:  filters,
			UseRegex: useRegex,
		})
		if err != nil {
			return HandleServiceError(err, "get_food_log", deps.GetLogger())
		}
		return jsonResult(foodLogResponse(view))
	})
}

// foodLogResponse shapes a view the way clients expect it: items are present
// (possibly empty) unless only totals were requested, and totals are absent
// when the day has no log file.
func foodLogResponse(view *services.FoodLogView) map[string]any {
	response := map[string]any{"date": view.Date}
	if view.Totals != nil {
		response["totals"] = view.Totals
	}
	if view.HasItems {
		items := view.Items
		if items == nil {
			items = []models.ConsumedEntry{}
		}
		response["items"] = items
	}
	if view.Message != "" {
		response["message"] = view.Message
	}
	return response
}

func registerReviseLogEntryTool(s *server.MCPServer, deps *FoodLogToolDeps) {
	tool := mcp.NewTool(
		"revise_log_entry",
		mcp.WithDescription(
			"Correct entries already logged for a date. "+
				"Every entry whose food_name exactly equals the given name is updated; "+
				"the listed top-level fields replace the stored ones and all other fields are kept. "+
				"To change nutrition, send the whole 'consumed' object.",
		),
		mcp.WithString(
			"food_name",
			mcp.Required(),
			mcp.Description("Exact food_name of the entries to update."),
		),
		mcp.WithObject(
			"updates",
			mcp.Required(),
			mcp.Description("Top-level fields to replace, e.g. {\"user_description\": \"two eggs\"}."),
		),
		mcp.WithString(
			"entry_date",
			mcp.Description("Optional - date in YYYY-MM-DD format. Defaults to the effective today."),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tenantID, err := AcquireToolAccess(ctx, deps, "revise_log_entry")
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

		result, err := deps.FoodLogService.ReviseLogEntry(ctx, tenantID, foodName, updates, trimString(getOptionalString(req, "entry_date")))
		if err != nil {
			return HandleServiceError(err, "revise_log_entry", deps.GetLogger())
		}
		return jsonResult(result)
	})
}
