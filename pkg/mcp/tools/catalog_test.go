package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/food-agent/pkg/storage"
)

func catalogItem(name string, calories float64) map[string]any {
	return map[string]any{
		"food_name": name,
		"standard_serving": map[string]any{
			"size":      map[string]any{"amount": 1, "unit": "cup"},
			"nutrition": map[string]any{"calories": calories},
		},
		"confidence_score": 9,
		"source_notes":     "label",
	}
}

type catalogResponse struct {
	Items []map[string]any `json:"items"`
	Count int              `json:"count"`
}

func showCatalog(t *testing.T, f *toolFixture, args map[string]any) catalogResponse {
	t.Helper()
	text, isError := callTool(t, context.Background(), f.server, "show_food_catalog", args)
	require.False(t, isError, text)

	var resp catalogResponse
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	return resp
}

func TestCatalogTools_Registered(t *testing.T) {
	f := newToolFixture(t, false)
	assert.Subset(t, listToolNames(t, f.server), []string{
		"show_food_catalog", "add_food_to_catalog", "update_food_in_catalog", "remove_food_from_catalog",
	})
}

func TestShowFoodCatalog_Empty(t *testing.T) {
	f := newToolFixture(t, false)

	text, isError := callTool(t, context.Background(), f.server, "show_food_catalog", nil)
	require.False(t, isError)
	assert.JSONEq(t, `{"items":[],"count":0}`, text)
}

func TestAddFoodToCatalog(t *testing.T) {
	f := newToolFixture(t, false)
	ctx := context.Background()

	text, isError := callTool(t, ctx, f.server, "add_food_to_catalog", map[string]any{
		"food_item": catalogItem("Greek Yogurt", 100),
	})
	require.False(t, isError, text)
	assert.JSONEq(t, `{"success":true,"message":"Added 'Greek Yogurt' to catalog."}`, text)

	stored := f.dataRoot.ReadJSONArray(f.dataRoot.Layout.CatalogPath(storage.DefaultTenant))
	require.Len(t, stored, 1)
	assert.Equal(t, "Greek Yogurt", stored[0]["food_name"])
	assert.Equal(t, "label", stored[0]["source_notes"])

	t.Run("duplicate name is case-insensitive", func(t *testing.T) {
		text, isError := callTool(t, ctx, f.server, "add_food_to_catalog", map[string]any{
			"food_item": catalogItem("greek yogurt", 90),
		})
		assert.True(t, isError)
		resp := decodeError(t, text)
		assert.Equal(t, CodeDuplicateKey, resp.Code)
		assert.Equal(t, "Food 'greek yogurt' already exists in catalog. Use update_food_in_catalog instead.", resp.Message)
		assert.Len(t, f.dataRoot.ReadJSONArray(f.dataRoot.Layout.CatalogPath(storage.DefaultTenant)), 1)
	})

	t.Run("missing food_name", func(t *testing.T) {
		text, isError := callTool(t, ctx, f.server, "add_food_to_catalog", map[string]any{
			"food_item": map[string]any{"source_notes": "nameless"},
		})
		assert.True(t, isError)
		assert.Equal(t, CodeValidationError, decodeError(t, text).Code)
	})

	t.Run("food_item is required", func(t *testing.T) {
		text, isError := callTool(t, ctx, f.server, "add_food_to_catalog", map[string]any{})
		assert.True(t, isError)
		assert.Equal(t, CodeValidationError, decodeError(t, text).Code)
	})
}

func TestUpdateFoodInCatalog(t *testing.T) {
	f := newToolFixture(t, false)
	ctx := context.Background()

	_, isError := callTool(t, ctx, f.server, "add_food_to_catalog", map[string]any{"food_item": catalogItem("Granola", 200)})
	require.False(t, isError)

	text, isError := callTool(t, ctx, f.server, "update_food_in_catalog", map[string]any{
		"food_name": "GRANOLA",
		"updates":   map[string]any{"source_notes": "manufacturer website"},
	})
	require.False(t, isError, text)
	assert.JSONEq(t, `{"success":true,"message":"Updated 'GRANOLA' in catalog."}`, text)

	resp := showCatalog(t, f, nil)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "Granola", resp.Items[0]["food_name"])
	assert.Equal(t, "manufacturer website", resp.Items[0]["source_notes"])
	assert.Contains(t, resp.Items[0], "standard_serving")

	t.Run("unknown food", func(t *testing.T) {
		text, isError := callTool(t, ctx, f.server, "update_food_in_catalog", map[string]any{
			"food_name": "Muesli",
			"updates":   map[string]any{"source_notes": "x"},
		})
		assert.True(t, isError)
		resp := decodeError(t, text)
		assert.Equal(t, CodeNotFound, resp.Code)
		assert.Equal(t, "Food 'Muesli' not found in catalog.", resp.Message)
	})

	t.Run("empty updates", func(t *testing.T) {
		text, isError := callTool(t, ctx, f.server, "update_food_in_catalog", map[string]any{
			"food_name": "Granola",
			"updates":   map[string]any{},
		})
		assert.True(t, isError)
		assert.Equal(t, CodeValidationError, decodeError(t, text).Code)
	})
}

func TestRemoveFoodFromCatalog(t *testing.T) {
	f := newToolFixture(t, false)
	ctx := context.Background()

	for _, name := range []string{"Rice", "Beans"} {
		_, isError := callTool(t, ctx, f.server, "add_food_to_catalog", map[string]any{"food_item": catalogItem(name, 150)})
		require.False(t, isError)
	}

	text, isError := callTool(t, ctx, f.server, "remove_food_from_catalog", map[string]any{"food_name": "rice"})
	require.False(t, isError, text)
	assert.JSONEq(t, `{"success":true,"message":"Removed 'rice' from catalog."}`, text)

	resp := showCatalog(t, f, nil)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "Beans", resp.Items[0]["food_name"])

	text, isError = callTool(t, ctx, f.server, "remove_food_from_catalog", map[string]any{"food_name": "rice"})
	assert.True(t, isError)
	assert.Equal(t, CodeNotFound, decodeError(t, text).Code)
}

func TestShowFoodCatalog_Filter(t *testing.T) {
	f := newToolFixture(t, false)
	ctx := context.Background()

	for _, name := range []string{"Oat Milk", "Whole Milk", "Cheddar", "Milkshake"} {
		_, isError := callTool(t, ctx, f.server, "add_food_to_catalog", map[string]any{"food_item": catalogItem(name, 100)})
		require.False(t, isError)
	}

	tests := []struct {
		name string
		args map[string]any
		want []string
	}{
		{name: "no filter", args: nil, want: []string{"Oat Milk", "Whole Milk", "Cheddar", "Milkshake"}},
		{name: "substring", args: map[string]any{"filter": "milk"}, want: []string{"Oat Milk", "Whole Milk", "Milkshake"}},
		{name: "glob", args: map[string]any{"filter": "*milk"}, want: []string{"Oat Milk", "Whole Milk"}},
		{name: "any of several terms", args: map[string]any{"filter": []any{"cheddar", "shake"}}, want: []string{"Cheddar", "Milkshake"}},
		{name: "regex", args: map[string]any{"filter": []any{"^(oat|whole) "}, "use_regex": true}, want: []string{"Oat Milk", "Whole Milk"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := showCatalog(t, f, tt.args)
			names := make([]string, 0, len(resp.Items))
			for _, item := range resp.Items {
				names = append(names, item["food_name"].(string))
			}
			assert.Equal(t, tt.want, names)
			assert.Equal(t, len(tt.want), resp.Count)
		})
	}
}
