package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/yenulab/yenu/internal/config"
	"github.com/yenulab/yenu/internal/errors"
	"github.com/yenulab/yenu/internal/recipe"
	"github.com/yenulab/yenu/internal/store"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store *store.Store
	cfg   *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(st *store.Store, cfg *config.Config) *Handlers {
	return &Handlers{store: st, cfg: cfg}
}

// Request types for each tool

// SearchRequest represents the arguments for recipe_search.
type SearchRequest struct {
	Query      string `json:"q,omitempty"`
	Tag        string `json:"tag,omitempty"`
	Ingredient string `json:"ingredient,omitempty"`
	Page       int    `json:"page,omitempty"`
	PageSize   int    `json:"page_size,omitempty"`
}

// SlugRequest represents the arguments for recipe_get and recipe_delete.
type SlugRequest struct {
	Slug string `json:"slug"`
}

// RecipeRequest represents the recipe payload shared by create and update.
type RecipeRequest struct {
	Title         string              `json:"title"`
	Tags          []string            `json:"tags,omitempty"`
	Ingredients   []recipe.Ingredient `json:"ingredients"`
	Steps         []recipe.Step       `json:"steps"`
	DishImagePath string              `json:"dish_image_path,omitempty"`
}

// UpdateRequest represents the arguments for recipe_update.
type UpdateRequest struct {
	Slug string `json:"slug"`
	RecipeRequest
}

// BulkDeleteRequest represents the arguments for recipe_bulk_delete.
type BulkDeleteRequest struct {
	Slugs []string `json:"slugs"`
}

// ImportRequest represents the arguments for recipe_import.
type ImportRequest struct {
	Data string `json:"data"`
}

func (r RecipeRequest) toRecipe() (*recipe.Recipe, error) {
	return recipe.New(recipe.Recipe{
		Title:         r.Title,
		Tags:          r.Tags,
		Ingredients:   r.Ingredients,
		Steps:         r.Steps,
		DishImagePath: r.DishImagePath,
	})
}

// HandleSearch handles the recipe_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation("", err.Error())), nil
	}

	result, err := h.store.Search(store.SearchInput{
		Query:      input.Query,
		Tag:        input.Tag,
		Ingredient: input.Ingredient,
		Page:       input.Page,
		PageSize:   input.PageSize,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleGet handles the recipe_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SlugRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation("", err.Error())), nil
	}

	rec, err := h.store.Read(input.Slug)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(store.ExportRecord{Slug: input.Slug, Recipe: *rec})
}

// HandleCreate handles the recipe_create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RecipeRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation("", err.Error())), nil
	}

	rec, err := input.toRecipe()
	if err != nil {
		return errorResult(err), nil
	}
	slug, err := h.store.Create(rec)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]string{"slug": slug})
}

// HandleUpdate handles the recipe_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation("", err.Error())), nil
	}

	rec, err := input.toRecipe()
	if err != nil {
		return errorResult(err), nil
	}
	slug, err := h.store.Update(input.Slug, rec)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]string{"slug": slug})
}

// HandleDelete handles the recipe_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SlugRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation("", err.Error())), nil
	}

	if err := h.store.Delete(input.Slug); err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"deleted": true, "slug": input.Slug})
}

// HandleBulkDelete handles the recipe_bulk_delete tool call.
func (h *Handlers) HandleBulkDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[BulkDeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation("", err.Error())), nil
	}

	result, err := h.store.DeleteMany(input.Slugs)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the recipe_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := h.store.ExportJSON()
	if err != nil {
		return errorResult(err), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(data)}},
	}, nil
}

// HandleImport handles the recipe_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation("", err.Error())), nil
	}

	result, err := h.store.ImportJSON([]byte(input.Data))
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// errorResult builds an IsError tool result carrying the structured error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if yErr, ok := err.(*errors.Error); ok {
		errorObj := map[string]any{
			"code":    yErr.Code,
			"message": yErr.Message,
			"status":  yErr.Status,
		}
		// Internal errors leak sensitive info like file paths through both
		// the message and the details; report them generically
		if yErr.Code == errors.ErrInternal {
			errorObj["message"] = "an internal error occurred"
		} else if yErr.Details != nil {
			errorObj["details"] = yErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult builds a JSON tool result.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
