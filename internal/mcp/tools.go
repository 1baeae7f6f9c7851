package mcp

import "github.com/mark3labs/mcp-go/mcp"

var searchToolDef = mcp.NewTool("recipe_search",
	mcp.WithDescription("Search recipes by title/tag substring, exact tag, or ingredient substring. Filters are combined with AND; results are paged."),
	mcp.WithString("q", mcp.Description("Case-insensitive substring matched against titles and tags")),
	mcp.WithString("tag", mcp.Description("Exact tag match, case-insensitive")),
	mcp.WithString("ingredient", mcp.Description("Case-insensitive substring matched against ingredient names")),
	mcp.WithNumber("page", mcp.Description("1-based page number, default 1")),
	mcp.WithNumber("page_size", mcp.Description("Results per page, default 20")),
)

var getToolDef = mcp.NewTool("recipe_get",
	mcp.WithDescription("Fetch one recipe by its slug, including ingredients, steps, and image paths."),
	mcp.WithString("slug", mcp.Required(), mcp.Description("The recipe's slug, e.g. \"fanqiechaodan\"")),
)

var createToolDef = mcp.NewTool("recipe_create",
	mcp.WithDescription("Create a new recipe. The slug is derived from the title (CJK titles are transliterated to pinyin); creating over an existing slug fails."),
	mcp.WithString("title", mcp.Required(), mcp.Description("Recipe title")),
	mcp.WithArray("tags", mcp.Description("Optional tags"), mcp.WithStringItems()),
	mcp.WithArray("ingredients", mcp.Required(),
		mcp.Description("Ingredient objects: {name, weight?, unit?}. weight may be a number or free text like \"2-3\"; unit only applies with a weight."),
		mcp.Items(map[string]any{"type": "object"}),
	),
	mcp.WithArray("steps", mcp.Required(),
		mcp.Description("Step objects: {text, image_path?}. text supports markdown."),
		mcp.Items(map[string]any{"type": "object"}),
	),
	mcp.WithString("dish_image_path", mcp.Description("Optional stored path of the finished-dish photo")),
)

var updateToolDef = mcp.NewTool("recipe_update",
	mcp.WithDescription("Replace a recipe addressed by its current slug. A changed title renames the recipe and relocates its images; the response carries the new slug."),
	mcp.WithString("slug", mcp.Required(), mcp.Description("Current slug of the recipe to update")),
	mcp.WithString("title", mcp.Required(), mcp.Description("Recipe title")),
	mcp.WithArray("tags", mcp.Description("Optional tags"), mcp.WithStringItems()),
	mcp.WithArray("ingredients", mcp.Required(),
		mcp.Description("Ingredient objects: {name, weight?, unit?}"),
		mcp.Items(map[string]any{"type": "object"}),
	),
	mcp.WithArray("steps", mcp.Required(),
		mcp.Description("Step objects: {text, image_path?}"),
		mcp.Items(map[string]any{"type": "object"}),
	),
	mcp.WithString("dish_image_path", mcp.Description("Stored path of the finished-dish photo")),
)

var deleteToolDef = mcp.NewTool("recipe_delete",
	mcp.WithDescription("Delete a recipe and its stored images."),
	mcp.WithString("slug", mcp.Required(), mcp.Description("Slug of the recipe to delete")),
)

var bulkDeleteToolDef = mcp.NewTool("recipe_bulk_delete",
	mcp.WithDescription("Delete several recipes and their images at once. Slugs without a recipe are reported back, not errors."),
	mcp.WithArray("slugs", mcp.Required(), mcp.Description("Slugs of the recipes to delete"), mcp.WithStringItems()),
)

var exportToolDef = mcp.NewTool("recipe_export",
	mcp.WithDescription("Export all recipes as a JSON array in the interchange format."),
)

var importToolDef = mcp.NewTool("recipe_import",
	mcp.WithDescription("Import recipes from a JSON array in the export format. The payload is validated in full before anything is written; records land under slugs re-derived from their titles."),
	mcp.WithString("data", mcp.Required(), mcp.Description("The JSON array, as a string")),
)
