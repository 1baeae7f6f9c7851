package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/yenulab/yenu/internal/assets"
	"github.com/yenulab/yenu/internal/config"
	"github.com/yenulab/yenu/internal/errors"
	"github.com/yenulab/yenu/internal/recipe"
	"github.com/yenulab/yenu/internal/store"
)

// maxBodyBytes caps JSON request bodies (create, update, import).
const maxBodyBytes = 16 << 20

// Handlers contains HTTP route handlers for the API and web UI.
type Handlers struct {
	store    *store.Store
	assets   *assets.Assets
	cfg      *config.Config
	renderer *Renderer
}

// HandleHome handles GET / — redirect to the recipe list.
func (h *Handlers) HandleHome(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	http.Redirect(w, r, "/recipes", http.StatusFound)
}

// HandleListPage handles GET /recipes — the browse/search page.
func (h *Handlers) HandleListPage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	in := searchInputFromQuery(r)
	result, err := h.store.Search(in)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	data := ListPageData{
		PageData: PageData{
			Title:   "Recipes",
			Version: h.renderer.version,
			Nav:     "recipes",
		},
		Query:      r.URL.Query().Get("q"),
		Tag:        r.URL.Query().Get("tag"),
		Ingredient: r.URL.Query().Get("ingredient"),
		Result:     result,
	}
	if result.Page > 1 {
		data.PrevPage = result.Page - 1
	}
	if result.Page*result.PageSize < result.Total {
		data.NextPage = result.Page + 1
	}
	h.renderer.renderPage(w, "list", data)
}

// HandleDetailPage handles GET /recipes/:slug — one recipe, with step
// text rendered as markdown.
func (h *Handlers) HandleDetailPage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	slug := ps.ByName("slug")
	rec, err := h.store.Read(slug)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	steps := make([]renderedStep, len(rec.Steps))
	for i, s := range rec.Steps {
		steps[i] = renderedStep{
			HTML:      renderMarkdown(s.Text),
			ImagePath: s.ImagePath,
		}
	}

	h.renderer.renderPage(w, "detail", DetailPageData{
		PageData: PageData{
			Title:   rec.Title,
			Version: h.renderer.version,
			Nav:     "recipes",
		},
		Slug:   slug,
		Recipe: rec,
		Steps:  steps,
	})
}

// HandleSearch handles GET /api/recipes — filtered, paged listing.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	result, err := h.store.Search(searchInputFromQuery(r))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleGet handles GET /api/recipes/:slug — one full record.
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	slug := ps.ByName("slug")
	rec, err := h.store.Read(slug)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, store.ExportRecord{Slug: slug, Recipe: *rec})
}

// HandleCreate handles POST /api/recipes — create a new record from a
// JSON body. The slug is derived from the title; an occupied slug is a
// conflict.
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rec, err := decodeRecipeBody(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	slug, err := h.store.Create(rec)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, map[string]string{"slug": slug})
}

// HandleUpdate handles PUT /api/recipes/:slug — replace the record. A
// changed title renames the record and relocates its images; the response
// carries the possibly new slug.
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	rec, err := decodeRecipeBody(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	slug, err := h.store.Update(ps.ByName("slug"), rec)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]string{"slug": slug})
}

// HandleDelete handles DELETE /api/recipes/:slug — remove the record and
// its images.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.store.Delete(ps.ByName("slug")); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleBulkDelete handles DELETE /api/recipes — remove several records
// and their images in one request. Body: {"slugs": ["a", "b", ...]}.
// Slugs without a record are reported back, not treated as failures.
func (h *Handlers) HandleBulkDelete(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		Slugs []string `json:"slugs"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		h.renderer.renderError(w, r, errors.NewValidation("payload", "invalid JSON: "+err.Error()))
		return
	}
	result, err := h.store.DeleteMany(body.Slugs)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleUploadImage handles POST /api/recipes/:slug/images — store an
// uploaded image in the recipe's namespace and attach it to the record.
// Form fields: "image" (the file), "kind" ("dish" or "step"), and "step"
// (1-based step number, required for kind=step).
func (h *Handlers) HandleUploadImage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	slug := ps.ByName("slug")
	rec, err := h.store.Read(slug)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		h.renderer.renderError(w, r, errors.NewValidation("image", "missing image file"))
		return
	}
	defer file.Close()

	kind := r.FormValue("kind")
	if kind == "" {
		kind = "dish"
	}
	var target *string
	switch kind {
	case "dish":
		target = &rec.DishImagePath
	case "step":
		n, err := strconv.Atoi(r.FormValue("step"))
		if err != nil || n < 1 || n > len(rec.Steps) {
			h.renderer.renderError(w, r, errors.NewValidation("step", "step number out of range"))
			return
		}
		target = &rec.Steps[n-1].ImagePath
	default:
		h.renderer.renderError(w, r, errors.NewValidation("kind", `kind must be "dish" or "step"`))
		return
	}

	webPath, err := h.assets.Save(slug, header.Filename, file)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	*target = webPath

	if _, err := h.store.Update(slug, rec); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, map[string]string{"path": webPath})
}

// HandleExport handles GET /api/export — all records as a JSON download.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	data, err := h.store.ExportJSON()
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="yenu-export.json"`)
	_, _ = w.Write(data)
}

// HandleImport handles POST /api/import — ingest a JSON export.
func (h *Handlers) HandleImport(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.renderer.renderError(w, r, errors.NewValidation("payload", "unreadable request body"))
		return
	}
	result, err := h.store.ImportJSON(data)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleBackup handles GET /api/backup.zip — the record directory as a
// zip download.
func (h *Handlers) HandleBackup(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	data, err := h.store.BackupZip()
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	name := fmt.Sprintf("yenu-backup-%s.zip", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(data)
}

// HandleHealth handles GET /healthz.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	renderJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleAsset handles GET /assets/uploads/* — serve a stored image.
func (h *Handlers) HandleAsset(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	disk, err := h.assets.FilePath(config.AssetPrefix + ps.ByName("filepath"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if _, err := os.Stat(disk); err != nil {
		h.renderer.renderError(w, r, &errors.Error{
			Code:    errors.ErrNotFound,
			Status:  http.StatusNotFound,
			Message: "asset not found",
		})
		return
	}
	http.ServeFile(w, r, disk)
}

// decodeRecipeBody parses and validates a recipe from a JSON request body.
func decodeRecipeBody(r *http.Request) (*recipe.Recipe, error) {
	var raw recipe.Recipe
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, errors.NewValidation("payload", "invalid JSON: "+err.Error())
	}
	return recipe.New(raw)
}

// searchInputFromQuery maps search/paging query parameters.
func searchInputFromQuery(r *http.Request) store.SearchInput {
	q := r.URL.Query()
	return store.SearchInput{
		Query:      q.Get("q"),
		Tag:        q.Get("tag"),
		Ingredient: q.Get("ingredient"),
		Page:       parseIntParam(r, "page", 0),
		PageSize:   parseIntParam(r, "page_size", 0),
	}
}

// parseIntParam parses an integer query parameter with a default.
func parseIntParam(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// notFoundRoute builds the error for an unknown path.
func notFoundRoute(path string) *errors.Error {
	return &errors.Error{
		Code:    errors.ErrNotFound,
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("no such route: %s", path),
	}
}
