package web

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yenulab/yenu/internal/assets"
	"github.com/yenulab/yenu/internal/config"
	"github.com/yenulab/yenu/internal/recipe"
	"github.com/yenulab/yenu/internal/store"
)

func setupTest(t *testing.T) (http.Handler, *store.Store) {
	t.Helper()
	cfg := config.Default(t.TempDir())
	if err := cfg.EnsureDirs(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	as := assets.New(cfg)
	st := store.New(cfg, as)
	srv := NewServer(st, as, cfg, "test", "127.0.0.1", 0)
	return srv.Handler, st
}

// seedRecipe stores a recipe and returns its slug.
func seedRecipe(t *testing.T, st *store.Store, title string, tags ...string) string {
	t.Helper()
	r, err := recipe.New(recipe.Recipe{
		Title:       title,
		Tags:        tags,
		Ingredients: []recipe.Ingredient{{Name: "egg", Weight: recipe.Amount(2)}},
		Steps:       []recipe.Step{{Text: "Crack the eggs and **beat** them."}},
	})
	if err != nil {
		t.Fatalf("seed recipe %q: %v", title, err)
	}
	slug, err := st.Create(r)
	if err != nil {
		t.Fatalf("seed recipe %q: %v", title, err)
	}
	return slug
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody[map[string]map[string]any](t, rec)
	code, _ := body["error"]["code"].(string)
	return code
}

// --- API CRUD ---

func TestAPICreateAndGet(t *testing.T) {
	h, _ := setupTest(t)

	rec := doJSON(t, h, "POST", "/api/recipes", map[string]any{
		"title":       "番茄炒蛋",
		"tags":        []string{"quick"},
		"ingredients": []map[string]any{{"name": "tomato", "weight": 2}, {"name": "egg", "weight": 3}},
		"steps":       []map[string]any{{"text": "Stir-fry everything."}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[map[string]string](t, rec)
	if created["slug"] != "fanqiechaodan" {
		t.Fatalf("slug = %q", created["slug"])
	}

	rec = doJSON(t, h, "GET", "/api/recipes/fanqiechaodan", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decodeBody[map[string]any](t, rec)
	if got["title"] != "番茄炒蛋" || got["slug"] != "fanqiechaodan" {
		t.Fatalf("body = %v", got)
	}
}

func TestAPICreateConflict(t *testing.T) {
	h, st := setupTest(t)
	seedRecipe(t, st, "Pancakes")

	rec := doJSON(t, h, "POST", "/api/recipes", map[string]any{
		"title":       "Pancakes",
		"ingredients": []map[string]any{{"name": "flour"}},
		"steps":       []map[string]any{{"text": "Mix."}},
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "CONFLICT" {
		t.Fatalf("code = %q", code)
	}
}

func TestAPICreateValidation(t *testing.T) {
	h, _ := setupTest(t)

	rec := doJSON(t, h, "POST", "/api/recipes", map[string]any{
		"title": "No Ingredients",
		"steps": []map[string]any{{"text": "Nothing."}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "VALIDATION" {
		t.Fatalf("code = %q", code)
	}
}

func TestAPIGetNotFound(t *testing.T) {
	h, _ := setupTest(t)

	rec := doJSON(t, h, "GET", "/api/recipes/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "NOT_FOUND" {
		t.Fatalf("code = %q", code)
	}
}

func TestAPIUpdateRename(t *testing.T) {
	h, st := setupTest(t)
	seedRecipe(t, st, "Old Name")

	rec := doJSON(t, h, "PUT", "/api/recipes/old-name", map[string]any{
		"title":       "New Name",
		"ingredients": []map[string]any{{"name": "egg"}},
		"steps":       []map[string]any{{"text": "Cook."}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	body := decodeBody[map[string]string](t, rec)
	if body["slug"] != "new-name" {
		t.Fatalf("slug = %q", body["slug"])
	}

	if rec := doJSON(t, h, "GET", "/api/recipes/old-name", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("old slug status = %d", rec.Code)
	}
	if rec := doJSON(t, h, "GET", "/api/recipes/new-name", nil); rec.Code != http.StatusOK {
		t.Fatalf("new slug status = %d", rec.Code)
	}
}

func TestAPIDelete(t *testing.T) {
	h, st := setupTest(t)
	seedRecipe(t, st, "Pancakes")

	rec := doJSON(t, h, "DELETE", "/api/recipes/pancakes", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec := doJSON(t, h, "GET", "/api/recipes/pancakes", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("after delete status = %d", rec.Code)
	}
}

func TestAPIBulkDelete(t *testing.T) {
	h, st := setupTest(t)
	seedRecipe(t, st, "Pancakes")
	seedRecipe(t, st, "Waffles")
	seedRecipe(t, st, "Miso Soup")

	rec := doJSON(t, h, "DELETE", "/api/recipes", map[string]any{
		"slugs": []string{"pancakes", "waffles", "ghost"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	body := decodeBody[map[string]any](t, rec)
	if body["deleted"] != float64(2) {
		t.Errorf("deleted = %v", body["deleted"])
	}
	missing, _ := body["missing"].([]any)
	if len(missing) != 1 || missing[0] != "ghost" {
		t.Errorf("missing = %v", body["missing"])
	}
	if rec := doJSON(t, h, "GET", "/api/recipes/miso-soup", nil); rec.Code != http.StatusOK {
		t.Fatalf("survivor status = %d", rec.Code)
	}
}

func TestAPIBulkDeleteRequiresSlugs(t *testing.T) {
	h, _ := setupTest(t)

	rec := doJSON(t, h, "DELETE", "/api/recipes", map[string]any{"slugs": []string{}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "VALIDATION" {
		t.Fatalf("code = %q", code)
	}
}

// --- Search ---

func TestAPISearch(t *testing.T) {
	h, st := setupTest(t)
	seedRecipe(t, st, "Apple Pie", "dessert")
	seedRecipe(t, st, "Miso Soup", "quick")
	seedRecipe(t, st, "Pancakes", "quick")

	rec := doJSON(t, h, "GET", "/api/recipes?tag=quick", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	out := decodeBody[store.SearchOutput](t, rec)
	if out.Total != 2 || len(out.Items) != 2 {
		t.Fatalf("out = %+v", out)
	}
	if out.Items[0].Slug != "miso-soup" || out.Items[1].Slug != "pancakes" {
		t.Fatalf("items = %+v", out.Items)
	}

	rec = doJSON(t, h, "GET", "/api/recipes?page=2&page_size=2", nil)
	out = decodeBody[store.SearchOutput](t, rec)
	if out.Total != 3 || len(out.Items) != 1 {
		t.Fatalf("page 2: %+v", out)
	}
}

// --- Export / import / backup ---

func TestAPIExportImport(t *testing.T) {
	h, st := setupTest(t)
	seedRecipe(t, st, "Apple Pie")
	seedRecipe(t, st, "Miso Soup")

	rec := doJSON(t, h, "GET", "/api/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "yenu-export.json") {
		t.Fatalf("Content-Disposition = %q", cd)
	}
	exported := rec.Body.Bytes()

	// Import into a fresh instance.
	h2, st2 := setupTest(t)
	req := httptest.NewRequest("POST", "/api/import", bytes.NewReader(exported))
	req.Header.Set("Accept", "application/json")
	rec2 := httptest.NewRecorder()
	h2.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Fatalf("import status = %d body = %s", rec2.Code, rec2.Body.String())
	}
	result := decodeBody[store.ImportResult](t, rec2)
	if result.Created != 2 || result.Updated != 0 {
		t.Fatalf("result = %+v", result)
	}
	entries, err := st2.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d", len(entries))
	}
}

func TestAPIBackup(t *testing.T) {
	h, st := setupTest(t)
	seedRecipe(t, st, "Apple Pie")

	rec := doJSON(t, h, "GET", "/api/backup.zip", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("Content-Type = %q", ct)
	}
	// Zip magic number.
	if body := rec.Body.Bytes(); len(body) < 4 || string(body[:2]) != "PK" {
		t.Fatal("response is not a zip archive")
	}
}

// --- Images ---

func uploadImage(t *testing.T, h http.Handler, path string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, color.RGBA{R: 180, G: 80, B: 30, A: 255})
		}
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", "dish.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if err := jpeg.Encode(fw, img, nil); err != nil {
		t.Fatal(err)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("POST", path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAPIUploadDishImage(t *testing.T) {
	h, st := setupTest(t)
	seedRecipe(t, st, "Pancakes")

	rec := uploadImage(t, h, "/api/recipes/pancakes/images", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	body := decodeBody[map[string]string](t, rec)
	path := body["path"]
	if !strings.HasPrefix(path, config.AssetPrefix+"/pancakes/") {
		t.Fatalf("path = %q", path)
	}

	got, err := st.Read("pancakes")
	if err != nil {
		t.Fatal(err)
	}
	if got.DishImagePath != path {
		t.Fatalf("dish image = %q want %q", got.DishImagePath, path)
	}

	// Stored image is served back.
	req := httptest.NewRequest("GET", "/"+path, nil)
	serveRec := httptest.NewRecorder()
	h.ServeHTTP(serveRec, req)
	if serveRec.Code != http.StatusOK {
		t.Fatalf("asset status = %d", serveRec.Code)
	}
}

func TestAPIUploadStepImage(t *testing.T) {
	h, st := setupTest(t)
	seedRecipe(t, st, "Pancakes")

	rec := uploadImage(t, h, "/api/recipes/pancakes/images", map[string]string{"kind": "step", "step": "1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	got, err := st.Read("pancakes")
	if err != nil {
		t.Fatal(err)
	}
	if got.Steps[0].ImagePath == "" {
		t.Fatal("step image not attached")
	}
}

func TestAPIUploadStepOutOfRange(t *testing.T) {
	h, st := setupTest(t)
	seedRecipe(t, st, "Pancakes")

	rec := uploadImage(t, h, "/api/recipes/pancakes/images", map[string]string{"kind": "step", "step": "7"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

// --- HTML pages ---

func TestListPage(t *testing.T) {
	h, st := setupTest(t)
	seedRecipe(t, st, "Apple Pie", "dessert")

	req := httptest.NewRequest("GET", "/recipes", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Fatalf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Apple Pie") {
		t.Fatal("list page missing recipe title")
	}
}

func TestDetailPageRendersMarkdown(t *testing.T) {
	h, st := setupTest(t)
	seedRecipe(t, st, "Pancakes")

	req := httptest.NewRequest("GET", "/recipes/pancakes", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<strong>beat</strong>") {
		t.Fatal("step markdown not rendered")
	}
}

func TestDetailPageNotFoundHTML(t *testing.T) {
	h, _ := setupTest(t)

	req := httptest.NewRequest("GET", "/recipes/nope", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Fatalf("Content-Type = %q", ct)
	}
}

// --- Middleware ---

func TestHealthAndMiddleware(t *testing.T) {
	h, _ := setupTest(t)

	rec := doJSON(t, h, "GET", "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody[map[string]string](t, rec)
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing X-Request-ID")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("missing security headers")
	}
}

func TestAssetTraversalBlocked(t *testing.T) {
	h, _ := setupTest(t)

	req := httptest.NewRequest("GET", "/assets/uploads/..%2f..%2fsecret.yaml", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code == http.StatusOK {
		t.Fatalf("traversal served with status %d", rec.Code)
	}
}
