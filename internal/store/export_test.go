package store

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/yenulab/yenu/internal/errors"
)

func TestExportImportRoundTrip(t *testing.T) {
	src, _, _ := newTestStore(t)

	for _, title := range []string{"Apple Pie", "番茄炒蛋", "Miso Soup"} {
		if _, err := src.Create(mustRecipe(t, title)); err != nil {
			t.Fatal(err)
		}
	}

	data, err := src.ExportJSON()
	if err != nil {
		t.Fatal(err)
	}

	dst, _, _ := newTestStore(t)
	res, err := dst.ImportJSON(data)
	if err != nil {
		t.Fatal(err)
	}
	if res.Created != 3 || res.Updated != 0 {
		t.Fatalf("result = %+v", res)
	}

	srcEntries, err := src.List()
	if err != nil {
		t.Fatal(err)
	}
	dstEntries, err := dst.List()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(srcEntries, dstEntries); diff != "" {
		t.Errorf("stores differ after import (-src +dst):\n%s", diff)
	}

	// Importing the same payload again only updates.
	res, err = dst.ImportJSON(data)
	if err != nil {
		t.Fatal(err)
	}
	if res.Created != 0 || res.Updated != 3 {
		t.Fatalf("second import = %+v", res)
	}
}

func TestExportIncludesSlug(t *testing.T) {
	s, _, _ := newTestStore(t)
	if _, err := s.Create(mustRecipe(t, "番茄炒蛋")); err != nil {
		t.Fatal(err)
	}

	data, err := s.ExportJSON()
	if err != nil {
		t.Fatal(err)
	}
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d", len(records))
	}
	if records[0]["slug"] != "fanqiechaodan" {
		t.Fatalf("slug = %v", records[0]["slug"])
	}
	if records[0]["title"] != "番茄炒蛋" {
		t.Fatalf("title = %v", records[0]["title"])
	}
}

func TestExportEmptyStore(t *testing.T) {
	s, _, _ := newTestStore(t)

	data, err := s.ExportJSON()
	if err != nil {
		t.Fatal(err)
	}
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Fatalf("records = %d", len(records))
	}
}

func TestImportRejectsInvalidPayload(t *testing.T) {
	s, _, _ := newTestStore(t)

	_, err := s.ImportJSON([]byte("not json"))
	if !errors.Is(err, errors.ErrValidation) {
		t.Fatalf("want VALIDATION, got %v", err)
	}
}

func TestImportAbortsBeforeFirstWrite(t *testing.T) {
	s, _, _ := newTestStore(t)

	payload := []byte(`[
		{"title": "Good Recipe", "ingredients": [{"name": "egg"}], "steps": [{"text": "cook"}]},
		{"title": "", "ingredients": [{"name": "x"}], "steps": [{"text": "y"}]}
	]`)
	_, err := s.ImportJSON(payload)
	if !errors.Is(err, errors.ErrValidation) {
		t.Fatalf("want VALIDATION, got %v", err)
	}

	entries, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("store not empty after failed import: %d entries", len(entries))
	}
}

func TestBackupZip(t *testing.T) {
	s, _, cfg := newTestStore(t)

	for _, title := range []string{"Apple Pie", "Miso Soup"} {
		if _, err := s.Create(mustRecipe(t, title)); err != nil {
			t.Fatal(err)
		}
	}
	// Non-record files stay out of the archive.
	if err := os.WriteFile(filepath.Join(cfg.DataDir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	data, err := s.BackupZip()
	if err != nil {
		t.Fatal(err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}

	base := filepath.Base(cfg.DataDir)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	want := []string{base + "/apple-pie.yaml", base + "/miso-soup.yaml"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("archive entries (-want +got):\n%s", diff)
	}

	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		t.Fatal(err)
	}
	disk, err := os.ReadFile(filepath.Join(cfg.DataDir, "apple-pie.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), disk) {
		t.Error("archived record differs from on-disk record")
	}
}
