package store

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yenulab/yenu/internal/errors"
	"github.com/yenulab/yenu/internal/recipe"
)

// ExportRecord is one recipe in the JSON interchange format. The slug is
// included for reference only; import re-derives it from the title.
type ExportRecord struct {
	Slug string `json:"slug"`
	recipe.Recipe
}

// ImportResult reports what an import did.
type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// ExportJSON serializes every readable record as an indented JSON array
// in slug order. Undecodable files are skipped, same as listing.
func (s *Store) ExportJSON() ([]byte, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}
	records := make([]ExportRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, ExportRecord{Slug: e.Slug, Recipe: *e.Recipe})
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return data, nil
}

// ImportJSON ingests a JSON array in the export format. The whole payload
// is decoded and validated before the first write, so a bad entry aborts
// the import with the store untouched. Valid records are then upserted
// under slugs re-derived from their titles.
func (s *Store) ImportJSON(data []byte) (*ImportResult, error) {
	var records []ExportRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.NewValidation("payload", "invalid JSON: "+err.Error())
	}

	validated := make([]*recipe.Recipe, 0, len(records))
	for i, rec := range records {
		r, err := recipe.New(rec.Recipe)
		if err != nil {
			return nil, errors.NewValidation(fmt.Sprintf("records[%d]", i), err.Error())
		}
		validated = append(validated, r)
	}

	res := &ImportResult{}
	for _, r := range validated {
		_, created, err := s.Upsert(r)
		if err != nil {
			return nil, err
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}
	return res, nil
}

// BackupZip packs every record file into a zip archive. Entries are
// stored under the data directory's base name so an extracted archive
// reproduces the directory as-is.
func (s *Store) BackupZip() ([]byte, error) {
	dirents, err := os.ReadDir(s.dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.NewInternal(err)
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	base := filepath.Base(s.dir)
	for _, de := range dirents {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, Ext) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		zf, err := w.Create(base + "/" + name)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		if _, err := zf.Write(data); err != nil {
			return nil, errors.NewInternal(err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return buf.Bytes(), nil
}
