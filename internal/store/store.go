// Package store owns the on-disk directory of recipe records: one YAML
// file per recipe, named by the slug derived from its title. All mutation
// goes through the atomic write primitive, so no reader ever observes a
// torn record. There is no in-memory index; every listing re-reads the
// directory.
package store

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yenulab/yenu/internal/config"
	"github.com/yenulab/yenu/internal/errors"
	"github.com/yenulab/yenu/internal/fsutil"
	"github.com/yenulab/yenu/internal/recipe"
)

// Ext is the record file extension; a record's file name is <slug>.yaml.
const Ext = ".yaml"

// AssetRelocator keeps the per-slug asset namespace in step with record
// renames and deletions. assets.Assets is the production implementation.
type AssetRelocator interface {
	// Relocate moves the asset namespace from oldSlug to newSlug; a missing
	// old namespace is a no-op and an existing new one is replaced.
	Relocate(oldSlug, newSlug string) error
	// Remove deletes the slug's asset namespace.
	Remove(slug string) error
}

// Entry is one (slug, record) pair from a listing.
type Entry struct {
	Slug   string
	Recipe *recipe.Recipe
}

// Store provides slug-keyed access to the record directory.
type Store struct {
	dir    string
	assets AssetRelocator
}

// New creates a Store over cfg.DataDir. assets handles namespace moves on
// rename and cleanup on delete.
func New(cfg *config.Config, assets AssetRelocator) *Store {
	return &Store{dir: cfg.DataDir, assets: assets}
}

// path resolves the record file for a slug, refusing slugs that would
// escape the data directory (client-supplied slugs reach Read and Delete).
func (s *Store) path(slug string) (string, error) {
	if slug == "" || slug != filepath.Base(slug) {
		return "", errors.NewPathUnsafe(slug)
	}
	return fsutil.SafeJoin(s.dir, slug+Ext)
}

// Create derives the slug from the record's title and persists a new
// record file. An occupied slug is a CONFLICT: interactive creation never
// silently overwrites; re-seeding and import go through Upsert.
func (s *Store) Create(r *recipe.Recipe) (string, error) {
	slug := recipe.Slugify(r.Title)
	path, err := s.path(slug)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return "", errors.NewConflict(slug)
	}
	if err := s.write(path, r); err != nil {
		return "", err
	}
	return slug, nil
}

// Upsert writes the record under its derived slug, overwriting any
// existing file. Reports whether the record was created or replaced.
func (s *Store) Upsert(r *recipe.Recipe) (slug string, created bool, err error) {
	slug = recipe.Slugify(r.Title)
	path, err := s.path(slug)
	if err != nil {
		return "", false, err
	}
	_, statErr := os.Stat(path)
	created = os.IsNotExist(statErr)
	if err := s.write(path, r); err != nil {
		return "", false, err
	}
	return slug, created, nil
}

// Read loads the record stored under slug. A missing file is NOT_FOUND; a
// file that exists but does not decode into a valid record is INTEGRITY —
// single-record reads never silently skip.
func (s *Store) Read(slug string) (*recipe.Recipe, error) {
	path, err := s.path(slug)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound(slug)
		}
		return nil, errors.NewInternal(err)
	}
	r, err := recipe.Decode(data)
	if err != nil {
		return nil, errors.NewIntegrity(slug, err)
	}
	return r, nil
}

// Update persists a modified record addressed by its current slug. When
// the title re-derives to a different slug, the asset namespace is
// relocated first, embedded asset paths are rewritten, the record is
// written under the new slug, and only then is the stale file removed —
// a mid-sequence failure can leave a duplicate record but never a record
// whose image paths point at a namespace that no longer exists.
func (s *Store) Update(oldSlug string, r *recipe.Recipe) (string, error) {
	oldPath, err := s.path(oldSlug)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(oldPath); os.IsNotExist(err) {
		return "", errors.NewNotFound(oldSlug)
	}

	newSlug := recipe.Slugify(r.Title)
	if newSlug == oldSlug {
		return newSlug, s.write(oldPath, r)
	}

	newPath, err := s.path(newSlug)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(newPath); err == nil {
		// Renaming onto another record would destroy it.
		return "", errors.NewConflict(newSlug)
	}

	if err := s.assets.Relocate(oldSlug, newSlug); err != nil {
		return "", err
	}
	s.rewriteAssetPaths(r, oldSlug, newSlug)

	if err := s.write(newPath, r); err != nil {
		return "", err
	}
	if err := os.Remove(oldPath); err != nil && !os.IsNotExist(err) {
		return "", errors.NewInternal(fmt.Errorf("remove stale record %s: %w", oldSlug, err))
	}
	return newSlug, nil
}

// Delete removes the record file and then the slug's asset namespace.
// Returns NOT_FOUND when no record exists. Asset cleanup after a
// successful record removal is best-effort: the directory is already
// unreferenced, so a failure is logged rather than surfaced.
func (s *Store) Delete(slug string) error {
	path, err := s.path(slug)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFound(slug)
		}
		return errors.NewInternal(err)
	}
	if err := s.assets.Remove(slug); err != nil {
		log.Printf("asset cleanup for %q failed: %v", slug, err)
	}
	return nil
}

// BulkDeleteResult reports what a bulk delete did.
type BulkDeleteResult struct {
	Deleted int      `json:"deleted"`
	Missing []string `json:"missing,omitempty"`
}

// DeleteMany removes the named records and their asset namespaces.
// Slugs are trimmed and deduplicated; at least one is required. A slug
// with no record is reported in Missing rather than aborting the batch,
// since a stale selection may name records another session already
// removed. Any other failure stops the batch.
func (s *Store) DeleteMany(slugs []string) (*BulkDeleteResult, error) {
	seen := make(map[string]bool, len(slugs))
	cleaned := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		slug = strings.TrimSpace(slug)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		cleaned = append(cleaned, slug)
	}
	if len(cleaned) == 0 {
		return nil, errors.NewValidation("slugs", "at least one slug is required")
	}

	res := &BulkDeleteResult{}
	for _, slug := range cleaned {
		switch err := s.Delete(slug); {
		case err == nil:
			res.Deleted++
		case errors.Is(err, errors.ErrNotFound):
			res.Missing = append(res.Missing, slug)
		default:
			return nil, err
		}
	}
	return res, nil
}

// List enumerates the store in lexicographic slug order. Files that fail
// to decode are skipped: partial corpus corruption must not block
// browsing the rest.
func (s *Store) List() ([]Entry, error) {
	dirents, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewInternal(err)
	}

	var entries []Entry
	for _, de := range dirents {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, Ext) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		r, err := recipe.Decode(data)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Slug: strings.TrimSuffix(name, Ext), Recipe: r})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Slug < entries[j].Slug })
	return entries, nil
}

// write serializes and atomically persists a record file.
func (s *Store) write(path string, r *recipe.Recipe) error {
	data, err := recipe.Encode(r)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data)
}

// rewriteAssetPaths updates embedded asset references from the old slug's
// namespace to the new one.
func (s *Store) rewriteAssetPaths(r *recipe.Recipe, oldSlug, newSlug string) {
	oldPrefix := config.AssetPrefix + "/" + oldSlug + "/"
	newPrefix := config.AssetPrefix + "/" + newSlug + "/"
	for _, p := range r.AssetPaths() {
		if strings.HasPrefix(*p, oldPrefix) {
			*p = newPrefix + strings.TrimPrefix(*p, oldPrefix)
		}
	}
}
