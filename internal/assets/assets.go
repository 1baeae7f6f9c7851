// Package assets manages stored recipe images. Every image lives in a
// per-slug namespace under the uploads root, and records reference it by
// the web-relative path "assets/uploads/<slug>/<file>". Renaming a record
// moves the whole namespace; deleting one removes it.
package assets

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/yenulab/yenu/internal/config"
	"github.com/yenulab/yenu/internal/errors"
	"github.com/yenulab/yenu/internal/fsutil"
)

// Assets stores and serves per-slug image files.
type Assets struct {
	root     string
	maxBytes int64
	maxPx    int
}

// New returns an asset manager rooted at cfg.UploadsDir.
func New(cfg *config.Config) *Assets {
	return &Assets{
		root:     cfg.UploadsDir,
		maxBytes: int64(cfg.MaxImageMB * 1024 * 1024),
		maxPx:    cfg.ThumbMaxPx,
	}
}

// Save reads an uploaded image, re-encodes it, and stores it in the
// slug's namespace, returning the web-relative path to embed in the
// record. Only JPEG and PNG uploads are accepted; anything over the size
// cap is rejected before decoding. Images larger than the pixel bound on
// either side are downscaled to fit. Everything is stored as JPEG: the
// source of truth for a dish photo is the photo, not its container
// format.
func (a *Assets) Save(slug, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, a.maxBytes+1))
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("read upload: %w", err))
	}
	if int64(len(data)) > a.maxBytes {
		return "", errors.NewImageTooLarge(float64(a.maxBytes) / (1024 * 1024))
	}

	switch http.DetectContentType(data) {
	case "image/jpeg", "image/png":
	default:
		return "", errors.NewUnsupportedImage()
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", errors.NewUnsupportedImage()
	}
	if b := img.Bounds(); b.Dx() > a.maxPx || b.Dy() > a.maxPx {
		img = imaging.Fit(img, a.maxPx, a.maxPx, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return "", errors.NewInternal(fmt.Errorf("encode image: %w", err))
	}

	name, err := a.uniqueName(slug, filename)
	if err != nil {
		return "", err
	}
	dst, err := fsutil.SafeJoin(a.root, slug, name)
	if err != nil {
		return "", err
	}
	if err := fsutil.WriteFileAtomic(dst, buf.Bytes()); err != nil {
		return "", err
	}
	return path.Join(config.AssetPrefix, slug, name), nil
}

// uniqueName derives a safe file name from the upload's name and bumps a
// numeric suffix until it is free within the slug's namespace.
func (a *Assets) uniqueName(slug, filename string) (string, error) {
	stem := sanitizeStem(filename)
	name := stem + ".jpg"
	for i := 2; ; i++ {
		dst, err := fsutil.SafeJoin(a.root, slug, name)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(dst); os.IsNotExist(err) {
			return name, nil
		}
		name = fmt.Sprintf("%s-%d.jpg", stem, i)
	}
}

// sanitizeStem reduces an upload file name to a slug-safe stem.
func sanitizeStem(filename string) string {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	stem = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, stem)
	stem = strings.Trim(stem, "-")
	for strings.Contains(stem, "--") {
		stem = strings.ReplaceAll(stem, "--", "-")
	}
	if stem == "" {
		return "image"
	}
	return stem
}

// FilePath resolves a stored web path like "assets/uploads/<slug>/<file>"
// to its location on disk, refusing paths outside the uploads root.
func (a *Assets) FilePath(webPath string) (string, error) {
	webPath = path.Clean(strings.TrimPrefix(webPath, "/"))
	rel, ok := strings.CutPrefix(webPath, config.AssetPrefix+"/")
	if !ok {
		return "", errors.NewPathUnsafe(webPath)
	}
	return fsutil.SafeJoin(a.root, rel)
}

// Relocate moves the asset namespace from oldSlug to newSlug. A record
// rename with no stored images is a no-op here.
func (a *Assets) Relocate(oldSlug, newSlug string) error {
	src, err := fsutil.SafeJoin(a.root, oldSlug)
	if err != nil {
		return err
	}
	dst, err := fsutil.SafeJoin(a.root, newSlug)
	if err != nil {
		return err
	}
	return fsutil.MoveTree(src, dst)
}

// Remove deletes the slug's asset namespace.
func (a *Assets) Remove(slug string) error {
	dir, err := fsutil.SafeJoin(a.root, slug)
	if err != nil {
		return err
	}
	return fsutil.RemoveTree(dir)
}
