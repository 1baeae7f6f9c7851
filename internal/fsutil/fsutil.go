// Package fsutil provides the filesystem primitives the record store is
// built on: crash-safe file writes, base-confined path joining, and
// whole-subtree move/remove for asset namespaces.
package fsutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/yenulab/yenu/internal/errors"
)

// WriteFileAtomic writes data to path so that the file is observed either
// with its old content or its new content, never partially written. Missing
// ancestor directories are created. The payload goes to a temp file in the
// same directory (same-filesystem rename semantics), is synced to durable
// storage, and is then renamed over the target in one step. On failure
// before the rename the target is untouched.
func WriteFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewInternal(fmt.Errorf("create parent directory: %w", err))
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return errors.NewInternal(fmt.Errorf("write %s: %w", filepath.Base(path), err))
	}
	return nil
}

// SafeJoin joins parts onto base and verifies the result stays inside base.
// Returns a PATH_UNSAFE error when the joined path would escape, e.g. via
// ".." components or an absolute part.
func SafeJoin(base string, parts ...string) (string, error) {
	joined := filepath.Join(append([]string{base}, parts...)...)

	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	absJoined, err := filepath.Abs(joined)
	if err != nil {
		return "", errors.NewInternal(err)
	}

	if absJoined != absBase && !strings.HasPrefix(absJoined, absBase+string(filepath.Separator)) {
		return "", errors.NewPathUnsafe(filepath.Join(parts...))
	}
	return absJoined, nil
}

// MoveTree moves the directory tree at src to dst. A missing src is a
// no-op. An existing dst is replaced, not merged.
func MoveTree(src, dst string) error {
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.NewInternal(fmt.Errorf("create parent directory: %w", err))
	}
	if _, err := os.Stat(dst); err == nil {
		if err := os.RemoveAll(dst); err != nil {
			return errors.NewInternal(fmt.Errorf("replace %s: %w", dst, err))
		}
	}
	if err := os.Rename(src, dst); err != nil {
		return errors.NewInternal(fmt.Errorf("move %s: %w", src, err))
	}
	return nil
}

// RemoveTree deletes the directory tree at path. A missing path is a no-op.
func RemoveTree(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return errors.NewInternal(fmt.Errorf("remove %s: %w", path, err))
	}
	return nil
}
