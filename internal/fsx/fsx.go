// Package fsx holds the filesystem side effects of organizing: moving files
// into place, picking free names, and removing emptied directories.
package fsx

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Replaceable so tests can simulate cross-device renames.
var renameFunc = os.Rename

// Mover moves a file to a destination that does not exist yet.
type Mover interface {
	Move(src, dst string) error
}

// OSMover moves files on the local filesystem with Move.
type OSMover struct{}

func (OSMover) Move(src, dst string) error { return Move(src, dst) }

// MoveError reports a failed move.
type MoveError struct {
	Src string
	Dst string
	Err error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move %s -> %s: %v", e.Src, e.Dst, e.Err)
}

func (e *MoveError) Unwrap() error { return e.Err }

// IsMoveError reports whether err is a *MoveError.
func IsMoveError(err error) bool {
	var e *MoveError
	return errors.As(err, &e)
}

// Move moves src to dst, creating dst's directory. It renames when possible
// and falls back to copy+delete when src and dst are on different devices.
// dst must not exist.
func Move(src, dst string) error {
	if Exists(dst) {
		return &MoveError{Src: src, Dst: dst, Err: fs.ErrExist}
	}
	created, err := mkdirAll(filepath.Dir(dst))
	if err != nil {
		return &MoveError{Src: src, Dst: dst, Err: err}
	}

	err = renameFunc(src, dst)
	if err == nil {
		return nil
	}
	if !isEXDEV(err) {
		removeCreated(created)
		return &MoveError{Src: src, Dst: dst, Err: err}
	}

	if err := copyFile(src, dst); err != nil {
		_ = os.Remove(dst)
		removeCreated(created)
		return &MoveError{Src: src, Dst: dst, Err: err}
	}
	if err := os.Remove(src); err != nil {
		return &MoveError{Src: src, Dst: dst, Err: fmt.Errorf("copied but could not remove source: %w", err)}
	}
	return nil
}

// mkdirAll is os.MkdirAll that also returns the directories it created,
// outermost first.
func mkdirAll(dir string) ([]string, error) {
	var missing []string
	for d := dir; !Exists(d); d = filepath.Dir(d) {
		missing = append(missing, d)
		if filepath.Dir(d) == d {
			break
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	for i, j := 0, len(missing)-1; i < j; i, j = i+1, j-1 {
		missing[i], missing[j] = missing[j], missing[i]
	}
	return missing, nil
}

// removeCreated undoes mkdirAll, innermost first. Directories that gained
// other entries in the meantime are kept.
func removeCreated(dirs []string) {
	for i := len(dirs) - 1; i >= 0; i-- {
		if err := os.Remove(dirs[i]); err != nil {
			return
		}
	}
}

// copyFile copies src to dst and carries over the mode and modification time.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// UniquePath returns path if nothing exists there, otherwise the first free
// "<base>_<n><ext>" with n counting from 1.
func UniquePath(path string) string {
	return FreePath(path, Exists)
}

// FreePath is UniquePath with a caller-supplied notion of "taken".
func FreePath(path string, taken func(string) bool) string {
	if !taken(path) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s_%d%s", base, n, ext)
		if !taken(candidate) {
			return candidate
		}
	}
}

// Exists reports whether anything is present at path.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

// JunkFiles are operating system droppings that do not keep a directory
// alive during RemoveEmptyDirs.
var JunkFiles = map[string]bool{
	".DS_Store":   true,
	"Thumbs.db":   true,
	"desktop.ini": true,
}

// RemoveEmptyDirs removes directories under root (not root itself) that
// hold nothing but JunkFiles, deepest first. Any other entry, hidden or not,
// keeps a directory. Directories for which skip returns true are left alone
// along with their contents. It returns the removed directories.
func RemoveEmptyDirs(root string, skip func(path string) bool) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() || path == root {
			return nil
		}
		if skip != nil && skip(path) {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Deepest first so parents see their children already gone.
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })

	var removed []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		if !onlyJunk(entries) {
			continue
		}
		for _, e := range entries {
			_ = os.Remove(filepath.Join(dir, e.Name()))
		}
		if err := os.Remove(dir); err != nil {
			continue
		}
		removed = append(removed, dir)
	}
	return removed, nil
}

func onlyJunk(entries []fs.DirEntry) bool {
	for _, e := range entries {
		if !e.Type().IsRegular() || !JunkFiles[e.Name()] {
			return false
		}
	}
	return true
}
