// Package sandbox resolves web-supplied paths against the host's sandbox root.
//
// Every path arriving from the page is interpreted relative to a fixed root:
// leading separators are stripped before joining, an empty result is
// rejected, and the joined path may not climb out of the root.
//
// The page root is the "files" directory under the configured directory.
// Host scratch space ("tmp") is its sibling, so pages can neither list nor
// remove it.
//
// Example Usage:
//
//	root, _ := sandbox.New("/var/lib/webcontainer")
//	full, err := root.Resolve("/docs/readme.txt") // /var/lib/webcontainer/files/docs/readme.txt
package sandbox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrEmptyPath   = errors.New("path is empty")
	ErrOutsideRoot = errors.New("path escapes sandbox root")
)

// Subdirectories of the configured directory
const (
	FilesDir = "files"
	TempDir  = "tmp"
)

// Root is an absolute directory that all bridge paths are joined onto
type Root struct {
	dir  string
	temp string
}

// New creates the page root and the host temp directory under dir if needed
func New(dir string) (*Root, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("sandbox root is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve sandbox root: %w", err)
	}
	r := &Root{dir: filepath.Join(abs, FilesDir), temp: filepath.Join(abs, TempDir)}
	for _, sub := range []string{r.dir, r.temp} {
		if err := os.MkdirAll(sub, 0755); err != nil {
			return nil, fmt.Errorf("create sandbox dir: %w", err)
		}
	}
	return r, nil
}

// Dir returns the absolute page root. Downloaded pages live here too, ahead
// of the bundle.
func (r *Root) Dir() string {
	return r.dir
}

// Temp returns the host directory for captured media. It lies outside Dir.
func (r *Root) Temp() string {
	return r.temp
}

// Rel normalises a web path: separators are unified, leading and trailing
// separators removed, and "." segments collapsed. The result may be empty.
func Rel(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	cleaned := filepath.ToSlash(filepath.Clean(p))
	if cleaned == "." {
		return ""
	}
	return cleaned
}

// Resolve joins a non-empty web path onto the root
func (r *Root) Resolve(p string) (string, error) {
	rel := Rel(p)
	if rel == "" {
		return "", ErrEmptyPath
	}
	return r.join(rel)
}

// ResolveDir is Resolve, except that an empty path names the root itself
func (r *Root) ResolveDir(p string) (string, error) {
	rel := Rel(p)
	if rel == "" {
		return r.dir, nil
	}
	return r.join(rel)
}

// Display converts an absolute path under the root back to its web form
// ("/a/b.txt"). Paths outside the root are returned unchanged.
func (r *Root) Display(abs string) string {
	rel, err := filepath.Rel(r.dir, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return abs
	}
	if rel == "." {
		return "/"
	}
	return "/" + filepath.ToSlash(rel)
}

func (r *Root) join(rel string) (string, error) {
	full := filepath.Join(r.dir, filepath.FromSlash(rel))
	if full != r.dir && !strings.HasPrefix(full, r.dir+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, rel)
	}
	return full, nil
}
