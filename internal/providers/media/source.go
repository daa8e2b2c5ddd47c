// Package media implements the takePhoto and chooseImage capabilities.
// Cameras and pickers are collaborators; this package only stores what they
// return as a JPEG in the sandbox temp directory.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrCancelled is returned when the user dismisses a camera or picker
	ErrCancelled = errors.New("cancelled")
	// ErrUnavailable is returned when a camera or source is not present
	ErrUnavailable = errors.New("unavailable")
)

// Capturer takes a photo with the named camera (front or rear) and returns
// the encoded image.
type Capturer interface {
	Capture(ctx context.Context, camera string) ([]byte, error)
}

// Picker lets the user pick an image from the named source (album, camera
// or library) and returns the encoded image.
type Picker interface {
	Pick(ctx context.Context, source string) ([]byte, error)
}

// Unavailable is a Capturer and Picker for hosts without media hardware
type Unavailable struct{}

func (Unavailable) Capture(context.Context, string) ([]byte, error) { return nil, ErrUnavailable }

func (Unavailable) Pick(context.Context, string) ([]byte, error) { return nil, ErrUnavailable }

// Library serves images from a directory. Every source and camera yields
// the most recently modified image in it.
type Library struct {
	dir string
}

// NewLibrary creates a library over dir
func NewLibrary(dir string) *Library {
	return &Library{dir: dir}
}

func (l *Library) Capture(ctx context.Context, _ string) ([]byte, error) {
	return l.newest(ctx)
}

func (l *Library) Pick(ctx context.Context, _ string) ([]byte, error) {
	return l.newest(ctx)
}

func (l *Library) newest(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	images, err := l.Images()
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: no images in library", ErrUnavailable)
	}
	return os.ReadFile(images[0])
}

// Images lists the library's image files, newest first
func (l *Library) Images() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: library %s not found", ErrUnavailable, l.dir)
		}
		return nil, err
	}

	type candidate struct {
		path    string
		modTime int64
	}
	var found []candidate
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(l.dir, entry.Name())
		mtype, err := mimetype.DetectFile(path)
		if err != nil || !strings.HasPrefix(mtype.String(), "image/") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		found = append(found, candidate{path: path, modTime: info.ModTime().UnixNano()})
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].modTime == found[j].modTime {
			return found[i].path < found[j].path
		}
		return found[i].modTime > found[j].modTime
	})

	paths := make([]string, len(found))
	for i, c := range found {
		paths[i] = c.path
	}
	return paths, nil
}
