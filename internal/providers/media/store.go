package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// JPEG qualities per capability
const (
	QualityFront  = 40
	QualityRear   = 20
	QualityChoose = 80
)

// Store re-encodes images as JPEG files in a directory
type Store struct {
	dir string
	now func() time.Time
}

// NewStore creates a store writing into dir
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Save decodes data, writes it as "<unix-nanos>.jpg" at the given quality
// and returns the absolute path.
func (s *Store) Save(data []byte, quality int) (string, error) {
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", fmt.Errorf("unsupported image type %s", mtype.String())
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", mtype.String(), err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, strconv.FormatInt(s.now().UnixNano(), 10)+".jpg")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// FileURL renders an absolute path as a file:// URL
func FileURL(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}
