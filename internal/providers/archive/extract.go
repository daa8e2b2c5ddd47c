package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

// ErrUnsupportedFormat is returned for files that are not a known archive
var ErrUnsupportedFormat = errors.New("unsupported archive format")

// ProgressFunc receives the extracted fraction in [0, 1]
type ProgressFunc func(fraction float64)

// Extractor unpacks an archive into a directory
type Extractor interface {
	Extract(ctx context.Context, archivePath, targetDir string, progress ProgressFunc) error
}

// FileExtractor handles zip, tar, tar.gz and tar.zst archives. The format is
// detected from content, not from the file name.
type FileExtractor struct {
	logger *zap.Logger
}

// NewExtractor creates the default extractor
func NewExtractor(logger *zap.Logger) *FileExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileExtractor{logger: logger}
}

// Extract unpacks archivePath into targetDir, overwriting existing files.
// Entries that would land outside targetDir are skipped.
func (e *FileExtractor) Extract(ctx context.Context, archivePath, targetDir string, progress ProgressFunc) error {
	if progress == nil {
		progress = func(float64) {}
	}

	mtype, err := mimetype.DetectFile(archivePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return fmt.Errorf("create target: %w", err)
	}

	switch {
	case mtype.Is("application/zip"):
		return e.extractZip(ctx, archivePath, targetDir, progress)
	case mtype.Is("application/x-tar"):
		return e.extractTar(ctx, archivePath, targetDir, "", progress)
	case mtype.Is("application/gzip"):
		return e.extractTar(ctx, archivePath, targetDir, "gzip", progress)
	case mtype.Is("application/zstd"):
		return e.extractTar(ctx, archivePath, targetDir, "zstd", progress)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, mtype.String())
	}
}

func (e *FileExtractor) extractZip(ctx context.Context, archivePath, targetDir string, progress ProgressFunc) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer reader.Close()

	var total uint64
	for _, f := range reader.File {
		total += f.UncompressedSize64
	}

	var done uint64
	for _, f := range reader.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		dest, ok := safeJoin(targetDir, f.Name)
		if !ok {
			e.logger.Warn("Skipping archive entry outside target", zap.String("entry", f.Name))
			continue
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0755); err != nil {
				return err
			}
			continue
		}

		if err := writeZipEntry(f, dest); err != nil {
			return fmt.Errorf("extract %s: %w", f.Name, err)
		}

		done += f.UncompressedSize64
		if total > 0 {
			progress(float64(done) / float64(total))
		}
	}
	return nil
}

func writeZipEntry(f *zip.File, dest string) error {
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	return writeFile(dest, src, f.Mode())
}

func (e *FileExtractor) extractTar(ctx context.Context, archivePath, targetDir, compression string, progress ProgressFunc) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return err
	}
	counter := &countingReader{r: file}

	var reader io.Reader = counter
	switch compression {
	case "gzip":
		gz, err := gzip.NewReader(counter)
		if err != nil {
			return err
		}
		defer gz.Close()
		reader = gz
	case "zstd":
		zr, err := zstd.NewReader(counter)
		if err != nil {
			return err
		}
		defer zr.Close()
		reader = zr
	}

	tr := tar.NewReader(reader)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		dest, ok := safeJoin(targetDir, header.Name)
		if !ok {
			e.logger.Warn("Skipping archive entry outside target", zap.String("entry", header.Name))
			continue
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(dest, tr, os.FileMode(header.Mode)); err != nil {
				return fmt.Errorf("extract %s: %w", header.Name, err)
			}
		default:
			e.logger.Debug("Skipping unsupported tar entry",
				zap.String("entry", header.Name),
				zap.Int("type", int(header.Typeflag)))
		}

		if stat.Size() > 0 {
			progress(float64(counter.n) / float64(stat.Size()))
		}
	}
}

func writeFile(dest string, src io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	perm := mode.Perm()
	if perm == 0 {
		perm = 0644
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// safeJoin joins an archive entry name onto dir, refusing names that climb
// out of it.
func safeJoin(dir, name string) (string, bool) {
	name = strings.ReplaceAll(name, "\\", "/")
	dest := filepath.Join(dir, filepath.FromSlash(name))
	if dest == dir {
		return dest, true
	}
	if !strings.HasPrefix(dest, filepath.Clean(dir)+string(filepath.Separator)) {
		return "", false
	}
	return dest, true
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
