package files

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webcontainer/internal/bridge"
	"github.com/GriffinCanCode/webcontainer/internal/sandbox"
)

// File types reported by getFileList
const (
	TypeFile      = "file"
	TypeDirectory = "directory"
	TypeSymlink   = "symlink"
	TypeOther     = "other"
)

// FileInfo is one getFileList entry
type FileInfo struct {
	FilePath   string `json:"filePath"`
	Size       int64  `json:"size"`
	CreateTime int64  `json:"createTime"`
	FileType   string `json:"fileType"`
}

// List implements getFileList
type List struct {
	root   *sandbox.Root
	logger *zap.Logger
}

// NewList creates the getFileList plugin
func NewList(root *sandbox.Root, logger *zap.Logger) *List {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &List{root: root, logger: logger}
}

func (l *List) Channel() bridge.Channel { return bridge.ChannelGetFileList }

func (l *List) Handle(ctx context.Context, req bridge.Request, reply *bridge.Reply) {
	r, ok := bridge.As[*bridge.GetFileListRequest](req, reply)
	if !ok {
		return
	}

	if r.Pattern != "" && !doublestar.ValidatePattern(r.Pattern) {
		reply.Fail(fmt.Sprintf("invalid pattern %q", r.Pattern))
		return
	}

	dir, err := l.root.ResolveDir(r.Path)
	if err != nil {
		reply.Fail(fmt.Sprintf("getFileList failed: %v", err))
		return
	}

	var entries []FileInfo
	if r.Recursive {
		entries, err = l.walk(ctx, dir, r.Pattern)
	} else {
		entries, err = l.list(dir, r.Pattern)
	}
	if err != nil {
		l.logger.Debug("Listing failed", zap.String("dir", dir), zap.Error(err))
		reply.Fail(fmt.Sprintf("getFileList failed: %v", err))
		return
	}

	reply.Succeed(bridge.Data{"files": entries})
}

// list reads a single directory level, sorted by name
func (l *List) list(dir, pattern string) ([]FileInfo, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	entries := make([]FileInfo, 0, len(items))
	for _, item := range items {
		if pattern != "" {
			if ok, _ := doublestar.Match(pattern, item.Name()); !ok {
				continue
			}
		}
		info, err := item.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", item.Name(), err)
		}
		entries = append(entries, l.describe(filepath.Join(dir, item.Name()), info))
	}
	return entries, nil
}

// walk lists the whole tree under dir. fastwalk visits entries from several
// goroutines, so results are collected under a lock and sorted afterwards.
func (l *List) walk(ctx context.Context, dir, pattern string) ([]FileInfo, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}

	var mu sync.Mutex
	entries := []FileInfo{}
	conf := fastwalk.Config{Follow: false}

	err := fastwalk.Walk(&conf, dir, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}

		if pattern != "" {
			rel, relErr := filepath.Rel(dir, path)
			if relErr != nil {
				return nil
			}
			if ok, _ := doublestar.Match(pattern, filepath.ToSlash(rel)); !ok {
				return nil
			}
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		entry := l.describe(path, info)
		mu.Lock()
		entries = append(entries, entry)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].FilePath < entries[j].FilePath
	})
	return entries, nil
}

func (l *List) describe(path string, info fs.FileInfo) FileInfo {
	return FileInfo{
		FilePath:   l.root.Display(path),
		Size:       info.Size(),
		CreateTime: info.ModTime().Unix(),
		FileType:   fileType(info.Mode()),
	}
}

func fileType(mode fs.FileMode) string {
	switch {
	case mode.IsRegular():
		return TypeFile
	case mode.IsDir():
		return TypeDirectory
	case mode&fs.ModeSymlink != 0:
		return TypeSymlink
	default:
		return TypeOther
	}
}
