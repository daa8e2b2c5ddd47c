// Package relaunch implements the reLaunch capability: replace the current
// page with another page of the web bundle.
package relaunch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webcontainer/internal/bridge"
	"github.com/GriffinCanCode/webcontainer/internal/sandbox"
)

// ErrNotFound is returned when no page matches the requested url
var ErrNotFound = errors.New("page not found")

// Target is a located page
type Target struct {
	// File is the absolute path of the page
	File string
	// URL is the site-relative url to load, query preserved ("/b.html?x=1")
	URL string
}

// Navigator loads a page into the view that issued the request
type Navigator interface {
	Navigate(ctx context.Context, target Target) error
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(ctx context.Context, target Target) error

func (f NavigatorFunc) Navigate(ctx context.Context, target Target) error {
	return f(ctx, target)
}

// Locator finds pages in the writable web directory first and the
// read-only bundle second.
type Locator struct {
	dirs []string
}

// NewLocator searches dirs in order; empty entries are skipped
func NewLocator(dirs ...string) *Locator {
	l := &Locator{}
	for _, d := range dirs {
		if d != "" {
			l.dirs = append(l.dirs, d)
		}
	}
	return l
}

// Locate resolves rawURL, ignoring any query or fragment while searching
func (l *Locator) Locate(rawURL string) (Target, error) {
	name := rawURL
	suffix := ""
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name, suffix = name[:i], name[i:]
	}

	rel := sandbox.Rel(name)
	if rel == "" || rel == ".." || strings.HasPrefix(rel, "../") {
		return Target{}, fmt.Errorf("%w: %s", ErrNotFound, rawURL)
	}

	for _, dir := range l.dirs {
		file := filepath.Join(dir, filepath.FromSlash(rel))
		info, err := os.Stat(file)
		if err != nil || info.IsDir() {
			continue
		}
		return Target{File: file, URL: "/" + rel + suffix}, nil
	}
	return Target{}, fmt.Errorf("%w: %s", ErrNotFound, rawURL)
}

// ReLaunch implements reLaunch. The completion is delivered before the view
// navigates away.
type ReLaunch struct {
	locator   *Locator
	navigator Navigator
	logger    *zap.Logger
}

// New creates the reLaunch plugin for one view
func New(locator *Locator, navigator Navigator, logger *zap.Logger) *ReLaunch {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReLaunch{locator: locator, navigator: navigator, logger: logger}
}

func (p *ReLaunch) Channel() bridge.Channel { return bridge.ChannelReLaunch }

func (p *ReLaunch) Handle(ctx context.Context, req bridge.Request, reply *bridge.Reply) {
	r, ok := bridge.As[*bridge.ReLaunchRequest](req, reply)
	if !ok {
		return
	}

	target, err := p.locator.Locate(r.URL)
	if err != nil {
		reply.Fail(fmt.Sprintf("reLaunch failed: %v", err))
		return
	}

	reply.Succeed(bridge.Data{})
	reply.Then(func() {
		if p.navigator == nil {
			return
		}
		if err := p.navigator.Navigate(ctx, target); err != nil {
			p.logger.Warn("Navigation failed",
				zap.String("url", target.URL),
				zap.Error(err))
		}
	})
}
