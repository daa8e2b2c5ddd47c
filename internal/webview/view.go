package webview

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webcontainer/internal/assets"
	"github.com/GriffinCanCode/webcontainer/internal/bridge"
	"github.com/GriffinCanCode/webcontainer/internal/providers"
	"github.com/GriffinCanCode/webcontainer/internal/providers/relaunch"
	"github.com/GriffinCanCode/webcontainer/internal/providers/sqlite"
)

var (
	ErrNoPage       = errors.New("no page loaded")
	ErrRemoteScript = errors.New("remote scripts are not loaded")
)

// View is one headless web content view with its own dispatch loop,
// plugins and database slot.
type View struct {
	cfg        Config
	logger     *zap.Logger
	locator    *relaunch.Locator
	registry   *bridge.Registry
	dispatcher *bridge.Dispatcher
	loop       *bridge.Loop
	slot       *sqlite.Slot
	prelude    []string

	// loop-owned
	vm         *goja.Runtime
	timers     map[int]*time.Timer
	nextTimer  int
	generation int

	mu      sync.Mutex
	ctx     context.Context
	url     string
	console []LogEntry
}

// New builds a view whose capabilities come from host
func New(host *providers.Host, cfg Config) (*View, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	infoScript, err := cfg.Info.Script()
	if err != nil {
		return nil, err
	}

	v := &View{
		cfg:     cfg,
		logger:  cfg.Logger,
		locator: relaunch.NewLocator(host.Root.Dir(), host.Bundle),
		loop:    bridge.NewLoop(cfg.Logger),
		slot:    sqlite.NewSlot(),
		prelude: []string{infoScript, assets.BridgeScript()},
		timers:  make(map[int]*time.Timer),
		ctx:     context.Background(),
	}

	reg, err := host.Registry(providers.Session{Slot: v.slot, Navigator: v})
	if err != nil {
		return nil, fmt.Errorf("build plugins: %w", err)
	}
	v.registry = reg
	v.dispatcher = bridge.NewDispatcher(reg, bridge.ScriptEmitter{Eval: v.evalEmission},
		bridge.WithLoop(v.loop),
		bridge.WithLogger(cfg.Logger),
		bridge.WithObserver(cfg.Observer))
	return v, nil
}

// Run drives the view until ctx is cancelled or Close is called. The
// database slot is closed on return.
func (v *View) Run(ctx context.Context) error {
	v.mu.Lock()
	v.ctx = ctx
	v.mu.Unlock()

	err := v.loop.Run(ctx)
	if shutdownErr := v.slot.Shutdown(); shutdownErr != nil {
		v.logger.Warn("Failed to close database", zap.Error(shutdownErr))
	}
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Close stops the view
func (v *View) Close() {
	v.loop.Close()
}

// Open loads the page at url (looked up in the web directory, then the
// bundle) and waits for its scripts to run
func (v *View) Open(ctx context.Context, url string) error {
	target, err := v.locator.Locate(url)
	if err != nil {
		return err
	}
	return v.do(ctx, func() error { return v.load(target) })
}

// Eval evaluates script in the current page and returns its exported value
func (v *View) Eval(ctx context.Context, script string) (interface{}, error) {
	var out interface{}
	err := v.do(ctx, func() error {
		if v.vm == nil {
			return ErrNoPage
		}
		val, err := v.run(v.vm, "eval", script)
		if err != nil {
			return err
		}
		out = exportValue(val)
		return nil
	})
	return out, err
}

// Navigate replaces the page. It runs on the dispatch loop after the
// reLaunch completion has been delivered.
func (v *View) Navigate(_ context.Context, target relaunch.Target) error {
	return v.load(target)
}

// URL returns the current page URL
func (v *View) URL() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.url
}

// Console returns console output of every page loaded so far
func (v *View) Console() []LogEntry {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]LogEntry{}, v.console...)
}

// Channels lists the capabilities this view exposes
func (v *View) Channels() []string {
	return v.registry.Names()
}

func (v *View) context() context.Context {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ctx
}

// do runs fn on the loop and waits for it
func (v *View) do(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	if !v.loop.Post(func() { done <- fn() }) {
		return bridge.ErrLoopClosed
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (v *View) evalEmission(script string) error {
	if v.vm == nil {
		return ErrNoPage
	}
	_, err := v.run(v.vm, "native", script)
	return err
}

// load swaps in a fresh runtime for target and runs its scripts. Script
// errors are reported to the console and do not stop later scripts.
func (v *View) load(target relaunch.Target) error {
	data, err := os.ReadFile(target.File)
	if err != nil {
		return fmt.Errorf("read page: %w", err)
	}

	v.stopTimers()
	v.mu.Lock()
	v.url = target.URL
	v.mu.Unlock()

	vm := v.newRuntime(target.URL)
	v.vm = vm
	for i, script := range v.prelude {
		if _, err := v.run(vm, fmt.Sprintf("prelude-%d.js", i), script); err != nil {
			return fmt.Errorf("prelude: %w", err)
		}
	}

	v.logger.Info("Loading page", zap.String("url", target.URL))

	if !isHTML(target.File) {
		if _, err := v.run(vm, filepath.Base(target.File), string(data)); err != nil {
			v.record("error", err.Error())
		}
		return nil
	}

	scripts, err := assets.Scripts(data)
	if err != nil {
		return err
	}
	for i, script := range scripts {
		name := fmt.Sprintf("%s#%d", filepath.Base(target.File), i)
		code := script.Code
		if script.Src != "" {
			name = script.Src
			if code, err = v.source(target.URL, script.Src); err != nil {
				v.record("error", err.Error())
				continue
			}
		}
		if _, err := v.run(vm, name, code); err != nil {
			v.record("error", err.Error())
		}
	}
	return nil
}

// source reads a script referenced from the page at pageURL
func (v *View) source(pageURL, src string) (string, error) {
	if strings.HasPrefix(src, "//") || strings.Contains(src, "://") {
		return "", fmt.Errorf("%w: %s", ErrRemoteScript, src)
	}
	ref := src
	if !strings.HasPrefix(ref, "/") {
		ref = path.Join(path.Dir(pathOf(pageURL)), ref)
	}
	target, err := v.locator.Locate(ref)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(target.File)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func isHTML(file string) bool {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".html", ".htm":
		return true
	}
	return false
}

var _ relaunch.Navigator = (*View)(nil)
