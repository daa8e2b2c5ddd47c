// Package providers assembles the capability plugins for a view session.
//
// Host-wide collaborators (sandbox, media, decoder, extractor, transfer
// client) are shared by every session. The database slot and the navigator
// belong to one view, so a fresh plugin set is built per session.
//
// Example Usage:
//
//	host := providers.Host{Root: root, Bundle: bundleDir, Logger: logger}
//	reg, err := host.Registry(providers.Session{Slot: sqlite.NewSlot(), Navigator: nav})
package providers

import (
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webcontainer/internal/bridge"
	"github.com/GriffinCanCode/webcontainer/internal/providers/archive"
	"github.com/GriffinCanCode/webcontainer/internal/providers/files"
	"github.com/GriffinCanCode/webcontainer/internal/providers/media"
	"github.com/GriffinCanCode/webcontainer/internal/providers/relaunch"
	"github.com/GriffinCanCode/webcontainer/internal/providers/scan"
	"github.com/GriffinCanCode/webcontainer/internal/providers/sqlite"
	"github.com/GriffinCanCode/webcontainer/internal/providers/transfer"
	"github.com/GriffinCanCode/webcontainer/internal/sandbox"
)

// Host holds the collaborators shared by every session. Nil collaborators
// get defaults: media and scanning report unavailable, extraction and
// transfer use the built-in implementations.
type Host struct {
	Root       *sandbox.Root
	Bundle     string
	Capturer   media.Capturer
	Picker     media.Picker
	Decoder    scan.Decoder
	Extractor  archive.Extractor
	Transferer transfer.Transferer
	Logger     *zap.Logger

	defaults sync.Once
}

// Session holds what belongs to a single view
type Session struct {
	Slot      *sqlite.Slot
	Navigator relaunch.Navigator
}

// Plugins builds one plugin per channel, in channel order
func (h *Host) Plugins(s Session) []bridge.Plugin {
	h.defaults.Do(func() {
		if h.Logger == nil {
			h.Logger = zap.NewNop()
		}
		if h.Transferer == nil {
			h.Transferer = transfer.NewClient(transfer.DefaultConfig(), h.Logger.Named("transfer"))
		}
	})
	logger := h.Logger

	slot := s.Slot
	if slot == nil {
		slot = sqlite.NewSlot()
	}

	store := media.NewStore(h.Root.Temp())
	locator := relaunch.NewLocator(h.Root.Dir(), h.Bundle)

	plugins := []bridge.Plugin{
		relaunch.New(locator, s.Navigator, logger),
		media.NewTakePhoto(h.Capturer, store, logger),
		media.NewChooseImage(h.Picker, store, logger),
		scan.New(h.Capturer, h.Picker, h.Decoder, logger),
		files.NewList(h.Root, logger),
		files.NewRemove(h.Root, logger),
		archive.NewUnzip(h.Root, h.Extractor, logger),
		transfer.NewDownload(h.Root, h.Transferer, logger),
		transfer.NewUpload(h.Root, h.Transferer, logger),
	}
	return append(plugins, sqlite.Plugins(h.Root, slot, logger)...)
}

// Registry registers the session's plugins into a new registry
func (h *Host) Registry(s Session) (*bridge.Registry, error) {
	plugins := h.Plugins(s)
	reg := bridge.NewRegistry(h.Logger)
	if err := reg.RegisterAll(plugins...); err != nil {
		return nil, err
	}
	return reg, nil
}
