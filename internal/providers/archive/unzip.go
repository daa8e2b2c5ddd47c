// Package archive implements the unzip capability.
package archive

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webcontainer/internal/bridge"
	"github.com/GriffinCanCode/webcontainer/internal/sandbox"
)

// Unzip extracts an archive inside the sandbox, reporting progress, and
// always emits a final progress of 1 before succeeding.
type Unzip struct {
	root      *sandbox.Root
	extractor Extractor
	logger    *zap.Logger
}

// NewUnzip creates the unzip plugin
func NewUnzip(root *sandbox.Root, extractor Extractor, logger *zap.Logger) *Unzip {
	if logger == nil {
		logger = zap.NewNop()
	}
	if extractor == nil {
		extractor = NewExtractor(logger)
	}
	return &Unzip{root: root, extractor: extractor, logger: logger}
}

func (u *Unzip) Channel() bridge.Channel { return bridge.ChannelUnzip }

func (u *Unzip) Handle(ctx context.Context, req bridge.Request, reply *bridge.Reply) {
	r, ok := bridge.As[*bridge.UnzipRequest](req, reply)
	if !ok {
		return
	}

	src, err := u.root.Resolve(r.ZipFilePath)
	if err != nil {
		reply.Fail(fmt.Sprintf("unzip failed: %v", err))
		return
	}
	dst, err := u.root.Resolve(r.TargetPath)
	if err != nil {
		reply.Fail(fmt.Sprintf("unzip failed: %v", err))
		return
	}

	go func() {
		last := 0.0
		report := func(fraction float64) {
			last = fraction
			reply.Progress(fraction)
		}
		if err := u.extractor.Extract(ctx, src, dst, report); err != nil {
			u.logger.Warn("Extraction failed",
				zap.String("archive", src),
				zap.String("event_id", reply.EventID()),
				zap.Error(err))
			reply.Fail(fmt.Sprintf("unzip failed: %v", err))
			return
		}
		if last < 1 {
			reply.Progress(1)
		}
		reply.Succeed(bridge.Message("unzip success"))
	}()
}
