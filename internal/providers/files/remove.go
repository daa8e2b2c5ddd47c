package files

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webcontainer/internal/bridge"
	"github.com/GriffinCanCode/webcontainer/internal/sandbox"
)

// Remove implements rmFile. Removing a path that does not exist succeeds.
type Remove struct {
	root   *sandbox.Root
	logger *zap.Logger
}

// NewRemove creates the rmFile plugin
func NewRemove(root *sandbox.Root, logger *zap.Logger) *Remove {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Remove{root: root, logger: logger}
}

func (r *Remove) Channel() bridge.Channel { return bridge.ChannelRmFile }

func (r *Remove) Handle(_ context.Context, req bridge.Request, reply *bridge.Reply) {
	rm, ok := bridge.As[*bridge.RmFileRequest](req, reply)
	if !ok {
		return
	}

	full, err := r.root.Resolve(rm.Path)
	if err != nil {
		reply.Fail(fmt.Sprintf("rmFile failed: %v", err))
		return
	}

	if err := os.RemoveAll(full); err != nil {
		r.logger.Warn("Remove failed", zap.String("path", full), zap.Error(err))
		reply.Fail(fmt.Sprintf("rmFile failed: %v", err))
		return
	}

	reply.Succeed(bridge.Message("rm success"))
}
