package sqlite

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webcontainer/internal/bridge"
	"github.com/GriffinCanCode/webcontainer/internal/sandbox"
)

// Plugins returns the four database capabilities sharing slot
func Plugins(root *sandbox.Root, slot *Slot, logger *zap.Logger) []bridge.Plugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handlers{root: root, slot: slot, logger: logger}
	return []bridge.Plugin{
		bridge.NewPlugin(bridge.ChannelOpenSqlite, h.open),
		bridge.NewPlugin(bridge.ChannelCloseSqlite, h.close),
		bridge.NewPlugin(bridge.ChannelExecuteUpdate, h.update),
		bridge.NewPlugin(bridge.ChannelExecuteQuery, h.query),
	}
}

type handlers struct {
	root   *sandbox.Root
	slot   *Slot
	logger *zap.Logger
}

func (h *handlers) open(ctx context.Context, req bridge.Request, reply *bridge.Reply) {
	r, ok := bridge.As[*bridge.OpenSqliteRequest](req, reply)
	if !ok {
		return
	}

	path, err := h.root.Resolve(r.File)
	if err != nil {
		reply.Fail(fmt.Sprintf("openSqlite failed: %v", err))
		return
	}

	if err := h.slot.Open(ctx, path); err != nil {
		h.fail(reply, "openSqlite", err)
		return
	}
	h.logger.Info("Database opened", zap.String("file", h.root.Display(path)))
	reply.Succeed(bridge.Message("open success"))
}

func (h *handlers) close(_ context.Context, req bridge.Request, reply *bridge.Reply) {
	if _, ok := bridge.As[*bridge.CloseSqliteRequest](req, reply); !ok {
		return
	}
	if err := h.slot.Close(); err != nil {
		h.fail(reply, "closeSqlite", err)
		return
	}
	reply.Succeed(bridge.Message("close success"))
}

func (h *handlers) update(ctx context.Context, req bridge.Request, reply *bridge.Reply) {
	r, ok := bridge.As[*bridge.ExecuteUpdateRequest](req, reply)
	if !ok {
		return
	}
	n, err := h.slot.Exec(ctx, r.SQL)
	if err != nil {
		h.fail(reply, "executeUpdate", err)
		return
	}
	reply.Succeed(bridge.Data{"message": "update success", "rowsAffected": n})
}

func (h *handlers) query(ctx context.Context, req bridge.Request, reply *bridge.Reply) {
	r, ok := bridge.As[*bridge.ExecuteQueryRequest](req, reply)
	if !ok {
		return
	}
	rows, err := h.slot.Query(ctx, r.SQL)
	if err != nil {
		h.fail(reply, "executeQuery", err)
		return
	}
	reply.Succeed(bridge.Data{"message": "query success", "results": rows})
}

// fail reports slot state errors verbatim and wraps everything else
func (h *handlers) fail(reply *bridge.Reply, op string, err error) {
	if errors.Is(err, ErrAlreadyOpen) || errors.Is(err, ErrNotOpen) {
		reply.Fail(err.Error())
		return
	}
	h.logger.Warn("Database operation failed",
		zap.String("op", op),
		zap.String("event_id", reply.EventID()),
		zap.Error(err))
	reply.Fail(fmt.Sprintf("%s failed: %v", op, err))
}
