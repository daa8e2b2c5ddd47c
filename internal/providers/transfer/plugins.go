// Package transfer implements the downloadFile and uploadFile capabilities.
package transfer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webcontainer/internal/bridge"
	"github.com/GriffinCanCode/webcontainer/internal/sandbox"
)

// Download implements downloadFile
type Download struct {
	root       *sandbox.Root
	transferer Transferer
	logger     *zap.Logger
}

// NewDownload creates the downloadFile plugin
func NewDownload(root *sandbox.Root, t Transferer, logger *zap.Logger) *Download {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Download{root: root, transferer: t, logger: logger}
}

func (d *Download) Channel() bridge.Channel { return bridge.ChannelDownloadFile }

func (d *Download) Handle(ctx context.Context, req bridge.Request, reply *bridge.Reply) {
	r, ok := bridge.As[*bridge.DownloadFileRequest](req, reply)
	if !ok {
		return
	}

	dest, err := d.root.Resolve(r.FilePath)
	if err != nil {
		reply.Fail(fmt.Sprintf("downloadFile failed: %v", err))
		return
	}

	go func() {
		progress := &lastProgress{reply: reply}
		if err := d.transferer.Download(ctx, r.URL, dest, progress.report); err != nil {
			d.logger.Warn("Download failed",
				zap.String("url", r.URL),
				zap.String("event_id", reply.EventID()),
				zap.Error(err))
			reply.Fail(fmt.Sprintf("downloadFile failed: %v", err))
			return
		}
		progress.finish()
		reply.Succeed(bridge.Message("download success"))
	}()
}

// Upload implements uploadFile
type Upload struct {
	root       *sandbox.Root
	transferer Transferer
	logger     *zap.Logger
}

// NewUpload creates the uploadFile plugin
func NewUpload(root *sandbox.Root, t Transferer, logger *zap.Logger) *Upload {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Upload{root: root, transferer: t, logger: logger}
}

func (u *Upload) Channel() bridge.Channel { return bridge.ChannelUploadFile }

func (u *Upload) Handle(ctx context.Context, req bridge.Request, reply *bridge.Reply) {
	r, ok := bridge.As[*bridge.UploadFileRequest](req, reply)
	if !ok {
		return
	}

	src, err := u.root.Resolve(r.FilePath)
	if err != nil {
		reply.Fail(fmt.Sprintf("uploadFile failed: %v", err))
		return
	}

	form := make(map[string]string, len(r.FormData))
	for k, v := range r.FormData {
		if s, ok := v.(string); ok {
			form[k] = s
			continue
		}
		form[k] = fmt.Sprint(v)
	}

	go func() {
		progress := &lastProgress{reply: reply}
		result, err := u.transferer.Upload(ctx, r.URL, src, r.Name, form, progress.report)
		if err != nil {
			u.logger.Warn("Upload failed",
				zap.String("url", r.URL),
				zap.String("event_id", reply.EventID()),
				zap.Error(err))
			reply.Fail(fmt.Sprintf("uploadFile failed: %v", err))
			return
		}
		progress.finish()
		reply.Succeed(bridge.Data{
			"message":    "upload success",
			"statusCode": result.StatusCode,
			"data":       result.Body,
		})
	}()
}

// lastProgress forwards progress and remembers the last fraction so a final
// 1 is sent exactly once.
type lastProgress struct {
	reply *bridge.Reply
	last  float64
}

func (p *lastProgress) report(fraction float64) {
	p.last = fraction
	p.reply.Progress(fraction)
}

func (p *lastProgress) finish() {
	if p.last < 1 {
		p.reply.Progress(1)
	}
}
