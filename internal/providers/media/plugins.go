package media

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webcontainer/internal/bridge"
)

// TakePhoto implements takePhoto
type TakePhoto struct {
	capturer Capturer
	store    *Store
	logger   *zap.Logger
}

// NewTakePhoto creates the takePhoto plugin. A nil capturer reports every
// camera as unavailable.
func NewTakePhoto(capturer Capturer, store *Store, logger *zap.Logger) *TakePhoto {
	if capturer == nil {
		capturer = Unavailable{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TakePhoto{capturer: capturer, store: store, logger: logger}
}

func (p *TakePhoto) Channel() bridge.Channel { return bridge.ChannelTakePhoto }

func (p *TakePhoto) Handle(ctx context.Context, req bridge.Request, reply *bridge.Reply) {
	r, ok := bridge.As[*bridge.TakePhotoRequest](req, reply)
	if !ok {
		return
	}

	quality := QualityRear
	if r.SourceType == bridge.CameraFront {
		quality = QualityFront
	}

	go func() {
		data, err := p.capturer.Capture(ctx, r.SourceType)
		if err != nil {
			reply.Fail(failure("takePhoto", "camera", r.SourceType, err))
			return
		}
		deliver(p.store, p.logger, reply, data, quality)
	}()
}

// ChooseImage implements chooseImage
type ChooseImage struct {
	picker Picker
	store  *Store
	logger *zap.Logger
}

// NewChooseImage creates the chooseImage plugin. A nil picker reports every
// source as unavailable.
func NewChooseImage(picker Picker, store *Store, logger *zap.Logger) *ChooseImage {
	if picker == nil {
		picker = Unavailable{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChooseImage{picker: picker, store: store, logger: logger}
}

func (p *ChooseImage) Channel() bridge.Channel { return bridge.ChannelChooseImage }

func (p *ChooseImage) Handle(ctx context.Context, req bridge.Request, reply *bridge.Reply) {
	r, ok := bridge.As[*bridge.ChooseImageRequest](req, reply)
	if !ok {
		return
	}

	go func() {
		data, err := p.picker.Pick(ctx, r.SourceType)
		if err != nil {
			reply.Fail(failure("chooseImage", "source", r.SourceType, err))
			return
		}
		deliver(p.store, p.logger, reply, data, QualityChoose)
	}()
}

func deliver(store *Store, logger *zap.Logger, reply *bridge.Reply, data []byte, quality int) {
	path, err := store.Save(data, quality)
	if err != nil {
		logger.Warn("Saving image failed",
			zap.String("channel", reply.Channel().String()),
			zap.String("event_id", reply.EventID()),
			zap.Error(err))
		reply.Fail(fmt.Sprintf("%s failed: %v", reply.Channel(), err))
		return
	}
	reply.Succeed(bridge.Data{"tempImagePath": FileURL(path)})
}

func failure(op, kind, name string, err error) string {
	switch {
	case errors.Is(err, ErrUnavailable):
		return fmt.Sprintf("unsupported %s %s", kind, name)
	case errors.Is(err, ErrCancelled):
		return op + " cancelled"
	default:
		return fmt.Sprintf("%s failed: %v", op, err)
	}
}
