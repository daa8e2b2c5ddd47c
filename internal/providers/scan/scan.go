// Package scan implements the scanCode capability.
package scan

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webcontainer/internal/bridge"
	"github.com/GriffinCanCode/webcontainer/internal/providers/media"
)

// ErrNoCode is returned when an image holds no readable code
var ErrNoCode = errors.New("no code found")

// Decoder extracts the text of a QR code or barcode from an encoded image
type Decoder interface {
	Decode(ctx context.Context, image []byte) (string, error)
}

// DecoderFunc adapts a function to Decoder
type DecoderFunc func(ctx context.Context, image []byte) (string, error)

func (f DecoderFunc) Decode(ctx context.Context, image []byte) (string, error) {
	return f(ctx, image)
}

// NoDecoder fails every decode. Hosts install a real decoder.
type NoDecoder struct{}

func (NoDecoder) Decode(context.Context, []byte) (string, error) {
	return "", errors.New("no barcode decoder installed")
}

// Scan implements scanCode. With onlyFromCamera the rear camera is used,
// otherwise the library picker. Dismissing the picker or camera leaves the
// request unsettled.
type Scan struct {
	capturer media.Capturer
	picker   media.Picker
	decoder  Decoder
	logger   *zap.Logger
}

// New creates the scanCode plugin. Nil collaborators fall back to
// media.Unavailable and NoDecoder.
func New(capturer media.Capturer, picker media.Picker, decoder Decoder, logger *zap.Logger) *Scan {
	if capturer == nil {
		capturer = media.Unavailable{}
	}
	if picker == nil {
		picker = media.Unavailable{}
	}
	if decoder == nil {
		decoder = NoDecoder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scan{capturer: capturer, picker: picker, decoder: decoder, logger: logger}
}

func (s *Scan) Channel() bridge.Channel { return bridge.ChannelScanCode }

func (s *Scan) Handle(ctx context.Context, req bridge.Request, reply *bridge.Reply) {
	r, ok := bridge.As[*bridge.ScanCodeRequest](req, reply)
	if !ok {
		return
	}

	go func() {
		var (
			data []byte
			err  error
		)
		if r.OnlyFromCamera {
			data, err = s.capturer.Capture(ctx, bridge.CameraRear)
		} else {
			data, err = s.picker.Pick(ctx, bridge.SourceLibrary)
		}
		switch {
		case errors.Is(err, media.ErrCancelled):
			s.logger.Debug("Scan cancelled", zap.String("event_id", reply.EventID()))
			return
		case errors.Is(err, media.ErrUnavailable):
			reply.Fail("scanner unavailable")
			return
		case err != nil:
			reply.Fail(fmt.Sprintf("scanCode failed: %v", err))
			return
		}

		text, err := s.decoder.Decode(ctx, data)
		if err != nil {
			s.logger.Debug("Decode failed",
				zap.String("event_id", reply.EventID()),
				zap.Error(err))
			reply.Fail(fmt.Sprintf("scanCode failed: %v", err))
			return
		}
		reply.Succeed(bridge.Data{"result": text})
	}()
}
