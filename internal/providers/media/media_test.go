package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/webcontainer/internal/bridge"
	"github.com/GriffinCanCode/webcontainer/internal/bridge/bridgetest"
)

type mockCapturer struct {
	mock.Mock
}

func (m *mockCapturer) Capture(ctx context.Context, camera string) ([]byte, error) {
	args := m.Called(ctx, camera)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

type mockPicker struct {
	mock.Mock
}

func (m *mockPicker) Pick(ctx context.Context, source string) ([]byte, error) {
	args := m.Called(ctx, source)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func fixedStore(dir string) *Store {
	s := NewStore(dir)
	s.now = func() time.Time { return time.Unix(1700000000, 42) }
	return s
}

func TestTakePhotoSavesJPEG(t *testing.T) {
	dir := t.TempDir()
	capturer := &mockCapturer{}
	capturer.On("Capture", mock.Anything, bridge.CameraFront).Return(pngBytes(t), nil)

	rec, _ := bridgetest.Invoke(context.Background(), NewTakePhoto(capturer, fixedStore(dir), nil), "_p1",
		&bridge.TakePhotoRequest{SourceType: bridge.CameraFront})

	done := rec.WaitDone(t, "_p1", time.Second)
	require.True(t, done.Success, "takePhoto failed: %v", done.Data)

	want := filepath.Join(dir, "1700000000000000042.jpg")
	assert.Equal(t, FileURL(want), done.Data["tempImagePath"])
	assert.True(t, strings.HasPrefix(done.Data["tempImagePath"].(string), "file://"))

	mtype, err := mimetype.DetectFile(want)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mtype.String())
	capturer.AssertExpectations(t)
}

func TestTakePhotoFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unavailable", ErrUnavailable, "unsupported camera rear"},
		{"cancelled", ErrCancelled, "takePhoto cancelled"},
		{"capture error", errors.New("sensor busy"), "takePhoto failed: sensor busy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capturer := &mockCapturer{}
			capturer.On("Capture", mock.Anything, bridge.CameraRear).Return(nil, tt.err)

			rec, _ := bridgetest.Invoke(context.Background(), NewTakePhoto(capturer, NewStore(t.TempDir()), nil), "_p2",
				&bridge.TakePhotoRequest{SourceType: bridge.CameraRear})

			done := rec.WaitDone(t, "_p2", time.Second)
			assert.False(t, done.Success)
			assert.Equal(t, tt.want, done.Data["message"])
		})
	}
}

func TestTakePhotoWithoutCamera(t *testing.T) {
	rec, _ := bridgetest.Invoke(context.Background(), NewTakePhoto(nil, NewStore(t.TempDir()), nil), "_p3",
		&bridge.TakePhotoRequest{SourceType: bridge.CameraFront})

	done := rec.WaitDone(t, "_p3", time.Second)
	assert.False(t, done.Success)
	assert.Equal(t, "unsupported camera front", done.Data["message"])
}

func TestChooseImage(t *testing.T) {
	dir := t.TempDir()
	picker := &mockPicker{}
	picker.On("Pick", mock.Anything, bridge.SourceAlbum).Return(pngBytes(t), nil)
	picker.On("Pick", mock.Anything, bridge.SourceCamera).Return([]byte("plain text"), nil)

	rec, _ := bridgetest.Invoke(context.Background(), NewChooseImage(picker, NewStore(dir), nil), "_c1",
		&bridge.ChooseImageRequest{SourceType: bridge.SourceAlbum})
	done := rec.WaitDone(t, "_c1", time.Second)
	require.True(t, done.Success, "chooseImage failed: %v", done.Data)
	assert.Contains(t, done.Data["tempImagePath"], ".jpg")

	rec, _ = bridgetest.Invoke(context.Background(), NewChooseImage(picker, NewStore(dir), nil), "_c2",
		&bridge.ChooseImageRequest{SourceType: bridge.SourceCamera})
	done = rec.WaitDone(t, "_c2", time.Second)
	assert.False(t, done.Success)
	assert.Contains(t, done.Data["message"], "unsupported image type text/plain")
}

func TestLibraryReturnsNewestImage(t *testing.T) {
	dir := t.TempDir()
	older := filepath.Join(dir, "older.png")
	newer := filepath.Join(dir, "newer.png")
	require.NoError(t, os.WriteFile(older, pngBytes(t), 0644))
	require.NoError(t, os.WriteFile(newer, pngBytes(t), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not an image"), 0644))

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	lib := NewLibrary(dir)
	images, err := lib.Images()
	require.NoError(t, err)
	assert.Equal(t, []string{newer, older}, images)

	data, err := lib.Pick(context.Background(), bridge.SourceLibrary)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimetype.Detect(data).String())
}

func TestLibraryUnavailable(t *testing.T) {
	_, err := NewLibrary(filepath.Join(t.TempDir(), "missing")).Capture(context.Background(), bridge.CameraRear)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = NewLibrary(t.TempDir()).Pick(context.Background(), bridge.SourceAlbum)
	assert.ErrorIs(t, err, ErrUnavailable)
}
