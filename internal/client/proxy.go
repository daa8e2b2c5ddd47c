package client

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/webcontainer/internal/bridge"
)

// Poster carries a request body across the message boundary
type Poster interface {
	Post(ctx context.Context, ch bridge.Channel, body []byte) error
}

// PosterFunc adapts a function to Poster
type PosterFunc func(ctx context.Context, ch bridge.Channel, body []byte) error

func (f PosterFunc) Post(ctx context.Context, ch bridge.Channel, body []byte) error {
	return f(ctx, ch, body)
}

// Proxy exposes one method per host capability
type Proxy struct {
	table  *Table
	poster Poster
	newID  func() string
}

// NewProxy creates a proxy that records requests in table and sends them
// through poster.
func NewProxy(table *Table, poster Poster) *Proxy {
	return &Proxy{table: table, poster: poster, newID: NewEventID}
}

// Table returns the correlation table
func (p *Proxy) Table() *Table { return p.table }

// Invoke registers cb under a new event id and posts req. If posting fails
// the entry is discarded and no callback will run.
func (p *Proxy) Invoke(ctx context.Context, req bridge.Request, cb Callbacks) (string, error) {
	id := p.newID()
	if err := p.send(ctx, id, req, cb); err != nil {
		return "", err
	}
	return id, nil
}

// Call posts req and returns a handle on its progress and result
func (p *Proxy) Call(ctx context.Context, req bridge.Request) (*Call, error) {
	call := newCall(p.newID(), req.Channel())
	if err := p.send(ctx, call.id, req, call.callbacks()); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *Proxy) send(ctx context.Context, id string, req bridge.Request, cb Callbacks) error {
	body, err := encodeBody(req, id)
	if err != nil {
		return err
	}
	if err := p.table.Register(id, cb); err != nil {
		return err
	}
	if err := p.poster.Post(ctx, req.Channel(), body); err != nil {
		p.table.discard(id)
		return fmt.Errorf("post %s: %w", req.Channel(), err)
	}
	return nil
}

func (p *Proxy) ReLaunch(ctx context.Context, url string) (*Call, error) {
	return p.Call(ctx, &bridge.ReLaunchRequest{URL: url})
}

func (p *Proxy) TakePhoto(ctx context.Context, sourceType string) (*Call, error) {
	return p.Call(ctx, &bridge.TakePhotoRequest{SourceType: sourceType})
}

func (p *Proxy) ChooseImage(ctx context.Context, sourceType string) (*Call, error) {
	return p.Call(ctx, &bridge.ChooseImageRequest{SourceType: sourceType})
}

func (p *Proxy) ScanCode(ctx context.Context, onlyFromCamera bool) (*Call, error) {
	return p.Call(ctx, &bridge.ScanCodeRequest{OnlyFromCamera: onlyFromCamera})
}

func (p *Proxy) GetFileList(ctx context.Context, path string) (*Call, error) {
	return p.Call(ctx, &bridge.GetFileListRequest{Path: path})
}

func (p *Proxy) RmFile(ctx context.Context, path string) (*Call, error) {
	return p.Call(ctx, &bridge.RmFileRequest{Path: path})
}

func (p *Proxy) Unzip(ctx context.Context, zipFilePath, targetPath string) (*Call, error) {
	return p.Call(ctx, &bridge.UnzipRequest{ZipFilePath: zipFilePath, TargetPath: targetPath})
}

func (p *Proxy) DownloadFile(ctx context.Context, url, filePath string) (*Call, error) {
	return p.Call(ctx, &bridge.DownloadFileRequest{URL: url, FilePath: filePath})
}

func (p *Proxy) UploadFile(ctx context.Context, url, filePath, name string, formData map[string]interface{}) (*Call, error) {
	return p.Call(ctx, &bridge.UploadFileRequest{URL: url, FilePath: filePath, Name: name, FormData: formData})
}

func (p *Proxy) OpenSqlite(ctx context.Context, file string) (*Call, error) {
	return p.Call(ctx, &bridge.OpenSqliteRequest{File: file})
}

func (p *Proxy) CloseSqlite(ctx context.Context) (*Call, error) {
	return p.Call(ctx, &bridge.CloseSqliteRequest{})
}

func (p *Proxy) ExecuteUpdate(ctx context.Context, sql string) (*Call, error) {
	return p.Call(ctx, &bridge.ExecuteUpdateRequest{SQL: sql})
}

func (p *Proxy) ExecuteQuery(ctx context.Context, sql string) (*Call, error) {
	return p.Call(ctx, &bridge.ExecuteQueryRequest{SQL: sql})
}

// encodeBody renders req as a JSON object with eventId added
func encodeBody(req bridge.Request, eventID string) ([]byte, error) {
	raw, err := bridge.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", req.Channel(), err)
	}
	fields := map[string]interface{}{}
	if err := bridge.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("encode %s request: %w", req.Channel(), err)
	}
	fields["eventId"] = eventID
	return bridge.Marshal(fields)
}
