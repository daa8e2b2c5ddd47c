package bridge

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/GriffinCanCode/webcontainer/internal/sandbox"
)

// Request is the typed body of one capability call
type Request interface {
	Channel() Channel
	Validate() error
}

// Camera devices accepted by takePhoto
const (
	CameraFront = "front"
	CameraRear  = "rear"
)

// Image sources accepted by chooseImage
const (
	SourceAlbum   = "album"
	SourceCamera  = "camera"
	SourceLibrary = "library"
)

// ReLaunchRequest closes the current page and opens url
type ReLaunchRequest struct {
	URL string `json:"url"`
}

func (r *ReLaunchRequest) Channel() Channel { return ChannelReLaunch }

func (r *ReLaunchRequest) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("url is required")
	}
	return nil
}

// TakePhotoRequest captures a photo from the front or rear camera
type TakePhotoRequest struct {
	SourceType string `json:"sourceType"`
}

func (r *TakePhotoRequest) Channel() Channel { return ChannelTakePhoto }

func (r *TakePhotoRequest) Validate() error {
	switch r.SourceType {
	case CameraFront, CameraRear:
		return nil
	case "":
		return fmt.Errorf("sourceType is required")
	default:
		return fmt.Errorf("unsupported sourceType %q", r.SourceType)
	}
}

// ChooseImageRequest picks an image from the album, camera or library
type ChooseImageRequest struct {
	SourceType string `json:"sourceType"`
}

func (r *ChooseImageRequest) Channel() Channel { return ChannelChooseImage }

func (r *ChooseImageRequest) Validate() error {
	switch r.SourceType {
	case SourceAlbum, SourceCamera, SourceLibrary:
		return nil
	case "":
		return fmt.Errorf("sourceType is required")
	default:
		return fmt.Errorf("unsupported sourceType %q", r.SourceType)
	}
}

// ScanCodeRequest decodes a barcode from the camera or a picked image
type ScanCodeRequest struct {
	OnlyFromCamera bool `json:"onlyFromCamera,omitempty"`
}

func (r *ScanCodeRequest) Channel() Channel { return ChannelScanCode }

func (r *ScanCodeRequest) Validate() error { return nil }

// GetFileListRequest lists a sandbox directory. An empty path lists the root.
type GetFileListRequest struct {
	Path      string `json:"path,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
	Recursive bool   `json:"recursive,omitempty"`
}

func (r *GetFileListRequest) Channel() Channel { return ChannelGetFileList }

func (r *GetFileListRequest) Validate() error { return nil }

// RmFileRequest removes a file or directory tree
type RmFileRequest struct {
	Path string `json:"path,omitempty"`
}

func (r *RmFileRequest) Channel() Channel { return ChannelRmFile }

func (r *RmFileRequest) Validate() error {
	if sandbox.Rel(r.Path) == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

// UnzipRequest extracts an archive into a target directory
type UnzipRequest struct {
	ZipFilePath string `json:"zipFilePath"`
	TargetPath  string `json:"targetPath"`
}

func (r *UnzipRequest) Channel() Channel { return ChannelUnzip }

func (r *UnzipRequest) Validate() error {
	if sandbox.Rel(r.ZipFilePath) == "" || sandbox.Rel(r.TargetPath) == "" {
		return fmt.Errorf("zipFilePath and targetPath are required")
	}
	return nil
}

// DownloadFileRequest streams url into filePath
type DownloadFileRequest struct {
	URL      string `json:"url"`
	FilePath string `json:"filePath"`
}

func (r *DownloadFileRequest) Channel() Channel { return ChannelDownloadFile }

func (r *DownloadFileRequest) Validate() error {
	if err := validateURL(r.URL); err != nil {
		return err
	}
	if sandbox.Rel(r.FilePath) == "" {
		return fmt.Errorf("filePath is required")
	}
	return nil
}

// UploadFileRequest posts filePath as a multipart field called name
type UploadFileRequest struct {
	URL      string                 `json:"url"`
	FilePath string                 `json:"filePath"`
	Name     string                 `json:"name"`
	FormData map[string]interface{} `json:"formData,omitempty"`
}

func (r *UploadFileRequest) Channel() Channel { return ChannelUploadFile }

func (r *UploadFileRequest) Validate() error {
	if err := validateURL(r.URL); err != nil {
		return err
	}
	if sandbox.Rel(r.FilePath) == "" {
		return fmt.Errorf("filePath is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// OpenSqliteRequest opens the session's database at file
type OpenSqliteRequest struct {
	File string `json:"file"`
}

func (r *OpenSqliteRequest) Channel() Channel { return ChannelOpenSqlite }

func (r *OpenSqliteRequest) Validate() error {
	if sandbox.Rel(r.File) == "" {
		return fmt.Errorf("file is required")
	}
	return nil
}

// CloseSqliteRequest closes the session's database
type CloseSqliteRequest struct{}

func (r *CloseSqliteRequest) Channel() Channel { return ChannelCloseSqlite }

func (r *CloseSqliteRequest) Validate() error { return nil }

// ExecuteUpdateRequest runs a statement that returns no rows
type ExecuteUpdateRequest struct {
	SQL string `json:"sql"`
}

func (r *ExecuteUpdateRequest) Channel() Channel { return ChannelExecuteUpdate }

func (r *ExecuteUpdateRequest) Validate() error {
	if strings.TrimSpace(r.SQL) == "" {
		return fmt.Errorf("sql is required")
	}
	return nil
}

// ExecuteQueryRequest runs a query and returns its rows
type ExecuteQueryRequest struct {
	SQL string `json:"sql"`
}

func (r *ExecuteQueryRequest) Channel() Channel { return ChannelExecuteQuery }

func (r *ExecuteQueryRequest) Validate() error {
	if strings.TrimSpace(r.SQL) == "" {
		return fmt.Errorf("sql is required")
	}
	return nil
}

// NewRequest returns an empty request value for ch
func NewRequest(ch Channel) (Request, error) {
	switch ch {
	case ChannelReLaunch:
		return &ReLaunchRequest{}, nil
	case ChannelTakePhoto:
		return &TakePhotoRequest{}, nil
	case ChannelChooseImage:
		return &ChooseImageRequest{}, nil
	case ChannelScanCode:
		return &ScanCodeRequest{}, nil
	case ChannelGetFileList:
		return &GetFileListRequest{}, nil
	case ChannelRmFile:
		return &RmFileRequest{}, nil
	case ChannelUnzip:
		return &UnzipRequest{}, nil
	case ChannelDownloadFile:
		return &DownloadFileRequest{}, nil
	case ChannelUploadFile:
		return &UploadFileRequest{}, nil
	case ChannelOpenSqlite:
		return &OpenSqliteRequest{}, nil
	case ChannelCloseSqlite:
		return &CloseSqliteRequest{}, nil
	case ChannelExecuteUpdate:
		return &ExecuteUpdateRequest{}, nil
	case ChannelExecuteQuery:
		return &ExecuteQueryRequest{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, ch)
	}
}

// DecodeRequest decodes and validates body as the request type of ch
func DecodeRequest(ch Channel, body []byte) (Request, error) {
	req, err := NewRequest(ch)
	if err != nil {
		return nil, err
	}
	if err := Unmarshal(body, req); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %v", ch, err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// As narrows req to the concrete request type a plugin expects. On a
// mismatch the reply is failed and ok is false.
func As[R Request](req Request, reply *Reply) (R, bool) {
	typed, ok := req.(R)
	if !ok {
		reply.Fail(fmt.Sprintf("unexpected request type %T", req))
	}
	return typed, ok
}

func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url: missing host")
	}
	return nil
}
