package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/webcontainer/internal/infrastructure/resilience"
)

// ProgressFunc receives the transferred fraction in [0, 1]
type ProgressFunc func(fraction float64)

// UploadResult is the server's answer to an upload
type UploadResult struct {
	StatusCode int
	Body       string
}

// Transferer moves files between the sandbox and remote HTTP servers
type Transferer interface {
	Download(ctx context.Context, rawURL, dest string, progress ProgressFunc) error
	Upload(ctx context.Context, rawURL, src, field string, form map[string]string, progress ProgressFunc) (*UploadResult, error)
}

// Config tunes the transfer client
type Config struct {
	Timeout           time.Duration
	Retries           int
	RequestsPerSecond float64
	UserAgent         string
}

// DefaultConfig returns the client defaults
func DefaultConfig() Config {
	return Config{
		Timeout:   5 * time.Minute,
		Retries:   3,
		UserAgent: "webcontainer-bridge/1.0",
	}
}

// Client is the default Transferer. Downloads go through a retrying
// transport; uploads are sent once since their bodies are streamed. Every
// transfer waits on a shared rate limiter and a per-host circuit breaker.
type Client struct {
	downloads *resty.Client
	uploads   *resty.Client
	limiter   *rate.Limiter
	breakers  *resilience.Group
	logger    *zap.Logger
}

// NewClient builds a transfer client from cfg
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.Retries
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil

	downloads := resty.New().
		SetTransport(&retryablehttp.RoundTripper{Client: retryClient}).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent)

	uploads := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent)

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	breakers := resilience.NewGroup(resilience.Settings{
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5 ||
				(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.7)
		},
		OnStateChange: func(host string, from, to resilience.State) {
			logger.Warn("Transfer breaker changed state",
				zap.String("host", host),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{
		downloads: downloads,
		uploads:   uploads,
		limiter:   limiter,
		breakers:  breakers,
		logger:    logger,
	}
}

// Breakers exposes the per-host breakers
func (c *Client) Breakers() *resilience.Group {
	return c.breakers
}

// Download streams rawURL into dest through a temporary file in the same
// directory, renaming it into place on success.
func (c *Client) Download(ctx context.Context, rawURL, dest string, progress ProgressFunc) error {
	host, err := c.admit(ctx, rawURL)
	if err != nil {
		return err
	}
	if progress == nil {
		progress = func(float64) {}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	return c.breakers.Do(host, func() error {
		resp, err := c.downloads.R().
			SetContext(ctx).
			SetDoNotParseResponse(true).
			Get(rawURL)
		if err != nil {
			return err
		}
		body := resp.RawBody()
		defer body.Close()

		if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
			return fmt.Errorf("HTTP %d", resp.StatusCode())
		}

		tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
		if err != nil {
			return fmt.Errorf("create temp file: %w", err)
		}
		tmpName := tmp.Name()

		w := &progressWriter{w: tmp, tracker: tracker{total: resp.RawResponse.ContentLength, report: progress}}
		if _, err := io.Copy(w, body); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return err
		}
		if err := tmp.Close(); err != nil {
			os.Remove(tmpName)
			return err
		}
		if err := os.Rename(tmpName, dest); err != nil {
			os.Remove(tmpName)
			return fmt.Errorf("move into place: %w", err)
		}

		c.logger.Debug("Downloaded file",
			zap.String("url", rawURL),
			zap.String("dest", dest),
			zap.Int64("bytes", w.done))
		return nil
	})
}

// Upload posts src as multipart field `field` along with form values
func (c *Client) Upload(ctx context.Context, rawURL, src, field string, form map[string]string, progress ProgressFunc) (*UploadResult, error) {
	host, err := c.admit(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		progress = func(float64) {}
	}

	file, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("%s is a directory", filepath.Base(src))
	}

	var result *UploadResult
	err = c.breakers.Do(host, func() error {
		reader := &progressReader{r: file, tracker: tracker{total: stat.Size(), report: progress}}
		resp, err := c.uploads.R().
			SetContext(ctx).
			SetMultipartField(field, filepath.Base(src), "application/octet-stream", reader).
			SetFormData(form).
			Post(rawURL)
		if err != nil {
			return err
		}
		if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
			return fmt.Errorf("HTTP %d", resp.StatusCode())
		}
		result = &UploadResult{StatusCode: resp.StatusCode(), Body: resp.String()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) admit(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if u.Host == "" {
		return "", errors.New("invalid url: missing host")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	return u.Host, nil
}

// tracker turns byte counts into progress fractions, reporting at most once
// per percent and always reporting completion.
type tracker struct {
	total  int64
	done   int64
	last   float64
	report ProgressFunc
}

func (t *tracker) add(n int) {
	t.done += int64(n)
	if t.total <= 0 {
		return
	}
	fraction := float64(t.done) / float64(t.total)
	if fraction > 1 {
		fraction = 1
	}
	if fraction-t.last >= 0.01 || (fraction == 1 && t.last < 1) {
		t.last = fraction
		t.report(fraction)
	}
}

type progressWriter struct {
	w io.Writer
	tracker
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.add(n)
	return n, err
}

type progressReader struct {
	r io.Reader
	tracker
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.add(n)
	return n, err
}
