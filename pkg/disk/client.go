// Package disk is a small client for the Yandex Disk REST API, limited to
// what backups need: listing the app folder and uploading a file.
package disk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://cloud-api.yandex.net/v1/disk"

// ErrMalformedResponse is returned when a response lacks required fields.
var ErrMalformedResponse = errors.New("malformed disk API response")

// Item is one resource in a directory listing.
type Item struct {
	Created    string `json:"created"`
	Modified   string `json:"modified"`
	Name       string `json:"name"`
	Path       string `json:"path"`
	ResourceID string `json:"resource_id"`
}

// UploadOperation is a pre-signed upload target.
type UploadOperation struct {
	OperationID string `json:"operation_id"`
	Href        string `json:"href"`
	Method      string `json:"method"`
}

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.Code, e.Body)
}

// Client talks to the disk API. The zero value is not usable; use New.
type Client struct {
	baseURL string
	api     *retryablehttp.Client // authenticated
	upload  *retryablehttp.Client // pre-signed upload targets, no credentials
}

type options struct {
	baseURL  string
	logger   *log.Logger
	retryMax int
	waitMin  time.Duration
}

// Option configures a Client.
type Option func(*options)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option { return func(o *options) { o.baseURL = strings.TrimRight(u, "/") } }

// WithLogger routes retry diagnostics to l.
func WithLogger(l *log.Logger) Option { return func(o *options) { o.logger = l } }

// WithRetryMax sets how many times a failed request is retried.
func WithRetryMax(n int) Option { return func(o *options) { o.retryMax = n } }

// withRetryWait shortens backoff in tests.
func withRetryWait(d time.Duration) Option { return func(o *options) { o.waitMin = d } }

// New returns a Client authenticating with token using the "OAuth" scheme.
func New(token string, opts ...Option) *Client {
	o := options{baseURL: DefaultBaseURL, retryMax: 4, waitMin: time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "OAuth"})
	authed := &http.Client{Transport: &oauth2.Transport{Source: src, Base: http.DefaultTransport}}

	return &Client{
		baseURL: o.baseURL,
		api:     newRetryClient(authed, o),
		upload:  newRetryClient(&http.Client{}, o),
	}
}

func newRetryClient(hc *http.Client, o options) *retryablehttp.Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = hc
	rc.RetryMax = o.retryMax
	rc.RetryWaitMin = o.waitMin
	rc.RetryWaitMax = 8 * o.waitMin
	rc.Logger = nil
	if o.logger != nil {
		rc.Logger = leveledLogger{o.logger}
	}
	return rc
}

// ListDirectory lists the app folder directory dir ("" for the app root).
func (c *Client) ListDirectory(ctx context.Context, dir string) ([]Item, error) {
	q := url.Values{"path": {"app:/" + dir}}

	var resp struct {
		Embedded *struct {
			Items []Item `json:"items"`
		} `json:"_embedded"`
	}
	if err := c.getJSON(ctx, "list directory", "/resources/?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.Embedded == nil {
		return nil, fmt.Errorf("list directory: %w: no _embedded items", ErrMalformedResponse)
	}

	return resp.Embedded.Items, nil
}

// UploadLink requests an upload target for name inside the app folder.
func (c *Client) UploadLink(ctx context.Context, name string) (UploadOperation, error) {
	q := url.Values{"path": {"app:/" + name}}

	var op UploadOperation
	if err := c.getJSON(ctx, "request upload", "/resources/upload/?"+q.Encode(), &op); err != nil {
		return UploadOperation{}, err
	}
	if op.Href == "" || op.Method != http.MethodPut {
		return UploadOperation{}, fmt.Errorf("request upload: %w: href %q method %q", ErrMalformedResponse, op.Href, op.Method)
	}

	return op, nil
}

// Upload streams the file at filePath to a pre-signed href.
func (c *Client) Upload(ctx context.Context, href, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPut, href, f)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.upload.Do(req)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return statusError("upload", resp)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, v any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.api.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(op, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrMalformedResponse, err)
	}
	return nil
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

// leveledLogger adapts a charm logger to retryablehttp.LeveledLogger.
type leveledLogger struct{ l *log.Logger }

func (a leveledLogger) Error(msg string, kv ...any) { a.l.Error(msg, kv...) }
func (a leveledLogger) Info(msg string, kv ...any)  { a.l.Debug(msg, kv...) }
func (a leveledLogger) Debug(msg string, kv ...any) { a.l.Debug(msg, kv...) }
func (a leveledLogger) Warn(msg string, kv ...any)  { a.l.Warn(msg, kv...) }
