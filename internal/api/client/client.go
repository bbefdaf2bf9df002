package client

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/anzchy/frontend-sandbox/internal/domain/preview"
	"github.com/anzchy/frontend-sandbox/internal/shared/types"
)

// Options configures the client
type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RetryMax          int
	RequestsPerSecond float64
}

// DefaultOptions returns sensible client defaults
func DefaultOptions(baseURL string) Options {
	return Options{
		BaseURL:           baseURL,
		Timeout:           10 * time.Second,
		RetryMax:          3,
		RequestsPerSecond: 50,
	}
}

// Client is a typed HTTP client for the sandbox API. Transient
// failures are retried with backoff; outbound calls are rate limited
// so a scripted caller cannot trip the server's per-IP budget.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
}

// New creates a client for the given server
func New(opts Options) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.RetryMax
	rc.Logger = nil
	rc.HTTPClient.Timeout = opts.Timeout

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 50
	}

	return &Client{
		http: resty.NewWithClient(rc.StandardClient()).
			SetBaseURL(opts.BaseURL).
			SetHeader("Accept", "application/json"),
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)),
	}
}

type apiError struct {
	Error string `json:"error"`
}

func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.http.R().SetContext(ctx).SetError(&apiError{}), nil
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsError() {
		if apiErr, ok := resp.Error().(*apiError); ok && apiErr.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status(), apiErr.Error)
		}
		return fmt.Errorf("unexpected status %s", resp.Status())
	}
	return nil
}

// Project fetches the full project snapshot
func (c *Client) Project(ctx context.Context) (*types.Project, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var p types.Project
	resp, err := req.SetResult(&p).Get("/project")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateFile adds a file to the project
func (c *Client) CreateFile(ctx context.Context, name, content string) (*types.SnippetFile, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var f types.SnippetFile
	resp, err := req.
		SetBody(map[string]string{"name": name, "content": content}).
		SetResult(&f).
		Post("/project/files")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &f, nil
}

// UpdateFile replaces a file's content
func (c *Client) UpdateFile(ctx context.Context, name, content string) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}
	resp, err := req.
		SetBody(map[string]string{"content": content}).
		Put("/project/files/" + name)
	return check(resp, err)
}

// RenameFile moves a file to a new name
func (c *Client) RenameFile(ctx context.Context, oldName, newName string) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}
	resp, err := req.
		SetBody(map[string]string{"new_name": newName}).
		Post("/project/files/" + oldName + "/rename")
	return check(resp, err)
}

// DeleteFile removes a file
func (c *Client) DeleteFile(ctx context.Context, name string) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}
	resp, err := req.Delete("/project/files/" + name)
	return check(resp, err)
}

// SetActive moves the active-file pointer
func (c *Client) SetActive(ctx context.Context, name string) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}
	resp, err := req.SetBody(map[string]string{"name": name}).Post("/project/active")
	return check(resp, err)
}

// SetEntry moves the preview entry pointer
func (c *Client) SetEntry(ctx context.Context, name string) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}
	resp, err := req.SetBody(map[string]string{"name": name}).Post("/project/entry")
	return check(resp, err)
}

// Search returns file names matching a glob pattern
func (c *Client) Search(ctx context.Context, pattern string) ([]string, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var out struct {
		Matches []string `json:"matches"`
	}
	resp, err := req.
		SetQueryParam("pattern", pattern).
		SetResult(&out).
		Get("/project/search")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out.Matches, nil
}

// Reset replaces the project with a starter template. Empty name
// loads the built-in default.
func (c *Client) Reset(ctx context.Context, templateName string) (*types.Project, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var p types.Project
	resp, err := req.
		SetBody(map[string]string{"template": templateName}).
		SetResult(&p).
		Post("/project/reset")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &p, nil
}

// Refresh forces an immediate preview rebuild
func (c *Client) Refresh(ctx context.Context) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}
	resp, err := req.Post("/preview/refresh")
	return check(resp, err)
}

// PreviewDocument fetches the assembled preview HTML
func (c *Client) PreviewDocument(ctx context.Context) (string, error) {
	req, err := c.request(ctx)
	if err != nil {
		return "", err
	}
	resp, err := req.Get("/preview/document")
	if err := check(resp, err); err != nil {
		return "", err
	}
	return string(resp.Body()), nil
}

// PreviewStats fetches rebuild duration aggregates
func (c *Client) PreviewStats(ctx context.Context) (*preview.Summary, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var s preview.Summary
	resp, err := req.SetResult(&s).Get("/preview/stats")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &s, nil
}

// Console fetches buffered console records. limit 0 means all.
func (c *Client) Console(ctx context.Context, limit int) ([]types.ConsoleRecord, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var out struct {
		Records []types.ConsoleRecord `json:"records"`
	}
	if limit > 0 {
		req.SetQueryParam("limit", fmt.Sprint(limit))
	}
	resp, err := req.SetResult(&out).Get("/console")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out.Records, nil
}

// ClearConsole empties the console buffer
func (c *Client) ClearConsole(ctx context.Context) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}
	resp, err := req.Delete("/console")
	return check(resp, err)
}

// ExportZip downloads the project as a zip archive
func (c *Client) ExportZip(ctx context.Context) ([]byte, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := req.Get("/export/zip")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return resp.Body(), nil
}
