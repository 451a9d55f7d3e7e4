// Package api is the typed client for the remote story service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Service is the remote surface consumed by the repositories.
type Service interface {
	Register(ctx context.Context, name, email, password string) (*RegisterResponse, error)
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	ListStories(ctx context.Context) (*StoryResponse, error)
	UploadStory(ctx context.Context, photoPath, description string) (*UploadResponse, error)
}

// HTTPError is returned for any non-2xx response. Body holds the raw
// response body, which this API usually fills with a regular
// {error, message} payload.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *HTTPError) Error() string {
	return "HTTP " + e.Status
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Debug     bool
	Transport http.RoundTripper // defaults to http.DefaultTransport
	Logger    *zap.Logger
}

// Client implements Service over HTTP.
type Client struct {
	base *url.URL
	http *http.Client
}

var _ Service = (*Client)(nil)

// NewClient returns a client whose requests carry the bearer token from
// tokens.
func NewClient(opts Options, tokens TokenSource) (*Client, error) {
	if !strings.HasSuffix(opts.BaseURL, "/") {
		opts.BaseURL += "/"
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseURL)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		base: base,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: newTransport(opts.Transport, tokens, log, opts.Debug),
		},
	}, nil
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*RegisterResponse, error) {
	var out RegisterResponse
	body := registerRequest{Name: name, Email: email, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "register", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	body := loginRequest{Email: email, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListStories(ctx context.Context) (*StoryResponse, error) {
	var out StoryResponse
	if err := c.doJSON(ctx, http.MethodGet, "stories", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadStory posts the photo at photoPath as multipart/form-data with the
// photo part typed image/jpeg and the description part typed text/plain.
func (c *Client) UploadStory(ctx context.Context, photoPath, description string) (*UploadResponse, error) {
	body, contentType, err := multipartBody(photoPath, description)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("stories"), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	var out UploadResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func multipartBody(photoPath, description string) (*bytes.Buffer, string, error) {
	f, err := os.Open(photoPath)
	if err != nil {
		return nil, "", fmt.Errorf("opening photo: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	photo := textproto.MIMEHeader{}
	photo.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photo"; filename=%q`, filepath.Base(photoPath)))
	photo.Set("Content-Type", "image/jpeg")
	pw, err := w.CreatePart(photo)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(pw, f); err != nil {
		return nil, "", fmt.Errorf("reading photo: %w", err)
	}

	desc := textproto.MIMEHeader{}
	desc.Set("Content-Disposition", `form-data; name="description"`)
	desc.Set("Content-Type", "text/plain; charset=utf-8")
	dw, err := w.CreatePart(desc)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.WriteString(dw, description); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *Client) endpoint(path string) string {
	return c.base.ResolveReference(&url.URL{Path: path}).String()
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, Body: data}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", req.URL.Path, err)
	}
	return nil
}
