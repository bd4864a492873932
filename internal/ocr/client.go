// Package ocr talks to the remote OCR service: multipart submission of an
// uploaded file and file-name search over processed documents.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"ocrdrop/internal/config"
	"ocrdrop/internal/errors"
	"ocrdrop/internal/log"
	"ocrdrop/pkg/types"
)

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 32 << 20

// Client calls the OCR service endpoints.
type Client struct {
	httpClient  *http.Client
	receiverURL string
	searchURL   string
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for the service configured in cfg.Server.
func NewClient(cfg *config.Config, opts ...ClientOption) (*Client, error) {
	base, err := url.Parse(cfg.Server.BaseURL)
	if err != nil {
		return nil, errors.NewConfigError("invalid OCR service URL", "server.base_url", errors.InvalidConfig, err)
	}
	c := &Client{
		httpClient:  &http.Client{Timeout: cfg.Server.Timeout},
		receiverURL: base.JoinPath(cfg.Server.ReceiverPath).String(),
		searchURL:   base.JoinPath(cfg.Server.SearchPath).String(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Submit posts the file as the multipart field "file" and returns its pages.
func (c *Client) Submit(ctx context.Context, file types.FileHandle) ([]types.PageResult, error) {
	body, contentType, err := formBody(file)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.receiverURL, body)
	if err != nil {
		return nil, errors.NewRemoteError("failed to build request", c.receiverURL, errors.Transport, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	data, err := c.do(req)
	if err != nil {
		return nil, err
	}
	pages, err := ParsePages(data)
	if err != nil {
		return nil, errors.NewRemoteError("unexpected OCR response", c.receiverURL, errors.MalformedResponse, err)
	}
	log.LogWithFields(log.F("file", file.Name), log.F("pages", len(pages))).Debug("OCR result received")
	return pages, nil
}

// Search queries processed documents by file name. The query is sent as
// given; callers trim and validate it.
func (c *Client) Search(ctx context.Context, query string) ([]types.SearchResult, error) {
	u := c.searchURL + "?" + url.Values{"filename": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.NewRemoteError("failed to build request", c.searchURL, errors.Transport, err)
	}
	req.Header.Set("Accept", "application/json")

	data, err := c.do(req)
	if err != nil {
		return nil, err
	}
	results, err := ParseSearch(data)
	if err != nil {
		return nil, errors.NewRemoteError("unexpected search response", c.searchURL, errors.MalformedResponse, err)
	}
	return results, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	endpoint := req.URL.Scheme + "://" + req.URL.Host + req.URL.Path

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewRemoteError("request failed", endpoint, errors.Transport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, errors.NewRemoteError("failed to read response", endpoint, errors.Transport, err).WithStatus(resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := strings.TrimSpace(string(data))
		if len(snippet) > 200 {
			snippet = snippet[:200] + "..."
		}
		return nil, errors.NewRemoteError("unexpected HTTP status", endpoint, errors.Transport, errors.New(snippet)).WithStatus(resp.StatusCode)
	}
	return data, nil
}

// formBody encodes file as a multipart form with the single field "file".
func formBody(file types.FileHandle) (io.Reader, string, error) {
	src, err := file.Open()
	if err != nil {
		return nil, "", errors.NewFileError("cannot open file", file.Path, errors.FileAccessDenied, err)
	}
	defer src.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	contentType := file.MIMEType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to create form part")
	}
	if _, err := io.Copy(part, src); err != nil {
		return nil, "", errors.NewFileError("cannot read file", file.Path, errors.FileAccessDenied, err)
	}
	if err := w.Close(); err != nil {
		return nil, "", errors.Wrap(err, "failed to close multipart writer")
	}
	return &buf, w.FormDataContentType(), nil
}
