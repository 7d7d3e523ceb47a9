package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/Apurer/go-distribution-api/internal/domains/fulfillment/ports"
)

// Client uploads binary artifacts to the external file store.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient instantiates the file store client with sane defaults.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("filestore base URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}, nil
}

type uploadResponse struct {
	Ref string `json:"ref"`
}

// Upload stores the file and returns its opaque reference.
func (c *Client) Upload(ctx context.Context, upload ports.PhotoUpload) (string, error) {
	if c == nil || c.httpClient == nil {
		return "", errors.New("filestore client not configured")
	}
	if len(upload.Data) == 0 {
		return "", errors.New("upload payload is empty")
	}
	name := strings.TrimSpace(upload.Name)
	if name == "" {
		name = "upload"
	}
	url := fmt.Sprintf("%s/v1/files?name=%s", c.baseURL, neturl.QueryEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(upload.Data))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call file store: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("file store error: %s", resp.Status)
	}
	var uploaded uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if uploaded.Ref == "" {
		return "", errors.New("file store returned no reference")
	}
	return uploaded.Ref, nil
}

var _ ports.FileStore = (*Client)(nil)
