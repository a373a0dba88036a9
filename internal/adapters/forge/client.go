// Package forge implements ports.Forge against the hosting system's REST
// API: release creation, asset upload and commit statuses. The credential is
// repository-scoped and supplied by the environment, never minted here.
package forge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/ports"
)

// HTTPClient interface for HTTP operations (allows mocking in tests).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds the connection parameters for the hosting API.
type ClientConfig struct {
	BaseURL string // e.g. https://api.github.com
	Token   string
	Repo    string // "owner/name"
}

// Client talks to the forge REST API.
type Client struct {
	baseURL    string
	token      string
	repo       string
	httpClient HTTPClient
}

var _ ports.Forge = (*Client)(nil)

// NewClient creates a forge client. A nil httpClient falls back to a default
// with a sane timeout.
func NewClient(config ClientConfig, httpClient HTTPClient) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    config.BaseURL,
		token:      config.Token,
		repo:       config.Repo,
		httpClient: httpClient,
	}
}

type releasePayload struct {
	TagName string `json:"tag_name"`
	Name    string `json:"name,omitempty"`
	Body    string `json:"body"`
}

// CreateRelease publishes a release record for the tag.
// A 409 or 422 response means the tag already carries a release; that maps
// to domain.ErrReleaseExists so the caller rejects instead of overwriting.
func (c *Client) CreateRelease(ctx context.Context, rel domain.Release) error {
	payload, err := json.Marshal(releasePayload{TagName: rel.Tag, Name: rel.Name, Body: rel.Body})
	if err != nil {
		return fmt.Errorf("failed to encode release: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/releases", c.baseURL, c.repo)
	resp, err := c.doRequest(ctx, http.MethodPost, url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity:
		return fmt.Errorf("tag %s: %w", rel.Tag, domain.ErrReleaseExists)
	case resp.StatusCode >= 300:
		return apiError("create release", resp)
	}
	return nil
}

// UploadAsset attaches the file at path to the release for tag.
func (c *Client) UploadAsset(ctx context.Context, tag, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open asset: %w", err)
	}
	defer f.Close()

	url := fmt.Sprintf("%s/repos/%s/releases/%s/assets?name=%s",
		c.baseURL, c.repo, neturl.PathEscape(tag), neturl.QueryEscape(filepath.Base(path)))
	resp, err := c.doRequest(ctx, http.MethodPost, url, "application/octet-stream", f)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return apiError("upload asset", resp)
	}
	return nil
}

type statusPayload struct {
	State       string `json:"state"`
	Description string `json:"description,omitempty"`
	Context     string `json:"context"`
}

// ReportStatus surfaces a pipeline outcome on the triggering commit.
func (c *Client) ReportStatus(ctx context.Context, sha string, state ports.CommitState, description string) error {
	payload, err := json.Marshal(statusPayload{
		State:       string(state),
		Description: description,
		Context:     "gantry",
	})
	if err != nil {
		return fmt.Errorf("failed to encode status: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/statuses/%s", c.baseURL, c.repo, sha)
	resp, err := c.doRequest(ctx, http.MethodPost, url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return apiError("report status", resp)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func apiError(op string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%s failed: status %d: %s", op, resp.StatusCode, bytes.TrimSpace(snippet))
}
