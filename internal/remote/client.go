// Package remote implements the remote list store client: a REST surface for
// document and follow CRUD plus a websocket push channel for subscriptions.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mcutler/reeldeck/internal/config"
	"github.com/mcutler/reeldeck/internal/sync"
)

// Client talks to the remote list store API
type Client struct {
	baseURL    string
	wsBaseURL  string
	httpClient *http.Client
}

// NewClient creates a new remote list store client
func NewClient(cfg *config.RemoteConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		wsBaseURL:  cfg.WSBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// createDocumentResponse is the wire shape of a successful document creation
type createDocumentResponse struct {
	DocID string `json:"doc_id"`
}

// CreateDocument writes a new remote list document and returns its ID
func (c *Client) CreateDocument(ctx context.Context, snapshot *sync.ListSnapshot) (string, error) {
	var resp createDocumentResponse
	if err := c.doRequest(ctx, http.MethodPost, "/v1/lists", snapshot, &resp); err != nil {
		return "", err
	}
	return resp.DocID, nil
}

// UpdateDocument overwrites an existing remote list document
func (c *Client) UpdateDocument(ctx context.Context, docID string, snapshot *sync.ListSnapshot) error {
	return c.doRequest(ctx, http.MethodPut, "/v1/lists/"+url.PathEscape(docID), snapshot, nil)
}

// SoftDeactivate flags a remote list document as no longer available.
// The document itself is retained so followers see a terminal state.
func (c *Client) SoftDeactivate(ctx context.Context, docID string) error {
	return c.doRequest(ctx, http.MethodDelete, "/v1/lists/"+url.PathEscape(docID), nil, nil)
}

// GetDocument fetches the current snapshot of a remote list document.
// Returns sync.ErrDocumentGone when the document is absent or deactivated.
func (c *Client) GetDocument(ctx context.Context, docID string) (*sync.ListSnapshot, error) {
	var snapshot sync.ListSnapshot
	if err := c.doRequest(ctx, http.MethodGet, "/v1/lists/"+url.PathEscape(docID), nil, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// CreateFollow registers a follow relationship keyed by (userID, docID)
func (c *Client) CreateFollow(ctx context.Context, userID, docID string) error {
	path := "/v1/follows/" + url.PathEscape(userID) + "/" + url.PathEscape(docID)
	return c.doRequest(ctx, http.MethodPut, path, nil, nil)
}

// DeleteFollow removes a follow relationship
func (c *Client) DeleteFollow(ctx context.Context, userID, docID string) error {
	path := "/v1/follows/" + url.PathEscape(userID) + "/" + url.PathEscape(docID)
	err := c.doRequest(ctx, http.MethodDelete, path, nil, nil)
	if sync.IsDocumentGone(err) {
		// Removing an absent follow record is a no-op
		return nil
	}
	return err
}

// FollowExists checks whether a follow relationship already exists, used to
// prevent duplicate follow records
func (c *Client) FollowExists(ctx context.Context, userID, docID string) (bool, error) {
	path := "/v1/follows/" + url.PathEscape(userID) + "/" + url.PathEscape(docID)
	err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err == nil {
		return true, nil
	}
	if sync.IsDocumentGone(err) {
		return false, nil
	}
	return false, err
}

// doRequest performs an HTTP request against the remote store and decodes the
// response. 404 and 410 map to sync.ErrDocumentGone; other non-2xx statuses
// map to sync.ErrRemoteSync.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: failed to marshal request body: %v", sync.ErrRemoteSync, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", sync.ErrRemoteSync, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", sync.ErrRemoteSync, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return sync.ErrDocumentGone
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: status %d", sync.ErrRemoteSync, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", sync.ErrRemoteSync, err)
		}
	}
	return nil
}
