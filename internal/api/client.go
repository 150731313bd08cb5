// Package api provides the HTTP client for the content backend's REST
// collections
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/n1rna/cms-admin/internal/config"
	"github.com/n1rna/cms-admin/internal/logger"
)

// Client represents the API client for the content backend
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client. baseURL includes the API prefix,
// e.g. https://admin.example.com/api
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ClientFromConfig creates an API client from the loaded configuration
func ClientFromConfig(cfg *config.Config) *Client {
	return NewClient(cfg.BaseURL+cfg.APIPrefix, cfg.Timeout)
}

// BaseURL returns the URL every collection path is appended to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// response is a fully read HTTP response
type response struct {
	req    *http.Request
	status int
	body   []byte
}

// doRequest performs a JSON request and reads the whole response body
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*response, error) {
	target := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug("%s %s [%s] failed: %v", method, target, requestID, err)
		return nil, &TransportError{Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: target, StatusCode: resp.StatusCode, Err: err}
	}

	logger.Debug("%s %s [%s] -> %d in %s", method, target, requestID, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	return &response{req: req, status: resp.StatusCode, body: data}, nil
}

// decode checks the status and unmarshals the body into target. An empty
// 2xx body leaves target untouched and reports false.
func (r *response) decode(resource string, id RecordID, target interface{}) (bool, error) {
	if r.status < 200 || r.status > 299 {
		return false, classify(r.req, r.status, r.body, resource, id)
	}

	if target == nil || len(bytes.TrimSpace(r.body)) == 0 {
		return false, nil
	}

	dec := json.NewDecoder(bytes.NewReader(r.body))
	dec.UseNumber()
	if err := dec.Decode(target); err != nil {
		return false, &TransportError{
			Method:     r.req.Method,
			URL:        r.req.URL.String(),
			StatusCode: r.status,
			Err:        fmt.Errorf("failed to parse response: %w", err),
		}
	}
	return true, nil
}

// Collection addresses one REST resource collection, e.g. job-posts
type Collection struct {
	client *Client
	path   string
}

// Collection returns the client for the resource at path
func (c *Client) Collection(path string) *Collection {
	return &Collection{client: c, path: strings.Trim(path, "/")}
}

func (c *Collection) itemPath(id RecordID) string {
	return "/" + c.path + "/" + url.PathEscape(string(id))
}

// List retrieves every record of the collection
func (c *Collection) List(ctx context.Context) ([]Record, error) {
	resp, err := c.client.doRequest(ctx, http.MethodGet, "/"+c.path, nil)
	if err != nil {
		return nil, err
	}

	var records []Record
	if _, err := resp.decode(c.path, "", &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// Create posts a new record; the server assigns its id and metadata
func (c *Collection) Create(ctx context.Context, fields Fields) (Record, error) {
	resp, err := c.client.doRequest(ctx, http.MethodPost, "/"+c.path, payload(fields))
	if err != nil {
		return nil, err
	}

	var created Record
	ok, err := resp.decode(c.path, "", &created)
	if err != nil {
		return nil, err
	}
	if !ok || created.ID() == "" {
		return nil, &TransportError{
			Method:     http.MethodPost,
			URL:        resp.req.URL.String(),
			StatusCode: resp.status,
			Err:        fmt.Errorf("response carries no record id"),
		}
	}
	return created, nil
}

// Update replaces the given fields of a record. The backend may answer
// with the updated record or an empty body, in which case Update returns nil.
func (c *Collection) Update(ctx context.Context, id RecordID, fields Fields) (Record, error) {
	resp, err := c.client.doRequest(ctx, http.MethodPut, c.itemPath(id), payload(fields))
	if err != nil {
		return nil, err
	}

	var updated Record
	ok, err := resp.decode(c.path, id, &updated)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return updated, nil
}

// Delete removes a record
func (c *Collection) Delete(ctx context.Context, id RecordID) error {
	resp, err := c.client.doRequest(ctx, http.MethodDelete, c.itemPath(id), nil)
	if err != nil {
		return err
	}

	_, err = resp.decode(c.path, id, nil)
	return err
}

// payload strips the id so create and update bodies never carry one
func payload(fields Fields) Fields {
	if _, ok := fields[FieldID]; !ok {
		return fields
	}
	out := make(Fields, len(fields))
	for k, v := range fields {
		if k != FieldID {
			out[k] = v
		}
	}
	return out
}
