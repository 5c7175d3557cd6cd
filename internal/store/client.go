// Package store provides the client for the remote record-store HTTP API,
// the document database holding the persisted show catalog.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client exposes the three record-store operations the pipeline consumes.
type Client interface {
	Query(ctx context.Context, collection string, filter map[string]any) ([]json.RawMessage, error)
	Insert(ctx context.Context, collection string, document any) error
	Update(ctx context.Context, collection string, filter map[string]any, patch any) error
}

// Config carries the credentials and endpoint for the record store.
type Config struct {
	BaseURL   string
	APIKey    string
	ProjectID string
	Timeout   time.Duration
}

// APIError reports a non-success response from the record store.
type APIError struct {
	Operation string
	Status    int
	Body      string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("record store %s: status %d: %s", e.Operation, e.Status, e.Body)
}

// RestClient implements Client over the store's JSON HTTP API.
type RestClient struct {
	http *resty.Client
}

// NewRestClient builds a client with bearer credential and project header
// applied to every request.
func NewRestClient(cfg Config) *RestClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("X-Project-ID", cfg.ProjectID).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	return &RestClient{http: client}
}

type queryRequest struct {
	Collection string         `json:"collection"`
	Filter     map[string]any `json:"filter"`
}

type queryResponse struct {
	Data []json.RawMessage `json:"data"`
}

type insertRequest struct {
	Collection string `json:"collection"`
	Document   any    `json:"document"`
}

type updateRequest struct {
	Collection string         `json:"collection"`
	Filter     map[string]any `json:"filter"`
	Patch      any            `json:"patch"`
}

// Query returns the documents matching filter.
func (c *RestClient) Query(ctx context.Context, collection string, filter map[string]any) ([]json.RawMessage, error) {
	var out queryResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(queryRequest{Collection: collection, Filter: filter}).
		SetResult(&out).
		Post("/query")
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	if resp.IsError() {
		return nil, &APIError{Operation: "query", Status: resp.StatusCode(), Body: resp.String()}
	}
	return out.Data, nil
}

// Insert adds a new document to the collection.
func (c *RestClient) Insert(ctx context.Context, collection string, document any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(insertRequest{Collection: collection, Document: document}).
		Post("/insert")
	if err != nil {
		return fmt.Errorf("insert into %s: %w", collection, err)
	}
	if resp.IsError() {
		return &APIError{Operation: "insert", Status: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}

// Update overwrites the documents matching filter with patch.
func (c *RestClient) Update(ctx context.Context, collection string, filter map[string]any, patch any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(updateRequest{Collection: collection, Filter: filter, Patch: patch}).
		Post("/update")
	if err != nil {
		return fmt.Errorf("update %s: %w", collection, err)
	}
	if resp.IsError() {
		return &APIError{Operation: "update", Status: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}
