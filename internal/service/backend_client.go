package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"propertychat/internal/config"
	"propertychat/internal/model"
	"propertychat/internal/utils"

	"go.uber.org/zap"
)

// StatusError captures a non-2xx response from the backend.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *StatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// BackendClient talks to the search/NLP backend over HTTP. A single backend
// hosts the NLP parser, the search index, the saved-properties store and the
// prediction service.
type BackendClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewBackendClient creates a backend client from configuration
func NewBackendClient(cfg *config.BackendConfig, logger *zap.Logger) *BackendClient {
	return &BackendClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// Parse sends free text to POST /nlp/parse
func (c *BackendClient) Parse(ctx context.Context, text string) (*model.ParseResult, error) {
	body, err := c.do(ctx, http.MethodPost, "/nlp/parse", nil, model.ParseRequest{Text: text})
	if err != nil {
		return nil, err
	}

	// The parse endpoint relays model output, so tolerate wrapped JSON
	var result model.ParseResult
	if err := utils.ParseLenientJSON(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode parse response: %w", err)
	}

	c.logger.Debug("NLP parse completed",
		zap.String("provider", result.Provider),
		zap.Bool("has_text", result.HasText()),
		zap.Bool("has_filters", result.HasFilters()),
	)
	return &result, nil
}

// Search queries GET /properties/search with repeated keys for array fields
func (c *BackendClient) Search(ctx context.Context, query model.CanonicalQuery) (*model.SearchResponse, error) {
	body, err := c.do(ctx, http.MethodGet, "/properties/search", query.Values(), nil)
	if err != nil {
		return nil, err
	}

	var result model.SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return &result, nil
}

// ListSaved fetches GET /users/{userID}/saved
func (c *BackendClient) ListSaved(ctx context.Context, userID string) ([]model.Property, error) {
	body, err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/saved", nil, nil)
	if err != nil {
		return nil, err
	}

	var result []model.Property
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode saved properties: %w", err)
	}
	return result, nil
}

// Save calls POST /users/{userID}/saved
func (c *BackendClient) Save(ctx context.Context, userID, propertyID string) error {
	payload := map[string]string{"property_id": propertyID}
	_, err := c.do(ctx, http.MethodPost, "/users/"+url.PathEscape(userID)+"/saved", nil, payload)
	return err
}

// Unsave calls DELETE /users/{userID}/saved/{propertyID}
func (c *BackendClient) Unsave(ctx context.Context, userID, propertyID string) error {
	path := "/users/" + url.PathEscape(userID) + "/saved/" + url.PathEscape(propertyID)
	_, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

// Predict calls POST /compare/predict
func (c *BackendClient) Predict(ctx context.Context, addressA, addressB string) (*model.ComparePredictionResponse, error) {
	req := model.CompareRequest{AddressA: addressA, AddressB: addressB}
	body, err := c.do(ctx, http.MethodPost, "/compare/predict", nil, req)
	if err != nil {
		return nil, err
	}

	var result model.ComparePredictionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode prediction response: %w", err)
	}
	return &result, nil
}

// do performs a request and returns the raw body of a 2xx response
func (c *BackendClient) do(ctx context.Context, method, path string, query url.Values, payload interface{}) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: endpoint, Body: string(body)}
	}

	return body, nil
}
