// Package promoapi is the HTTP client for the Promotion Service.
package promoapi

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

	"promo-console/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries the id that correlates console and service logs.
const RequestIDHeader = "X-Request-ID"

// Client defines the operations of the Promotion Service.
type Client interface {
	// Create creates a promotion and returns it with its server-assigned id.
	Create(ctx context.Context, input model.PromotionInput) (*model.Promotion, error)

	// Update replaces the promotion with the given id.
	Update(ctx context.Context, id string, input model.PromotionInput) (*model.Promotion, error)

	// Get retrieves the promotion with the given id.
	Get(ctx context.Context, id string) (*model.Promotion, error)

	// Delete deletes the promotion with the given id.
	Delete(ctx context.Context, id string) error

	// Search lists promotions, filtered by code when code is not empty.
	Search(ctx context.Context, code string) ([]model.Promotion, error)

	// Apply computes discounted prices for the product lines under the
	// promotion. The response is position-aligned with the request.
	Apply(ctx context.Context, id string, req model.ApplyRequest) (*model.ApplyResponse, error)
}

// httpClient implements Client over HTTP/JSON.
type httpClient struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient creates a Promotion Service client for baseURL.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout}, logger)
}

// NewClientWithHTTP creates a client that sends requests through hc.
func NewClientWithHTTP(baseURL string, hc *http.Client, logger zerolog.Logger) Client {
	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		logger:  logger.With().Str("component", "promotion-client").Logger(),
	}
}

// Create sends POST /promotions.
func (c *httpClient) Create(ctx context.Context, input model.PromotionInput) (*model.Promotion, error) {
	var promotion model.Promotion
	if err := c.do(ctx, http.MethodPost, "/promotions", input, &promotion); err != nil {
		return nil, err
	}
	return &promotion, nil
}

// Update sends PUT /promotions/{id}.
func (c *httpClient) Update(ctx context.Context, id string, input model.PromotionInput) (*model.Promotion, error) {
	var promotion model.Promotion
	if err := c.do(ctx, http.MethodPut, promotionPath(id), input, &promotion); err != nil {
		return nil, err
	}
	return &promotion, nil
}

// Get sends GET /promotions/{id}.
func (c *httpClient) Get(ctx context.Context, id string) (*model.Promotion, error) {
	var promotion model.Promotion
	if err := c.do(ctx, http.MethodGet, promotionPath(id), nil, &promotion); err != nil {
		return nil, err
	}
	return &promotion, nil
}

// Delete sends DELETE /promotions/{id}.
func (c *httpClient) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, promotionPath(id), nil, nil)
}

// Search sends GET /promotions with an optional promotion-code filter.
func (c *httpClient) Search(ctx context.Context, code string) ([]model.Promotion, error) {
	path := "/promotions"
	if code != "" {
		path += "?" + url.Values{"promotion-code": {code}}.Encode()
	}

	promotions := make([]model.Promotion, 0)
	if err := c.do(ctx, http.MethodGet, path, nil, &promotions); err != nil {
		return nil, err
	}
	return promotions, nil
}

// Apply sends POST /promotions/{id}/apply.
func (c *httpClient) Apply(ctx context.Context, id string, req model.ApplyRequest) (*model.ApplyResponse, error) {
	var resp model.ApplyResponse
	if err := c.do(ctx, http.MethodPost, promotionPath(id)+"/apply", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func promotionPath(id string) string {
	return "/promotions/" + url.PathEscape(id)
}

// do sends one request and decodes a 2xx body into out when out is not nil.
func (c *httpClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s %s request: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build %s %s request: %w", method, path, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	logger := c.logger.With().
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Logger()

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Error().Err(err).Msg("promotion service unreachable")
		return &APIError{Message: GenericErrorMessage, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error().Err(err).Int("status", resp.StatusCode).Msg("failed to read promotion service response")
		return &APIError{Status: resp.StatusCode, Message: GenericErrorMessage, Err: err}
	}

	logger.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("promotion service responded")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp.StatusCode, respBody)
		logger.Warn().
			Int("status", resp.StatusCode).
			Str("message", apiErr.Message).
			Msg("promotion service rejected request")
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		logger.Error().Err(err).Int("status", resp.StatusCode).Msg("failed to decode promotion service response")
		return &APIError{Status: resp.StatusCode, Message: GenericErrorMessage, Err: err}
	}

	return nil
}

// decodeError builds an APIError from a non-2xx response body, falling
// back to the generic message when the body carries none.
func decodeError(status int, body []byte) *APIError {
	var errResp model.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || strings.TrimSpace(errResp.Message) == "" {
		return &APIError{Status: status, Message: GenericErrorMessage}
	}
	return &APIError{Status: status, Message: errResp.Message}
}
