package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"fbexport/pkg/errors"
	"fbexport/pkg/logger"
)

// Response is a raw HTTP result
type Response struct {
	Status int
	Body   []byte
}

// Client represents a Graph API client bound to one access token
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     logger.Logger
}

// NewClient creates a new Graph API client. baseURL should end with a slash;
// one is added when missing.
func NewClient(baseURL, token string, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if baseURL[len(baseURL)-1] != '/' {
		baseURL += "/"
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		token:      token,
		logger:     log,
	}
}

// SetHTTPClient replaces the underlying HTTP client
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Token returns the access token the client signs requests with
func (c *Client) Token() string {
	return c.token
}

func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      logger.RedactToken(req.URL.String()),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
		}
	}

	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, duration)
	return resp, nil
}

// Fetch performs a GET and returns the status and body as they are
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return &Response{Status: resp.StatusCode, Body: body}, nil
}

// GetJSON performs a GET and decodes a successful JSON response into target
func (c *Client) GetJSON(ctx context.Context, rawURL string, target interface{}) error {
	resp, err := c.Fetch(ctx, rawURL)
	if err != nil {
		return err
	}

	if err := c.checkResponseStatus(resp, rawURL); err != nil {
		return err
	}

	return c.decode(resp, rawURL, target)
}

// Decode unmarshals a response body regardless of its status
func (c *Client) Decode(resp *Response, rawURL string, target interface{}) error {
	return c.decode(resp, rawURL, target)
}

func (c *Client) decode(resp *Response, rawURL string, target interface{}) error {
	if err := json.Unmarshal(resp.Body, target); err != nil {
		preview := string(resp.Body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}

		c.logger.WarnWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          logger.RedactToken(rawURL),
			"status":       resp.Status,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.Status,
		}
	}
	return nil
}

// checkResponseStatus maps a non-2xx status to a typed error. A Graph error
// body, when present, supplies the message.
func (c *Client) checkResponseStatus(resp *Response, rawURL string) error {
	if resp.Status >= 200 && resp.Status < 300 {
		return nil
	}

	message := fmt.Sprintf("unexpected status code: %d", resp.Status)
	var envelope struct {
		Error *APIError `json:"error"`
	}
	if json.Unmarshal(resp.Body, &envelope) == nil && envelope.Error != nil {
		message = envelope.Error.Error()
		if envelope.Error.IsTokenError() {
			return &errors.Error{Type: errors.ErrorTypeAuth, Message: message, Code: resp.Status}
		}
		if envelope.Error.IsQuotaError() {
			return &errors.Error{Type: errors.ErrorTypeRateLimit, Message: message, Code: resp.Status}
		}
	}

	errType := errors.ErrorTypeUnknown
	switch {
	case resp.Status == http.StatusUnauthorized:
		errType = errors.ErrorTypeAuth
	case resp.Status == http.StatusNotFound:
		errType = errors.ErrorTypeNotFound
	case resp.Status == http.StatusTooManyRequests:
		errType = errors.ErrorTypeRateLimit
	case resp.Status >= 500:
		errType = errors.ErrorTypeServerError
	}

	c.logger.DebugWithFields("graph call rejected", map[string]interface{}{
		"status": resp.Status,
		"url":    logger.RedactToken(rawURL),
		"type":   string(errType),
	})
	return &errors.Error{Type: errType, Message: message, Code: resp.Status}
}

// Download fetches raw bytes such as a photo. Photo CDNs are not Graph
// endpoints, so no token is attached.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusOK {
		errType := errors.ErrorTypeNotFound
		if resp.Status >= 500 {
			errType = errors.ErrorTypeServerError
		}
		return nil, &errors.Error{
			Type:    errType,
			Message: fmt.Sprintf("download returned status %d", resp.Status),
			Code:    resp.Status,
		}
	}
	return resp.Body, nil
}
