package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"

	"github.com/sony/gobreaker"
)

var errServerStatus = errors.New("backend returned a server error")

// HttpClient talks to the booking backend. Copies made with WithToken share
// the underlying transport and circuit breaker.
type HttpClient struct {
	BaseURL    string
	HTTPClient *http.Client

	token   string
	breaker *gobreaker.CircuitBreaker
}

func NewHttpClient(baseURL string, timeout time.Duration, log *logger.Logger) *HttpClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "booking-backend",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &HttpClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		breaker: breaker,
	}
}

// WithToken returns a copy sending "Authorization: Bearer <token>".
func (c *HttpClient) WithToken(token string) *HttpClient {
	cp := *c
	cp.token = token
	return &cp
}

type Response struct {
	*http.Response
	Body []byte
}

func (r *Response) DecodeJSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

func (r *Response) ToString() string {
	return fmt.Sprintf("status=%d body=%s", r.StatusCode, string(r.Body))
}

func (c *HttpClient) GET(ctx context.Context, path string) (*Response, error) {
	return c.request(ctx, http.MethodGet, path, nil)
}

func (c *HttpClient) POST(ctx context.Context, path string, body any) (*Response, error) {
	return c.request(ctx, http.MethodPost, path, body)
}

func (c *HttpClient) PUT(ctx context.Context, path string, body any) (*Response, error) {
	return c.request(ctx, http.MethodPut, path, body)
}

func (c *HttpClient) PATCH(ctx context.Context, path string, body any) (*Response, error) {
	return c.request(ctx, http.MethodPatch, path, body)
}

func (c *HttpClient) DELETE(ctx context.Context, path string) (*Response, error) {
	return c.request(ctx, http.MethodDelete, path, nil)
}

func (c *HttpClient) request(ctx context.Context, method, path string, body any) (*Response, error) {
	var raw []byte
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		raw = jsonData
	}

	result, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.do(ctx, method, path, raw)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errServerStatus
		}
		return resp, nil
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, apperrors.Unavailable("Booking backend")
	case errors.Is(err, errServerStatus):
		return result.(*Response), nil
	case err != nil:
		return nil, apperrors.Upstream(fmt.Sprintf("%s %s failed", method, path), err)
	}

	return result.(*Response), nil
}

func (c *HttpClient) do(ctx context.Context, method, path string, raw []byte) (*Response, error) {
	var reqBody io.Reader
	if raw != nil {
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if raw != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		Response: resp,
		Body:     respBody,
	}, nil
}

// Ping checks the backend liveness endpoint through the circuit breaker.
func (c *HttpClient) Ping(ctx context.Context) error {
	resp, err := c.GET(ctx, "/health")
	if err != nil {
		return err
	}
	return CheckStatus(resp)
}

func (c *HttpClient) WaitForHealthy(ctx context.Context, maxWait time.Duration) error {
	deadline := time.Now().Add(maxWait)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		resp, err := c.do(ctx, http.MethodGet, "/health", nil)
		if err == nil && resp.StatusCode == http.StatusOK {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	return fmt.Errorf("service did not become healthy within %v", maxWait)
}

func GetErrorMessage(resp *Response) string {
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := resp.DecodeJSON(&errResp); err != nil {
		return http.StatusText(resp.StatusCode)
	}

	if errResp.Message != "" {
		return errResp.Message
	}
	if errResp.Error != "" {
		return errResp.Error
	}
	if errResp.Code != "" {
		return errResp.Code
	}
	return http.StatusText(resp.StatusCode)
}

// CheckStatus turns a non-2xx response into an AppError.
func CheckStatus(resp *Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return apperrors.FromStatus(resp.StatusCode, GetErrorMessage(resp))
}

// decodeData unwraps the {"data": ...} envelope into target.
func decodeData(resp *Response, target any) error {
	if err := CheckStatus(resp); err != nil {
		return err
	}

	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return apperrors.Upstream("could not decode response envelope", fmt.Errorf("%s: %w", resp.ToString(), err))
	}
	if len(wrapper.Data) == 0 || string(wrapper.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(wrapper.Data, target); err != nil {
		return apperrors.Upstream("could not decode response data", fmt.Errorf("%s: %w", resp.ToString(), err))
	}
	return nil
}

// decodePaginated unwraps a {"data": ..., "total_count": n} envelope.
func decodePaginated(resp *Response, target any) (int64, error) {
	if err := decodeData(resp, target); err != nil {
		return 0, err
	}
	var meta struct {
		TotalCount int64 `json:"total_count"`
	}
	if err := json.Unmarshal(resp.Body, &meta); err != nil {
		return 0, apperrors.Upstream("could not decode pagination", fmt.Errorf("%s: %w", resp.ToString(), err))
	}
	return meta.TotalCount, nil
}
