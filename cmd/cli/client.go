package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// APIError is a non-2xx response from the API
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
	Field      string `json:"field,omitempty"`
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%d] %s: %s (%s)", e.StatusCode, e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%d] %s: %s", e.StatusCode, e.Code, e.Message)
}

// parseError turns an error response into an *APIError
func parseError(resp *resty.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	if err := json.Unmarshal(resp.Body(), apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = "UNKNOWN"
		apiErr.Message = string(resp.Body())
	}
	return apiErr
}

// apiClient wraps resty with the base URL, token and error decoding
type apiClient struct {
	http *resty.Client
}

func newClient(baseURL, token string) *apiClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetHeader("User-Agent", "HackUp-CLI/0.1.0").
		SetHeader("Accept", "application/json")
	if token != "" {
		c.SetAuthToken(token)
	}
	return &apiClient{http: c}
}

// client builds a client from the global flags
func client() *apiClient {
	return newClient(apiURL, authToken)
}

// do sends a request and decodes a 2xx body into result (which may be nil)
func (c *apiClient) do(method, path string, body, result interface{}, query map[string]string) error {
	req := c.http.R()
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return parseError(resp)
	}
	return nil
}

func (c *apiClient) get(path string, query map[string]string, result interface{}) error {
	return c.do(resty.MethodGet, path, nil, result, query)
}

func (c *apiClient) post(path string, body, result interface{}) error {
	return c.do(resty.MethodPost, path, body, result, nil)
}

func (c *apiClient) put(path string, body, result interface{}) error {
	return c.do(resty.MethodPut, path, body, result, nil)
}

func (c *apiClient) delete(path string, result interface{}) error {
	return c.do(resty.MethodDelete, path, nil, result, nil)
}
