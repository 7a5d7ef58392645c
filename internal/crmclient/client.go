// Package crmclient is a Go client for the BDA portal API. It carries the
// dashboard-side rules: local validation before any request, immutable query
// state, debounced search, stale-response suppression and the partial-failure
// confirmation for campaigns.
package crmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout = 30 * time.Second
	// GenericErrorMessage is used when the server gives no usable message.
	GenericErrorMessage = "something went wrong, please try again"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type errorBody struct {
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
}

// do issues one request. Non-2xx and non-JSON responses become *FetchError.
// Nothing is retried.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &FetchError{Message: GenericErrorMessage, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &FetchError{Status: resp.StatusCode, Message: GenericErrorMessage, Err: err}
	}

	isJSON := isJSONContent(resp.Header.Get("Content-Type"))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		fe := &FetchError{Status: resp.StatusCode, Message: GenericErrorMessage}
		var eb errorBody
		if isJSON && json.Unmarshal(data, &eb) == nil {
			if msg := strings.TrimSpace(eb.Error); msg != "" {
				fe.Message = msg
			}
			fe.Details = eb.Details
		}
		return fe
	}

	if out == nil {
		return nil
	}
	if !isJSON {
		return &FetchError{Status: resp.StatusCode, Message: GenericErrorMessage}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &FetchError{Status: resp.StatusCode, Message: GenericErrorMessage, Err: err}
	}
	return nil
}

func isJSONContent(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}

// raw fetches a non-JSON body, used for file downloads.
func (c *Client) raw(ctx context.Context, path string, query url.Values) ([]byte, string, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", &FetchError{Message: GenericErrorMessage, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &FetchError{Status: resp.StatusCode, Message: GenericErrorMessage, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		fe := &FetchError{Status: resp.StatusCode, Message: GenericErrorMessage}
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil && strings.TrimSpace(eb.Error) != "" {
			fe.Message = eb.Error
		}
		return nil, "", fe
	}
	return data, resp.Header.Get("Content-Type"), nil
}
