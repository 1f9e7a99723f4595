// Package gateway performs single request/response round trips against the
// API and decodes the common {success, data, error, message} envelope.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const sessionHeader = "X-Session-Token"

// Envelope is the decoded response body. Status is the HTTP status code.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Status  int    `json:"-"`
}

// File is the file part of a multipart request.
type File struct {
	Field  string
	Name   string
	Reader io.Reader
}

type Options struct {
	Method string
	Query  url.Values
	// Body is sent as JSON unless File is set, in which case Fields and File
	// form a multipart body and Body is ignored.
	Body   any
	Fields map[string]string
	File   *File
}

// Client remembers the last session token the server handed out and sends
// it on every request.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(t string) {
	c.mu.Lock()
	c.token = t
	c.mu.Unlock()
}

// Call performs one request. It returns an error only for transport
// problems (no connection, unreadable body); an unsuccessful envelope is
// returned as is.
func Call[T any](ctx context.Context, c *Client, path string, opts Options) (Envelope[T], error) {
	var env Envelope[T]

	u := c.BaseURL + path
	if len(opts.Query) > 0 {
		u += "?" + opts.Query.Encode()
	}
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	body, contentType, err := encodeBody(opts)
	if err != nil {
		return env, err
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return env, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if t := c.Token(); t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return env, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	env.Status = resp.StatusCode
	if t := resp.Header.Get(sessionHeader); t != "" {
		c.SetToken(t)
	}

	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return env, fmt.Errorf("%s %s: decode response (status %d): %w", method, path, resp.StatusCode, err)
	}
	return env, nil
}

func encodeBody(opts Options) (io.Reader, string, error) {
	if opts.File != nil {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		for k, v := range opts.Fields {
			if err := mw.WriteField(k, v); err != nil {
				return nil, "", err
			}
		}
		fw, err := mw.CreateFormFile(opts.File.Field, opts.File.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(fw, opts.File.Reader); err != nil {
			return nil, "", err
		}
		if err := mw.Close(); err != nil {
			return nil, "", err
		}
		return &buf, mw.FormDataContentType(), nil
	}

	if opts.Body == nil {
		return nil, "", nil
	}
	b, err := json.Marshal(opts.Body)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(b), "application/json", nil
}

// Error is the single failure shape for unsuccessful envelopes and transport
// errors. Status is 0 when no response was received.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

// Result folds a Call into its data or an *Error.
func Result[T any](env Envelope[T], err error) (T, error) {
	if err != nil {
		var zero T
		return zero, &Error{Status: env.Status, Message: err.Error(), Err: err}
	}
	if !env.Success {
		var zero T
		msg := env.Error
		if msg == "" {
			msg = "request failed"
		}
		return zero, &Error{Status: env.Status, Message: msg}
	}
	return env.Data, nil
}

// Do is Call followed by Result.
func Do[T any](ctx context.Context, c *Client, path string, opts Options) (T, error) {
	env, err := Call[T](ctx, c, path, opts)
	return Result(env, err)
}

func IsNotFound(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Status == http.StatusNotFound
}
