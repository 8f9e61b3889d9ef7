// Package client is an HTTP client for the coaching API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/capitalize-ai/leadership-coach/internal/model"
	"github.com/capitalize-ai/leadership-coach/internal/reconstruct"
)

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client talks to one API server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for baseURL, e.g. http://localhost:8080.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// No overall timeout: a streamed turn is bounded by the server's
		// turn deadline and the caller's context.
		http: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StreamChat posts a chat turn and feeds the SSE response into rec. The
// returned Result holds whatever text arrived, even when err is non-nil.
func (c *Client) StreamChat(ctx context.Context, req *model.ChatRequest, rec *reconstruct.Reconstructor) (reconstruct.Result, error) {
	httpReq, err := c.newRequest(ctx, http.MethodPost, "/api/v1/chat/stream", req)
	if err != nil {
		return reconstruct.Result{}, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return reconstruct.Result{}, fmt.Errorf("failed to send chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return reconstruct.Result{}, readAPIError(resp)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		return reconstruct.Result{}, fmt.Errorf("unexpected content type %q", ct)
	}

	return rec.Consume(ctx, resp.Body)
}

// Chat posts a chat turn to the non-streaming endpoint.
func (c *Client) Chat(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	var out model.ChatResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/chat", req, &out)
	if apiErr, ok := err.(*APIError); ok && apiErr.Status == http.StatusInternalServerError && out.Message != "" {
		return &out, err
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateConversation creates a conversation.
func (c *Client) CreateConversation(ctx context.Context, req *model.CreateConversationRequest) (*model.Conversation, error) {
	var out model.Conversation
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/conversations", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetConversation fetches a conversation with its messages.
func (c *Client) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	var out model.Conversation
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/conversations/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListConversations lists the caller's conversations.
func (c *Client) ListConversations(ctx context.Context, filter model.ConversationFilter) (*model.ListConversationsResponse, error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if filter.Topic != "" {
		q.Set("topic", filter.Topic)
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.Starred != nil {
		q.Set("starred", strconv.FormatBool(*filter.Starred))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		q.Set("offset", strconv.Itoa(filter.Offset))
	}

	path := "/api/v1/conversations"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out model.ListConversationsResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AppendTurn persists a completed turn.
func (c *Client) AppendTurn(ctx context.Context, id string, req *model.AppendTurnRequest) (*model.Conversation, error) {
	var out model.Conversation
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/conversations/"+url.PathEscape(id)+"/messages", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// doJSON sends body and decodes the response into out. On an error status
// the body is still decoded into out when it parses, and an *APIError is
// returned.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		if out != nil {
			_ = json.Unmarshal(data, out)
		}
		return apiError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return apiError(resp.StatusCode, data)
}

func apiError(status int, data []byte) *APIError {
	var body struct {
		Error string `json:"error"`
	}
	msg := http.StatusText(status)
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	return &APIError{Status: status, Message: msg}
}
