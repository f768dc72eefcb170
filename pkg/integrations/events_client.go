package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yair/whats-on/pkg/domain"
)

const (
	opListEvents  = "list_events"
	opToggleLike  = "toggle_like"
	opDeleteEvent = "delete_event"
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Operation  string
	StatusCode int
	// Message is the server's explanation, when the body carried one.
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s failed: status %d: %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s failed: status %d", e.Operation, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return domain.ErrEventNotFound
	}
	return domain.ErrExternalAPIFailure
}

type EventsClient struct {
	baseURL    string
	httpClient *http.Client
	metrics    *Metrics
}

type EventsConfig struct {
	BaseURL string
	Timeout time.Duration
	Metrics *Metrics
}

func NewEventsClient(config EventsConfig) (*EventsClient, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("events API base URL is required")
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &EventsClient{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: config.Metrics,
	}, nil
}

// ListEvents fetches the events matching an encoded filter query.
func (c *EventsClient) ListEvents(ctx context.Context, query string, token string) ([]domain.Event, error) {
	eventsURL := c.baseURL + "/events/"
	if query != "" {
		eventsURL += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, "GET", eventsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create events request: %w", err)
	}

	resp, err := c.do(req, opListEvents, token)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.observe(opListEvents, "error")
		return nil, newAPIError(opListEvents, resp)
	}

	var events []domain.Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		c.metrics.observe(opListEvents, "malformed")
		return nil, fmt.Errorf("failed to decode events response: %w", err)
	}
	if events == nil {
		events = []domain.Event{}
	}

	c.metrics.observe(opListEvents, "ok")
	return events, nil
}

type likeResponse struct {
	Likes *int  `json:"likes"`
	Liked *bool `json:"liked"`
}

// ToggleLike flips the viewer's like and returns the server's counts.
func (c *EventsClient) ToggleLike(ctx context.Context, eventID int, token string) (*domain.LikeResult, error) {
	if token == "" {
		return nil, domain.ErrLoginRequired
	}

	likeURL := fmt.Sprintf("%s/events/%d/like/", c.baseURL, eventID)
	req, err := http.NewRequestWithContext(ctx, "POST", likeURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create like request: %w", err)
	}

	resp, err := c.do(req, opToggleLike, token)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.observe(opToggleLike, "error")
		return nil, newAPIError(opToggleLike, resp)
	}

	var body likeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.metrics.observe(opToggleLike, "malformed")
		return nil, fmt.Errorf("failed to decode like response: %w", err)
	}
	if body.Likes == nil || body.Liked == nil {
		c.metrics.observe(opToggleLike, "malformed")
		return nil, fmt.Errorf("like response is missing likes or liked")
	}

	c.metrics.observe(opToggleLike, "ok")
	return &domain.LikeResult{Likes: *body.Likes, Liked: *body.Liked}, nil
}

func (c *EventsClient) DeleteEvent(ctx context.Context, eventID int, token string) error {
	if token == "" {
		return domain.ErrLoginRequired
	}

	deleteURL := fmt.Sprintf("%s/events/%d/", c.baseURL, eventID)
	req, err := http.NewRequestWithContext(ctx, "DELETE", deleteURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req, opDeleteEvent, token)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.observe(opDeleteEvent, "error")
		return newAPIError(opDeleteEvent, resp)
	}

	c.metrics.observe(opDeleteEvent, "ok")
	return nil
}

func (c *EventsClient) do(req *http.Request, operation string, token string) (*http.Response, error) {
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if token != "" {
		req.Header.Set("Authorization", "JWT "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(operation, "transport")
		return nil, fmt.Errorf("%s request %s failed: %w", operation, requestID, err)
	}
	return resp, nil
}

// newAPIError reads the usual error fields of a backend error body.
func newAPIError(operation string, resp *http.Response) *APIError {
	apiErr := &APIError{Operation: operation, StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return apiErr
	}
	for _, key := range []string{"detail", "message", "error"} {
		if msg, ok := body[key].(string); ok && msg != "" {
			apiErr.Message = msg
			break
		}
	}
	return apiErr
}

// ServerMessage returns the backend's explanation carried by err, if any.
func ServerMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
