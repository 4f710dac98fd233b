// Package gcal provides a minimal Google Calendar v3 REST client.
package gcal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://www.googleapis.com/calendar/v3"

// Client defines the Google Calendar operations used by this application.
type Client interface {
	ListCalendars(ctx context.Context) ([]CalendarListEntry, error)
	InsertCalendar(ctx context.Context, cal Calendar) (*Calendar, error)
	InsertEvent(ctx context.Context, calendarID string, event Event) (*Event, error)
	GetEvent(ctx context.Context, calendarID, eventID string) (*Event, error)
}

// CalendarListEntry is one calendar visible to the authenticated user.
type CalendarListEntry struct {
	ID       string `json:"id"`
	Summary  string `json:"summary"`
	TimeZone string `json:"timeZone,omitempty"`
}

// Calendar is a secondary calendar resource.
type Calendar struct {
	ID       string `json:"id,omitempty"`
	Summary  string `json:"summary"`
	TimeZone string `json:"timeZone,omitempty"`
}

// EventDateTime is an event boundary.
type EventDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

// Event is a calendar event resource.
type Event struct {
	ID          string        `json:"id,omitempty"`
	Summary     string        `json:"summary"`
	Location    string        `json:"location,omitempty"`
	Description string        `json:"description,omitempty"`
	Start       EventDateTime `json:"start"`
	End         EventDateTime `json:"end"`
	Recurrence  []string      `json:"recurrence,omitempty"`
	HTMLLink    string        `json:"htmlLink,omitempty"`
}

type calendarListResponse struct {
	Items         []CalendarListEntry `json:"items"`
	NextPageToken string              `json:"nextPageToken"`
}

// APIError is a non-2xx response from the Calendar API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gcal: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed if repeated.
func (e *APIError) Retryable() bool {
	if e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500 {
		return true
	}
	return e.StatusCode == http.StatusForbidden &&
		(strings.Contains(e.Body, "rateLimitExceeded") || strings.Contains(e.Body, "userRateLimitExceeded"))
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the API base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithMaxRetries sets how many times a throttled request is retried.
func WithMaxRetries(n int) Option {
	return func(c *httpClient) {
		if n >= 0 {
			c.attempts = uint(n) + 1
		}
	}
}

// WithRetryDelay sets the base delay between retries.
func WithRetryDelay(d time.Duration) Option {
	return func(c *httpClient) {
		c.delay = d
	}
}

type httpClient struct {
	token    string
	baseURL  string
	http     *http.Client
	attempts uint
	delay    time.Duration
}

// NewClient creates a Calendar client authenticated with an OAuth access token.
func NewClient(accessToken string, opts ...Option) Client {
	c := &httpClient{
		token:   accessToken,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		attempts: 4,
		delay:    time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) ListCalendars(ctx context.Context) ([]CalendarListEntry, error) {
	var all []CalendarListEntry
	pageToken := ""
	for {
		path := "/users/me/calendarList"
		if pageToken != "" {
			path += "?pageToken=" + url.QueryEscape(pageToken)
		}
		var page calendarListResponse
		if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, eris.Wrap(err, "gcal: list calendars")
		}
		all = append(all, page.Items...)
		if page.NextPageToken == "" {
			return all, nil
		}
		pageToken = page.NextPageToken
	}
}

func (c *httpClient) InsertCalendar(ctx context.Context, cal Calendar) (*Calendar, error) {
	var out Calendar
	if err := c.do(ctx, http.MethodPost, "/calendars", cal, &out); err != nil {
		return nil, eris.Wrapf(err, "gcal: insert calendar %q", cal.Summary)
	}
	return &out, nil
}

func (c *httpClient) InsertEvent(ctx context.Context, calendarID string, event Event) (*Event, error) {
	var out Event
	path := "/calendars/" + url.PathEscape(calendarID) + "/events"
	if err := c.do(ctx, http.MethodPost, path, event, &out); err != nil {
		return nil, eris.Wrapf(err, "gcal: insert event %q", event.Summary)
	}
	return &out, nil
}

func (c *httpClient) GetEvent(ctx context.Context, calendarID, eventID string) (*Event, error) {
	var out Event
	path := "/calendars/" + url.PathEscape(calendarID) + "/events/" + url.PathEscape(eventID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, eris.Wrapf(err, "gcal: get event %s", eventID)
	}
	return &out, nil
}

// do sends one JSON request, retrying throttled and server errors with
// exponential backoff.
func (c *httpClient) do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return eris.Wrap(err, "marshal request")
		}
	}

	return retry.Do(
		func() error {
			var body io.Reader
			if payload != nil {
				body = bytes.NewReader(payload)
			}
			req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
			if err != nil {
				return retry.Unrecoverable(eris.Wrap(err, "create request"))
			}
			req.Header.Set("Authorization", "Bearer "+c.token)
			if payload != nil {
				req.Header.Set("Content-Type", "application/json")
			}

			resp, err := c.http.Do(req)
			if err != nil {
				return eris.Wrap(err, "send request")
			}
			defer resp.Body.Close() //nolint:errcheck

			respBody, err := io.ReadAll(resp.Body)
			if err != nil {
				return eris.Wrap(err, "read response")
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
			}
			if out == nil || len(respBody) == 0 {
				return nil
			}
			if err := json.Unmarshal(respBody, out); err != nil {
				return retry.Unrecoverable(eris.Wrap(err, "unmarshal response"))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.Retryable()
			}
			return ctx.Err() == nil
		}),
		retry.OnRetry(func(n uint, err error) {
			zap.L().Warn("gcal: retrying request",
				zap.String("method", method),
				zap.String("path", path),
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		}),
	)
}
