package calendar

import (
	"alcyxob/fitness-scheduler/internal/domain"
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

	"github.com/rs/zerolog"
)

// Client talks to the remote calendar service over JSON/HTTP. The credential
// is presented as a Basic-style token on every request. All calls are bounded
// by the configured timeout; a timeout is reported like any other failure.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	timeout    time.Duration
	log        zerolog.Logger
}

var _ Service = (*Client)(nil)

// NewClient creates a calendar client for the given service endpoint.
func NewClient(baseURL, token string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
		log:        logger.With().Str("component", "calendar").Logger(),
	}
}

// --- Wire types ---

type eventPayload struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	StartsAt    string `json:"starts_at"` // Local date-time, "YYYY-MM-DDT00:00:00"
}

type eventEnvelope struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StartsAt    string `json:"starts_at"`
}

type eventListEnvelope struct {
	Events []eventEnvelope `json:"events"`
}

// CreateEvent mirrors an assignment as a remote calendar event.
func (c *Client) CreateEvent(ctx context.Context, accountID, name, description string, date domain.Date) CreateResult {
	if accountID == "" {
		c.log.Debug().Msg("create event skipped: no calendar account configured")
		return CreateResult{Outcome: OutcomeNotConfigured}
	}

	payload := eventPayload{Name: name, Description: description, StartsAt: date.DateTimeLocal()}
	var created eventEnvelope
	if reason := c.call(ctx, http.MethodPost, c.eventsPath(accountID), payload, &created); reason != "" {
		return CreateResult{Outcome: OutcomeFailed, Reason: reason}
	}
	if created.ID == "" {
		return CreateResult{Outcome: OutcomeFailed, Reason: "malformed response: missing event id"}
	}
	return CreateResult{Outcome: OutcomeOK, ExternalID: created.ID}
}

// UpdateEvent rewrites an existing remote event in place.
func (c *Client) UpdateEvent(ctx context.Context, accountID, externalID, name, description string, date domain.Date) CreateResult {
	if accountID == "" {
		return CreateResult{Outcome: OutcomeNotConfigured}
	}
	if externalID == "" {
		return CreateResult{Outcome: OutcomeFailed, Reason: "missing external event id"}
	}

	payload := eventPayload{Name: name, Description: description, StartsAt: date.DateTimeLocal()}
	if reason := c.call(ctx, http.MethodPut, c.eventPath(accountID, externalID), payload, nil); reason != "" {
		return CreateResult{Outcome: OutcomeFailed, Reason: reason}
	}
	return CreateResult{Outcome: OutcomeOK, ExternalID: externalID}
}

// DeleteEvent removes the remote mirror of an assignment.
func (c *Client) DeleteEvent(ctx context.Context, accountID, externalID string) DeleteResult {
	if accountID == "" {
		return DeleteResult{Outcome: OutcomeNotConfigured}
	}
	if externalID == "" {
		return DeleteResult{Outcome: OutcomeFailed, Reason: "missing external event id"}
	}

	if reason := c.call(ctx, http.MethodDelete, c.eventPath(accountID, externalID), nil, nil); reason != "" {
		return DeleteResult{Outcome: OutcomeFailed, Reason: reason}
	}
	return DeleteResult{Outcome: OutcomeOK}
}

// ListEvents fetches the account's events inside an inclusive date range.
// Remote date-times are truncated back to their calendar date, so whatever
// zone the server reports cannot shift the day.
func (c *Client) ListEvents(ctx context.Context, accountID string, start, end domain.Date) ListResult {
	if accountID == "" {
		return ListResult{Outcome: OutcomeNotConfigured}
	}

	query := url.Values{}
	query.Set("from", start.DateTimeLocal())
	query.Set("to", end.DateTimeLocal())

	var listed eventListEnvelope
	path := c.eventsPath(accountID) + "?" + query.Encode()
	if reason := c.call(ctx, http.MethodGet, path, nil, &listed); reason != "" {
		return ListResult{Outcome: OutcomeFailed, Reason: reason}
	}

	events := make([]Event, 0, len(listed.Events))
	for _, e := range listed.Events {
		date, err := truncateToDate(e.StartsAt)
		if err != nil {
			return ListResult{Outcome: OutcomeFailed, Reason: fmt.Sprintf("malformed response: %v", err)}
		}
		events = append(events, Event{ID: e.ID, Name: e.Name, Description: e.Description, Date: date})
	}
	return ListResult{Outcome: OutcomeOK, Events: events}
}

func (c *Client) eventsPath(accountID string) string {
	return "/accounts/" + url.PathEscape(accountID) + "/events"
}

func (c *Client) eventPath(accountID, externalID string) string {
	return c.eventsPath(accountID) + "/" + url.PathEscape(externalID)
}

// call performs one HTTP round trip and normalizes every failure mode into a
// reason string; an empty return means success. Non-2xx reasons start with
// the HTTP status line (e.g. "503 Service Unavailable: ...").
func (c *Client) call(ctx context.Context, method, path string, body, out any) string {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Sprintf("encode request: %v", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Sprintf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Basic "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Sprintf("request timed out after %s", c.timeout)
		}
		return fmt.Sprintf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		reason := resp.Status
		if trimmed := strings.TrimSpace(string(snippet)); trimmed != "" {
			reason += ": " + trimmed
		}
		c.log.Debug().Str("method", method).Str("path", path).Str("reason", reason).Msg("calendar call failed")
		return reason
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Sprintf("malformed response: %v", err)
		}
	}
	return ""
}

// truncateToDate extracts the calendar date from a remote date-time string.
// Accepts a bare date or anything with a "T..." suffix.
func truncateToDate(s string) (domain.Date, error) {
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[:i]
	}
	return domain.ParseDate(s)
}
