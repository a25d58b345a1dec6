package hardcover

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned when the catalog has no entry for the lookup.
var ErrNotFound = errors.New("hardcover: not found")

// StatusError is a non-2xx HTTP response from the provider.
type StatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hardcover: unexpected status %d: %s", e.StatusCode, e.Body)
}

// QueryError is a GraphQL-level error response. These are never retried.
type QueryError struct {
	Messages []string
}

func (e *QueryError) Error() string {
	return "hardcover: graphql error: " + strings.Join(e.Messages, "; ")
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// execute runs a GraphQL query with rate limiting and bounded retries,
// decoding the data payload into target.
func (c *Client) execute(ctx context.Context, query string, variables map[string]any, target any) error {
	var lastErr error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return err
		}

		err := c.doGraphQL(ctx, query, variables, target)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}
		if attempt == c.retryAttempts {
			break
		}
		c.sleep(c.retryDelay(attempt, err))
	}
	return fmt.Errorf("hardcover: retries exhausted: %w", lastErr)
}

func (c *Client) doGraphQL(ctx context.Context, query string, variables map[string]any, target any) error {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var gqlResp graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(gqlResp.Errors) > 0 {
		messages := make([]string, len(gqlResp.Errors))
		for i, e := range gqlResp.Errors {
			messages[i] = e.Message
		}
		return &QueryError{Messages: messages}
	}
	if target != nil {
		if err := json.Unmarshal(gqlResp.Data, target); err != nil {
			return fmt.Errorf("failed to decode data payload: %w", err)
		}
	}
	return nil
}

func isRetryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		// Network errors (connection resets etc.)
		if strings.Contains(urlErr.Error(), "connection") {
			return true
		}
	}
	return false
}

// retryDelay computes the wait before the next attempt: the upstream
// Retry-After when present, else exponential backoff, capped, plus jitter.
func (c *Client) retryDelay(attempt int, err error) time.Duration {
	delay := backoffDelay(attempt)

	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.RetryAfter > 0 {
		delay = statusErr.RetryAfter
		if delay > defaultMaxBackoff {
			delay = defaultMaxBackoff
		}
	}

	return delay + c.jitter()
}

func backoffDelay(attempt int) time.Duration {
	// exponential backoff capped at 10 seconds
	delay := time.Duration(1<<uint(attempt-1)) * time.Second
	if delay > defaultMaxBackoff {
		return defaultMaxBackoff
	}
	return delay
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

// isQueryShapeError reports whether err looks like a schema/shape mismatch
// between our query and the provider's current GraphQL schema. The provider
// exposes no structured error codes, so this is a documented substring
// heuristic kept out of the retry path.
func isQueryShapeError(err error) bool {
	var queryErr *QueryError
	if !errors.As(err, &queryErr) {
		return false
	}
	for _, msg := range queryErr.Messages {
		lower := strings.ToLower(msg)
		if strings.Contains(lower, "unknown field") ||
			strings.Contains(lower, "unknown argument") ||
			strings.Contains(lower, "validation") {
			return true
		}
	}
	return false
}

// classifyFailure maps a lookup error onto a failure reason. Rate limiting
// wins over everything: an HTTP 429 or any message mentioning "rate".
func classifyFailure(err error) FailureReason {
	if errors.Is(err, ErrNotFound) {
		return ReasonNotFound
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests {
		return ReasonRateLimited
	}
	if strings.Contains(strings.ToLower(err.Error()), "rate") {
		return ReasonRateLimited
	}
	return ReasonUpstream
}
