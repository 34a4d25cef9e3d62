package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"classload/internal"
	"classload/internal/config"
)

// ErrTransport marks failures to reach the scheduling service or a non-2xx
// answer from it. Conflicts are not errors.
var ErrTransport = errors.New("scheduling service unavailable")

const (
	pathLocate   = "schedule/locate"
	pathValidate = "schedule/validate-edit"
	pathSuggest  = "schedule/suggest"
	pathUpdate   = "schedule/update-by-locator"
	pathGenerate = "schedule/generate"
)

// Client talks JSON to the external scheduling service.
type Client struct {
	cfg         config.Config
	httpClient  *http.Client
	limiter     *RateLimiter
	maxAttempts int
	log         *zap.Logger
}

func NewClient(cfg config.Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	attempts := cfg.SchedulerMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return &Client{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: time.Duration(cfg.SchedulerTimeoutMs) * time.Millisecond},
		limiter:     NewRateLimiter(cfg.SchedulerRateLimitRS),
		maxAttempts: attempts,
		log:         log.Named("gateway"),
	}
}

func (c *Client) LocateEntry(ctx context.Context, loc Locator) (LocateResult, error) {
	var out LocateResult
	err := c.postJSON(ctx, pathLocate, loc, &out)
	return out, err
}

func (c *Client) ValidateEdit(ctx context.Context, req ValidateRequest) (internal.ConflictResult, error) {
	var out internal.ConflictResult
	if err := c.postJSON(ctx, pathValidate, req, &out); err != nil {
		return internal.ConflictResult{}, err
	}
	if out.OK {
		out.Conflicts = nil
	}
	return out, nil
}

func (c *Client) SuggestAlternatives(ctx context.Context, req SuggestRequest) ([]internal.Suggestion, error) {
	var out struct {
		Suggestions []internal.Suggestion `json:"suggestions"`
	}
	if err := c.postJSON(ctx, pathSuggest, req, &out); err != nil {
		return nil, err
	}
	return out.Suggestions, nil
}

func (c *Client) UpdateByLocator(ctx context.Context, req UpdateRequest) (UpdateResult, error) {
	var out UpdateResult
	err := c.postJSON(ctx, pathUpdate, req, &out)
	return out, err
}

func (c *Client) GenerateSchedule(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	var out GenerateResult
	if err := c.postJSON(ctx, pathGenerate, req, &out); err != nil {
		return GenerateResult{}, err
	}
	if !out.Success {
		return out, fmt.Errorf("schedule generation failed: %s", out.Message)
	}
	return out, nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload, out any) error {
	baseURL := strings.TrimRight(c.cfg.SchedulerAPIBaseURL, "/") + "/"
	u, err := url.Parse(baseURL + endpoint)
	if err != nil {
		return err
	}
	blob, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(blob))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if token := strings.TrimSpace(c.cfg.SchedulerAPIToken); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if attempt < c.maxAttempts {
				backoff := retryBackoff(attempt)
				c.log.Warn("request failed, retrying", zap.String("endpoint", endpoint), zap.Int("attempt", attempt), zap.Duration("backoff", backoff), zap.Error(err))
				if err := sleepCtx(ctx, backoff); err != nil {
					return err
				}
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("status=%d body=%s", resp.StatusCode, truncate(body, 200))
			if isRetryableStatus(resp.StatusCode) && attempt < c.maxAttempts {
				backoff := retryBackoff(attempt)
				c.log.Warn("retrying", zap.String("endpoint", endpoint), zap.Int("status", resp.StatusCode), zap.Duration("backoff", backoff))
				if err := sleepCtx(ctx, backoff); err != nil {
					return err
				}
				continue
			}
			return fmt.Errorf("%w: %s: %v", ErrTransport, endpoint, lastErr)
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("%w: %s: decode: %v", ErrTransport, endpoint, err)
		}
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("request failed")
	}
	return fmt.Errorf("%w: %s: %v", ErrTransport, endpoint, lastErr)
}

// retryBackoff doubles from 250ms per attempt with up to 100ms of jitter.
func retryBackoff(attempt int) time.Duration {
	return time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}
