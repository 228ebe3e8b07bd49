// Package leetcode fetches LeetCode's daily coding challenge through the
// public GraphQL endpoint.
package leetcode

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nexus-academicus/1board/internal/application/query"
	"github.com/nexus-academicus/1board/internal/domain/shared"
	"github.com/nexus-academicus/1board/pkg/circuitbreaker"
	"github.com/nexus-academicus/1board/pkg/logger"
	"github.com/nexus-academicus/1board/pkg/retry"
)

// DefaultEndpoint is the public GraphQL endpoint.
const DefaultEndpoint = "https://leetcode.com/graphql"

const dailyProblemQuery = `
query questionOfToday {
  activeDailyCodingChallengeQuestion {
    date
    link
    question {
      acRate
      difficulty
      frontendQuestionId: questionFrontendId
      paidOnly: isPaidOnly
      title
      titleSlug
      topicTags {
        name
        slug
      }
    }
  }
}`

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains configuration for the LeetCode client.
type Config struct {
	Endpoint string

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration

	// MaxAttempts includes the first call.
	MaxAttempts int

	// CacheTTL keeps a fetched problem for this long. The problem changes
	// once a day, so a few minutes is plenty.
	CacheTTL time.Duration

	Breaker circuitbreaker.Settings
	Logger  *logger.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Endpoint:    DefaultEndpoint,
		Timeout:     10 * time.Second,
		MaxAttempts: 3,
		CacheTTL:    15 * time.Minute,
		Breaker:     circuitbreaker.DefaultSettings("leetcode"),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client implements query.DailyProblemProvider.
type Client struct {
	endpoint   string
	httpClient *http.Client
	policy     retry.Policy
	breaker    *circuitbreaker.Breaker
	log        *logger.Logger
	cacheTTL   time.Duration
	now        func() time.Time

	mu       sync.Mutex
	cached   *query.DailyProblem
	cachedAt time.Time
}

// NewClient creates a new LeetCode client.
func NewClient(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.Endpoint == "" {
		cfg.Endpoint = def.Endpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker.Name = "leetcode"
	}

	log := cfg.Logger.With(logger.Component("leetcode"))
	cfg.Breaker.OnStateChange = func(name string, from, to circuitbreaker.State) {
		log.Warn("circuit breaker state changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	}

	policy := retry.ExternalAPIPolicy(cfg.MaxAttempts)
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		log.Debug("retrying daily problem fetch",
			logger.Int("attempt", attempt),
			logger.Duration("delay", delay),
			logger.Err(err),
		)
	}

	return &Client{
		endpoint:   cfg.Endpoint,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		policy:     policy,
		breaker:    circuitbreaker.New(cfg.Breaker),
		log:        log,
		cacheTTL:   cfg.CacheTTL,
		now:        time.Now,
	}
}

// DailyProblem returns today's problem. Failures surface as
// shared.ErrLeetCodeUnavailable (network, 5xx, open circuit) or
// shared.ErrLeetCodeBadResponse (malformed payload, GraphQL errors).
func (c *Client) DailyProblem(ctx context.Context) (*query.DailyProblem, error) {
	if p := c.fromCache(); p != nil {
		return p, nil
	}

	p, err := circuitbreaker.Call(ctx, c.breaker, func(ctx context.Context) (*query.DailyProblem, error) {
		return retry.DoValue(ctx, c.policy, c.fetch)
	})
	if err != nil {
		c.log.Warn("daily problem unavailable", logger.Err(err))
		return nil, classify(err)
	}

	c.mu.Lock()
	c.cached, c.cachedAt = p, c.now()
	c.mu.Unlock()
	return p, nil
}

func (c *Client) fromCache() *query.DailyProblem {
	if c.cacheTTL <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached == nil || c.now().Sub(c.cachedAt) >= c.cacheTTL {
		return nil
	}
	p := *c.cached
	return &p
}

// errBadResponse marks payload problems so classify can tell them apart.
var errBadResponse = errors.New("bad response")

func (c *Client) fetch(ctx context.Context) (*query.DailyProblem, error) {
	body, err := json.Marshal(graphQLRequest{Query: dailyProblemQuery})
	if err != nil {
		return nil, retry.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, retry.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", "https://leetcode.com/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, retry.Retryable(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, retry.Retryable(err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, retry.Retryable(fmt.Errorf("leetcode: status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", errBadResponse, resp.StatusCode)
	}

	var out graphQLResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadResponse, err)
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, fmt.Errorf("%w: %s", errBadResponse, strings.Join(msgs, "; "))
	}
	if out.Data.Daily == nil || out.Data.Daily.Question.Title == "" {
		return nil, fmt.Errorf("%w: empty daily challenge", errBadResponse)
	}
	return out.Data.Daily.toProblem(), nil
}

func classify(err error) error {
	if errors.Is(err, errBadResponse) {
		return shared.WrapError("leetcode", "DailyProblem", shared.ErrLeetCodeBadResponse, "bad response from LeetCode", err)
	}
	return shared.WrapError("leetcode", "DailyProblem", shared.ErrLeetCodeUnavailable, "LeetCode is unavailable", err)
}

var _ query.DailyProblemProvider = (*Client)(nil)
