package leetcode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-academicus/1board/internal/domain/shared"
	"github.com/nexus-academicus/1board/pkg/circuitbreaker"
)

const dailyPayload = `{
  "data": {
    "activeDailyCodingChallengeQuestion": {
      "date": "2024-07-20",
      "link": "/problems/two-sum/",
      "question": {
        "acRate": 52.3,
        "difficulty": "Easy",
        "frontendQuestionId": "1",
        "paidOnly": false,
        "title": "Two Sum",
        "titleSlug": "two-sum",
        "topicTags": [{"name": "Array", "slug": "array"}, {"name": "Hash Table", "slug": "hash-table"}]
      }
    }
  }
}`

func testClient(url string) *Client {
	cfg := DefaultConfig()
	cfg.Endpoint = url
	cfg.MaxAttempts = 3
	cfg.CacheTTL = 0
	cfg.Breaker = circuitbreaker.Settings{Name: "leetcode-test", FailureThreshold: 2, CoolDown: time.Hour}
	c := NewClient(cfg)
	c.policy.InitialDelay = time.Millisecond
	c.policy.MaxDelay = 2 * time.Millisecond
	c.policy.Jitter = 0
	return c
}

func TestDailyProblem_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "https://leetcode.com/", r.Header.Get("Referer"))

		body, _ := io.ReadAll(r.Body)
		var req graphQLRequest
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Contains(t, req.Query, "activeDailyCodingChallengeQuestion")

		_, _ = w.Write([]byte(dailyPayload))
	}))
	defer srv.Close()

	p, err := testClient(srv.URL).DailyProblem(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Two Sum", p.Title)
	assert.Equal(t, "https://leetcode.com/problems/two-sum/", p.Link)
	assert.Equal(t, []string{"Array", "Hash Table"}, p.Tags)
	assert.Equal(t, "Easy", p.Difficulty)
}

func TestDailyProblem_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(dailyPayload))
	}))
	defer srv.Close()

	p, err := testClient(srv.URL).DailyProblem(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "two-sum", p.TitleSlug)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDailyProblem_GraphQLErrorsAreBadResponse(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"data": null, "errors": [{"message": "rate limited"}]}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).DailyProblem(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrLeetCodeBadResponse)
	assert.ErrorIs(t, err, shared.ErrExternalService)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDailyProblem_OpensCircuit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	for i := 0; i < 2; i++ {
		_, err := c.DailyProblem(context.Background())
		assert.ErrorIs(t, err, shared.ErrLeetCodeUnavailable)
		assert.True(t, shared.IsUnavailable(err))
	}
	assert.Equal(t, int32(6), calls.Load())

	_, err := c.DailyProblem(context.Background())
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	assert.Equal(t, int32(6), calls.Load())
}

func TestDailyProblem_CachesResult(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(dailyPayload))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.cacheTTL = time.Minute
	now := time.Date(2024, 7, 20, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_, err := c.DailyProblem(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load())

	now = now.Add(2 * time.Minute)
	_, err := c.DailyProblem(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}
