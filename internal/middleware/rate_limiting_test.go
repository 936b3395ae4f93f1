package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/davidjes1/fitnesstracker/internal/telemetry/metrics"

	"github.com/go-redis/redis_rate/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type fakeLimiter struct {
	allowed int
	err     error
	keys    []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	f.keys = append(f.keys, key)
	if f.err != nil {
		return nil, f.err
	}
	res := &redis_rate.Result{Limit: limit, Allowed: 0, RetryAfter: 3 * time.Second}
	if f.allowed > 0 {
		f.allowed--
		res.Allowed = 1
	}
	return res, nil
}

func TestRateLimit(t *testing.T) {
	m := metrics.NewTestManager()
	limiter := &fakeLimiter{allowed: 2}
	handler := RateLimit(limiter, m, "auth", 2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("POST", "/auth/login", nil))
		codes = append(codes, rr.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooEarly}, codes)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterRateLimitedRequests))
	assert.Equal(t, "fitness-tracker-rate||auth", limiter.keys[0])
}

func TestRateLimit_LimiterError(t *testing.T) {
	handler := RateLimit(&fakeLimiter{err: errors.New("redis gone")}, nil, "auth", 2)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("must not be called")
		}),
	)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("POST", "/auth/login", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
