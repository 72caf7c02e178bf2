package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestRetryPolicyBackoff(t *testing.T) {
	p := retryPolicy{attempts: 6, base: time.Second, limit: 10 * time.Second}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second}
	for i, w := range want {
		if got := p.backoff(i + 1); got != w {
			t.Errorf("backoff(%d) = %s, want %s", i+1, got, w)
		}
	}
}

func TestRetryPolicyNext(t *testing.T) {
	p := retryPolicy{attempts: 3, base: time.Second, limit: 5 * time.Second}
	ctx := context.Background()

	tests := []struct {
		name    string
		err     error
		attempt int
		delay   time.Duration
		retry   bool
	}{
		{"server error", &statusError{Code: http.StatusBadGateway}, 1, time.Second, true},
		{"rate limited with hint", &statusError{Code: http.StatusTooManyRequests, RetryAfter: 30 * time.Second}, 1, 5 * time.Second, true},
		{"client error", &statusError{Code: http.StatusUnauthorized}, 1, 0, false},
		{"empty completion", &emptyCompletionError{Op: "x"}, 2, 2 * time.Second, true},
		{"budget spent", &statusError{Code: http.StatusBadGateway}, 3, 0, false},
		{"cancelled", context.Canceled, 1, 0, false},
		{"other", errors.New("decode"), 1, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delay, retry := p.next(ctx, tt.err, tt.attempt)
			if retry != tt.retry || delay != tt.delay {
				t.Fatalf("next = (%s, %v), want (%s, %v)", delay, retry, tt.delay, tt.retry)
			}
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if d, ok := parseRetryAfter("7", now); !ok || d != 7*time.Second {
		t.Fatalf("seconds form: %s %v", d, ok)
	}
	date := now.Add(90 * time.Second).Format(http.TimeFormat)
	if d, ok := parseRetryAfter(date, now); !ok || d != 90*time.Second {
		t.Fatalf("date form: %s %v", d, ok)
	}
	for _, bad := range []string{"", "-1", "soon", now.Add(-time.Minute).Format(http.TimeFormat)} {
		if _, ok := parseRetryAfter(bad, now); ok {
			t.Errorf("parseRetryAfter(%q) should be rejected", bad)
		}
	}
}
