package chat

import (
	"errors"
	"testing"
)

func TestRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit", errors.New("429 Too Many Requests"), true},
		{"quota", errors.New("Quota Exceeded for model"), true},
		{"server error", errors.New("got 503 from upstream"), true},
		{"unavailable", errors.New("service UNAVAILABLE"), true},
		{"timeout", errors.New("context deadline exceeded: timeout"), true},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"bad request", errors.New("400 invalid argument"), false},
		{"auth failure", errors.New("401 unauthorized"), false},
		{"schema error", errors.New("tool input does not match schema"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryableError(tt.err); got != tt.want {
				t.Errorf("retryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d", cfg.MaxRetries)
	}
	if cfg.InitialInterval <= 0 || cfg.MaxInterval < cfg.InitialInterval {
		t.Errorf("intervals misconfigured: %+v", cfg)
	}
}
