package resolver

import (
	"errors"
	"fmt"
	"testing"

	"github.com/archon-research/keeper/internal/pkg/httpclient"
	"github.com/archon-research/keeper/internal/pkg/retry"
	"github.com/archon-research/keeper/internal/ports/outbound"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", ErrTransient, true},
		{"source unavailable", fmt.Errorf("x: %w", outbound.ErrSourceUnavailable), true},
		{"retries exhausted", fmt.Errorf("x: %w", retry.ErrExhausted), true},
		{"rate limited", httpclient.ErrRateLimited, true},
		{"rpc rate limit", errors.New("429 Too Many Requests"), true},
		{"unsupported block", errors.New("unsupported block number 123"), true},
		{"other", errors.New("execution reverted"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	err := classify("fetching prices", retry.ErrExhausted)
	if !errors.Is(err, ErrTransient) || !errors.Is(err, retry.ErrExhausted) {
		t.Errorf("classify() = %v, want ErrTransient wrapping the cause", err)
	}
	err = classify("packing", errors.New("bad"))
	if errors.Is(err, ErrTransient) {
		t.Errorf("classify() marked an unknown error transient: %v", err)
	}
}
