package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/archon-research/keeper/internal/pkg/httpclient"
	"github.com/archon-research/keeper/internal/pkg/retry"
	"github.com/archon-research/keeper/internal/ports/outbound"
)

// ErrTransient marks a cycle failure caused by a degraded data source. The
// cycle is skipped and retried after the error backoff.
var ErrTransient = errors.New("transient data source failure")

var transientMessages = []string{
	"429",
	"too many requests",
	"rate limit",
	"unsupported block number",
	"header not found",
}

// IsTransient reports whether err is a known, recoverable data source failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransient) ||
		errors.Is(err, outbound.ErrSourceUnavailable) ||
		errors.Is(err, retry.ErrExhausted) ||
		errors.Is(err, httpclient.ErrRateLimited) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range transientMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

func classify(step string, err error) error {
	if IsTransient(err) && !errors.Is(err, ErrTransient) {
		return fmt.Errorf("%w: %s: %w", ErrTransient, step, err)
	}
	return fmt.Errorf("%s: %w", step, err)
}
