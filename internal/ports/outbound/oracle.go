package outbound

import (
	"context"
	"errors"

	"github.com/archon-research/keeper/internal/domain/entity"
)

// ErrSourceUnavailable marks a data source that could not be reached within
// its retry policy. Callers skip the cycle and try again later.
var ErrSourceUnavailable = errors.New("data source unavailable")

// PriceOracle returns signed price attestations. Keys without a usable
// attestation are absent from the result; that is not an error.
type PriceOracle interface {
	FetchPrices(ctx context.Context, keys []entity.AssetTimeKey) (map[entity.AssetTimeKey]entity.PriceQuote, error)
}
