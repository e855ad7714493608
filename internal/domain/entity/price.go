package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AssetTimeKey names the price of one asset at one unix timestamp.
type AssetTimeKey struct {
	Asset     string
	Timestamp int64
}

// NewAssetTimeKey normalizes the asset symbol ("BTC-USD" becomes "BTCUSD").
func NewAssetTimeKey(asset string, timestamp int64) AssetTimeKey {
	return AssetTimeKey{Asset: NormalizeAssetPair(asset), Timestamp: timestamp}
}

// String returns the cache form of the key, e.g. "BTCUSD-100".
func (k AssetTimeKey) String() string {
	return fmt.Sprintf("%s-%d", k.Asset, k.Timestamp)
}

// NormalizeAssetPair strips the separator from an on-chain asset pair.
func NormalizeAssetPair(pair string) string {
	return strings.ToUpper(strings.ReplaceAll(pair, "-", ""))
}

// PriceQuote is a signed price attestation for an AssetTimeKey.
type PriceQuote struct {
	Price     decimal.Decimal
	Signature []byte
	FetchedAt time.Time
}

// NewPriceQuote creates a PriceQuote. A quote without a signature cannot be
// submitted and is rejected.
func NewPriceQuote(price decimal.Decimal, signature []byte, fetchedAt time.Time) (*PriceQuote, error) {
	q := &PriceQuote{Price: price, Signature: signature, FetchedAt: fetchedAt}
	if err := q.validate(); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *PriceQuote) validate() error {
	if len(q.Signature) == 0 {
		return fmt.Errorf("signature must not be empty")
	}
	if q.Price.Sign() <= 0 {
		return fmt.Errorf("price must be positive, got %s", q.Price)
	}
	return nil
}

// Lag returns how far the quote's timestamp trails now.
func (k AssetTimeKey) Lag(now time.Time) time.Duration {
	return now.Sub(time.Unix(k.Timestamp, 0))
}
