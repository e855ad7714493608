// Package oracle fetches signed price attestations from the off-chain
// price service and caches them per (asset, timestamp).
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"

	"github.com/archon-research/keeper/internal/domain/entity"
	"github.com/archon-research/keeper/internal/pkg/httpclient"
	"github.com/archon-research/keeper/internal/pkg/pipeline"
	"github.com/archon-research/keeper/internal/pkg/retry"
	"github.com/archon-research/keeper/internal/ports/outbound"
)

var _ outbound.PriceOracle = (*Client)(nil)

// ErrUnavailable is returned when the price service cannot be reached within
// the retry policy.
var ErrUnavailable = fmt.Errorf("price oracle: %w", outbound.ErrSourceUnavailable)

const queryPath = "/price/query/"

// Config holds the price oracle client configuration.
type Config struct {
	BaseURL  string
	CacheTTL time.Duration
	Timeout  time.Duration
	Retry    retry.Policy
	Logger   *slog.Logger
	Now      func() time.Time
}

// ConfigDefaults returns the production defaults.
func ConfigDefaults() Config {
	return Config{
		BaseURL:  "https://oracle.buffer.finance",
		CacheTTL: 2 * time.Hour,
		Timeout:  5 * time.Second,
		Retry:    retry.Fixed(10, 100*time.Millisecond),
		Logger:   slog.Default(),
		Now:      time.Now,
	}
}

// Client implements outbound.PriceOracle.
type Client struct {
	config Config
	http   *httpclient.Client
	cache  outbound.KeyValueStore
	logger *slog.Logger
}

// NewClient creates a price oracle client backed by cache.
func NewClient(config Config, cache outbound.KeyValueStore) (*Client, error) {
	if cache == nil {
		return nil, fmt.Errorf("cache cannot be nil")
	}

	defaults := ConfigDefaults()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = defaults.CacheTTL
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.Retry == (retry.Policy{}) {
		config.Retry = defaults.Retry
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
	if config.Now == nil {
		config.Now = defaults.Now
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	logger := config.Logger.With("component", "price-oracle")

	return &Client{
		config: config,
		http: httpclient.NewClient(httpclient.Config{
			Timeout: config.Timeout,
			Retry:   config.Retry,
		}, logger, nil),
		cache:  cache,
		logger: logger,
	}, nil
}

type queryItem struct {
	Pair      string `json:"pair"`
	Timestamp int64  `json:"timestamp"`
}

type queryResult struct {
	Pair      string          `json:"pair"`
	Timestamp int64           `json:"timestamp"`
	Price     decimal.Decimal `json:"price"`
	Signature *string         `json:"signature"`
}

type cachedQuote struct {
	Price     decimal.Decimal `json:"price"`
	Signature string          `json:"signature"`
	FetchedAt int64           `json:"fetchedAt"`
}

// FetchPrices returns quotes for the distinct keys. Cached keys are served
// without a request; the rest are fetched in one batched call. Keys whose
// attestation is not available yet are omitted from the result.
func (c *Client) FetchPrices(ctx context.Context, keys []entity.AssetTimeKey) (map[entity.AssetTimeKey]entity.PriceQuote, error) {
	keys = pipeline.DedupeFirst(keys, func(k entity.AssetTimeKey) entity.AssetTimeKey { return k })
	quotes := make(map[entity.AssetTimeKey]entity.PriceQuote, len(keys))
	if len(keys) == 0 {
		return quotes, nil
	}

	uncached := c.readCache(ctx, keys, quotes)
	if len(uncached) == 0 {
		return quotes, nil
	}

	fetched, err := c.query(ctx, uncached)
	if err != nil {
		return nil, err
	}

	toCache := make(map[string]string, len(fetched))
	for key, quote := range fetched {
		quotes[key] = quote
		encoded, err := json.Marshal(cachedQuote{
			Price:     quote.Price,
			Signature: hexutil.Encode(quote.Signature),
			FetchedAt: quote.FetchedAt.Unix(),
		})
		if err != nil {
			continue
		}
		toCache[key.String()] = string(encoded)
	}
	if err := c.cache.SetMany(ctx, toCache, c.config.CacheTTL); err != nil {
		c.logger.Warn("failed to cache prices", "count", len(toCache), "error", err)
	}

	c.logLag(fetched)
	return quotes, nil
}

// readCache fills quotes from the cache and returns the keys still missing.
// Cache failures degrade to a full fetch.
func (c *Client) readCache(ctx context.Context, keys []entity.AssetTimeKey, quotes map[entity.AssetTimeKey]entity.PriceQuote) []entity.AssetTimeKey {
	names := pipeline.Map(keys, entity.AssetTimeKey.String)
	cached, err := c.cache.GetMany(ctx, names)
	if err != nil {
		c.logger.Warn("price cache unavailable, fetching all", "error", err)
		return keys
	}

	var uncached []entity.AssetTimeKey
	for _, key := range keys {
		raw, ok := cached[key.String()]
		if !ok {
			uncached = append(uncached, key)
			continue
		}
		var cq cachedQuote
		if err := json.Unmarshal([]byte(raw), &cq); err != nil || cq.Signature == "" {
			uncached = append(uncached, key)
			continue
		}
		quotes[key] = entity.PriceQuote{
			Price:     cq.Price,
			Signature: common.FromHex(cq.Signature),
			FetchedAt: time.Unix(cq.FetchedAt, 0),
		}
	}
	return uncached
}

func (c *Client) query(ctx context.Context, keys []entity.AssetTimeKey) (map[entity.AssetTimeKey]entity.PriceQuote, error) {
	body := pipeline.Map(keys, func(k entity.AssetTimeKey) queryItem {
		return queryItem{Pair: k.Asset, Timestamp: k.Timestamp}
	})

	var results []queryResult
	if err := c.http.PostJSON(ctx, c.config.BaseURL+queryPath, body, &results); err != nil {
		return nil, fmt.Errorf("%w: querying %d prices: %w", ErrUnavailable, len(keys), err)
	}

	requested := make(map[entity.AssetTimeKey]struct{}, len(keys))
	for _, k := range keys {
		requested[k] = struct{}{}
	}

	now := c.config.Now()
	out := make(map[entity.AssetTimeKey]entity.PriceQuote, len(results))
	for _, r := range results {
		key := entity.NewAssetTimeKey(r.Pair, r.Timestamp)
		if _, ok := requested[key]; !ok {
			continue
		}
		if r.Signature == nil || *r.Signature == "" {
			c.logger.Debug("price not signed yet", "key", key.String())
			continue
		}
		quote, err := entity.NewPriceQuote(r.Price, common.FromHex(*r.Signature), now)
		if err != nil {
			c.logger.Warn("discarding invalid price", "key", key.String(), "error", err)
			continue
		}
		out[key] = *quote
	}
	return out, nil
}

func (c *Client) logLag(fetched map[entity.AssetTimeKey]entity.PriceQuote) {
	if len(fetched) == 0 {
		return
	}
	now := c.config.Now()
	lags := make(map[string]string, len(fetched))
	for key := range fetched {
		lags[key.String()] = key.Lag(now).Round(10 * time.Millisecond).String()
	}
	c.logger.Info("price fetching lags", "lags", lags)
}
