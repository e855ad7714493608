// Package subgraph implements the Indexer port against the settlement
// contracts' GraphQL index.
package subgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/keeper/internal/domain/entity"
	"github.com/archon-research/keeper/internal/pkg/httpclient"
	"github.com/archon-research/keeper/internal/pkg/retry"
	"github.com/archon-research/keeper/internal/ports/outbound"
)

var _ outbound.Indexer = (*Client)(nil)

// Trade and option states as indexed.
const (
	stateActive = 1
	stateQueued = 4
)

const queuedTradesQuery = `{
  queuedOptionDatas(
    orderBy: queueID
    orderDirection: asc
    where: {state_in: [%d], queueID_not: null}
    first: %d
  ) {
    queueID
    state
  }
}`

const expiredOptionsQuery = `{
  userOptionDatas(
    orderBy: creationTime
    orderDirection: asc
    where: {state_in: [%d], expirationTime_lt: %d, queueID_not: null}
    first: %d
  ) {
    optionID
    queueID
    optionContract {
      address
    }
    expirationTime
  }
}`

// Config holds the indexer client configuration.
type Config struct {
	Endpoint string
	Timeout  time.Duration
	Retry    retry.Policy
	Logger   *slog.Logger
}

func configDefaults() Config {
	return Config{
		Timeout: 10 * time.Second,
		Retry:   retry.Fixed(3, 500*time.Millisecond),
		Logger:  slog.Default(),
	}
}

// Client queries the GraphQL index.
type Client struct {
	endpoint string
	http     *httpclient.Client
	logger   *slog.Logger
}

// NewClient creates an indexer client.
func NewClient(config Config) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("graph endpoint is required")
	}
	defaults := configDefaults()
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.Retry == (retry.Policy{}) {
		config.Retry = defaults.Retry
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
	logger := config.Logger.With("component", "subgraph")

	return &Client{
		endpoint: config.Endpoint,
		http: httpclient.NewClient(httpclient.Config{
			Timeout: config.Timeout,
			Retry:   config.Retry,
		}, logger, parseGraphQLError),
		logger: logger,
	}, nil
}

type graphQLRequest struct {
	Query string `json:"query"`
}

type graphQLResponse[T any] struct {
	Data   T              `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type graphQLError struct {
	Message string `json:"message"`
}

// parseGraphQLError surfaces query errors returned with HTTP 200. They are
// usually indexing hiccups and are left retryable.
func parseGraphQLError(_ int, body []byte) error {
	var resp struct {
		Errors []graphQLError `json:"errors"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("graphql error: %s", resp.Errors[0].Message)
}

type queuedTradeRow struct {
	QueueID string `json:"queueID"`
	State   int    `json:"state"`
}

// QueuedTradeIDs returns up to limit queue ids with state queued.
func (c *Client) QueuedTradeIDs(ctx context.Context, limit int) ([]uint64, error) {
	var resp graphQLResponse[struct {
		QueuedOptionDatas []queuedTradeRow `json:"queuedOptionDatas"`
	}]
	query := fmt.Sprintf(queuedTradesQuery, stateQueued, limit)
	if err := c.http.PostJSON(ctx, c.endpoint, graphQLRequest{Query: query}, &resp); err != nil {
		return nil, fmt.Errorf("querying queued trades: %w", err)
	}

	ids := make([]uint64, 0, len(resp.Data.QueuedOptionDatas))
	for _, row := range resp.Data.QueuedOptionDatas {
		if row.State != stateQueued {
			continue
		}
		id, err := strconv.ParseUint(row.QueueID, 10, 64)
		if err != nil {
			c.logger.Warn("skipping malformed queue id", "queueId", row.QueueID, "error", err)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

type expiredOptionRow struct {
	OptionID       string `json:"optionID"`
	QueueID        string `json:"queueID"`
	OptionContract struct {
		Address string `json:"address"`
	} `json:"optionContract"`
	ExpirationTime string `json:"expirationTime"`
}

// ExpiredOptions returns up to limit active options that expired before now.
func (c *Client) ExpiredOptions(ctx context.Context, now time.Time, limit int) ([]entity.ExpiredOption, error) {
	var resp graphQLResponse[struct {
		UserOptionDatas []expiredOptionRow `json:"userOptionDatas"`
	}]
	query := fmt.Sprintf(expiredOptionsQuery, stateActive, now.Unix(), limit)
	if err := c.http.PostJSON(ctx, c.endpoint, graphQLRequest{Query: query}, &resp); err != nil {
		return nil, fmt.Errorf("querying expired options: %w", err)
	}

	options := make([]entity.ExpiredOption, 0, len(resp.Data.UserOptionDatas))
	for _, row := range resp.Data.UserOptionDatas {
		opt, err := row.toEntity()
		if err != nil {
			c.logger.Warn("skipping malformed option", "optionId", row.OptionID, "error", err)
			continue
		}
		options = append(options, *opt)
	}
	return options, nil
}

func (r expiredOptionRow) toEntity() (*entity.ExpiredOption, error) {
	optionID, err := strconv.ParseUint(r.OptionID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("optionID: %w", err)
	}
	var queueID uint64
	if r.QueueID != "" {
		if queueID, err = strconv.ParseUint(r.QueueID, 10, 64); err != nil {
			return nil, fmt.Errorf("queueID: %w", err)
		}
	}
	expiration, err := strconv.ParseInt(r.ExpirationTime, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("expirationTime: %w", err)
	}
	if !common.IsHexAddress(r.OptionContract.Address) {
		return nil, fmt.Errorf("invalid option contract %q", r.OptionContract.Address)
	}
	return entity.NewExpiredOption(optionID, queueID, common.HexToAddress(r.OptionContract.Address), expiration)
}
