package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/archon-research/keeper/db/migrations"
	"github.com/archon-research/keeper/db/migrator"
	"github.com/archon-research/keeper/internal/adapters/outbound/ethereum"
	"github.com/archon-research/keeper/internal/adapters/outbound/github"
	"github.com/archon-research/keeper/internal/adapters/outbound/oracle"
	"github.com/archon-research/keeper/internal/adapters/outbound/postgres"
	snsadapter "github.com/archon-research/keeper/internal/adapters/outbound/sns"
	"github.com/archon-research/keeper/internal/adapters/outbound/subgraph"
	"github.com/archon-research/keeper/internal/config"
	"github.com/archon-research/keeper/internal/domain/entity"
	"github.com/archon-research/keeper/internal/pkg/blockchain/contract"
	"github.com/archon-research/keeper/internal/pkg/blockchain/feeds"
	"github.com/archon-research/keeper/internal/pkg/blockchain/multicall"
	"github.com/archon-research/keeper/internal/pkg/env"
	"github.com/archon-research/keeper/internal/ports/inbound"
	"github.com/archon-research/keeper/internal/ports/outbound"
	"github.com/archon-research/keeper/internal/services/resolver"
	"github.com/archon-research/keeper/internal/services/supervisor"
)

// buildResolver wires the chain, oracle, indexer and optional settlement log
// for the open or close role. cleanup releases the connections it opened.
func buildResolver(
	ctx context.Context,
	cfg cliConfig,
	chain config.Environment,
	cache outbound.KeyValueStore,
	metrics outbound.MetricsRecorder,
	logger *slog.Logger,
) (r inbound.Resolver, cleanup func(), err error) {
	var closers []func()
	cleanup = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	defer func() {
		if err != nil {
			cleanup()
			cleanup = nil
		}
	}()

	rpcURL := env.Get("RPC_URL", "")
	if rpcURL == "" {
		return nil, nil, fmt.Errorf("RPC_URL environment variable is required")
	}
	privateKey := env.Get("KEEPER_ACCOUNT_PK", "")
	if privateKey == "" {
		return nil, nil, fmt.Errorf("KEEPER_ACCOUNT_PK environment variable is required")
	}

	ethClient, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to RPC node: %w", err)
	}
	closers = append(closers, ethClient.Close)
	logger.Info("RPC node connected")

	var mc outbound.Multicaller
	switch mode := env.Get("MULTICALL_MODE", "aggregate3"); mode {
	case "aggregate3":
		mc, err = multicall.NewClient(ethClient, chain.MulticallAddress())
		if err != nil {
			return nil, nil, fmt.Errorf("creating multicall client: %w", err)
		}
	case "direct":
		mc = multicall.NewDirectCaller(ethClient.Client())
	default:
		return nil, nil, fmt.Errorf("unknown MULTICALL_MODE %q (want aggregate3 or direct)", mode)
	}
	batcher, err := multicall.NewBatcher(mc, multicall.BatcherConfig{Logger: logger})
	if err != nil {
		return nil, nil, fmt.Errorf("creating multicall batcher: %w", err)
	}

	registry := contract.NewRegistry(cfg.environment, logger)

	priceTTL, err := env.GetDuration("PRICE_CACHE_TTL", oracle.ConfigDefaults().CacheTTL)
	if err != nil {
		return nil, nil, err
	}
	prices, err := oracle.NewClient(oracle.Config{
		BaseURL:  env.Get("ORACLE_BASE_API", ""),
		CacheTTL: priceTTL,
		Logger:   logger,
	}, cache)
	if err != nil {
		return nil, nil, fmt.Errorf("creating price oracle client: %w", err)
	}

	indexer, err := subgraph.NewClient(subgraph.Config{
		Endpoint: chain.GraphEndpoint,
		Logger:   logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating indexer client: %w", err)
	}

	confirmTimeout, err := env.GetDuration("CONFIRM_TIMEOUT", 0)
	if err != nil {
		return nil, nil, err
	}
	submitter, err := ethereum.NewSubmitter(ctx, ethereum.Config{
		PrivateKey:     privateKey,
		ChainID:        chain.ChainID,
		GasLimit:       chain.GasLimit,
		GasPriceFloor:  big.NewInt(chain.GasPriceWei),
		ConfirmTimeout: confirmTimeout,
		Logger:         logger,
	}, ethClient, registry)
	if err != nil {
		return nil, nil, fmt.Errorf("creating transaction submitter: %w", err)
	}
	logger.Info("keeper account loaded", "address", submitter.From().Hex())

	settlements, closeDB, err := openSettlementLog(ctx, logger)
	if err != nil {
		return nil, nil, err
	}
	if closeDB != nil {
		closers = append(closers, closeDB)
	}

	maxBatch, err := env.GetInt("MAX_BATCH_SIZE", entity.DefaultMaxBatchSize)
	if err != nil {
		return nil, nil, err
	}
	rcfg := resolver.Config{
		Environment:  cfg.environment,
		Router:       chain.RouterAddress(),
		PriceFeed:    chain.PythAddress(),
		MaxBatchSize: maxBatch,
		Logger:       logger,
	}
	deps := resolver.Dependencies{
		Indexer:   indexer,
		Oracle:    prices,
		Reader:    batcher,
		Submitter: submitter,
		Cache:     cache,
		Registry:  registry,
		Feeds:     feeds.NewTable(nil),
		Metrics:   metrics,
	}
	if settlements != nil {
		deps.Settlements = settlements
	}

	switch cfg.role {
	case entity.RoleOpen:
		r, err = resolver.NewQueueResolver(rcfg, deps)
	case entity.RoleClose:
		r, err = resolver.NewExpiryResolver(rcfg, deps)
	default:
		err = fmt.Errorf("role %s has no resolver", cfg.role)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s resolver: %w", cfg.role, err)
	}
	return r, cleanup, nil
}

// openSettlementLog connects the optional settlement log when DATABASE_URL
// is set and brings its schema up to date.
func openSettlementLog(ctx context.Context, logger *slog.Logger) (*postgres.SettlementRepository, func(), error) {
	dbURL := env.Get("DATABASE_URL", "")
	if dbURL == "" {
		logger.Info("DATABASE_URL not set, settlement log disabled")
		return nil, nil, nil
	}

	dbConfig := postgres.DefaultDBConfig(dbURL)
	dbConfig.Logger = logger
	pool, err := postgres.OpenPool(ctx, dbConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := migrator.New(pool, migrations.FS, logger).ApplyAll(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("applying migrations: %w", err)
	}
	repo, err := postgres.NewSettlementRepository(pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("creating settlement repository: %w", err)
	}
	logger.Info("PostgreSQL connected, settlement log enabled")
	return repo, pool.Close, nil
}

// buildMonitor wires the SNS alerter and the optional GitHub recovery trigger.
func buildMonitor(
	ctx context.Context,
	cfg cliConfig,
	loop loopSettings,
	cache outbound.KeyValueStore,
	metrics outbound.MetricsRecorder,
	logger *slog.Logger,
) (inbound.Resolver, error) {
	topicARN := env.Get("ALERT_SNS_TOPIC_ARN", "")
	if topicARN == "" {
		return nil, fmt.Errorf("ALERT_SNS_TOPIC_ARN environment variable is required for %s", cfg.role)
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(env.Get("AWS_REGION", "eu-west-1")),
	}
	// AWS_SNS_ENDPOINT points at a local emulator that accepts any static key.
	endpoint := env.Get("AWS_SNS_ENDPOINT", "")
	if endpoint != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("test", "test", ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	var snsOptFns []func(*sns.Options)
	if endpoint != "" {
		snsOptFns = append(snsOptFns, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	alerter, err := snsadapter.NewAlerter(sns.NewFromConfig(awsCfg, snsOptFns...), snsadapter.Config{
		TopicARN:    topicARN,
		Environment: cfg.environment,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating alerter: %w", err)
	}

	var recovery outbound.RecoveryTrigger
	if token := env.Get("GITHUB_TOKEN", ""); token != "" {
		trigger, err := github.NewRecoveryTrigger(github.Config{
			Token:  token,
			Repo:   env.Get("RECOVERY_REPO", ""),
			Branch: env.Get("RECOVERY_BRANCH", ""),
			Logger: logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating recovery trigger: %w", err)
		}
		recovery = trigger
	} else {
		logger.Info("GITHUB_TOKEN not set, automatic recovery disabled")
	}

	var roles []entity.Role
	for _, name := range env.GetList("MONITORED_ROLES", nil) {
		role, err := entity.ParseRole(name)
		if err != nil {
			return nil, fmt.Errorf("MONITORED_ROLES: %w", err)
		}
		roles = append(roles, role)
	}

	m, err := supervisor.NewMonitor(supervisor.MonitorConfig{
		Environment:   cfg.environment,
		Roles:         roles,
		HaltThreshold: loop.haltThreshold,
		Logger:        logger,
	}, cache, alerter, recovery, metrics)
	if err != nil {
		return nil, fmt.Errorf("creating monitor: %w", err)
	}
	return m, nil
}
