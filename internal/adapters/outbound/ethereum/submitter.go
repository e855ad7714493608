// Package ethereum signs and broadcasts keeper transactions.
package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/archon-research/keeper/internal/domain/entity"
	"github.com/archon-research/keeper/internal/pkg/blockchain/contract"
	"github.com/archon-research/keeper/internal/ports/outbound"
)

var _ outbound.TxSubmitter = (*Submitter)(nil)

// ErrSubmission wraps send failures that are not nonce or gas races.
var ErrSubmission = errors.New("transaction submission failed")

// Backend is the subset of *ethclient.Client used by the submitter.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Config holds the submitter configuration.
type Config struct {
	// PrivateKey is the hex encoded keeper account key.
	PrivateKey string
	// ChainID is read from the node when zero.
	ChainID int64
	// GasLimit caps the gas of one transaction and is used when estimation fails.
	GasLimit uint64
	// GasPriceFloor is used when the node suggestion is lower or unavailable.
	GasPriceFloor *big.Int
	// GasMultiplier is applied to the estimate.
	GasMultiplier float64
	// BumpPercent raises the gas price of a replacement transaction.
	BumpPercent int64
	// PollInterval is how often the account nonce is polled after sending.
	PollInterval time.Duration
	// ConfirmTimeout bounds the wait for the nonce to advance.
	ConfirmTimeout time.Duration
	Logger         *slog.Logger
}

func configDefaults() Config {
	return Config{
		GasLimit:       10_000_000,
		GasMultiplier:  1.5,
		BumpPercent:    25,
		PollInterval:   2 * time.Second,
		ConfirmTimeout: 2 * time.Minute,
		Logger:         slog.Default(),
	}
}

// minBumpPercent is the replacement price increase nodes require.
const minBumpPercent = 10

// Submitter implements outbound.TxSubmitter with a single keeper account.
type Submitter struct {
	config   Config
	backend  Backend
	registry *contract.Registry
	key      *ecdsa.PrivateKey
	from     common.Address
	signer   types.Signer
	logger   *slog.Logger

	// one transaction at a time per process
	mu sync.Mutex
}

// NewSubmitter creates a submitter. registry decodes receipt logs and may be nil.
func NewSubmitter(ctx context.Context, config Config, backend Backend, registry *contract.Registry) (*Submitter, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend cannot be nil")
	}
	if config.PrivateKey == "" {
		return nil, fmt.Errorf("private key is required")
	}

	defaults := configDefaults()
	if config.GasLimit == 0 {
		config.GasLimit = defaults.GasLimit
	}
	if config.GasMultiplier <= 0 {
		config.GasMultiplier = defaults.GasMultiplier
	}
	if config.BumpPercent < minBumpPercent {
		config.BumpPercent = defaults.BumpPercent
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.ConfirmTimeout <= 0 {
		config.ConfirmTimeout = defaults.ConfirmTimeout
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(config.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}

	chainID := big.NewInt(config.ChainID)
	if config.ChainID == 0 {
		chainID, err = backend.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading chain id: %w", err)
		}
	}

	from := crypto.PubkeyToAddress(key.PublicKey)
	return &Submitter{
		config:   config,
		backend:  backend,
		registry: registry,
		key:      key,
		from:     from,
		signer:   types.LatestSignerForChainID(chainID),
		logger:   config.Logger.With("component", "tx-submitter", "account", from.Hex()),
	}, nil
}

// From returns the keeper account address.
func (s *Submitter) From() common.Address {
	return s.from
}

type sendErrorKind int

const (
	sendOK sendErrorKind = iota
	sendNonceTooLow
	sendPending
	sendFatal
)

func classifySendError(err error) sendErrorKind {
	if err == nil {
		return sendOK
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "nonce too low"):
		return sendNonceTooLow
	case strings.Contains(msg, "already known"),
		strings.Contains(msg, "replacement transaction underpriced"),
		strings.Contains(msg, "transaction underpriced"):
		return sendPending
	default:
		return sendFatal
	}
}

// Submit signs req with a fresh nonce and broadcasts it. Nonce races and
// pending duplicates are reported through the outcome with a nil error.
func (s *Submitter) Submit(ctx context.Context, req outbound.TxRequest) (entity.SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	nonce, err := s.backend.NonceAt(ctx, s.from, nil)
	if err != nil {
		return entity.SubmitResult{}, fmt.Errorf("reading nonce: %w", err)
	}

	gasPrice := s.gasPrice(ctx)
	gasLimit, err := s.gasLimit(ctx, req, value, gasPrice)
	if err != nil {
		return entity.SubmitResult{}, err
	}
	log := s.logger.With("method", req.Method, "nonce", nonce)

	tx, err := s.sign(nonce, req, value, gasPrice, gasLimit)
	if err != nil {
		return entity.SubmitResult{}, err
	}

	sendErr := s.backend.SendTransaction(ctx, tx)
	kind := classifySendError(sendErr)

	if kind == sendPending {
		bumped := bumpGasPrice(gasPrice, s.config.BumpPercent)
		log.Info("transaction still in progress, resubmitting with higher gas price",
			"gasPrice", gasPrice, "bumpedGasPrice", bumped, "error", sendErr)

		tx, err = s.sign(nonce, req, value, bumped, gasLimit)
		if err != nil {
			return entity.SubmitResult{}, err
		}
		gasPrice = bumped
		sendErr = s.backend.SendTransaction(ctx, tx)
		kind = classifySendError(sendErr)
		if kind == sendPending {
			log.Info("transaction still in progress", "error", sendErr)
			return s.result(entity.SubmitInFlight, tx, nonce, gasPrice), nil
		}
	}

	switch kind {
	case sendNonceTooLow:
		log.Info("nonce too low, another transaction from this account landed first", "error", sendErr)
		return s.result(entity.SubmitNonceTooLow, tx, nonce, gasPrice), nil
	case sendFatal:
		return entity.SubmitResult{}, fmt.Errorf("%w: %s nonce=%d: %w", ErrSubmission, req.Method, nonce, sendErr)
	}

	log.Info("transaction sent", "txHash", tx.Hash().Hex(), "gasPrice", gasPrice, "gasLimit", gasLimit)
	return s.awaitConfirmation(ctx, tx, nonce, gasPrice)
}

func (s *Submitter) gasPrice(ctx context.Context) *big.Int {
	price, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		s.logger.Warn("gas price suggestion failed, using floor", "error", err)
		price = nil
	}
	floor := s.config.GasPriceFloor
	switch {
	case price == nil && floor == nil:
		return big.NewInt(1)
	case price == nil:
		return new(big.Int).Set(floor)
	case floor != nil && price.Cmp(floor) < 0:
		return new(big.Int).Set(floor)
	default:
		return price
	}
}

// gasLimit estimates the call with the multiplier applied. A reverting
// estimate aborts the submission; any other estimation failure falls back to
// the configured cap.
func (s *Submitter) gasLimit(ctx context.Context, req outbound.TxRequest, value, gasPrice *big.Int) (uint64, error) {
	to := req.To
	estimate, err := s.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:     s.from,
		To:       &to,
		GasPrice: gasPrice,
		Value:    value,
		Data:     req.Data,
	})
	if err != nil {
		if isRevert(err) {
			return 0, fmt.Errorf("%w: %s would revert: %w", ErrSubmission, req.Method, err)
		}
		s.logger.Warn("gas estimation failed, using gas limit cap", "method", req.Method, "error", err)
		return s.config.GasLimit, nil
	}
	limit := uint64(float64(estimate) * s.config.GasMultiplier)
	if limit > s.config.GasLimit {
		limit = s.config.GasLimit
	}
	return limit, nil
}

func isRevert(err error) bool {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) && dataErr.ErrorData() != nil {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "revert")
}

func (s *Submitter) sign(nonce uint64, req outbound.TxRequest, value, gasPrice *big.Int, gasLimit uint64) (*types.Transaction, error) {
	to := req.To
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &to,
		Value:    value,
		Data:     req.Data,
	})
	signed, err := types.SignTx(tx, s.signer, s.key)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	return signed, nil
}

// bumpGasPrice raises price by percent, never by less than the replacement minimum.
func bumpGasPrice(price *big.Int, percent int64) *big.Int {
	if percent < minBumpPercent {
		percent = minBumpPercent
	}
	bumped := new(big.Int).Mul(price, big.NewInt(100+percent))
	bumped.Div(bumped, big.NewInt(100))
	if bumped.Cmp(price) <= 0 {
		bumped.Add(price, big.NewInt(1))
	}
	return bumped
}

func (s *Submitter) result(outcome entity.SubmitOutcome, tx *types.Transaction, nonce uint64, gasPrice *big.Int) entity.SubmitResult {
	return entity.SubmitResult{
		Outcome:  outcome,
		TxHash:   tx.Hash(),
		Nonce:    nonce,
		GasPrice: gasPrice.String(),
	}
}

// awaitConfirmation polls the account nonce until it moves past nonce or the
// confirm timeout elapses. A timeout is not an error.
func (s *Submitter) awaitConfirmation(ctx context.Context, tx *types.Transaction, nonce uint64, gasPrice *big.Int) (entity.SubmitResult, error) {
	res := s.result(entity.SubmitUnconfirmed, tx, nonce, gasPrice)
	deadline := time.NewTimer(s.config.ConfirmTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-deadline.C:
			s.logger.Warn("transaction not confirmed in time",
				"txHash", tx.Hash().Hex(), "nonce", nonce, "timeout", s.config.ConfirmTimeout)
			return res, nil
		case <-ticker.C:
			current, err := s.backend.NonceAt(ctx, s.from, nil)
			if err != nil {
				s.logger.Debug("nonce poll failed", "error", err)
				continue
			}
			if current > nonce {
				res.Outcome = entity.SubmitConfirmed
				res.Events = s.receiptEvents(ctx, tx.Hash())
				return res, nil
			}
		}
	}
}

func (s *Submitter) receiptEvents(ctx context.Context, txHash common.Hash) []string {
	receipt, err := s.backend.TransactionReceipt(ctx, txHash)
	if err != nil {
		s.logger.Warn("receipt unavailable, nonce consumed by another transaction?", "txHash", txHash.Hex(), "error", err)
		return nil
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		s.logger.Warn("transaction reverted", "txHash", txHash.Hex(), "gasUsed", receipt.GasUsed)
	}
	if s.registry == nil {
		return nil
	}

	events := s.registry.DecodeLogs(receipt.Logs)
	names := make([]string, len(events))
	for i, ev := range events {
		names[i] = ev.Name
		s.logger.Info("settlement event", "txHash", txHash.Hex(), "event", ev.Name, "contract", ev.Contract.Hex(), "fields", ev.Fields)
	}
	return names
}
