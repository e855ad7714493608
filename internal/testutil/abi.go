package testutil

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/keeper/internal/pkg/blockchain/abis"
)

// QueuedTrade describes the fields of a router queue record that tests care about.
type QueuedTrade struct {
	QueueID        int64
	IsAbove        bool
	TargetContract common.Address
	QueuedTime     int64
	IsQueued       bool
}

// PackQueuedTrade ABI-encodes queuedTrades() return data.
func PackQueuedTrade(t *testing.T, q QueuedTrade) []byte {
	t.Helper()
	routerABI, err := abis.GetRouterABI()
	if err != nil {
		t.Fatalf("loading router ABI: %v", err)
	}
	data, err := routerABI.Methods["queuedTrades"].Outputs.Pack(
		big.NewInt(q.QueueID),
		big.NewInt(0),
		common.HexToAddress("0x00000000000000000000000000000000000000a1"),
		big.NewInt(1_000_000),
		big.NewInt(300),
		q.IsAbove,
		q.TargetContract,
		big.NewInt(0),
		big.NewInt(0),
		big.NewInt(q.QueuedTime),
		q.IsQueued,
		"",
		big.NewInt(0),
	)
	if err != nil {
		t.Fatalf("packing queuedTrades: %v", err)
	}
	return data
}

// PackOption ABI-encodes options() return data with the given state.
func PackOption(t *testing.T, state uint8, expiration int64) []byte {
	t.Helper()
	optionsABI, err := abis.GetOptionsABI()
	if err != nil {
		t.Fatalf("loading options ABI: %v", err)
	}
	data, err := optionsABI.Methods["options"].Outputs.Pack(
		state,
		big.NewInt(100),
		big.NewInt(1),
		big.NewInt(1),
		big.NewInt(1),
		big.NewInt(expiration),
		true,
		big.NewInt(1),
		big.NewInt(expiration-300),
	)
	if err != nil {
		t.Fatalf("packing options: %v", err)
	}
	return data
}

// PackAssetPair ABI-encodes assetPair() return data.
func PackAssetPair(t *testing.T, pair string) []byte {
	t.Helper()
	optionsABI, err := abis.GetOptionsABI()
	if err != nil {
		t.Fatalf("loading options ABI: %v", err)
	}
	data, err := optionsABI.Methods["assetPair"].Outputs.Pack(pair)
	if err != nil {
		t.Fatalf("packing assetPair: %v", err)
	}
	return data
}

// PackUpdateFee ABI-encodes getUpdateFee() return data.
func PackUpdateFee(t *testing.T, fee int64) []byte {
	t.Helper()
	pythABI, err := abis.GetPythABI()
	if err != nil {
		t.Fatalf("loading pyth ABI: %v", err)
	}
	data, err := pythABI.Methods["getUpdateFee"].Outputs.Pack(big.NewInt(fee))
	if err != nil {
		t.Fatalf("packing getUpdateFee: %v", err)
	}
	return data
}

// MulticallResult matches the multicall3 aggregate3 output tuple.
type MulticallResult struct {
	Success    bool
	ReturnData []byte
}

// PackMulticallAggregate3 ABI-encodes results as aggregate3 return data.
func PackMulticallAggregate3(t *testing.T, results []MulticallResult) []byte {
	t.Helper()
	multicallABI, err := abis.GetMulticall3ABI()
	if err != nil {
		t.Fatalf("loading multicall3 ABI: %v", err)
	}
	data, err := multicallABI.Methods["aggregate3"].Outputs.Pack(results)
	if err != nil {
		t.Fatalf("packing aggregate3: %v", err)
	}
	return data
}
