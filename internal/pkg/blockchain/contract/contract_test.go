package contract

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/archon-research/keeper/internal/pkg/blockchain/abis"
)

var (
	routerAddr  = common.HexToAddress("0xF7760095561259e9c52A62A7743d3451d010E97b")
	optionsAddr = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

func failResolveLog(t *testing.T, queueID int64, reason string) *types.Log {
	t.Helper()
	routerABI, err := abis.GetRouterABI()
	if err != nil {
		t.Fatal(err)
	}
	ev := routerABI.Events["FailResolve"]
	data, err := ev.Inputs.NonIndexed().Pack(reason)
	if err != nil {
		t.Fatalf("packing log data: %v", err)
	}
	return &types.Log{
		Address: routerAddr,
		Topics:  []common.Hash{ev.ID, common.BigToHash(big.NewInt(queueID))},
		Data:    data,
		TxHash:  common.HexToHash("0xabc"),
	}
}

func TestRegistry_GetIsLazyAndShared(t *testing.T) {
	r := NewRegistry("arb-sandbox", nil)

	if _, ok := r.Lookup(routerAddr); ok {
		t.Fatal("Lookup() found binding before first Get")
	}

	first, err := r.Get(routerAddr, KindRouter)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	second, err := r.Get(routerAddr, KindRouter)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if first != second {
		t.Errorf("Get() returned a new binding for the same address")
	}
	if got, ok := r.Lookup(routerAddr); !ok || got != first {
		t.Errorf("Lookup() after Get = %v, %v", got, ok)
	}

	if _, err := r.Get(routerAddr, KindOptions); err == nil {
		t.Errorf("Get() with a different kind should fail")
	}
}

func TestBinding_PackUnpackAssetPair(t *testing.T) {
	b, err := NewRegistry("arb-sandbox", nil).Get(optionsAddr, KindOptions)
	if err != nil {
		t.Fatal(err)
	}
	data, err := b.Pack("assetPair")
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	if len(data) != 4 {
		t.Errorf("assetPair calldata length = %d, want 4", len(data))
	}

	optionsABI, _ := abis.GetOptionsABI()
	ret, err := optionsABI.Methods["assetPair"].Outputs.Pack("BTC-USD")
	if err != nil {
		t.Fatal(err)
	}
	out, err := b.Unpack("assetPair", ret)
	if err != nil {
		t.Fatalf("Unpack() error = %v", err)
	}
	if out[0].(string) != "BTC-USD" {
		t.Errorf("Unpack() = %v, want BTC-USD", out[0])
	}
}

func TestRegistry_DecodeLogs(t *testing.T) {
	r := NewRegistry("arb-sandbox", nil)
	if _, err := r.Get(routerAddr, KindRouter); err != nil {
		t.Fatal(err)
	}

	unknownContract := failResolveLog(t, 1, "x")
	unknownContract.Address = common.HexToAddress("0xdead")

	unknownTopic := failResolveLog(t, 1, "x")
	unknownTopic.Topics[0] = common.HexToHash("0x1234")

	events := r.DecodeLogs([]*types.Log{
		failResolveLog(t, 7, "stale price"),
		unknownContract,
		unknownTopic,
		nil,
	})

	if len(events) != 1 {
		t.Fatalf("DecodeLogs() returned %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.Name != "FailResolve" {
		t.Errorf("Name = %s, want FailResolve", ev.Name)
	}
	if ev.Fields["reason"] != "stale price" {
		t.Errorf("reason = %v", ev.Fields["reason"])
	}
	queueID, ok := ev.Fields["queueId"].(*big.Int)
	if !ok || queueID.Int64() != 7 {
		t.Errorf("queueId = %v, want 7", ev.Fields["queueId"])
	}
}
