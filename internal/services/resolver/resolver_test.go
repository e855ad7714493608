package resolver

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/archon-research/keeper/internal/adapters/outbound/memory"
	"github.com/archon-research/keeper/internal/adapters/outbound/oracle"
	"github.com/archon-research/keeper/internal/domain/entity"
	"github.com/archon-research/keeper/internal/pkg/blockchain/abis"
	"github.com/archon-research/keeper/internal/pkg/blockchain/contract"
	"github.com/archon-research/keeper/internal/pkg/blockchain/feeds"
	"github.com/archon-research/keeper/internal/pkg/blockchain/multicall"
	"github.com/archon-research/keeper/internal/pkg/retry"
	"github.com/archon-research/keeper/internal/ports/outbound"
	"github.com/archon-research/keeper/internal/testutil"
)

var (
	routerAddr = common.HexToAddress("0xF7760095561259e9c52A62A7743d3451d010E97b")
	pythAddr   = common.HexToAddress("0xff1a0f4744e8582DF1aE09D5611b887B6a12925C")
	btcOptions = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	ethOptions = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	fooOptions = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	noPair     = common.HexToAddress("0x00000000000000000000000000000000000000d1")
)

type optionKey struct {
	contract common.Address
	id       uint64
}

type chainOption struct {
	state      uint8
	expiration int64
}

// fakeChain answers multicall sub-calls from in-memory contract state.
type fakeChain struct {
	t  *testing.T
	mu sync.Mutex

	queued  map[uint64]testutil.QueuedTrade
	options map[optionKey]chainOption
	pairs   map[common.Address]string
	failFee map[string]bool

	methodCalls map[string]int
	abis        []*abi.ABI
}

func newFakeChain(t *testing.T) *fakeChain {
	t.Helper()
	var parsed []*abi.ABI
	for _, load := range []func() (*abi.ABI, error){abis.GetRouterABI, abis.GetOptionsABI, abis.GetPythABI} {
		a, err := load()
		if err != nil {
			t.Fatal(err)
		}
		parsed = append(parsed, a)
	}
	return &fakeChain{
		t:       t,
		queued:  make(map[uint64]testutil.QueuedTrade),
		options: make(map[optionKey]chainOption),
		pairs: map[common.Address]string{
			btcOptions: "BTC-USD",
			ethOptions: "ETH-USD",
			fooOptions: "FOO-BAR",
		},
		failFee:     make(map[string]bool),
		methodCalls: make(map[string]int),
		abis:        parsed,
	}
}

func (f *fakeChain) queue(id uint64, target common.Address, queuedAt int64) {
	f.queued[id] = testutil.QueuedTrade{QueueID: int64(id), TargetContract: target, QueuedTime: queuedAt, IsQueued: true}
}

func (f *fakeChain) resolve(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := f.queued[id]
	q.IsQueued = false
	f.queued[id] = q
}

func (f *fakeChain) calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.methodCalls[method]
}

func (f *fakeChain) execute(_ context.Context, calls []outbound.Call, _ *big.Int) ([]outbound.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]outbound.Result, len(calls))
	for i, call := range calls {
		out[i] = f.handle(call)
	}
	return out, nil
}

func (f *fakeChain) method(data []byte) *abi.Method {
	for _, a := range f.abis {
		if m, err := a.MethodById(data[:4]); err == nil {
			return m
		}
	}
	f.t.Fatalf("unknown selector %x", data[:4])
	return nil
}

func (f *fakeChain) handle(call outbound.Call) outbound.Result {
	m := f.method(call.CallData)
	f.methodCalls[m.Name]++
	args, err := m.Inputs.Unpack(call.CallData[4:])
	if err != nil {
		f.t.Fatalf("unpacking %s args: %v", m.Name, err)
	}

	switch m.Name {
	case "queuedTrades":
		q, ok := f.queued[args[0].(*big.Int).Uint64()]
		if !ok {
			return outbound.Result{}
		}
		return outbound.Result{Success: true, ReturnData: testutil.PackQueuedTrade(f.t, q)}
	case "options":
		o, ok := f.options[optionKey{call.Target, args[0].(*big.Int).Uint64()}]
		if !ok {
			return outbound.Result{}
		}
		return outbound.Result{Success: true, ReturnData: testutil.PackOption(f.t, o.state, o.expiration)}
	case "assetPair":
		pair, ok := f.pairs[call.Target]
		if !ok {
			return outbound.Result{}
		}
		return outbound.Result{Success: true, ReturnData: testutil.PackAssetPair(f.t, pair)}
	case "getUpdateFee":
		sig := string(args[0].([][]byte)[0])
		if f.failFee[sig] {
			return outbound.Result{}
		}
		return outbound.Result{Success: true, ReturnData: testutil.PackUpdateFee(f.t, 1)}
	}
	f.t.Fatalf("unexpected call %s", m.Name)
	return outbound.Result{}
}

// signedOracle quotes every key with a signature derived from the key.
func signedOracle() *testutil.MockPriceOracle {
	return &testutil.MockPriceOracle{
		FetchPricesFn: func(_ context.Context, keys []entity.AssetTimeKey) (map[entity.AssetTimeKey]entity.PriceQuote, error) {
			out := make(map[entity.AssetTimeKey]entity.PriceQuote, len(keys))
			for _, k := range keys {
				out[k] = entity.PriceQuote{Price: decimal.NewFromInt(100), Signature: []byte("sig-" + k.String())}
			}
			return out, nil
		},
	}
}

type harness struct {
	chain       *fakeChain
	mc          *testutil.MockMulticaller
	indexer     *testutil.MockIndexer
	oracle      outbound.PriceOracle
	submitter   *testutil.MockTxSubmitter
	cache       *memory.Cache
	settlements *testutil.MockSettlementRepository
	config      Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	chain := newFakeChain(t)
	mc := testutil.NewMockMulticaller()
	mc.ExecuteFn = chain.execute
	return &harness{
		chain:   chain,
		mc:      mc,
		indexer: &testutil.MockIndexer{},
		oracle:  signedOracle(),
		submitter: &testutil.MockTxSubmitter{
			SubmitFn: func(context.Context, outbound.TxRequest) (entity.SubmitResult, error) {
				return entity.SubmitResult{Outcome: entity.SubmitConfirmed, TxHash: common.HexToHash("0x01")}, nil
			},
		},
		cache:       memory.NewCache(),
		settlements: &testutil.MockSettlementRepository{},
		config: Config{
			Environment: "arb-sandbox",
			Router:      routerAddr,
			PriceFeed:   pythAddr,
			Now:         func() time.Time { return time.Unix(1_000, 0) },
		},
	}
}

func (h *harness) deps(t *testing.T) Dependencies {
	t.Helper()
	batcher, err := multicall.NewBatcher(h.mc, multicall.BatcherConfig{})
	if err != nil {
		t.Fatal(err)
	}
	return Dependencies{
		Indexer:     h.indexer,
		Oracle:      h.oracle,
		Reader:      batcher,
		Submitter:   h.submitter,
		Cache:       h.cache,
		Registry:    contract.NewRegistry(h.config.Environment, nil),
		Feeds:       feeds.NewTable(nil),
		Settlements: h.settlements,
	}
}

func (h *harness) queueResolver(t *testing.T) *QueueResolver {
	t.Helper()
	r, err := NewQueueResolver(h.config, h.deps(t))
	if err != nil {
		t.Fatalf("NewQueueResolver() error = %v", err)
	}
	return r
}

func (h *harness) expiryResolver(t *testing.T) *ExpiryResolver {
	t.Helper()
	r, err := NewExpiryResolver(h.config, h.deps(t))
	if err != nil {
		t.Fatalf("NewExpiryResolver() error = %v", err)
	}
	return r
}

func (h *harness) listQueued(ids ...uint64) {
	h.indexer.QueuedTradeIDsFn = func(context.Context, int) ([]uint64, error) { return ids, nil }
}

func decodeCall[T any](t *testing.T, data []byte) []T {
	t.Helper()
	routerABI, err := abis.GetRouterABI()
	if err != nil {
		t.Fatal(err)
	}
	m, err := routerABI.MethodById(data[:4])
	if err != nil {
		t.Fatalf("unknown selector: %v", err)
	}
	vals, err := m.Inputs.Unpack(data[4:])
	if err != nil {
		t.Fatalf("unpacking %s: %v", m.Name, err)
	}
	return *abi.ConvertType(vals[0], new([]T)).(*[]T)
}

func queueIDs(params []resolveParams) []uint64 {
	out := make([]uint64, len(params))
	for i, p := range params {
		out[i] = p.QueueId.Uint64()
	}
	return out
}

func TestNewQueueResolver_Validation(t *testing.T) {
	h := newHarness(t)

	deps := h.deps(t)
	deps.Oracle = nil
	if _, err := NewQueueResolver(h.config, deps); err == nil {
		t.Error("expected error without oracle")
	}

	cfg := h.config
	cfg.PriceFeed = common.Address{}
	if _, err := NewQueueResolver(cfg, h.deps(t)); err == nil {
		t.Error("expected error without price feed address")
	}

	cfg = h.config
	cfg.Environment = "arb-mainnet"
	if _, err := NewQueueResolver(cfg, h.deps(t)); err == nil {
		t.Error("expected error for environment not matching the contract registry")
	}

	cfg = h.config
	cfg.Environment = ""
	inherited, err := NewQueueResolver(cfg, h.deps(t))
	if err != nil {
		t.Fatalf("NewQueueResolver() error = %v", err)
	}
	if inherited.config.Environment != "arb-sandbox" {
		t.Errorf("Environment = %q, want registry environment arb-sandbox", inherited.config.Environment)
	}

	r := h.queueResolver(t)
	if r.Role() != entity.RoleOpen {
		t.Errorf("Role() = %s, want open", r.Role())
	}
	if r.config.MaxBatchSize != entity.DefaultMaxBatchSize {
		t.Errorf("MaxBatchSize = %d, want default", r.config.MaxBatchSize)
	}
}

func TestQueueResolver_DuplicateAndResolvedIDs(t *testing.T) {
	h := newHarness(t)
	h.chain.queue(5, btcOptions, 100)
	h.chain.queue(7, btcOptions, 101)
	h.chain.queued[9] = testutil.QueuedTrade{QueueID: 9, TargetContract: btcOptions, QueuedTime: 102, IsQueued: false}
	h.listQueued(5, 5, 7, 9)

	report, err := h.queueResolver(t).RunCycle(context.Background(), "cycle-1")
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	if h.submitter.Submitted() != 1 {
		t.Fatalf("submissions = %d, want 1", h.submitter.Submitted())
	}
	req := h.submitter.Requests[0]
	if req.To != routerAddr || req.Method != "resolveQueuedTrades" {
		t.Errorf("request to %s method %s", req.To.Hex(), req.Method)
	}
	got := queueIDs(decodeCall[resolveParams](t, req.Data))
	if len(got) != 2 || got[0] != 5 || got[1] != 7 {
		t.Errorf("resolved ids = %v, want [5 7]", got)
	}
	if req.Value.Int64() != 2 {
		t.Errorf("value = %s, want 2", req.Value)
	}

	if report.Listed != 4 || report.Candidates != 2 || report.Kept() != 2 {
		t.Errorf("report listed=%d candidates=%d kept=%d", report.Listed, report.Candidates, report.Kept())
	}
	dropped := report.Dropped()
	if dropped[entity.DropDuplicate] != 1 || dropped[entity.DropAlreadyResolved] != 1 {
		t.Errorf("dropped = %v", dropped)
	}
	if report.Submit.Outcome != entity.SubmitConfirmed {
		t.Errorf("outcome = %s", report.Submit.Outcome)
	}
	if h.chain.calls("queuedTrades") != 3 {
		t.Errorf("queuedTrades reads = %d, want 3", h.chain.calls("queuedTrades"))
	}
	if h.mc.Calls() != 3 {
		t.Errorf("multicall round trips = %d, want 3", h.mc.Calls())
	}
}

func TestQueueResolver_NullSignatureDropsItem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"pair": "BTCUSD", "timestamp": 100, "price": 43000, "signature": null},
			{"pair": "ETHUSD", "timestamp": 100, "price": 2300, "signature": "0xabcd"}
		]`)
	}))
	defer srv.Close()

	h := newHarness(t)
	client, err := oracle.NewClient(oracle.Config{BaseURL: srv.URL, Retry: retry.Fixed(1, time.Millisecond)}, h.cache)
	if err != nil {
		t.Fatal(err)
	}
	h.oracle = client
	h.chain.queue(1, btcOptions, 100)
	h.chain.queue(2, ethOptions, 100)
	h.listQueued(1, 2)

	report, err := h.queueResolver(t).RunCycle(context.Background(), "cycle-1")
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	if h.submitter.Submitted() != 1 {
		t.Fatalf("submissions = %d, want 1", h.submitter.Submitted())
	}
	params := decodeCall[resolveParams](t, h.submitter.Requests[0].Data)
	if got := queueIDs(params); len(got) != 1 || got[0] != 2 {
		t.Fatalf("resolved ids = %v, want [2]", got)
	}
	if string(params[0].PriceUpdateData[0]) != string(common.FromHex("0xabcd")) {
		t.Errorf("priceUpdateData = %x", params[0].PriceUpdateData[0])
	}
	ethFeed, _ := feeds.NewTable(nil).FeedID("ETHUSD")
	if common.Hash(params[0].PriceIds[0]) != ethFeed {
		t.Errorf("priceIds = %x, want ETHUSD feed", params[0].PriceIds[0])
	}
	if report.Dropped()[entity.DropMissingPrice] != 1 {
		t.Errorf("dropped = %v, want one missing_price", report.Dropped())
	}
}

func TestQueueResolver_IdempotentAfterSubmission(t *testing.T) {
	h := newHarness(t)
	h.chain.queue(5, btcOptions, 100)
	h.listQueued(5)
	h.submitter.SubmitFn = func(context.Context, outbound.TxRequest) (entity.SubmitResult, error) {
		h.chain.resolve(5)
		return entity.SubmitResult{Outcome: entity.SubmitConfirmed}, nil
	}
	r := h.queueResolver(t)

	if _, err := r.RunCycle(context.Background(), "cycle-1"); err != nil {
		t.Fatal(err)
	}
	report, err := r.RunCycle(context.Background(), "cycle-2")
	if err != nil {
		t.Fatal(err)
	}

	if h.submitter.Submitted() != 1 {
		t.Errorf("submissions = %d, want 1", h.submitter.Submitted())
	}
	if report.Submit.Outcome != entity.SubmitSkipped {
		t.Errorf("second outcome = %s, want skipped", report.Submit.Outcome)
	}
	if report.Dropped()[entity.DropAlreadyResolved] != 1 {
		t.Errorf("dropped = %v", report.Dropped())
	}
}

func TestQueueResolver_AssetPairCachedWithoutExpiry(t *testing.T) {
	h := newHarness(t)
	h.chain.queue(5, btcOptions, 100)
	h.listQueued(5)
	r := h.queueResolver(t)

	for i := 0; i < 2; i++ {
		if _, err := r.RunCycle(context.Background(), fmt.Sprintf("cycle-%d", i)); err != nil {
			t.Fatal(err)
		}
	}

	if h.chain.calls("assetPair") != 1 {
		t.Errorf("assetPair reads = %d, want 1", h.chain.calls("assetPair"))
	}
	key := btcOptions.Hex() + "-arb-sandbox-asset_pair"
	pair, ok, err := h.cache.Get(context.Background(), key)
	if err != nil || !ok || pair != "BTCUSD" {
		t.Errorf("cache[%s] = %q, %v, %v", key, pair, ok, err)
	}
}

func TestQueueResolver_MissingFeeDropsKey(t *testing.T) {
	h := newHarness(t)
	h.chain.queue(1, btcOptions, 100)
	h.chain.queue(2, ethOptions, 100)
	h.chain.failFee["sig-BTCUSD-100"] = true
	h.listQueued(1, 2)

	report, err := h.queueResolver(t).RunCycle(context.Background(), "cycle-1")
	if err != nil {
		t.Fatal(err)
	}
	req := h.submitter.Requests[0]
	if got := queueIDs(decodeCall[resolveParams](t, req.Data)); len(got) != 1 || got[0] != 2 {
		t.Errorf("resolved ids = %v, want [2]", got)
	}
	if req.Value.Int64() != 1 {
		t.Errorf("value = %s, want 1", req.Value)
	}
	if report.Dropped()[entity.DropMissingFee] != 1 {
		t.Errorf("dropped = %v", report.Dropped())
	}
}

func TestQueueResolver_UnknownAssetAndFeed(t *testing.T) {
	h := newHarness(t)
	h.chain.queue(1, noPair, 100)
	h.chain.queue(2, fooOptions, 100)
	h.listQueued(1, 2)

	report, err := h.queueResolver(t).RunCycle(context.Background(), "cycle-1")
	if err != nil {
		t.Fatal(err)
	}
	if h.submitter.Submitted() != 0 {
		t.Error("nothing should be submitted")
	}
	dropped := report.Dropped()
	if dropped[entity.DropUnknownAsset] != 1 || dropped[entity.DropUnknownFeed] != 1 {
		t.Errorf("dropped = %v", dropped)
	}
	if len(h.oracle.(*testutil.MockPriceOracle).Requested) != 0 {
		t.Error("oracle should not be queried without priceable items")
	}
}

func TestQueueResolver_SharedKeyFetchedOnce(t *testing.T) {
	h := newHarness(t)
	h.chain.queue(1, btcOptions, 100)
	h.chain.queue(2, btcOptions, 100)
	h.listQueued(1, 2)

	if _, err := h.queueResolver(t).RunCycle(context.Background(), "cycle-1"); err != nil {
		t.Fatal(err)
	}
	requested := h.oracle.(*testutil.MockPriceOracle).Requested
	if len(requested) != 1 || len(requested[0]) != 1 {
		t.Errorf("oracle requests = %v, want one request with one key", requested)
	}
	if h.chain.calls("getUpdateFee") != 1 {
		t.Errorf("fee reads = %d, want 1", h.chain.calls("getUpdateFee"))
	}
	// each item pays its own update
	if v := h.submitter.Requests[0].Value.Int64(); v != 2 {
		t.Errorf("value = %d, want 2", v)
	}
}

func TestQueueResolver_OracleOutageIsTransient(t *testing.T) {
	h := newHarness(t)
	h.chain.queue(5, btcOptions, 100)
	h.listQueued(5)
	h.oracle = &testutil.MockPriceOracle{
		FetchPricesFn: func(context.Context, []entity.AssetTimeKey) (map[entity.AssetTimeKey]entity.PriceQuote, error) {
			return nil, fmt.Errorf("price oracle: %w", outbound.ErrSourceUnavailable)
		},
	}

	_, err := h.queueResolver(t).RunCycle(context.Background(), "cycle-1")
	if !IsTransient(err) {
		t.Fatalf("RunCycle() error = %v, want transient", err)
	}
	if h.submitter.Submitted() != 0 {
		t.Error("nothing should be submitted")
	}
}

func TestQueueResolver_EmptyListing(t *testing.T) {
	h := newHarness(t)

	report, err := h.queueResolver(t).RunCycle(context.Background(), "cycle-1")
	if err != nil {
		t.Fatal(err)
	}
	if report.Submit.Outcome != entity.SubmitSkipped {
		t.Errorf("outcome = %s, want skipped", report.Submit.Outcome)
	}
	if h.mc.Calls() != 0 || h.submitter.Submitted() != 0 {
		t.Errorf("multicalls = %d, submissions = %d; want none", h.mc.Calls(), h.submitter.Submitted())
	}
}

func TestQueueResolver_CapsBatch(t *testing.T) {
	h := newHarness(t)
	h.config.MaxBatchSize = 2
	for id := uint64(1); id <= 3; id++ {
		h.chain.queue(id, btcOptions, 100)
	}
	h.listQueued(3, 1, 2)

	report, err := h.queueResolver(t).RunCycle(context.Background(), "cycle-1")
	if err != nil {
		t.Fatal(err)
	}
	got := queueIDs(decodeCall[resolveParams](t, h.submitter.Requests[0].Data))
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("resolved ids = %v, want [1 2]", got)
	}
	if report.Dropped()[entity.DropOverCap] != 1 {
		t.Errorf("dropped = %v", report.Dropped())
	}
}

func TestQueueResolver_SubmissionErrorAbortsCycle(t *testing.T) {
	h := newHarness(t)
	h.chain.queue(5, btcOptions, 100)
	h.listQueued(5)
	h.submitter.SubmitFn = func(context.Context, outbound.TxRequest) (entity.SubmitResult, error) {
		return entity.SubmitResult{}, fmt.Errorf("insufficient funds")
	}

	_, err := h.queueResolver(t).RunCycle(context.Background(), "cycle-1")
	if err == nil {
		t.Fatal("expected error")
	}
	if IsTransient(err) {
		t.Errorf("submission failure should not be transient: %v", err)
	}
	if len(h.settlements.Records) != 0 {
		t.Error("failed submission must not be logged as a settlement")
	}
}

func TestQueueResolver_SavesSettlement(t *testing.T) {
	h := newHarness(t)
	h.chain.queue(5, btcOptions, 100)
	h.chain.queue(6, ethOptions, 100)
	h.listQueued(5, 6)

	if _, err := h.queueResolver(t).RunCycle(context.Background(), "cycle-9"); err != nil {
		t.Fatal(err)
	}
	if len(h.settlements.Records) != 1 {
		t.Fatalf("settlements = %d, want 1", len(h.settlements.Records))
	}
	rec := h.settlements.Records[0]
	if rec.Role != entity.RoleOpen || rec.CycleID != "cycle-9" || len(rec.ItemIDs) != 2 {
		t.Errorf("record = %+v", rec)
	}
	if rec.TotalFee.Int64() != 2 {
		t.Errorf("total fee = %s, want 2", rec.TotalFee)
	}
}

func TestExpiryResolver_UnlocksActiveOptions(t *testing.T) {
	h := newHarness(t)
	h.chain.options[optionKey{btcOptions, 1}] = chainOption{state: stateActive, expiration: 200}
	h.chain.options[optionKey{btcOptions, 2}] = chainOption{state: 2, expiration: 210}
	h.chain.options[optionKey{ethOptions, 1}] = chainOption{state: stateActive, expiration: 220}

	var gotNow time.Time
	h.indexer.ExpiredOptionsFn = func(_ context.Context, now time.Time, _ int) ([]entity.ExpiredOption, error) {
		gotNow = now
		return []entity.ExpiredOption{
			{OptionID: 1, QueueID: 11, ContractAddress: btcOptions, ExpirationTime: 199},
			{OptionID: 1, QueueID: 11, ContractAddress: btcOptions, ExpirationTime: 199},
			{OptionID: 2, QueueID: 12, ContractAddress: btcOptions, ExpirationTime: 210},
			{OptionID: 1, QueueID: 13, ContractAddress: ethOptions, ExpirationTime: 220},
		}, nil
	}

	r := h.expiryResolver(t)
	if r.Role() != entity.RoleClose {
		t.Errorf("Role() = %s", r.Role())
	}
	report, err := r.RunCycle(context.Background(), "cycle-1")
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}
	if !gotNow.Equal(time.Unix(1_000, 0)) {
		t.Errorf("indexer now = %v", gotNow)
	}

	req := h.submitter.Requests[0]
	if req.Method != "unlockOptions" {
		t.Errorf("method = %s", req.Method)
	}
	params := decodeCall[unlockParams](t, req.Data)
	if len(params) != 2 {
		t.Fatalf("unlocked %d options, want 2", len(params))
	}
	if params[0].OptionId.Uint64() != 1 || params[0].TargetContract != btcOptions {
		t.Errorf("first unlock = %d on %s", params[0].OptionId, params[0].TargetContract.Hex())
	}
	if params[1].OptionId.Uint64() != 1 || params[1].TargetContract != ethOptions {
		t.Errorf("second unlock = %d on %s", params[1].OptionId, params[1].TargetContract.Hex())
	}
	if string(params[0].PriceUpdateData[0]) != "sig-BTCUSD-200" {
		t.Errorf("btc option priced with %q, want the on-chain expiration", params[0].PriceUpdateData[0])
	}

	dropped := report.Dropped()
	if dropped[entity.DropDuplicate] != 1 || dropped[entity.DropAlreadyResolved] != 1 {
		t.Errorf("dropped = %v", dropped)
	}
	if h.chain.calls("options") != 3 {
		t.Errorf("options reads = %d, want 3", h.chain.calls("options"))
	}
}

func TestExpiryResolver_IndexerFailure(t *testing.T) {
	h := newHarness(t)
	h.indexer.ExpiredOptionsFn = func(context.Context, time.Time, int) ([]entity.ExpiredOption, error) {
		return nil, fmt.Errorf("querying expired options: %w", retry.ErrExhausted)
	}

	_, err := h.expiryResolver(t).RunCycle(context.Background(), "cycle-1")
	if !IsTransient(err) {
		t.Fatalf("RunCycle() error = %v, want transient", err)
	}
}

func TestQueueResolver_FailedReadIsNotResolved(t *testing.T) {
	h := newHarness(t)
	h.chain.queue(5, btcOptions, 100)
	h.chain.queued[9] = testutil.QueuedTrade{QueueID: 9, TargetContract: btcOptions, QueuedTime: 102, IsQueued: false}
	h.listQueued(5, 8, 9)

	report, err := h.queueResolver(t).RunCycle(context.Background(), "cycle-1")
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	dropped := report.Dropped()
	if dropped[entity.DropReadFailed] != 1 || dropped[entity.DropAlreadyResolved] != 1 {
		t.Errorf("dropped = %v, want one read_failed and one already_resolved", dropped)
	}
	if got := queueIDs(decodeCall[resolveParams](t, h.submitter.Requests[0].Data)); len(got) != 1 || got[0] != 5 {
		t.Errorf("resolved ids = %v, want [5]", got)
	}
}

func TestExpiryResolver_FailedReadIsNotResolved(t *testing.T) {
	h := newHarness(t)
	h.chain.options[optionKey{btcOptions, 1}] = chainOption{state: stateActive, expiration: 200}
	h.indexer.ExpiredOptionsFn = func(context.Context, time.Time, int) ([]entity.ExpiredOption, error) {
		return []entity.ExpiredOption{
			{OptionID: 1, QueueID: 11, ContractAddress: btcOptions, ExpirationTime: 200},
			{OptionID: 3, QueueID: 13, ContractAddress: btcOptions, ExpirationTime: 200},
		}, nil
	}

	report, err := h.expiryResolver(t).RunCycle(context.Background(), "cycle-1")
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	dropped := report.Dropped()
	if dropped[entity.DropReadFailed] != 1 || dropped[entity.DropAlreadyResolved] != 0 {
		t.Errorf("dropped = %v, want one read_failed", dropped)
	}
	if n := len(decodeCall[unlockParams](t, h.submitter.Requests[0].Data)); n != 1 {
		t.Errorf("unlocked %d options, want 1", n)
	}
}
