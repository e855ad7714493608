package subgraph

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/keeper/internal/pkg/retry"
)

func newServer(t *testing.T, respond func(query string) string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphQLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		_, _ = w.Write([]byte(respond(req.Query)))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(Config{Endpoint: url, Retry: retry.Fixed(1, time.Millisecond)})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestQueuedTradeIDs(t *testing.T) {
	srv := newServer(t, func(query string) string {
		if !strings.Contains(query, "state_in: [4]") || !strings.Contains(query, "first: 100") {
			t.Errorf("unexpected query: %s", query)
		}
		return `{"data":{"queuedOptionDatas":[
			{"queueID":"5","state":4},
			{"queueID":"7","state":4},
			{"queueID":"x","state":4},
			{"queueID":"9","state":1}
		]}}`
	})

	ids, err := newTestClient(t, srv.URL).QueuedTradeIDs(context.Background(), 100)
	if err != nil {
		t.Fatalf("QueuedTradeIDs() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != 5 || ids[1] != 7 {
		t.Errorf("ids = %v, want [5 7]", ids)
	}
}

func TestExpiredOptions(t *testing.T) {
	now := time.Unix(1700000000, 0)
	srv := newServer(t, func(query string) string {
		if !strings.Contains(query, "expirationTime_lt: 1700000000") {
			t.Errorf("query missing expiry bound: %s", query)
		}
		return `{"data":{"userOptionDatas":[
			{"optionID":"3","queueID":"11","optionContract":{"address":"0x00000000000000000000000000000000000000aa"},"expirationTime":"1699999900"},
			{"optionID":"4","queueID":"12","optionContract":{"address":"bad"},"expirationTime":"1699999900"}
		]}}`
	})

	opts, err := newTestClient(t, srv.URL).ExpiredOptions(context.Background(), now, 500)
	if err != nil {
		t.Fatalf("ExpiredOptions() error = %v", err)
	}
	if len(opts) != 1 {
		t.Fatalf("options = %d, want 1", len(opts))
	}
	o := opts[0]
	if o.OptionID != 3 || o.QueueID != 11 || o.ExpirationTime != 1699999900 {
		t.Errorf("option = %+v", o)
	}
	if o.ContractAddress != common.HexToAddress("0xaa") {
		t.Errorf("contract = %s", o.ContractAddress.Hex())
	}
}

func TestGraphQLErrorsAreRetried(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, func(string) string {
		if calls.Add(1) == 1 {
			return `{"errors":[{"message":"indexing in progress"}]}`
		}
		return `{"data":{"queuedOptionDatas":[]}}`
	})

	ids, err := newTestClient(t, srv.URL).QueuedTradeIDs(context.Background(), 10)
	if err != nil {
		t.Fatalf("QueuedTradeIDs() error = %v", err)
	}
	if len(ids) != 0 || calls.Load() != 2 {
		t.Errorf("ids = %v calls = %d", ids, calls.Load())
	}
}

func TestNewClient_RequiresEndpoint(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Error("expected error for empty endpoint")
	}
}
