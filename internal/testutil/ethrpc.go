package testutil

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

// JSONRPCRequest represents a JSON-RPC request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      json.RawMessage `json:"id"`
}

type jsonRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonRPCError   `json:"error,omitempty"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// EthCallHandler answers one eth_call. A non-empty revert reason makes the
// node return an execution error for that call.
type EthCallHandler func(to common.Address, data []byte) (result []byte, revert string)

// StartMockEthRPC starts a fake node that serves eth_call through handler and
// eth_chainId with chain id 1. Both single and batched requests are accepted.
func StartMockEthRPC(t *testing.T, handler EthCallHandler) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")

		trimmed := bytes.TrimSpace(body)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			var reqs []JSONRPCRequest
			if err := json.Unmarshal(trimmed, &reqs); err != nil {
				WriteRPCError(w, json.RawMessage(`1`), -32700, "parse error")
				return
			}
			resps := make([]jsonRPCResponse, len(reqs))
			for i, req := range reqs {
				resps[i] = answer(req, handler)
			}
			_ = json.NewEncoder(w).Encode(resps)
			return
		}

		var req JSONRPCRequest
		if err := json.Unmarshal(trimmed, &req); err != nil {
			WriteRPCError(w, json.RawMessage(`1`), -32700, "parse error")
			return
		}
		_ = json.NewEncoder(w).Encode(answer(req, handler))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func answer(req JSONRPCRequest, handler EthCallHandler) jsonRPCResponse {
	resp := jsonRPCResponse{JSONRPC: "2.0", ID: req.ID}
	switch req.Method {
	case "eth_chainId":
		resp.Result = json.RawMessage(`"0x1"`)
	case "eth_call":
		to, data := parseEthCall(req.Params)
		result, revert := handler(to, data)
		if revert != "" {
			resp.Error = &jsonRPCError{Code: 3, Message: "execution reverted: " + revert}
			return resp
		}
		encoded, _ := json.Marshal("0x" + hex.EncodeToString(result))
		resp.Result = encoded
	default:
		resp.Error = &jsonRPCError{Code: -32601, Message: "method not found: " + req.Method}
	}
	return resp
}

// WriteRPCResult writes a JSON-RPC success response.
func WriteRPCResult(w http.ResponseWriter, id, result json.RawMessage) {
	_ = json.NewEncoder(w).Encode(jsonRPCResponse{JSONRPC: "2.0", ID: id, Result: result})
}

// WriteRPCError writes a JSON-RPC error response.
func WriteRPCError(w http.ResponseWriter, id json.RawMessage, code int, message string) {
	_ = json.NewEncoder(w).Encode(jsonRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &jsonRPCError{Code: code, Message: message},
	})
}

func parseEthCall(params json.RawMessage) (common.Address, []byte) {
	var p []json.RawMessage
	if err := json.Unmarshal(params, &p); err != nil || len(p) < 1 {
		return common.Address{}, nil
	}
	var callObj map[string]any
	if err := json.Unmarshal(p[0], &callObj); err != nil {
		return common.Address{}, nil
	}
	to, _ := callObj["to"].(string)
	// go-ethereum may use "data" or "input" for the calldata field
	dataHex, _ := callObj["input"].(string)
	if dataHex == "" {
		dataHex, _ = callObj["data"].(string)
	}
	data, _ := hex.DecodeString(strings.TrimPrefix(dataHex, "0x"))
	return common.HexToAddress(to), data
}
