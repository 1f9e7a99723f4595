package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Verifier checks an on-chain payment proof.
type Verifier interface {
	Verify(ctx context.Context, txHash string, amount float64) (bool, error)
}

// RPCVerifier looks the transaction up over Ethereum JSON-RPC. Any known
// transaction verifies; with Treasury set its recipient must match.
type RPCVerifier struct {
	URL      string
	Treasury string
	Client   *http.Client
}

func NewRPCVerifier(url, treasury string) (*RPCVerifier, error) {
	v := &RPCVerifier{URL: url, Client: &http.Client{Timeout: 15 * time.Second}}
	if treasury != "" {
		sum, err := ChecksumAddress(treasury)
		if err != nil {
			return nil, fmt.Errorf("treasury address: %w", err)
		}
		v.Treasury = sum
	}
	return v, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

type rpcTx struct {
	Hash string `json:"hash"`
	To   string `json:"to"`
}

type rpcResponse struct {
	Result *rpcTx `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (v *RPCVerifier) Verify(ctx context.Context, txHash string, _ float64) (bool, error) {
	body, _ := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "eth_getTransactionByHash",
		Params:  []any{txHash},
		ID:      1,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.URL, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.Client.Do(req)
	if err != nil {
		return false, fmt.Errorf("rpc request: %w", err)
	}
	defer resp.Body.Close()

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("decode rpc response: %w", err)
	}
	if out.Error != nil {
		return false, fmt.Errorf("rpc error %d: %s", out.Error.Code, out.Error.Message)
	}
	if out.Result == nil {
		return false, nil
	}
	if v.Treasury != "" && !strings.EqualFold(out.Result.To, v.Treasury) {
		return false, nil
	}
	return true, nil
}
