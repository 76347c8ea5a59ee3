package chain

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"

	"whirlpoolQuote/internal/model"
)

// maxAccountsPerCall is the getMultipleAccounts key limit of Solana RPC nodes.
const maxAccountsPerCall = 100

// Client talks JSON-RPC 2.0 to a Solana node through the go-ethereum RPC
// transport.
type Client struct {
	rpcClient  *rpc.Client
	commitment string
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL, commitment string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	if commitment == "" {
		commitment = "confirmed"
	}
	return &Client{rpcClient: rpcClient, commitment: commitment}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// Account is the raw state of one account.
type Account struct {
	Address  PublicKey
	Owner    string
	Lamports uint64
	Data     []byte
}

type rpcContext struct {
	Slot uint64 `json:"slot"`
}

type accountValue struct {
	Lamports uint64   `json:"lamports"`
	Owner    string   `json:"owner"`
	Data     []string `json:"data"`
}

type accountInfoResult struct {
	Context rpcContext    `json:"context"`
	Value   *accountValue `json:"value"`
}

type multipleAccountsResult struct {
	Context rpcContext      `json:"context"`
	Value   []*accountValue `json:"value"`
}

func (c *Client) accountConfig() map[string]string {
	return map[string]string{"encoding": "base64", "commitment": c.commitment}
}

func decodeAccount(key PublicKey, v *accountValue) (*Account, error) {
	if v == nil {
		return nil, nil
	}
	acc := &Account{Address: key, Owner: v.Owner, Lamports: v.Lamports}
	if len(v.Data) > 0 {
		data, err := base64.StdEncoding.DecodeString(v.Data[0])
		if err != nil {
			return nil, fmt.Errorf("decode account %s data: %w", key, err)
		}
		acc.Data = data
	}
	return acc, nil
}

// GetAccountInfo returns the account and the slot it was read at. A missing
// account fails with model.ErrNotFound.
func (c *Client) GetAccountInfo(ctx context.Context, key PublicKey) (*Account, uint64, error) {
	var result accountInfoResult
	if err := c.rpcClient.CallContext(ctx, &result, "getAccountInfo", key.String(), c.accountConfig()); err != nil {
		return nil, 0, fmt.Errorf("getAccountInfo %s: %w", key, err)
	}
	if result.Value == nil {
		return nil, result.Context.Slot, fmt.Errorf("account %s: %w", key, model.ErrNotFound)
	}
	acc, err := decodeAccount(key, result.Value)
	if err != nil {
		return nil, 0, err
	}
	return acc, result.Context.Slot, nil
}

// GetMultipleAccounts returns accounts in key order; missing accounts are nil.
// The returned slot is the lowest slot among the chunked calls.
func (c *Client) GetMultipleAccounts(ctx context.Context, keys []PublicKey) ([]*Account, uint64, error) {
	accounts := make([]*Account, 0, len(keys))
	var slot uint64
	for from := 0; from < len(keys); from += maxAccountsPerCall {
		to := from + maxAccountsPerCall
		if to > len(keys) {
			to = len(keys)
		}
		chunk := keys[from:to]
		encoded := make([]string, len(chunk))
		for i, key := range chunk {
			encoded[i] = key.String()
		}

		var result multipleAccountsResult
		if err := c.rpcClient.CallContext(ctx, &result, "getMultipleAccounts", encoded, c.accountConfig()); err != nil {
			return nil, 0, fmt.Errorf("getMultipleAccounts: %w", err)
		}
		if len(result.Value) != len(chunk) {
			return nil, 0, fmt.Errorf("getMultipleAccounts returned %d accounts for %d keys", len(result.Value), len(chunk))
		}
		for i, v := range result.Value {
			acc, err := decodeAccount(chunk[i], v)
			if err != nil {
				return nil, 0, err
			}
			accounts = append(accounts, acc)
		}
		if slot == 0 || result.Context.Slot < slot {
			slot = result.Context.Slot
		}
	}
	return accounts, slot, nil
}

// GetSlot returns the current slot.
func (c *Client) GetSlot(ctx context.Context) (uint64, error) {
	var slot uint64
	if err := c.rpcClient.CallContext(ctx, &slot, "getSlot", map[string]string{"commitment": c.commitment}); err != nil {
		return 0, fmt.Errorf("getSlot: %w", err)
	}
	return slot, nil
}
