// Package balance fetches live address balances from a mempool.space
// compatible explorer API. It is fully decoupled from the catalog: the
// only input is an address string, the only output a balance or a
// transient-failure signal the caller may retry on.
package balance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the public mempool.space API root.
const DefaultBaseURL = "https://mempool.space/api"

// TransientError marks a failure worth retrying: a network problem or
// a server-side error. Anything else means the request itself is bad.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("balance: transient failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Balance is the on-chain funds at one address, in satoshi.
type Balance struct {
	Address string `json:"address"`
	// Confirmed is funded minus spent over confirmed transactions.
	Confirmed int64 `json:"confirmed"`
	// Mempool is the unconfirmed delta, negative when an unconfirmed
	// transaction spends from the address.
	Mempool int64 `json:"mempool"`
}

// BTC returns the confirmed balance in whole coins.
func (b *Balance) BTC() float64 {
	return float64(b.Confirmed) / 1e8
}

type addressStats struct {
	FundedTxoSum int64 `json:"funded_txo_sum"`
	SpentTxoSum  int64 `json:"spent_txo_sum"`
	TxCount      int64 `json:"tx_count"`
}

type addressResponse struct {
	Address      string       `json:"address"`
	ChainStats   addressStats `json:"chain_stats"`
	MempoolStats addressStats `json:"mempool_stats"`
}

// Client queries one explorer endpoint.
type Client struct {
	http    *resty.Client
	baseURL string
	cache   *cache
}

// Option adjusts a Client at construction time.
type Option func(*Client)

// WithBaseURL points the client at a different explorer, e.g. a
// self-hosted mempool instance.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithTimeout caps each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// WithCacheTTL serves repeated lookups for the same address from
// memory for the given duration.
func WithCacheTTL(d time.Duration) Option {
	return func(c *Client) { c.cache = newCache(d) }
}

// NewClient builds a client against mempool.space unless overridden.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:    resty.New(),
		baseURL: DefaultBaseURL,
	}
	c.http.SetTimeout(10 * time.Second)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the current balance at address. Network failures and
// server errors come back as *TransientError.
func (c *Client) Fetch(ctx context.Context, address string) (*Balance, error) {
	if c.cache != nil {
		if b, ok := c.cache.get(address); ok {
			return b, nil
		}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("%s/address/%s", c.baseURL, address))
	if err != nil {
		return nil, &TransientError{Err: err}
	}

	switch {
	case resp.StatusCode() >= 500:
		return nil, &TransientError{Err: fmt.Errorf("explorer returned %s", resp.Status())}
	case resp.StatusCode() != 200:
		return nil, fmt.Errorf("balance: explorer rejected %q: %s", address, resp.Status())
	}

	var parsed addressResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("balance: unparseable explorer response: %w", err)
	}

	b := &Balance{
		Address:   address,
		Confirmed: parsed.ChainStats.FundedTxoSum - parsed.ChainStats.SpentTxoSum,
		Mempool:   parsed.MempoolStats.FundedTxoSum - parsed.MempoolStats.SpentTxoSum,
	}
	if c.cache != nil {
		c.cache.put(address, b)
	}
	return b, nil
}
