package steemd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"TransferDesk/internal/domain/models"
	"TransferDesk/internal/service/ratelimit"
	xhttp "TransferDesk/pkg/http"

	"github.com/shopspring/decimal"
)

// ErrRPC wraps an error object returned by the node.
var ErrRPC = errors.New("steemd: rpc error")

const limiterKey = "steemd"

// Client talks JSON-RPC to a ledger node. It serves both the recipient
// existence check and the balance snapshot.
type Client struct {
	url     string
	http    *xhttp.Client
	limiter *ratelimit.Limiter
	rps     float64
	burst   float64
	nextID  atomic.Int64
}

type Option func(*Client)

// WithRateLimit paces outgoing calls; rps <= 0 disables pacing.
func WithRateLimit(l *ratelimit.Limiter, rps, burst float64) Option {
	return func(c *Client) {
		c.limiter, c.rps, c.burst = l, rps, burst
	}
}

func New(url string, httpClient *xhttp.Client, opts ...Option) *Client {
	c := &Client{url: url, http: httpClient}
	for _, o := range opts {
		o(c)
	}
	return c
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int64         `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcAccount struct {
	Name       string `json:"name"`
	Balance    string `json:"balance"`
	SBDBalance string `json:"sbd_balance"`
}

type getAccountsResponse struct {
	Result []rpcAccount `json:"result"`
	Error  *rpcError    `json:"error"`
}

// AccountExists reports whether name is a registered account.
func (c *Client) AccountExists(ctx context.Context, name string) (bool, error) {
	accounts, err := c.getAccounts(ctx, name)
	if err != nil {
		return false, err
	}
	return len(accounts) > 0, nil
}

// GetAccount returns nil, nil when the account does not exist.
func (c *Client) GetAccount(ctx context.Context, name string) (*models.LedgerAccount, error) {
	accounts, err := c.getAccounts(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	a := accounts[0]
	balance, err := ParseAsset(a.Balance)
	if err != nil {
		return nil, fmt.Errorf("account %s balance: %w", name, err)
	}
	sbd, err := ParseAsset(a.SBDBalance)
	if err != nil {
		return nil, fmt.Errorf("account %s sbd_balance: %w", name, err)
	}
	return &models.LedgerAccount{Name: a.Name, Balance: balance, SBDBalance: sbd}, nil
}

func (c *Client) getAccounts(ctx context.Context, name string) ([]rpcAccount, error) {
	if c.limiter != nil && c.rps > 0 {
		if err := c.limiter.Wait(ctx, limiterKey, c.burst, c.rps); err != nil {
			return nil, fmt.Errorf("steemd rate limit: %w", err)
		}
	}

	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  "condenser_api.get_accounts",
		Params:  []interface{}{[]string{name}},
		ID:      c.nextID.Add(1),
	}
	var resp getAccountsResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.url,
		Body:   req,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("get_accounts %s: %w", name, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%w %d: %s", ErrRPC, resp.Error.Code, resp.Error.Message)
	}
	return resp.Result, nil
}

// ParseAsset reads a ledger asset string such as "12.345 STEEM".
func ParseAsset(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	amount, _, _ := strings.Cut(s, " ")
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse asset %q: %w", s, err)
	}
	return d, nil
}
