package steemengine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	xhttp "TransferDesk/pkg/http"

	"github.com/shopspring/decimal"
)

var ErrRPC = errors.New("steemengine: rpc error")

// Client reads token balances from the side-chain contracts endpoint.
type Client struct {
	baseURL string
	symbol  string
	http    *xhttp.Client
}

func New(baseURL, symbol string, httpClient *xhttp.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), symbol: symbol, http: httpClient}
}

type findParams struct {
	Contract string            `json:"contract"`
	Table    string            `json:"table"`
	Query    map[string]string `json:"query"`
	Limit    int               `json:"limit"`
}

type findRequest struct {
	JSONRPC string     `json:"jsonrpc"`
	ID      int        `json:"id"`
	Method  string     `json:"method"`
	Params  findParams `json:"params"`
}

type balanceRow struct {
	Account string `json:"account"`
	Symbol  string `json:"symbol"`
	Balance string `json:"balance"`
}

type findResponse struct {
	Result []balanceRow `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// PointsBalance returns zero for an account that never held the token.
func (c *Client) PointsBalance(ctx context.Context, account string) (decimal.Decimal, error) {
	req := findRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "find",
		Params: findParams{
			Contract: "tokens",
			Table:    "balances",
			Query:    map[string]string{"account": account, "symbol": c.symbol},
			Limit:    1,
		},
	}
	var resp findResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.baseURL + "/contracts",
		Body:   req,
	}, &resp)
	if err != nil {
		return decimal.Zero, fmt.Errorf("find %s balance of %s: %w", c.symbol, account, err)
	}
	if resp.Error != nil {
		return decimal.Zero, fmt.Errorf("%w %d: %s", ErrRPC, resp.Error.Code, resp.Error.Message)
	}
	if len(resp.Result) == 0 {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(resp.Result[0].Balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s balance %q: %w", c.symbol, resp.Result[0].Balance, err)
	}
	return d, nil
}
