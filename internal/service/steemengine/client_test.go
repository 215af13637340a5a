package steemengine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	xhttp "TransferDesk/pkg/http"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointsBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/contracts", r.URL.Path)
		var req findRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "find", req.Method)
		assert.Equal(t, "tokens", req.Params.Contract)
		assert.Equal(t, "balances", req.Params.Table)
		assert.Equal(t, "TEARDROPS", req.Params.Query["symbol"])

		resp := findResponse{Result: []balanceRow{}}
		if req.Params.Query["account"] == "alice" {
			resp.Result = append(resp.Result, balanceRow{Account: "alice", Symbol: "TEARDROPS", Balance: "42.125"})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "TEARDROPS", xhttp.NewClient())

	bal, err := c.PointsBalance(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.RequireFromString("42.125")))

	bal, err = c.PointsBalance(context.Background(), "bob")
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
}

func TestPointsBalanceErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"code":1,"message":"bad query"}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "TEARDROPS", xhttp.NewClient()).PointsBalance(context.Background(), "alice")
	assert.ErrorIs(t, err, ErrRPC)
}
