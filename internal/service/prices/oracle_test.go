package prices

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"TransferDesk/internal/domain/models"
	"TransferDesk/internal/service/cache"
	xhttp "TransferDesk/pkg/http"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOracleRefreshAndSnapshot(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/data/histoday", r.URL.Path)
		assert.Equal(t, "USD", r.URL.Query().Get("tsym"))
		switch r.URL.Query().Get("fsym") {
		case "STEEM":
			_, _ = w.Write([]byte(`{"Response":"Success","Data":[{"time":1,"close":0.20},{"time":2,"close":0.25}]}`))
		case "SBD*":
			_, _ = w.Write([]byte(`{"Response":"Success","Data":[{"time":2,"close":1.01}]}`))
		default:
			_, _ = w.Write([]byte(`{"Response":"Error","Message":"unknown symbol"}`))
		}
	}))
	defer srv.Close()

	o := NewOracle(srv.URL, xhttp.NewClient(), cache.NewTTLCache(), time.Minute, nil)
	ctx := context.Background()

	_, ok := o.Snapshot(ctx).Current(models.CurrencySteem)
	assert.False(t, ok, "unknown before first refresh")

	require.NoError(t, o.Refresh(ctx, models.CurrencySteem))
	require.NoError(t, o.Refresh(ctx, models.CurrencySBD))

	snap := o.Snapshot(ctx)
	steem, ok := snap.Current(models.CurrencySteem)
	require.True(t, ok)
	assert.True(t, steem.Equal(decimal.RequireFromString("0.25")), "latest close wins")
	sbd, ok := snap.Current(models.CurrencySBD)
	require.True(t, ok)
	assert.True(t, sbd.Equal(decimal.RequireFromString("1.01")))
	assert.EqualValues(t, 2, hits.Load())
}

func TestOraclePointsHaveNoMarket(t *testing.T) {
	o := NewOracle("http://unused", xhttp.NewClient(), cache.NewTTLCache(), time.Minute, nil)
	assert.ErrorIs(t, o.Refresh(context.Background(), models.CurrencyPoints), ErrNoMarket)
}

func TestOracleEmptyHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"Response":"Success","Data":[]}`))
	}))
	defer srv.Close()

	o := NewOracle(srv.URL, xhttp.NewClient(), cache.NewTTLCache(), time.Minute, nil)
	assert.ErrorIs(t, o.Refresh(context.Background(), models.CurrencySteem), ErrNoData)
	_, ok := o.Snapshot(context.Background()).Current(models.CurrencySteem)
	assert.False(t, ok)
}
