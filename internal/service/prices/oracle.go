package prices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"TransferDesk/internal/domain/models"
	"TransferDesk/internal/service/cache"
	xhttp "TransferDesk/pkg/http"
	"TransferDesk/pkg/logger"

	"github.com/shopspring/decimal"
)

var (
	ErrNoMarket = errors.New("prices: currency has no market price")
	ErrNoData   = errors.New("prices: empty price history")
)

const (
	keyPrefix   = "price:"
	historyDays = "7"
)

// marketSymbols maps currencies to their price-history symbol. Points are not
// traded and never get a price; they are deliberately not valued at the SBD
// rate, so a points transfer shows no USD estimate.
var marketSymbols = map[models.Currency]string{
	models.CurrencySteem: "STEEM",
	models.CurrencySBD:   "SBD*",
}

// Oracle fetches daily price history and keeps the latest close in a BytesCache.
type Oracle struct {
	baseURL string
	http    *xhttp.Client
	store   cache.BytesCache
	ttl     time.Duration
	logger  *logger.Logger
	now     func() time.Time
}

func NewOracle(baseURL string, httpClient *xhttp.Client, store cache.BytesCache, ttl time.Duration, l *logger.Logger) *Oracle {
	if l == nil {
		l = logger.Nop()
	}
	return &Oracle{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		store:   store,
		ttl:     ttl,
		logger:  l,
		now:     time.Now,
	}
}

type histoDay struct {
	Time  int64   `json:"time"`
	Close float64 `json:"close"`
}

type histoResponse struct {
	Response string     `json:"Response"`
	Message  string     `json:"Message"`
	Data     []histoDay `json:"Data"`
}

// Snapshot reads every cached price. Missing or unreadable entries are left
// out, which callers see as "not loaded".
func (o *Oracle) Snapshot(ctx context.Context) models.PriceSnapshot {
	snap := make(models.PriceSnapshot, len(marketSymbols))
	for c := range marketSymbols {
		b, ok, err := o.store.GetBytes(ctx, keyPrefix+c.String())
		if err != nil {
			o.logger.Warn("price cache read failed", logger.String("currency", c.String()), logger.Error(err))
			continue
		}
		if !ok {
			continue
		}
		var p models.Price
		if err := json.Unmarshal(b, &p); err != nil {
			o.logger.Warn("price cache entry corrupt", logger.String("currency", c.String()), logger.Error(err))
			continue
		}
		snap[c] = p
	}
	return snap
}

// Refresh loads the price history of currency and caches its latest close.
func (o *Oracle) Refresh(ctx context.Context, currency models.Currency) error {
	symbol, ok := marketSymbols[currency]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoMarket, currency)
	}

	var resp histoResponse
	err := o.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    o.baseURL + "/data/histoday",
		QueryParams: map[string][]string{
			"fsym":  {symbol},
			"tsym":  {"USD"},
			"limit": {historyDays},
		},
	}, &resp)
	if err != nil {
		return fmt.Errorf("price history %s: %w", symbol, err)
	}
	if resp.Response == "Error" {
		return fmt.Errorf("price history %s: %s", symbol, resp.Message)
	}
	if len(resp.Data) == 0 {
		return fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	current := decimal.NewFromFloat(resp.Data[len(resp.Data)-1].Close)
	b, err := json.Marshal(models.Price{CurrentUSD: &current, UpdatedAt: o.now().UTC()})
	if err != nil {
		return fmt.Errorf("encode price: %w", err)
	}
	if err := o.store.SetBytes(ctx, keyPrefix+currency.String(), b, o.ttl); err != nil {
		return fmt.Errorf("cache price %s: %w", symbol, err)
	}
	o.logger.Debug("price refreshed", logger.String("currency", currency.String()), logger.String("usd", current.String()))
	return nil
}
