package transfer

import (
	"context"
	"sync"

	"TransferDesk/internal/domain/models"
	drepo "TransferDesk/internal/domain/repository"

	"github.com/shopspring/decimal"
)

type lookupFunc func(ctx context.Context, name string) (bool, error)

func (f lookupFunc) AccountExists(ctx context.Context, name string) (bool, error) {
	return f(ctx, name)
}

func existing(names ...string) lookupFunc {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(_ context.Context, name string) (bool, error) { return set[name], nil }
}

type fakeOracle struct {
	mu        sync.Mutex
	prices    map[models.Currency]decimal.Decimal
	refreshed []models.Currency
	onRefresh map[models.Currency]decimal.Decimal
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{prices: map[models.Currency]decimal.Decimal{}, onRefresh: map[models.Currency]decimal.Decimal{}}
}

func (o *fakeOracle) Snapshot(context.Context) models.PriceSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	snap := models.PriceSnapshot{}
	for c, p := range o.prices {
		p := p
		snap[c] = models.Price{CurrentUSD: &p}
	}
	return snap
}

func (o *fakeOracle) Refresh(_ context.Context, c models.Currency) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.refreshed = append(o.refreshed, c)
	if p, ok := o.onRefresh[c]; ok {
		o.prices[c] = p
	}
	return nil
}

func (o *fakeOracle) refreshCalls() []models.Currency {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]models.Currency(nil), o.refreshed...)
}

type keychainCall struct {
	method  string
	account string
	to      string
	amount  string
	memo    string
	symbol  string
	id      string
	payload string
}

type fakeKeychain struct {
	mu    sync.Mutex
	calls []keychainCall
	reply *models.SignResponse // nil: never answers
}

func (k *fakeKeychain) RequestTransfer(_ context.Context, account, to, amount, memo, symbol string, done func(models.SignResponse)) {
	k.record(keychainCall{method: "transfer", account: account, to: to, amount: amount, memo: memo, symbol: symbol}, done)
}

func (k *fakeKeychain) RequestCustomJSON(_ context.Context, account, id, _, payload, _ string, done func(models.SignResponse)) {
	k.record(keychainCall{method: "custom-json", account: account, id: id, payload: payload}, done)
}

func (k *fakeKeychain) record(c keychainCall, done func(models.SignResponse)) {
	k.mu.Lock()
	k.calls = append(k.calls, c)
	reply := k.reply
	k.mu.Unlock()
	if reply != nil {
		go done(*reply)
	}
}

func (k *fakeKeychain) Calls() []keychainCall {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]keychainCall(nil), k.calls...)
}

type fakeProbe struct {
	mu       sync.Mutex
	keychain drepo.Keychain
	probes   int
}

func (p *fakeProbe) Probe(context.Context) (drepo.Keychain, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.probes++
	return p.keychain, p.keychain != nil
}

func (p *fakeProbe) set(k drepo.Keychain) {
	p.mu.Lock()
	p.keychain = k
	p.mu.Unlock()
}

type fakeOpener struct {
	mu   sync.Mutex
	urls []string
	err  error
}

func (o *fakeOpener) Open(_ context.Context, u string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.urls = append(o.urls, u)
	return o.err
}

func (o *fakeOpener) Opened() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.urls...)
}

type recMetrics struct {
	nopMetrics
	mu         sync.Mutex
	stale      int
	lookups    []string
	dispatches []string
	sessions   int
}

func (m *recMetrics) RecordStaleLookup() {
	m.mu.Lock()
	m.stale++
	m.mu.Unlock()
}

func (m *recMetrics) RecordLookup(result string, _ float64) {
	m.mu.Lock()
	m.lookups = append(m.lookups, result)
	m.mu.Unlock()
}

func (m *recMetrics) RecordDispatch(backend, outcome string) {
	m.mu.Lock()
	m.dispatches = append(m.dispatches, backend+":"+outcome)
	m.mu.Unlock()
}

func (m *recMetrics) RecordSessions(n int) {
	m.mu.Lock()
	m.sessions = n
	m.mu.Unlock()
}

func (m *recMetrics) staleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stale
}

func account(name string, steem, sbd, points string) models.AccountSnapshot {
	return models.AccountSnapshot{
		Name:          name,
		Authenticated: true,
		Balance:       decimal.RequireFromString(steem),
		SBDBalance:    decimal.RequireFromString(sbd),
		PointsBalance: decimal.RequireFromString(points),
	}
}
