package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountSnapshot is the authenticated user's holdings as last reported by the ledger.
// Transfer sessions read it and never mutate it.
type AccountSnapshot struct {
	Name          string
	Authenticated bool
	Balance       decimal.Decimal
	SBDBalance    decimal.Decimal
	PointsBalance decimal.Decimal
	FetchedAt     time.Time
}

// Anonymous is the snapshot used by unauthenticated sessions.
func Anonymous() AccountSnapshot { return AccountSnapshot{} }

// LedgerAccount is the subset of a ledger account record the service needs.
type LedgerAccount struct {
	Name       string
	Balance    decimal.Decimal
	SBDBalance decimal.Decimal
}

// Price is the latest known fiat price of one currency.
// A nil CurrentUSD means the price has not loaded yet, which is distinct from zero.
type Price struct {
	CurrentUSD *decimal.Decimal `json:"current_usd"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// PriceSnapshot maps currencies to their latest known price.
type PriceSnapshot map[Currency]Price

// Current returns the unit price of c and whether it is loaded.
func (s PriceSnapshot) Current(c Currency) (decimal.Decimal, bool) {
	p, ok := s[c]
	if !ok || p.CurrentUSD == nil {
		return decimal.Zero, false
	}
	return *p.CurrentUSD, true
}
