package models

import (
	"fmt"
	"strings"
)

// Currency selects which balance, price and wire encoding a transfer uses.
type Currency string

const (
	CurrencySteem  Currency = "STEEM"     // primary ledger asset
	CurrencySBD    Currency = "SBD"       // secondary ledger asset
	CurrencyPoints Currency = "TEARDROPS" // application points, settled by contract call
)

// DefaultCurrency is selected whenever a transfer session is (re)opened.
const DefaultCurrency = CurrencySteem

// Currencies lists every selectable currency in display order.
var Currencies = []Currency{CurrencySteem, CurrencySBD, CurrencyPoints}

// ParseCurrency maps user input onto a Currency, case-insensitively.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Currencies {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown currency %q", s)
}

// IsNative reports whether the currency moves through a native ledger transfer.
func (c Currency) IsNative() bool {
	return c == CurrencySteem || c == CurrencySBD
}

func (c Currency) String() string { return string(c) }
