package repository

import (
	"context"

	"TransferDesk/internal/domain/models"

	"github.com/shopspring/decimal"
)

// AccountLookup answers whether a ledger account exists. A transport failure
// is reported as an error, never as exists=false.
type AccountLookup interface {
	AccountExists(ctx context.Context, name string) (bool, error)
}

// LedgerAccounts loads balance records from the ledger.
type LedgerAccounts interface {
	GetAccount(ctx context.Context, name string) (*models.LedgerAccount, error)
}

// PointsLedger reports the points balance held by an account.
type PointsLedger interface {
	PointsBalance(ctx context.Context, account string) (decimal.Decimal, error)
}

// PriceOracle supplies fiat unit prices. Snapshot never blocks on the network;
// Refresh fetches and caches the latest price of one currency.
type PriceOracle interface {
	Snapshot(ctx context.Context) models.PriceSnapshot
	Refresh(ctx context.Context, currency models.Currency) error
}

// Keychain is a local signing capability. Both requests complete by invoking
// done exactly once, synchronously or from another goroutine.
type Keychain interface {
	RequestTransfer(ctx context.Context, account, to, amount, memo, symbol string, done func(models.SignResponse))
	RequestCustomJSON(ctx context.Context, account, id, authority, payload, label string, done func(models.SignResponse))
}

// SignerProbe detects whether a local signing capability is available right now.
type SignerProbe interface {
	Probe(ctx context.Context) (Keychain, bool)
}

// BrowserOpener hands a signing URL to a new browsing context.
type BrowserOpener interface {
	Open(ctx context.Context, url string) error
}

type Metrics interface {
	RecordLookup(result string, seconds float64)
	RecordStaleLookup()
	RecordValidationError(field, code string)
	RecordDispatch(backend, outcome string)
	RecordSessions(open int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
