package transfer

import (
	"TransferDesk/internal/domain/models"

	"github.com/shopspring/decimal"
)

// ResolveBalance returns the holdings figure for currency from snapshot.
func ResolveBalance(currency models.Currency, snapshot models.AccountSnapshot) decimal.Decimal {
	switch currency {
	case models.CurrencySteem:
		return snapshot.Balance
	case models.CurrencySBD:
		return snapshot.SBDBalance
	case models.CurrencyPoints:
		return snapshot.PointsBalance
	default:
		return decimal.Zero
	}
}
