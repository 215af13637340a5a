package transfer

import "TransferDesk/internal/domain/models"

// EstimateUSD renders the approximate fiat value of amount, e.g. "~$12.50".
// It returns "" when the amount is not a positive number or the price of
// currency has not loaded. Points never have a price.
func EstimateUSD(amount string, currency models.Currency, prices models.PriceSnapshot) string {
	d, ok := ParseAmount(amount)
	if !ok || !d.IsPositive() {
		return ""
	}
	price, ok := prices.Current(currency)
	if !ok {
		return ""
	}
	return "~$" + d.Mul(price).StringFixed(2)
}
