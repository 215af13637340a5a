package transfer

import (
	"errors"
	"fmt"

	"TransferDesk/internal/domain/models"
)

// ErrInvalidRequest is returned when a request that should have been validated
// cannot be encoded. Reaching it from Submit is a programming error.
var ErrInvalidRequest = errors.New("transfer: request not encodable")

const (
	tokensContract = "tokens"
	transferAction = "transfer"
)

// Encoder turns a validated request into a backend wire payload. The
// contract symbol is the points currency itself, so parsing, display and
// the wire agree.
type Encoder struct{}

// Encode builds a native transfer for ledger assets and a contract call for
// points. Amounts are always fixed to three decimals.
func (e Encoder) Encode(req models.TransferRequest) (models.WirePayload, error) {
	if req.Recipient == "" {
		return nil, fmt.Errorf("%w: empty recipient", ErrInvalidRequest)
	}
	amount, ok := ParseAmount(req.Amount)
	if !ok || !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount %q", ErrInvalidRequest, req.Amount)
	}
	quantity := FixAmount(amount)

	switch {
	case req.Currency.IsNative():
		return models.NativeTransfer{
			To:       req.Recipient,
			Amount:   quantity + " " + req.Currency.String(),
			Memo:     req.Memo,
			Quantity: quantity,
			Symbol:   req.Currency.String(),
		}, nil
	case req.Currency == models.CurrencyPoints:
		return models.ContractCall{
			ContractName:   tokensContract,
			ContractAction: transferAction,
			ContractPayload: models.ContractPayload{
				Symbol:   req.Currency.String(),
				To:       req.Recipient,
				Quantity: quantity,
				Memo:     req.Memo,
			},
		}, nil
	default:
		return nil, fmt.Errorf("%w: currency %q", ErrInvalidRequest, req.Currency)
	}
}
