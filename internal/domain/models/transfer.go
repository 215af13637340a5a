package models

// Field names a single input of the transfer form.
type Field string

const (
	FieldTo       Field = "to"
	FieldAmount   Field = "amount"
	FieldCurrency Field = "currency"
	FieldMemo     Field = "memo"
)

// Fields lists the form fields in the order they are validated before submit.
var Fields = []Field{FieldTo, FieldAmount, FieldCurrency, FieldMemo}

// TransferRequest is the in-progress form state owned by a transfer session.
// Amount is kept as text so user formatting survives until encoding.
type TransferRequest struct {
	Recipient string
	Amount    string
	Currency  Currency
	Memo      string
}

// Field validation codes.
const (
	CodeRequired          = "ERR_REQUIRED"
	CodeTooShort          = "ERR_TOO_SHORT"
	CodeTooLong           = "ERR_TOO_LONG"
	CodeNotFound          = "ERR_NOT_FOUND"
	CodeLookupFailed      = "ERR_LOOKUP_FAILED"
	CodeFormat            = "ERR_FORMAT"
	CodeNotPositive       = "ERR_NOT_POSITIVE"
	CodeInsufficientFunds = "ERR_INSUFFICIENT_FUNDS"
	CodeMemoRequired      = "ERR_MEMO_REQUIRED"
	CodeMemoEncrypted     = "ERR_MEMO_ENCRYPTED"
	CodeCurrency          = "ERR_CURRENCY"
)

// FieldError is a user-facing validation failure scoped to one field.
// Retryable marks failures where the input may be fine and the check itself failed.
type FieldError struct {
	Field     Field                  `json:"field"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Params    map[string]interface{} `json:"params,omitempty"`
	Retryable bool                   `json:"retryable,omitempty"`
}

func (e *FieldError) Error() string { return string(e.Field) + ": " + e.Message }

// FieldStatus is the validation state of a single field.
type FieldStatus string

const (
	StatusUnchecked FieldStatus = "unchecked"
	StatusValid     FieldStatus = "valid"
	StatusInvalid   FieldStatus = "invalid"
	StatusPending   FieldStatus = "pending"
)

// FieldState is the read model of one field.
type FieldState struct {
	Value  string      `json:"value"`
	Status FieldStatus `json:"status"`
	Error  *FieldError `json:"error,omitempty"`
}
