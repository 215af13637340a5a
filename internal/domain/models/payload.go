package models

// PayloadKind tags the wire shape of an encoded transfer.
type PayloadKind string

const (
	PayloadNative   PayloadKind = "native-transfer"
	PayloadContract PayloadKind = "contract-call"
)

// WirePayload is an encoded transfer ready for a signing backend.
type WirePayload interface {
	Kind() PayloadKind
	Recipient() string
}

// NativeTransfer is a ledger transfer operation. Amount carries the symbol, e.g. "2.500 STEEM".
type NativeTransfer struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
	Memo   string `json:"memo,omitempty"`

	// Quantity and Symbol are the two halves of Amount.
	Quantity string `json:"-"`
	Symbol   string `json:"-"`
}

func (NativeTransfer) Kind() PayloadKind   { return PayloadNative }
func (p NativeTransfer) Recipient() string { return p.To }

// ContractPayload is the body of a token contract transfer.
type ContractPayload struct {
	Symbol   string `json:"symbol"`
	To       string `json:"to"`
	Quantity string `json:"quantity"`
	Memo     string `json:"memo"`
}

// ContractCall is a custom-json envelope addressed to a side-chain contract.
type ContractCall struct {
	ContractName    string          `json:"contractName"`
	ContractAction  string          `json:"contractAction"`
	ContractPayload ContractPayload `json:"contractPayload"`
}

func (ContractCall) Kind() PayloadKind   { return PayloadContract }
func (p ContractCall) Recipient() string { return p.ContractPayload.To }
