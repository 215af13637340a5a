package models

// Requests and views for the transfer HTTP endpoints.

type OpenTransferRequest struct {
	Account string `json:"account" validate:"omitempty,max=16"`
	To      string `json:"to" validate:"omitempty,max=64"`
}

type EditFieldRequest struct {
	Field string `json:"field" validate:"required,oneof=to amount currency memo"`
	Value string `json:"value" validate:"max=2048"`
}

type ReopenTransferRequest struct {
	To string `json:"to" validate:"omitempty,max=64"`
}

type SubmitTransferRequest struct {
	TimeoutSeconds int `json:"timeout_seconds" default:"120" validate:"gte=1,lte=600"`
}

// SessionView is a point-in-time snapshot of a transfer session.
type SessionView struct {
	ID            string               `json:"id"`
	Open          bool                 `json:"open"`
	Account       string               `json:"account,omitempty"`
	Authenticated bool                 `json:"authenticated"`
	Currency      Currency             `json:"currency"`
	Fields        map[Field]FieldState `json:"fields"`
	Balance       string               `json:"balance,omitempty"`
	USDEstimate   string               `json:"usd_estimate"`
	Outcome       *SigningOutcome      `json:"outcome,omitempty"`
	Valid         bool                 `json:"valid"`
}

// SubmitResult is the response body of a submit call.
type SubmitResult struct {
	Outcome *SigningOutcome `json:"outcome,omitempty"`
	Errors  []FieldError    `json:"errors,omitempty"`
	View    SessionView     `json:"view"`
}
