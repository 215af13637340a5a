package models

// OutcomeKind is the result of one dispatch attempt.
type OutcomeKind string

const (
	OutcomeDelivered      OutcomeKind = "delivered"
	OutcomeOpenedExternal OutcomeKind = "opened-external"
	OutcomeRejected       OutcomeKind = "rejected"
)

// SigningOutcome is created once per submit and consumed by the session.
// RedirectURL is set for opened-external outcomes so the client can follow the handoff.
type SigningOutcome struct {
	Kind        OutcomeKind `json:"kind"`
	Backend     string      `json:"backend,omitempty"`
	Reason      string      `json:"reason,omitempty"`
	RedirectURL string      `json:"redirect_url,omitempty"`
}

// ClosesSession reports whether the outcome ends the transfer session.
func (o SigningOutcome) ClosesSession() bool {
	return o.Kind == OutcomeDelivered || o.Kind == OutcomeOpenedExternal
}

// SignResponse is what a signing backend passes to its completion callback.
type SignResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
