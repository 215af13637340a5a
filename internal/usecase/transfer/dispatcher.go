package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"TransferDesk/internal/domain/models"
	drepo "TransferDesk/internal/domain/repository"
	"TransferDesk/pkg/logger"
)

// DispatchState is a step of one dispatch attempt:
// Idle -> Encoding -> Dispatching -> Completed | AwaitingExternal | Rejected.
type DispatchState int

const (
	StateIdle DispatchState = iota
	StateEncoding
	StateDispatching
	StateCompleted
	StateAwaitingExternal
	StateRejected
)

func (s DispatchState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEncoding:
		return "encoding"
	case StateDispatching:
		return "dispatching"
	case StateCompleted:
		return "completed"
	case StateAwaitingExternal:
		return "awaiting-external"
	case StateRejected:
		return "rejected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// StateOf maps an outcome onto the terminal dispatch state it represents.
func StateOf(kind models.OutcomeKind) DispatchState {
	switch kind {
	case models.OutcomeDelivered:
		return StateCompleted
	case models.OutcomeOpenedExternal:
		return StateAwaitingExternal
	default:
		return StateRejected
	}
}

// SignerConfig holds the identifiers both backends put on the wire.
type SignerConfig struct {
	CustomJSONID string
	Authority    string
	RedirectURL  string
}

// DefaultSignerConfig targets the side-chain main net through SteemConnect.
func DefaultSignerConfig() SignerConfig {
	return SignerConfig{
		CustomJSONID: "ssc-mainnet1",
		Authority:    "Active",
		RedirectURL:  "https://app.steemconnect.com/sign",
	}
}

// Signer is a signing backend.
type Signer interface {
	Name() string
	Sign(ctx context.Context, account string, payload models.WirePayload) models.SigningOutcome
}

// LocalSigner calls an in-environment keychain and waits for its callback.
type LocalSigner struct {
	keychain drepo.Keychain
	cfg      SignerConfig
}

func NewLocalSigner(keychain drepo.Keychain, cfg SignerConfig) *LocalSigner {
	return &LocalSigner{keychain: keychain, cfg: cfg}
}

func (s *LocalSigner) Name() string { return "local" }

// Sign blocks until the keychain reports back or ctx ends.
func (s *LocalSigner) Sign(ctx context.Context, account string, payload models.WirePayload) models.SigningOutcome {
	done := make(chan models.SignResponse, 1)
	callback := func(r models.SignResponse) {
		select {
		case done <- r:
		default:
		}
	}

	switch p := payload.(type) {
	case models.NativeTransfer:
		s.keychain.RequestTransfer(ctx, account, p.To, p.Quantity, p.Memo, p.Symbol, callback)
	case models.ContractCall:
		body, err := json.Marshal(p)
		if err != nil {
			return rejected(fmt.Sprintf("encode contract call: %v", err))
		}
		label := "Transfer " + p.ContractPayload.Symbol
		s.keychain.RequestCustomJSON(ctx, account, s.cfg.CustomJSONID, s.cfg.Authority, string(body), label, callback)
	default:
		return rejected(fmt.Sprintf("unsupported payload %T", payload))
	}

	select {
	case r := <-done:
		if r.Success {
			return models.SigningOutcome{Kind: models.OutcomeDelivered}
		}
		reason := r.Message
		if reason == "" {
			reason = "signing request was declined"
		}
		return rejected(reason)
	case <-ctx.Done():
		return rejected("signer timeout")
	}
}

// RedirectSigner hands the transaction to an external signing service by URL.
// It does not wait for, or observe, settlement.
type RedirectSigner struct {
	opener drepo.BrowserOpener
	cfg    SignerConfig
}

func NewRedirectSigner(opener drepo.BrowserOpener, cfg SignerConfig) *RedirectSigner {
	return &RedirectSigner{opener: opener, cfg: cfg}
}

func (s *RedirectSigner) Name() string { return "redirect" }

func (s *RedirectSigner) Sign(ctx context.Context, account string, payload models.WirePayload) models.SigningOutcome {
	u, err := s.URL(account, payload)
	if err != nil {
		return rejected(err.Error())
	}
	if err := s.opener.Open(ctx, u); err != nil {
		return rejected(fmt.Sprintf("open signing page: %v", err))
	}
	return models.SigningOutcome{Kind: models.OutcomeOpenedExternal, RedirectURL: u}
}

// URL builds the signing service link for payload.
func (s *RedirectSigner) URL(account string, payload models.WirePayload) (string, error) {
	base := strings.TrimRight(s.cfg.RedirectURL, "/")
	q := &query{}

	switch p := payload.(type) {
	case models.NativeTransfer:
		q.add("to", p.To)
		q.add("amount", p.Amount)
		if p.Memo != "" {
			q.add("memo", p.Memo)
		}
		return base + "/transfer?" + q.String(), nil
	case models.ContractCall:
		auths, err := json.Marshal([]string{account})
		if err != nil {
			return "", fmt.Errorf("encode auths: %w", err)
		}
		body, err := json.Marshal(p)
		if err != nil {
			return "", fmt.Errorf("encode contract call: %w", err)
		}
		q.add("required_auths", string(auths))
		q.add("required_posting_auths", "[]")
		q.add("id", s.cfg.CustomJSONID)
		q.add("json", string(body))
		return base + "/custom-json?" + q.String(), nil
	default:
		return "", fmt.Errorf("unsupported payload %T", payload)
	}
}

// query keeps parameter order stable and escapes like encodeURIComponent:
// space becomes %20 and !'()* stay literal.
type query struct {
	parts []string
}

func (q *query) add(key, value string) {
	q.parts = append(q.parts, escapeComponent(key)+"="+escapeComponent(value))
}

func (q *query) String() string { return strings.Join(q.parts, "&") }

var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func escapeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}

// Dispatcher encodes a request and routes it to whichever backend is present.
type Dispatcher struct {
	encoder  Encoder
	probe    drepo.SignerProbe
	redirect *RedirectSigner
	cfg      SignerConfig
	metrics  drepo.Metrics
	logger   *logger.Logger
}

func NewDispatcher(
	encoder Encoder,
	probe drepo.SignerProbe,
	opener drepo.BrowserOpener,
	cfg SignerConfig,
	metrics drepo.Metrics,
	l *logger.Logger,
) *Dispatcher {
	if l == nil {
		l = logger.Nop()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Dispatcher{
		encoder:  encoder,
		probe:    probe,
		redirect: NewRedirectSigner(opener, cfg),
		cfg:      cfg,
		metrics:  metrics,
		logger:   l,
	}
}

// Dispatch runs one attempt. The backend is probed on every call; the
// capability may come and go between attempts. An error means req could not
// be encoded, which callers must have ruled out by validating first.
func (d *Dispatcher) Dispatch(ctx context.Context, account string, req models.TransferRequest) (models.SigningOutcome, error) {
	state := StateIdle
	step := func(next DispatchState) {
		d.logger.Debug("dispatch transition",
			logger.String("from", state.String()),
			logger.String("to", next.String()))
		state = next
	}

	step(StateEncoding)
	payload, err := d.encoder.Encode(req)
	if err != nil {
		d.metrics.RecordError("encode")
		return models.SigningOutcome{}, err
	}

	step(StateDispatching)
	signer := d.selectSigner(ctx)
	start := time.Now()
	outcome := signer.Sign(ctx, account, payload)
	outcome.Backend = signer.Name()
	step(StateOf(outcome.Kind))

	d.metrics.RecordDispatch(signer.Name(), string(outcome.Kind))
	d.metrics.RecordLatency("dispatch_"+signer.Name(), time.Since(start).Seconds())

	fields := []logger.Field{
		logger.String("backend", signer.Name()),
		logger.String("payload", string(payload.Kind())),
		logger.String("to", payload.Recipient()),
		logger.String("outcome", string(outcome.Kind)),
	}
	if outcome.Kind == models.OutcomeRejected {
		d.logger.Warn("transfer rejected by signer", append(fields, logger.String("reason", outcome.Reason))...)
	} else {
		d.logger.Info("transfer dispatched", fields...)
	}
	return outcome, nil
}

func (d *Dispatcher) selectSigner(ctx context.Context) Signer {
	if d.probe != nil {
		if kc, ok := d.probe.Probe(ctx); ok && kc != nil {
			return NewLocalSigner(kc, d.cfg)
		}
	}
	return d.redirect
}

func rejected(reason string) models.SigningOutcome {
	return models.SigningOutcome{Kind: models.OutcomeRejected, Reason: reason}
}
