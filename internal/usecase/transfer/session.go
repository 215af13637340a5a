package transfer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"TransferDesk/internal/domain/models"
	drepo "TransferDesk/internal/domain/repository"
	"TransferDesk/pkg/logger"
)

var (
	ErrSessionClosed    = errors.New("transfer: session is closed")
	ErrUnknownField     = errors.New("transfer: unknown field")
	ErrNotAuthenticated = errors.New("transfer: session is not authenticated")
	ErrSubmitInProgress = errors.New("transfer: submit already in progress")
	ErrRequestChanged   = errors.New("transfer: request changed during submit")
)

const (
	defaultLookupTimeout  = 5 * time.Second
	priceBootstrapTimeout = 15 * time.Second
	viewTimeout           = 2 * time.Second
	subscriberBuffer      = 8
)

// Deps are the collaborators shared by every session.
type Deps struct {
	Validator     *Validator
	Lookup        drepo.AccountLookup
	Prices        drepo.PriceOracle
	Dispatcher    *Dispatcher
	Metrics       drepo.Metrics
	Logger        *logger.Logger
	LookupTimeout time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.Validator == nil {
		d.Validator = NewValidator(DefaultRules())
	}
	if d.Metrics == nil {
		d.Metrics = nopMetrics{}
	}
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.LookupTimeout <= 0 {
		d.LookupTimeout = defaultLookupTimeout
	}
	return d
}

// Session holds one user's transfer form and drives it from edit to dispatch.
// All state changes happen under mu; async lookups re-enter through
// applyRecipient and are dropped unless they answer the latest check.
type Session struct {
	id   string
	deps Deps
	log  *logger.Logger

	mu         sync.Mutex
	open       bool
	req        models.TransferRequest
	lastAmount string
	account    models.AccountSnapshot
	errs       map[models.Field]*models.FieldError
	status     map[models.Field]models.FieldStatus
	touched    map[models.Field]bool
	seq        uint64
	submitting bool
	outcome    *models.SigningOutcome
	lastActive time.Time
	subs       map[int]chan models.SessionView
	nextSub    int

	inflight  sync.WaitGroup
	bootstrap sync.Once
}

// NewSession mounts a closed session for account and starts the one-time
// price bootstrap.
func NewSession(id string, account models.AccountSnapshot, deps Deps) *Session {
	deps = deps.withDefaults()
	s := &Session{
		id:         id,
		deps:       deps,
		log:        deps.Logger.With(logger.String("session", id)),
		req:        models.TransferRequest{Currency: models.DefaultCurrency},
		account:    account,
		lastActive: time.Now(),
		subs:       make(map[int]chan models.SessionView),
	}
	s.resetValidationLocked()
	s.bootstrapPrices()
	return s
}

func (s *Session) ID() string { return s.id }

// Open resets amount, memo and currency, sets the recipient and reveals the form.
func (s *Session) Open(prefill string) {
	s.mu.Lock()
	s.open = true
	s.req = models.TransferRequest{Recipient: prefill, Currency: models.DefaultCurrency}
	s.lastAmount = ""
	s.outcome = nil
	s.seq++ // results for an earlier recipient must not land
	s.resetValidationLocked()
	s.markActiveLocked()
	s.mu.Unlock()

	s.log.Info("transfer session opened", logger.String("to", prefill))
	s.publish()
}

// EditField stores value into field and validates it. An amount that does not
// match the amount pattern is refused and the last accepted amount is kept.
func (s *Session) EditField(field models.Field, value string) error {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.markActiveLocked()

	switch field {
	case models.FieldTo:
		s.req.Recipient = value
		s.touched[models.FieldTo] = true
		s.validateRecipientLocked()
		// the exchange rule for memo depends on the recipient
		s.validateLocked(models.FieldMemo)
	case models.FieldAmount:
		s.setAmountLocked(value)
	case models.FieldCurrency:
		s.touched[models.FieldCurrency] = true
		c, err := models.ParseCurrency(value)
		if err != nil {
			s.setResultLocked(models.FieldCurrency, s.deps.Validator.Validate(models.FieldCurrency, value, s.contextLocked()))
			break
		}
		s.req.Currency = c
		s.setResultLocked(models.FieldCurrency, nil)
		// sufficiency depends on the selected currency
		if s.touched[models.FieldAmount] {
			s.validateLocked(models.FieldAmount)
		}
	case models.FieldMemo:
		s.req.Memo = value
		s.touched[models.FieldMemo] = true
		s.validateLocked(models.FieldMemo)
	default:
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	s.mu.Unlock()

	s.publish()
	return nil
}

// UseBalance fills the amount with the full balance of the selected currency.
func (s *Session) UseBalance() error {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if !s.account.Authenticated {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	s.markActiveLocked()
	s.setAmountLocked(FixAmount(ResolveBalance(s.req.Currency, s.account)))
	s.mu.Unlock()

	s.publish()
	return nil
}

// SetAccount replaces the account snapshot, e.g. after an external refresh.
func (s *Session) SetAccount(account models.AccountSnapshot) {
	s.mu.Lock()
	s.account = account
	if s.open && s.touched[models.FieldAmount] {
		s.validateLocked(models.FieldAmount)
	}
	s.mu.Unlock()

	s.publish()
}

// Submit revalidates every field, then encodes and dispatches the transfer.
// Field errors abort with no other side effect. A delivered or handed-off
// outcome closes the session; a rejected one leaves it open for retry.
func (s *Session) Submit(ctx context.Context) (*models.SigningOutcome, []models.FieldError, error) {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return nil, nil, ErrSessionClosed
	}
	if !s.account.Authenticated {
		s.mu.Unlock()
		return nil, nil, ErrNotAuthenticated
	}
	if s.submitting {
		s.mu.Unlock()
		return nil, nil, ErrSubmitInProgress
	}
	s.submitting = true
	s.markActiveLocked()
	for _, f := range models.Fields {
		s.touched[f] = true
	}
	s.validateLocked(models.FieldAmount)
	s.validateLocked(models.FieldCurrency)
	s.validateLocked(models.FieldMemo)

	s.seq++
	seq := s.seq
	name := s.req.Recipient
	staticErr := s.deps.Validator.Validate(models.FieldTo, name, s.contextLocked())
	if staticErr != nil {
		s.setResultLocked(models.FieldTo, staticErr)
	} else {
		s.setPendingLocked(models.FieldTo)
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
		s.publish()
	}()

	var lookupErr *models.FieldError
	if staticErr == nil {
		lookupErr = s.lookup(ctx, name)
	}

	s.mu.Lock()
	if seq != s.seq || s.req.Recipient != name {
		s.mu.Unlock()
		return nil, nil, ErrRequestChanged
	}
	if staticErr == nil {
		s.setResultLocked(models.FieldTo, lookupErr)
	}
	if errs := s.errorsLocked(); len(errs) > 0 {
		s.mu.Unlock()
		return nil, errs, nil
	}
	req := s.req
	account := s.account.Name
	s.mu.Unlock()

	outcome, err := s.deps.Dispatcher.Dispatch(ctx, account, req)
	if err != nil {
		// every field passed validation above, so the encoder must accept req
		panic(fmt.Sprintf("transfer: validated request rejected by encoder: %v", err))
	}

	s.mu.Lock()
	s.outcome = &outcome
	if outcome.ClosesSession() {
		s.closeLocked()
	}
	s.mu.Unlock()

	if outcome.ClosesSession() {
		s.log.Info("transfer session closed", logger.String("outcome", string(outcome.Kind)))
	}
	return &outcome, nil, nil
}

// Cancel discards edits and closes the session. Calling it again is a no-op.
func (s *Session) Cancel() {
	s.mu.Lock()
	wasOpen := s.open
	s.closeLocked()
	s.markActiveLocked()
	s.mu.Unlock()

	if wasOpen {
		s.log.Info("transfer session cancelled")
		s.publish()
	}
}

// IsOpen reports whether the form is currently shown.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Wait blocks until in-flight lookups and the price bootstrap have settled.
func (s *Session) Wait() {
	s.inflight.Wait()
}

// IdleSince returns the time of the last user action.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// View renders the session for display.
func (s *Session) View(ctx context.Context) models.SessionView {
	s.mu.Lock()
	view := models.SessionView{
		ID:            s.id,
		Open:          s.open,
		Account:       s.account.Name,
		Authenticated: s.account.Authenticated,
		Currency:      s.req.Currency,
		Fields:        make(map[models.Field]models.FieldState, len(models.Fields)),
		Valid:         s.validLocked(),
	}
	for _, f := range models.Fields {
		view.Fields[f] = models.FieldState{
			Value:  s.valueLocked(f),
			Status: s.status[f],
			Error:  s.errs[f],
		}
	}
	if s.account.Authenticated {
		view.Balance = FixAmount(ResolveBalance(s.req.Currency, s.account))
	}
	if s.outcome != nil {
		o := *s.outcome
		view.Outcome = &o
	}
	amount, currency := s.req.Amount, s.req.Currency
	s.mu.Unlock()

	if s.deps.Prices != nil {
		view.USDEstimate = EstimateUSD(amount, currency, s.deps.Prices.Snapshot(ctx))
	}
	return view
}

// Subscribe streams a fresh view after every change. Slow readers miss
// intermediate views. The returned func unsubscribes and closes the channel.
func (s *Session) Subscribe() (<-chan models.SessionView, func()) {
	ch := make(chan models.SessionView, subscriberBuffer)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
		s.mu.Unlock()
	}
}

// Release closes the session and every subscription; used on eviction.
func (s *Session) Release() {
	s.mu.Lock()
	s.closeLocked()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.mu.Unlock()
}

// --- internals; *Locked methods require s.mu ---

func (s *Session) setAmountLocked(value string) {
	if !MatchesAmountPattern(value) {
		value = s.lastAmount
	}
	s.req.Amount = value
	s.lastAmount = value
	s.touched[models.FieldAmount] = true
	s.validateLocked(models.FieldAmount)
}

func (s *Session) validateRecipientLocked() {
	s.seq++
	seq := s.seq
	name := s.req.Recipient

	if ferr := s.deps.Validator.Validate(models.FieldTo, name, s.contextLocked()); ferr != nil {
		s.setResultLocked(models.FieldTo, ferr)
		return
	}
	s.setPendingLocked(models.FieldTo)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ferr := s.lookup(context.Background(), name)
		if s.applyRecipient(seq, name, ferr) {
			s.publish()
		}
	}()
}

// lookup runs one bounded existence check. The deadline holds even when the
// lookup ignores ctx; a late answer is discarded.
func (s *Session) lookup(parent context.Context, name string) *models.FieldError {
	ctx, cancel := context.WithTimeout(parent, s.deps.LookupTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan *models.FieldError, 1)
	go func() {
		done <- s.deps.Validator.CheckRecipient(ctx, s.deps.Lookup, name)
	}()

	var ferr *models.FieldError
	select {
	case ferr = <-done:
	case <-ctx.Done():
		ferr = lookupFailed(name, ctx.Err())
	}
	result := "found"
	if ferr != nil {
		result = ferr.Code
	}
	s.deps.Metrics.RecordLookup(result, time.Since(start).Seconds())
	if ferr != nil && ferr.Retryable {
		s.log.Warn("recipient lookup failed",
			logger.String("to", name),
			logger.Any("cause", ferr.Params["cause"]))
	}
	return ferr
}

func (s *Session) applyRecipient(seq uint64, name string, ferr *models.FieldError) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq || s.req.Recipient != name {
		s.deps.Metrics.RecordStaleLookup()
		s.log.Debug("stale recipient lookup dropped",
			logger.String("to", name),
			logger.Uint64("seq", seq),
			logger.Uint64("latest", s.seq))
		return false
	}
	s.setResultLocked(models.FieldTo, ferr)
	return true
}

func (s *Session) bootstrapPrices() {
	if s.deps.Prices == nil {
		return
	}
	s.bootstrap.Do(func() {
		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			ctx, cancel := context.WithTimeout(context.Background(), priceBootstrapTimeout)
			defer cancel()

			snapshot := s.deps.Prices.Snapshot(ctx)
			refreshed := false
			for _, c := range []models.Currency{models.CurrencySteem, models.CurrencySBD} {
				if _, ok := snapshot.Current(c); ok {
					continue
				}
				if err := s.deps.Prices.Refresh(ctx, c); err != nil {
					s.deps.Metrics.RecordError("price_bootstrap")
					s.log.Warn("price bootstrap failed", logger.String("currency", c.String()), logger.Error(err))
					continue
				}
				refreshed = true
			}
			if refreshed {
				s.publish()
			}
		}()
	})
}

func (s *Session) validateLocked(field models.Field) *models.FieldError {
	ferr := s.deps.Validator.Validate(field, s.valueLocked(field), s.contextLocked())
	s.setResultLocked(field, ferr)
	return ferr
}

func (s *Session) setResultLocked(field models.Field, ferr *models.FieldError) {
	if ferr != nil {
		s.errs[field] = ferr
		s.status[field] = models.StatusInvalid
		s.deps.Metrics.RecordValidationError(string(field), ferr.Code)
		return
	}
	delete(s.errs, field)
	s.status[field] = models.StatusValid
}

func (s *Session) setPendingLocked(field models.Field) {
	delete(s.errs, field)
	s.status[field] = models.StatusPending
}

func (s *Session) contextLocked() Context {
	return Context{Recipient: s.req.Recipient, Currency: s.req.Currency, Account: s.account}
}

func (s *Session) valueLocked(field models.Field) string {
	switch field {
	case models.FieldTo:
		return s.req.Recipient
	case models.FieldAmount:
		return s.req.Amount
	case models.FieldCurrency:
		return s.req.Currency.String()
	case models.FieldMemo:
		return s.req.Memo
	}
	return ""
}

// errorsLocked returns field errors in form order.
func (s *Session) errorsLocked() []models.FieldError {
	var out []models.FieldError
	for _, f := range models.Fields {
		if e := s.errs[f]; e != nil {
			out = append(out, *e)
		}
	}
	return out
}

func (s *Session) validLocked() bool {
	if len(s.errs) > 0 {
		return false
	}
	return s.status[models.FieldTo] == models.StatusValid && s.status[models.FieldAmount] == models.StatusValid
}

func (s *Session) resetValidationLocked() {
	s.errs = make(map[models.Field]*models.FieldError)
	s.status = make(map[models.Field]models.FieldStatus, len(models.Fields))
	s.touched = make(map[models.Field]bool)
	for _, f := range models.Fields {
		s.status[f] = models.StatusUnchecked
	}
}

func (s *Session) closeLocked() {
	s.open = false
	s.seq++
	s.req = models.TransferRequest{Currency: models.DefaultCurrency}
	s.lastAmount = ""
	s.resetValidationLocked()
}

func (s *Session) markActiveLocked() {
	s.lastActive = time.Now()
}

func (s *Session) publish() {
	s.mu.Lock()
	idle := len(s.subs) == 0
	s.mu.Unlock()
	if idle {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), viewTimeout)
	view := s.View(ctx)
	cancel()

	s.mu.Lock()
	for _, ch := range s.subs {
		select {
		case ch <- view:
		default:
		}
	}
	s.mu.Unlock()
}
