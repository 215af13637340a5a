package transfer

import (
	"context"
	"fmt"
	"strings"

	"TransferDesk/internal/domain/models"
	drepo "TransferDesk/internal/domain/repository"

	"github.com/go-playground/validator/v10"
)

// Rules configures the static field rules.
type Rules struct {
	MinAccountLength int
	MaxAccountLength int
	Exchanges        []string
	EncryptedMarker  string
}

// DefaultRules mirrors the ledger's account naming limits and the known exchange accounts.
func DefaultRules() Rules {
	return Rules{
		MinAccountLength: 3,
		MaxAccountLength: 16,
		Exchanges: []string{
			"bittrex", "blocktrades", "poloniex", "changelly",
			"openledge", "shapeshiftio", "deepcrypto8",
		},
		EncryptedMarker: "#",
	}
}

// Context is the cross-field state a rule may consult.
type Context struct {
	Recipient string
	Currency  models.Currency
	Account   models.AccountSnapshot
}

// rule is one predicate of a field chain. Static rules use a validator tag,
// the rest a check function. The first failing rule of a chain wins.
type rule struct {
	code  string
	tag   string
	check func(value string, vc Context) bool
	msg   func(value string) string
}

// Validator is the field validation engine.
type Validator struct {
	rules     Rules
	exchanges map[string]struct{}
	validate  *validator.Validate
	chains    map[models.Field][]rule
}

// NewValidator builds the per-field rule chains.
func NewValidator(rules Rules) *Validator {
	def := DefaultRules()
	if rules.MaxAccountLength == 0 {
		rules.MinAccountLength, rules.MaxAccountLength = def.MinAccountLength, def.MaxAccountLength
	}
	if rules.EncryptedMarker == "" {
		rules.EncryptedMarker = def.EncryptedMarker
	}

	v := &Validator{
		rules:     rules,
		exchanges: make(map[string]struct{}, len(rules.Exchanges)),
		validate:  validator.New(),
	}
	for _, name := range rules.Exchanges {
		v.exchanges[strings.TrimSpace(name)] = struct{}{}
	}
	// regex is fixed and the tag name unique, registration cannot fail
	_ = v.validate.RegisterValidation("amount3", func(fl validator.FieldLevel) bool {
		return MatchesAmountPattern(fl.Field().String())
	})

	v.chains = map[models.Field][]rule{
		models.FieldTo: {
			{code: models.CodeRequired, tag: "required", msg: constMsg("Recipient is required.")},
			{code: models.CodeTooShort, tag: fmt.Sprintf("min=%d", rules.MinAccountLength), msg: func(s string) string {
				return fmt.Sprintf("Username %s is too short.", s)
			}},
			{code: models.CodeTooLong, tag: fmt.Sprintf("max=%d", rules.MaxAccountLength), msg: func(s string) string {
				return fmt.Sprintf("Username %s is too long.", s)
			}},
		},
		models.FieldAmount: {
			{code: models.CodeRequired, tag: "required", msg: constMsg("Amount is required.")},
			{code: models.CodeFormat, tag: "amount3", msg: constMsg("Incorrect format. Use a dot as decimal separator and at most 3 decimal places.")},
			{code: models.CodeNotPositive, check: amountPositive, msg: constMsg("Amount has to be higher than 0.")},
			{code: models.CodeInsufficientFunds, check: amountCovered, msg: constMsg("Insufficient funds.")},
		},
		models.FieldCurrency: {
			{code: models.CodeCurrency, check: knownCurrency, msg: func(s string) string {
				return fmt.Sprintf("Unknown currency %s.", s)
			}},
		},
		models.FieldMemo: {
			{code: models.CodeMemoRequired, check: v.memoPresentForExchange, msg: constMsg("Memo is required when sending to an exchange.")},
			{code: models.CodeMemoEncrypted, check: v.memoNotEncrypted, msg: constMsg("Encrypted memos are not supported.")},
		},
	}
	return v
}

// Validate runs the synchronous rule chain of field. For the recipient this
// covers presence and length only; existence is checked by CheckRecipient.
func (v *Validator) Validate(field models.Field, value string, vc Context) *models.FieldError {
	for _, r := range v.chains[field] {
		if v.passes(r, value, vc) {
			continue
		}
		return &models.FieldError{
			Field:   field,
			Code:    r.code,
			Message: r.msg(value),
			Params:  map[string]interface{}{"value": value},
		}
	}
	return nil
}

// CheckRecipient asks the remote directory whether name exists. Transport
// failures, timeouts included, come back as a retryable error distinct from
// "not found".
func (v *Validator) CheckRecipient(ctx context.Context, lookup drepo.AccountLookup, name string) *models.FieldError {
	exists, err := lookup.AccountExists(ctx, name)
	if err != nil {
		return lookupFailed(name, err)
	}
	if !exists {
		return &models.FieldError{
			Field:   models.FieldTo,
			Code:    models.CodeNotFound,
			Message: fmt.Sprintf("Couldn't find user with name %s.", name),
			Params:  map[string]interface{}{"value": name},
		}
	}
	return nil
}

func lookupFailed(name string, cause error) *models.FieldError {
	return &models.FieldError{
		Field:     models.FieldTo,
		Code:      models.CodeLookupFailed,
		Message:   fmt.Sprintf("Couldn't verify user %s. Please try again.", name),
		Params:    map[string]interface{}{"value": name, "cause": cause.Error()},
		Retryable: true,
	}
}

// IsExchange reports whether name belongs to a trading venue that needs a memo.
func (v *Validator) IsExchange(name string) bool {
	_, ok := v.exchanges[name]
	return ok
}

func (v *Validator) passes(r rule, value string, vc Context) bool {
	if r.tag != "" {
		return v.validate.Var(value, r.tag) == nil
	}
	return r.check(value, vc)
}

func (v *Validator) memoPresentForExchange(memo string, vc Context) bool {
	return !v.IsExchange(vc.Recipient) || memo != ""
}

func (v *Validator) memoNotEncrypted(memo string, _ Context) bool {
	return !strings.HasPrefix(strings.TrimSpace(memo), v.rules.EncryptedMarker)
}

func amountPositive(value string, _ Context) bool {
	d, ok := ParseAmount(value)
	return ok && d.IsPositive()
}

// amountCovered skips the sufficiency check for unauthenticated sessions.
func amountCovered(value string, vc Context) bool {
	if !vc.Account.Authenticated {
		return true
	}
	d, _ := ParseAmount(value)
	return d.LessThanOrEqual(ResolveBalance(vc.Currency, vc.Account))
}

func knownCurrency(value string, _ Context) bool {
	_, err := models.ParseCurrency(value)
	return err == nil
}

func constMsg(m string) func(string) string {
	return func(string) string { return m }
}
