package transfer

import (
	"context"
	"errors"
	"testing"

	"TransferDesk/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRecipient(t *testing.T) {
	v := NewValidator(DefaultRules())
	vc := Context{Currency: models.CurrencySteem}

	tests := []struct {
		name  string
		value string
		code  string
	}{
		{"empty", "", models.CodeRequired},
		{"too short", "ab", models.CodeTooShort},
		{"shortest", "abc", ""},
		{"longest", "abcdefghijklmnop", ""},
		{"too long", "abcdefghijklmnopq", models.CodeTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ferr := v.Validate(models.FieldTo, tt.value, vc)
			if tt.code == "" {
				assert.Nil(t, ferr)
				return
			}
			require.NotNil(t, ferr)
			assert.Equal(t, tt.code, ferr.Code)
			assert.Equal(t, models.FieldTo, ferr.Field)
		})
	}

	ferr := v.Validate(models.FieldTo, "ab", vc)
	require.NotNil(t, ferr)
	assert.Equal(t, "Username ab is too short.", ferr.Message)
}

func TestValidateAmount(t *testing.T) {
	v := NewValidator(DefaultRules())
	acct := account("alice", "10", "1", "3")

	tests := []struct {
		name     string
		value    string
		currency models.Currency
		account  models.AccountSnapshot
		code     string
	}{
		{"empty", "", models.CurrencySteem, acct, models.CodeRequired},
		{"bad format", "1.2345", models.CurrencySteem, acct, models.CodeFormat},
		{"zero", "0", models.CurrencySteem, acct, models.CodeNotPositive},
		{"lone dot", ".", models.CurrencySteem, acct, models.CodeNotPositive},
		{"within balance", "10", models.CurrencySteem, acct, ""},
		{"above balance", "10.001", models.CurrencySteem, acct, models.CodeInsufficientFunds},
		{"sbd balance", "1.5", models.CurrencySBD, acct, models.CodeInsufficientFunds},
		{"points insufficient", "5", models.CurrencyPoints, acct, models.CodeInsufficientFunds},
		{"unauthenticated skips funds", "5000", models.CurrencySteem, models.Anonymous(), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ferr := v.Validate(models.FieldAmount, tt.value, Context{Currency: tt.currency, Account: tt.account})
			if tt.code == "" {
				assert.Nil(t, ferr)
				return
			}
			require.NotNil(t, ferr)
			assert.Equal(t, tt.code, ferr.Code)
		})
	}
}

func TestValidateMemo(t *testing.T) {
	v := NewValidator(DefaultRules())

	ferr := v.Validate(models.FieldMemo, "", Context{Recipient: "bittrex"})
	require.NotNil(t, ferr)
	assert.Equal(t, models.CodeMemoRequired, ferr.Code)
	assert.Equal(t, "Memo is required when sending to an exchange.", ferr.Message)

	assert.Nil(t, v.Validate(models.FieldMemo, "", Context{Recipient: "bob"}))
	assert.Nil(t, v.Validate(models.FieldMemo, "deposit 42", Context{Recipient: "bittrex"}))

	for _, memo := range []string{"#secret", "  #secret"} {
		ferr = v.Validate(models.FieldMemo, memo, Context{Recipient: "bob"})
		require.NotNil(t, ferr, memo)
		assert.Equal(t, models.CodeMemoEncrypted, ferr.Code)
	}
	assert.Nil(t, v.Validate(models.FieldMemo, "tip #1", Context{Recipient: "bob"}))
}

func TestValidateCurrency(t *testing.T) {
	v := NewValidator(DefaultRules())
	assert.Nil(t, v.Validate(models.FieldCurrency, "sbd", Context{}))
	ferr := v.Validate(models.FieldCurrency, "BTC", Context{})
	require.NotNil(t, ferr)
	assert.Equal(t, models.CodeCurrency, ferr.Code)
}

func TestNewValidatorFillsZeroRules(t *testing.T) {
	v := NewValidator(Rules{})
	assert.Nil(t, v.Validate(models.FieldTo, "alice", Context{}))
	assert.Nil(t, v.Validate(models.FieldMemo, "hello", Context{}))
	assert.False(t, v.IsExchange("bittrex"))
}

func TestCheckRecipient(t *testing.T) {
	v := NewValidator(DefaultRules())
	ctx := context.Background()

	assert.Nil(t, v.CheckRecipient(ctx, existing("bob"), "bob"))

	ferr := v.CheckRecipient(ctx, existing("bob"), "carol")
	require.NotNil(t, ferr)
	assert.Equal(t, models.CodeNotFound, ferr.Code)
	assert.False(t, ferr.Retryable)
	assert.Equal(t, "Couldn't find user with name carol.", ferr.Message)

	failing := lookupFunc(func(context.Context, string) (bool, error) {
		return false, errors.New("connection refused")
	})
	ferr = v.CheckRecipient(ctx, failing, "bob")
	require.NotNil(t, ferr)
	assert.Equal(t, models.CodeLookupFailed, ferr.Code)
	assert.True(t, ferr.Retryable)
}
