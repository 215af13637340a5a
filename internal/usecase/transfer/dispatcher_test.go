package transfer

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"TransferDesk/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(probe *fakeProbe, opener *fakeOpener, m *recMetrics) *Dispatcher {
	return NewDispatcher(Encoder{}, probe, opener, DefaultSignerConfig(), m, nil)
}

func TestDispatchLocalSignerDelivered(t *testing.T) {
	kc := &fakeKeychain{reply: &models.SignResponse{Success: true}}
	opener := &fakeOpener{}
	m := &recMetrics{}
	d := newTestDispatcher(&fakeProbe{keychain: kc}, opener, m)

	out, err := d.Dispatch(context.Background(), "alice", models.TransferRequest{
		Recipient: "bob", Amount: "2.5", Currency: models.CurrencySteem, Memo: "hi",
	})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeDelivered, out.Kind)
	assert.Equal(t, "local", out.Backend)
	assert.True(t, out.ClosesSession())
	assert.Equal(t, StateCompleted, StateOf(out.Kind))
	assert.Empty(t, opener.Opened())

	calls := kc.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, keychainCall{method: "transfer", account: "alice", to: "bob", amount: "2.500", memo: "hi", symbol: "STEEM"}, calls[0])
	assert.Equal(t, []string{"local:delivered"}, m.dispatches)
}

func TestDispatchLocalSignerRejected(t *testing.T) {
	kc := &fakeKeychain{reply: &models.SignResponse{Success: false, Message: "user cancelled"}}
	d := newTestDispatcher(&fakeProbe{keychain: kc}, &fakeOpener{}, &recMetrics{})

	out, err := d.Dispatch(context.Background(), "alice", models.TransferRequest{
		Recipient: "bob", Amount: "1", Currency: models.CurrencySteem,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeRejected, out.Kind)
	assert.Equal(t, "user cancelled", out.Reason)
	assert.False(t, out.ClosesSession())
	assert.Equal(t, StateRejected, StateOf(out.Kind))
}

func TestDispatchLocalSignerTimeout(t *testing.T) {
	kc := &fakeKeychain{} // never answers
	d := newTestDispatcher(&fakeProbe{keychain: kc}, &fakeOpener{}, &recMetrics{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	out, err := d.Dispatch(ctx, "alice", models.TransferRequest{
		Recipient: "bob", Amount: "1", Currency: models.CurrencySteem,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeRejected, out.Kind)
	assert.Equal(t, "signer timeout", out.Reason)
}

func TestDispatchLocalSignerPoints(t *testing.T) {
	kc := &fakeKeychain{reply: &models.SignResponse{Success: true}}
	d := newTestDispatcher(&fakeProbe{keychain: kc}, &fakeOpener{}, &recMetrics{})

	_, err := d.Dispatch(context.Background(), "alice", models.TransferRequest{
		Recipient: "carol", Amount: "1.5", Currency: models.CurrencyPoints,
	})
	require.NoError(t, err)

	calls := kc.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "custom-json", calls[0].method)
	assert.Equal(t, "ssc-mainnet1", calls[0].id)
	assert.JSONEq(t, `{"contractName":"tokens","contractAction":"transfer",
		"contractPayload":{"symbol":"TEARDROPS","to":"carol","quantity":"1.500","memo":""}}`, calls[0].payload)
}

func TestDispatchRedirectNative(t *testing.T) {
	opener := &fakeOpener{}
	d := newTestDispatcher(&fakeProbe{}, opener, &recMetrics{})

	out, err := d.Dispatch(context.Background(), "alice", models.TransferRequest{
		Recipient: "bob", Amount: "2.5", Currency: models.CurrencySteem, Memo: "for coffee",
	})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeOpenedExternal, out.Kind)
	assert.Equal(t, "redirect", out.Backend)
	assert.True(t, out.ClosesSession())
	assert.Equal(t, StateAwaitingExternal, StateOf(out.Kind))

	opened := opener.Opened()
	require.Len(t, opened, 1)
	assert.Equal(t, out.RedirectURL, opened[0])
	assert.Equal(t, "https://app.steemconnect.com/sign/transfer?to=bob&amount=2.500%20STEEM&memo=for%20coffee", opened[0])
}

func TestDispatchRedirectContractCall(t *testing.T) {
	opener := &fakeOpener{}
	d := newTestDispatcher(&fakeProbe{}, opener, &recMetrics{})

	out, err := d.Dispatch(context.Background(), "alice", models.TransferRequest{
		Recipient: "carol", Amount: "3", Currency: models.CurrencyPoints,
	})
	require.NoError(t, err)
	require.Equal(t, models.OutcomeOpenedExternal, out.Kind)

	u, err := url.Parse(out.RedirectURL)
	require.NoError(t, err)
	assert.Equal(t, "/sign/custom-json", u.Path)
	assert.NotContains(t, u.RawQuery, "+")

	q := u.Query()
	assert.Equal(t, `["alice"]`, q.Get("required_auths"))
	assert.Equal(t, "[]", q.Get("required_posting_auths"))
	assert.Equal(t, "ssc-mainnet1", q.Get("id"))
	assert.JSONEq(t, `{"contractName":"tokens","contractAction":"transfer",
		"contractPayload":{"symbol":"TEARDROPS","to":"carol","quantity":"3.000","memo":""}}`, q.Get("json"))
}

func TestDispatchRedirectOpenFailure(t *testing.T) {
	opener := &fakeOpener{err: errors.New("popup blocked")}
	d := newTestDispatcher(&fakeProbe{}, opener, &recMetrics{})

	out, err := d.Dispatch(context.Background(), "alice", models.TransferRequest{
		Recipient: "bob", Amount: "1", Currency: models.CurrencySteem,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeRejected, out.Kind)
	assert.True(t, strings.Contains(out.Reason, "popup blocked"))
}

func TestDispatchProbesEveryAttempt(t *testing.T) {
	probe := &fakeProbe{}
	opener := &fakeOpener{}
	d := newTestDispatcher(probe, opener, &recMetrics{})
	req := models.TransferRequest{Recipient: "bob", Amount: "1", Currency: models.CurrencySteem}

	out, err := d.Dispatch(context.Background(), "alice", req)
	require.NoError(t, err)
	assert.Equal(t, "redirect", out.Backend)

	probe.set(&fakeKeychain{reply: &models.SignResponse{Success: true}})
	out, err = d.Dispatch(context.Background(), "alice", req)
	require.NoError(t, err)
	assert.Equal(t, "local", out.Backend)
	assert.Equal(t, 2, probe.probes)
}

func TestDispatchEncodingError(t *testing.T) {
	d := newTestDispatcher(&fakeProbe{}, &fakeOpener{}, &recMetrics{})
	_, err := d.Dispatch(context.Background(), "alice", models.TransferRequest{Recipient: "bob", Amount: "0"})
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestEscapeComponent(t *testing.T) {
	assert.Equal(t, "a%20b", escapeComponent("a b"))
	assert.Equal(t, "%5B%22alice%22%5D", escapeComponent(`["alice"]`))
	assert.Equal(t, "2.500%20STEEM", escapeComponent("2.500 STEEM"))
	assert.Equal(t, "thanks!%20(it's)%20*~", escapeComponent("thanks! (it's) *~"))
	assert.Equal(t, "a%2Bb%26c%3Dd", escapeComponent("a+b&c=d"))
}

func TestDispatchStateString(t *testing.T) {
	assert.Equal(t, "awaiting-external", StateAwaitingExternal.String())
	assert.Equal(t, "idle", StateIdle.String())
}
