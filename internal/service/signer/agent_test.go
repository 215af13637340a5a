package signer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"TransferDesk/internal/domain/models"
	xhttp "TransferDesk/pkg/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentProbe(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	a := NewAgent(srv.URL, xhttp.NewClient(), time.Second, nil)
	kc, ok := a.Probe(context.Background())
	assert.True(t, ok)
	assert.NotNil(t, kc)

	healthy.Store(false)
	_, ok = a.Probe(context.Background())
	assert.False(t, ok)

	_, ok = NewAgent("", xhttp.NewClient(), time.Second, nil).Probe(context.Background())
	assert.False(t, ok, "no agent configured")
}

func TestAgentRequestTransfer(t *testing.T) {
	var got transferRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transfer", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	a := NewAgent(srv.URL, xhttp.NewClient(), time.Second, nil)
	done := make(chan models.SignResponse, 1)
	a.RequestTransfer(context.Background(), "alice", "bob", "2.500", "hi", "STEEM", func(r models.SignResponse) { done <- r })

	select {
	case r := <-done:
		assert.True(t, r.Success)
	case <-time.After(2 * time.Second):
		t.Fatal("callback not invoked")
	}
	assert.Equal(t, transferRequest{Account: "alice", To: "bob", Amount: "2.500", Memo: "hi", Symbol: "STEEM"}, got)
}

func TestAgentFailureIsReportedThroughCallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := NewAgent(srv.URL, xhttp.NewClient(), time.Second, nil)
	done := make(chan models.SignResponse, 1)
	a.RequestCustomJSON(context.Background(), "alice", "ssc-mainnet1", "Active", `{}`, "Transfer", func(r models.SignResponse) { done <- r })

	r := <-done
	assert.False(t, r.Success)
	assert.Contains(t, r.Message, "signing agent")
}

func TestHandoff(t *testing.T) {
	h, err := NewHandoff("https://app.steemconnect.com/sign", nil)
	require.NoError(t, err)

	assert.NoError(t, h.Open(context.Background(), "https://app.steemconnect.com/sign/transfer?to=bob"))
	assert.ErrorIs(t, h.Open(context.Background(), "https://evil.example/sign"), ErrForeignHost)
	assert.Error(t, h.Open(context.Background(), "javascript:alert(1)"))

	_, err = NewHandoff("not a url", nil)
	assert.Error(t, err)
}
