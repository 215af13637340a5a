package signer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"TransferDesk/internal/domain/models"
	drepo "TransferDesk/internal/domain/repository"
	xhttp "TransferDesk/pkg/http"
	"TransferDesk/pkg/logger"
)

// Agent is a signing agent reachable over HTTP, the server-side stand-in for
// a browser keychain. Its presence is probed through GET /health.
type Agent struct {
	baseURL      string
	http         *xhttp.Client
	probeTimeout time.Duration
	logger       *logger.Logger
}

func NewAgent(baseURL string, httpClient *xhttp.Client, probeTimeout time.Duration, l *logger.Logger) *Agent {
	if l == nil {
		l = logger.Nop()
	}
	return &Agent{
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         httpClient,
		probeTimeout: probeTimeout,
		logger:       l,
	}
}

type healthResponse struct {
	Status string `json:"status"`
}

// Probe reports the agent as available only when it answers healthy in time.
func (a *Agent) Probe(ctx context.Context) (drepo.Keychain, bool) {
	if a.baseURL == "" {
		return nil, false
	}
	if a.probeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.probeTimeout)
		defer cancel()
	}
	var resp healthResponse
	err := a.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    a.baseURL + "/health",
	}, &resp)
	if err != nil {
		a.logger.Debug("signing agent unavailable", logger.Error(err))
		return nil, false
	}
	if resp.Status != "" && resp.Status != "ok" {
		return nil, false
	}
	return a, true
}

type transferRequest struct {
	Account string `json:"account"`
	To      string `json:"to"`
	Amount  string `json:"amount"`
	Memo    string `json:"memo"`
	Symbol  string `json:"symbol"`
}

type customJSONRequest struct {
	Account   string `json:"account"`
	ID        string `json:"id"`
	Authority string `json:"authority"`
	JSON      string `json:"json"`
	Label     string `json:"label"`
}

// RequestTransfer asks the agent to sign a native transfer; done runs on a
// separate goroutine once the agent replies.
func (a *Agent) RequestTransfer(ctx context.Context, account, to, amount, memo, symbol string, done func(models.SignResponse)) {
	a.request(ctx, "/transfer", transferRequest{
		Account: account, To: to, Amount: amount, Memo: memo, Symbol: symbol,
	}, done)
}

// RequestCustomJSON asks the agent to sign a custom JSON operation.
func (a *Agent) RequestCustomJSON(ctx context.Context, account, id, authority, payload, label string, done func(models.SignResponse)) {
	a.request(ctx, "/custom-json", customJSONRequest{
		Account: account, ID: id, Authority: authority, JSON: payload, Label: label,
	}, done)
}

func (a *Agent) request(ctx context.Context, path string, body interface{}, done func(models.SignResponse)) {
	go func() {
		var resp models.SignResponse
		err := a.http.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodPost,
			URL:    a.baseURL + path,
			Body:   body,
		}, &resp)
		if err != nil {
			a.logger.Warn("signing agent request failed", logger.String("path", path), logger.Error(err))
			resp = models.SignResponse{Success: false, Message: fmt.Sprintf("signing agent: %v", err)}
		}
		done(resp)
	}()
}
