package signer

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"TransferDesk/pkg/logger"
)

var ErrForeignHost = errors.New("signer: redirect host not allowed")

// Handoff stands in for opening a browser tab: the URL travels back to the
// client in the outcome, so all that happens here is a sanity check and a log.
type Handoff struct {
	host   string
	logger *logger.Logger
}

// NewHandoff only lets through URLs on the host of redirectBase.
func NewHandoff(redirectBase string, l *logger.Logger) (*Handoff, error) {
	u, err := url.Parse(redirectBase)
	if err != nil {
		return nil, fmt.Errorf("parse redirect url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("redirect url %q has no host", redirectBase)
	}
	if l == nil {
		l = logger.Nop()
	}
	return &Handoff{host: u.Host, logger: l}, nil
}

func (h *Handoff) Open(_ context.Context, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse signing url: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("signing url scheme %q not allowed", u.Scheme)
	}
	if u.Host != h.host {
		return fmt.Errorf("%w: %s", ErrForeignHost, u.Host)
	}
	h.logger.Info("signing handed off", logger.String("host", u.Host), logger.String("path", u.Path))
	return nil
}
