//go:build wireinject
// +build wireinject

package di

import (
	"TransferDesk/pkg/config"
	"TransferDesk/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideLimiter,

		// Upstream clients
		ProvideLedgerClient,
		ProvidePointsLedger,
		ProvidePriceStore,
		ProvidePriceOracle,
		ProvideSignerProbe,
		ProvideBrowserOpener,

		// Use cases
		ProvideDispatcher,
		ProvideRegistry,

		// Transport
		ProvideTransfersHandler,
		ProvideApp,
	)
	return &server.App{}, nil, nil
}
