package di

import (
	"context"
	"fmt"
	"time"

	"TransferDesk/internal/domain/models"
	"TransferDesk/internal/domain/repository"
	"TransferDesk/internal/handler/api"
	"TransferDesk/internal/service/cache"
	"TransferDesk/internal/service/prices"
	"TransferDesk/internal/service/ratelimit"
	"TransferDesk/internal/service/signer"
	"TransferDesk/internal/service/steemd"
	"TransferDesk/internal/service/steemengine"
	"TransferDesk/internal/usecase/transfer"
	"TransferDesk/pkg/config"
	xhttp "TransferDesk/pkg/http"
	"TransferDesk/pkg/logger"
	"TransferDesk/pkg/metrics"
	"TransferDesk/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(logger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideLimiter creates the token buckets shared by ledger calls and the API.
func ProvideLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideLedgerClient creates the ledger JSON-RPC client.
func ProvideLedgerClient(cfg *config.Config, limiter *ratelimit.Limiter) *steemd.Client {
	return steemd.New(
		cfg.Ledger.RPCURL,
		xhttp.NewClient(xhttp.WithTimeout(cfg.Ledger.Timeout)),
		steemd.WithRateLimit(limiter, cfg.Ledger.LookupRPS, cfg.Ledger.LookupBurst),
	)
}

// ProvidePointsLedger creates the side-chain balance client, or nil when no
// endpoint is configured.
func ProvidePointsLedger(cfg *config.Config) repository.PointsLedger {
	if cfg.Points.APIURL == "" {
		return nil
	}
	return steemengine.New(cfg.Points.APIURL, models.CurrencyPoints.String(), xhttp.NewClient(xhttp.WithTimeout(cfg.Points.Timeout)))
}

// ProvidePriceStore picks redis when enabled, else an in-process cache.
func ProvidePriceStore(cfg *config.Config, l *logger.Logger) (cache.BytesCache, func(), error) {
	if !cfg.Prices.Redis.Enabled {
		return cache.NewTTLCache(), func() {}, nil
	}
	rc := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Prices.Redis.Addr,
		Password: cfg.Prices.Redis.Password,
		DB:       cfg.Prices.Redis.DB,
		Prefix:   "transferdesk:",
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Prices.Redis.Addr, err)
	}
	l.Info("price cache: redis connected", logger.String("addr", cfg.Prices.Redis.Addr))
	cleanup := func() {
		if err := rc.Close(); err != nil {
			l.Warn("redis close error", logger.Error(err))
		}
	}
	return rc, cleanup, nil
}

// ProvidePriceOracle creates the price history client backed by store.
func ProvidePriceOracle(cfg *config.Config, store cache.BytesCache, l *logger.Logger) repository.PriceOracle {
	return prices.NewOracle(
		cfg.Prices.APIURL,
		xhttp.NewClient(xhttp.WithTimeout(cfg.Prices.Timeout)),
		store,
		cfg.Prices.CacheTTL,
		l,
	)
}

// ProvideSignerProbe creates the signing agent probe. An empty agent URL
// always probes absent, which routes every dispatch to the redirect backend.
func ProvideSignerProbe(cfg *config.Config, l *logger.Logger) repository.SignerProbe {
	return signer.NewAgent(
		cfg.Signer.AgentURL,
		xhttp.NewClient(xhttp.WithTimeout(cfg.Signer.SignTimeout)),
		cfg.Signer.ProbeTimeout,
		l,
	)
}

// ProvideBrowserOpener creates the redirect handoff.
func ProvideBrowserOpener(cfg *config.Config, l *logger.Logger) (repository.BrowserOpener, error) {
	return signer.NewHandoff(cfg.Signer.RedirectURL, l)
}

// ProvideDispatcher creates the signing dispatcher.
func ProvideDispatcher(
	cfg *config.Config,
	probe repository.SignerProbe,
	opener repository.BrowserOpener,
	m repository.Metrics,
	l *logger.Logger,
) *transfer.Dispatcher {
	return transfer.NewDispatcher(
		transfer.Encoder{},
		probe,
		opener,
		transfer.SignerConfig{
			CustomJSONID: cfg.Signer.CustomJSONID,
			Authority:    cfg.Signer.Authority,
			RedirectURL:  cfg.Signer.RedirectURL,
		},
		m,
		l,
	)
}

// ProvideRegistry creates the session registry.
func ProvideRegistry(
	cfg *config.Config,
	ledger *steemd.Client,
	points repository.PointsLedger,
	oracle repository.PriceOracle,
	dispatcher *transfer.Dispatcher,
	m repository.Metrics,
	l *logger.Logger,
) *transfer.Registry {
	deps := transfer.Deps{
		Validator: transfer.NewValidator(transfer.Rules{
			MinAccountLength: cfg.Transfer.MinAccountLength,
			MaxAccountLength: cfg.Transfer.MaxAccountLength,
			Exchanges:        cfg.Transfer.Exchanges,
			EncryptedMarker:  cfg.Transfer.EncryptedMarker,
		}),
		Lookup:        ledger,
		Prices:        oracle,
		Dispatcher:    dispatcher,
		Metrics:       m,
		Logger:        l,
		LookupTimeout: cfg.Ledger.LookupTimeout,
	}
	return transfer.NewRegistry(deps, transfer.NewSnapshotLoader(ledger, points, l), cfg.Transfer.SessionTTL)
}

// ProvideTransfersHandler creates the HTTP handler.
func ProvideTransfersHandler(
	cfg *config.Config,
	registry *transfer.Registry,
	limiter *ratelimit.Limiter,
	l *logger.Logger,
) xhttp.Handler {
	return api.NewTransfersEchoHandler(l, registry).
		WithRateLimit(limiter, cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst).
		WithSubmitLimit(submitLimit(cfg.Server.WriteTimeout)).
		WithAllowedOrigins(cfg.Server.AllowedOrigins)
}

// submitLimit leaves room to write the submit response before the server's
// write deadline.
func submitLimit(writeTimeout time.Duration) time.Duration {
	const margin = 5 * time.Second
	if writeTimeout > 2*margin {
		return writeTimeout - margin
	}
	return writeTimeout / 2
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	registry *transfer.Registry,
	handler xhttp.Handler,
) *server.App {
	return server.New(cfg, l, registry, handler)
}
