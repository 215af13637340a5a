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

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrSessionNotFound = errors.New("transfer: session not found")
	ErrAccountNotFound = errors.New("transfer: account not found")
)

const defaultSessionTTL = 30 * time.Minute

// AccountLoader builds the balance snapshot a session validates against.
type AccountLoader interface {
	Load(ctx context.Context, account string) (models.AccountSnapshot, error)
}

// SnapshotLoader reads ledger balances and, when configured, the points balance.
type SnapshotLoader struct {
	ledger drepo.LedgerAccounts
	points drepo.PointsLedger
	logger *logger.Logger
}

func NewSnapshotLoader(ledger drepo.LedgerAccounts, points drepo.PointsLedger, l *logger.Logger) *SnapshotLoader {
	if l == nil {
		l = logger.Nop()
	}
	return &SnapshotLoader{ledger: ledger, points: points, logger: l}
}

// Load returns an anonymous snapshot for an empty account name. A points
// failure degrades to a zero balance rather than failing the whole load.
func (l *SnapshotLoader) Load(ctx context.Context, account string) (models.AccountSnapshot, error) {
	if account == "" {
		return models.Anonymous(), nil
	}
	acc, err := l.ledger.GetAccount(ctx, account)
	if err != nil {
		return models.AccountSnapshot{}, fmt.Errorf("load account %s: %w", account, err)
	}
	if acc == nil {
		return models.AccountSnapshot{}, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}

	points := decimal.Zero
	if l.points != nil {
		if points, err = l.points.PointsBalance(ctx, account); err != nil {
			l.logger.Warn("points balance unavailable", logger.String("account", account), logger.Error(err))
			points = decimal.Zero
		}
	}

	return models.AccountSnapshot{
		Name:          acc.Name,
		Authenticated: true,
		Balance:       acc.Balance,
		SBDBalance:    acc.SBDBalance,
		PointsBalance: points,
		FetchedAt:     time.Now().UTC(),
	}, nil
}

// Registry owns the live sessions and evicts idle ones.
type Registry struct {
	deps     Deps
	accounts AccountLoader
	ttl      time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(deps Deps, accounts AccountLoader, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Registry{
		deps:     deps.withDefaults(),
		accounts: accounts,
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// Open mounts a session for account and opens its form with to prefilled.
func (r *Registry) Open(ctx context.Context, account, to string) (*Session, error) {
	snapshot, err := r.accounts.Load(ctx, account)
	if err != nil {
		return nil, err
	}

	s := NewSession(uuid.NewString(), snapshot, r.deps)
	s.Open(to)

	r.mu.Lock()
	r.sessions[s.ID()] = s
	n := len(r.sessions)
	r.mu.Unlock()

	r.deps.Metrics.RecordSessions(n)
	return s, nil
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Refresh reloads the account snapshot of session id.
func (r *Registry) Refresh(ctx context.Context, id string) (*Session, error) {
	s, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	name := s.account.Name
	s.mu.Unlock()

	snapshot, err := r.accounts.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	s.SetAccount(snapshot)
	return s, nil
}

// Remove releases and forgets session id.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.Release()
	r.deps.Metrics.RecordSessions(n)
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Evict drops sessions idle since before now-ttl and returns how many went.
func (r *Registry) Evict(now time.Time) int {
	cutoff := now.Add(-r.ttl)
	var stale []*Session

	r.mu.Lock()
	for id, s := range r.sessions {
		if s.IdleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	for _, s := range stale {
		s.Release()
	}
	if len(stale) > 0 {
		r.deps.Logger.Info("evicted idle transfer sessions", logger.Int("count", len(stale)), logger.Int("open", n))
	}
	r.deps.Metrics.RecordSessions(n)
	return len(stale)
}

// Run evicts idle sessions until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Evict(now)
		}
	}
}

// Close releases every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Release()
	}
	r.deps.Metrics.RecordSessions(0)
}
