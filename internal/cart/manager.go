package cart

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// LocalStore persists the cart on the shopper's side (browser storage, a file, memory)
type LocalStore interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, s State) error
}

// RemoteStore is the server copy, keyed by user
type RemoteStore interface {
	Fetch(ctx context.Context, userID string) (State, error)
	Push(ctx context.Context, userID string, s State) error
}

// Manager owns the shopper-side cart. Local writes are synchronous; server
// writes are asynchronous and best-effort, and failures are only logged.
// Concurrent managers for the same user are not coordinated: the last push wins.
type Manager struct {
	reducer *Reducer
	local   LocalStore
	remote  RemoteStore
	log     *zap.Logger

	mu      sync.Mutex
	state   State
	userID  string
	version uint64

	pushMu sync.Mutex
	pushed uint64
	wg     sync.WaitGroup
}

// NewManager loads the local cache; a cache that cannot be read starts empty
func NewManager(ctx context.Context, reducer *Reducer, local LocalStore, remote RemoteStore, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{reducer: reducer, local: local, remote: remote, log: log.Named("cart")}

	st, err := local.Load(ctx)
	if err != nil {
		m.log.Warn("local cart unreadable, starting empty", zap.Error(err))
		st = State{Items: []Item{}}
	}
	m.state = st
	return m
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

func (m *Manager) UserID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userID
}

// OnIdentityChange reconciles the local cache with the server copy of the new
// user. An empty userID means anonymous: only the local cache is used. The
// identity is only recorded once reconciliation succeeds, so a failed call can
// be retried with the same user.
func (m *Manager) OnIdentityChange(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if userID == m.userID {
		return nil
	}
	if userID == "" {
		m.userID = ""
		return nil
	}

	remote, err := m.remote.Fetch(ctx, userID)
	if err != nil {
		m.log.Warn("fetch server cart failed", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	winner, pushLocal := Reconcile(m.state, remote)
	if pushLocal {
		m.version++
		m.markPushed(m.version)
		if err := m.remote.Push(ctx, userID, winner); err != nil {
			m.log.Warn("push local cart failed", zap.String("user_id", userID), zap.Error(err))
			return err
		}
		m.userID = userID
		return nil
	}

	next := winner.clone()
	if err := m.local.Save(ctx, next); err != nil {
		return err
	}
	m.state = next
	m.version++
	m.userID = userID
	return nil
}

// Dispatch applies a mutation locally and schedules the server write
func (m *Manager) Dispatch(ctx context.Context, mut Mutation) (State, error) {
	m.mu.Lock()
	next, err := m.reducer.Apply(m.state, mut)
	if err != nil {
		m.mu.Unlock()
		return m.State(), err
	}
	if err := m.local.Save(ctx, next); err != nil {
		m.mu.Unlock()
		return m.State(), err
	}
	m.state = next
	m.version++
	version, userID, snapshot := m.version, m.userID, next.clone()
	m.mu.Unlock()

	if userID != "" {
		m.pushAsync(context.WithoutCancel(ctx), userID, snapshot, version)
	}
	return snapshot, nil
}

// Wait blocks until every scheduled server write has finished
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) pushAsync(ctx context.Context, userID string, s State, version uint64) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		m.pushMu.Lock()
		defer m.pushMu.Unlock()
		if version <= m.pushed {
			return // a newer snapshot already went out
		}
		m.pushed = version

		if err := m.remote.Push(ctx, userID, s); err != nil {
			m.log.Warn("server cart write failed",
				zap.String("user_id", userID),
				zap.Uint64("version", version),
				zap.Error(err))
		}
	}()
}

func (m *Manager) markPushed(version uint64) {
	m.pushMu.Lock()
	if version > m.pushed {
		m.pushed = version
	}
	m.pushMu.Unlock()
}
