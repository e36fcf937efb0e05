package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memLocal struct {
	state   State
	loadErr error
}

func (m *memLocal) Load(context.Context) (State, error) { return m.state, m.loadErr }
func (m *memLocal) Save(_ context.Context, s State) error {
	m.state = s
	return nil
}

type memRemote struct {
	mu         sync.Mutex
	carts      map[string]State
	pushes     int
	pushErr    error
	fetchFails int
}

func newMemRemote() *memRemote { return &memRemote{carts: map[string]State{}} }

func (m *memRemote) Fetch(_ context.Context, userID string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchFails > 0 {
		m.fetchFails--
		return State{}, errors.New("server unavailable")
	}
	return m.carts[userID], nil
}

func (m *memRemote) Push(_ context.Context, userID string, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushes++
	if m.pushErr != nil {
		return m.pushErr
	}
	m.carts[userID] = s
	return nil
}

func (m *memRemote) get(userID string) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.carts[userID]
}

func TestManager_ServerCartWinsWhenNotEmpty(t *testing.T) {
	ctx := context.Background()
	r := NewReducer(testCatalog())
	local := &memLocal{state: State{Items: []Item{{ProductSlug: "decaf", Quantity: 1, Price: 4800, UserAdded: true}}}}
	remote := newMemRemote()
	server := State{Items: []Item{{ProductSlug: "house-blend", Quantity: 2, Price: 5500, UserAdded: true}}}
	remote.carts["u1"] = server

	m := NewManager(ctx, r, local, remote, nil)
	require.NoError(t, m.OnIdentityChange(ctx, "u1"))

	assert.Equal(t, server.Items, m.State().Items)
	assert.Equal(t, server.Items, local.state.Items)
	assert.Equal(t, 0, remote.pushes)
}

func TestManager_LocalCartPushedWhenServerEmpty(t *testing.T) {
	ctx := context.Background()
	r := NewReducer(testCatalog())
	localState := State{Items: []Item{{ProductSlug: "decaf", Quantity: 1, Price: 4800, UserAdded: true}}}
	local := &memLocal{state: localState}
	remote := newMemRemote()

	m := NewManager(ctx, r, local, remote, nil)
	require.NoError(t, m.OnIdentityChange(ctx, "u1"))

	assert.Equal(t, localState.Items, remote.get("u1").Items)
	assert.Equal(t, localState.Items, m.State().Items)
}

func TestManager_DispatchWritesBothStores(t *testing.T) {
	ctx := context.Background()
	r := NewReducer(testCatalog())
	local := &memLocal{}
	remote := newMemRemote()

	m := NewManager(ctx, r, local, remote, nil)
	require.NoError(t, m.OnIdentityChange(ctx, "u1"))

	_, err := m.Dispatch(ctx, AddItem{Slug: "house-blend", Quantity: 2})
	require.NoError(t, err)
	s, err := m.Dispatch(ctx, SetSubscription{On: true})
	require.NoError(t, err)
	m.Wait()

	assert.Equal(t, s, local.state)
	assert.Equal(t, s, remote.get("u1"))
	assert.Equal(t, int64(11000), remote.get("u1").Total())
}

func TestManager_AnonymousDispatchStaysLocal(t *testing.T) {
	ctx := context.Background()
	local := &memLocal{}
	remote := newMemRemote()

	m := NewManager(ctx, NewReducer(testCatalog()), local, remote, nil)
	_, err := m.Dispatch(ctx, AddItem{Slug: "decaf", Quantity: 1})
	require.NoError(t, err)
	m.Wait()

	assert.Len(t, local.state.Items, 1)
	assert.Equal(t, 0, remote.pushes)
}

func TestManager_ServerFailureIsNotSurfaced(t *testing.T) {
	ctx := context.Background()
	local := &memLocal{}
	remote := newMemRemote()

	m := NewManager(ctx, NewReducer(testCatalog()), local, remote, nil)
	require.NoError(t, m.OnIdentityChange(ctx, "u1"))
	remote.pushErr = errors.New("offline")

	s, err := m.Dispatch(ctx, AddItem{Slug: "decaf", Quantity: 1})
	require.NoError(t, err)
	m.Wait()

	assert.Len(t, s.Items, 1)
	assert.Len(t, local.state.Items, 1)
}

func TestManager_RejectedMutationKeepsState(t *testing.T) {
	ctx := context.Background()
	local := &memLocal{}
	m := NewManager(ctx, NewReducer(testCatalog()), local, newMemRemote(), nil)

	_, err := m.Dispatch(ctx, AddItem{Slug: "unknown", Quantity: 1})
	assert.ErrorIs(t, err, ErrUnknownProduct)
	assert.True(t, m.State().IsEmpty())
}

func TestManager_UnreadableLocalStartsEmpty(t *testing.T) {
	ctx := context.Background()
	local := &memLocal{loadErr: errors.New("corrupt")}
	m := NewManager(ctx, NewReducer(testCatalog()), local, newMemRemote(), nil)
	assert.True(t, m.State().IsEmpty())
}

func TestManager_FailedFetchIsRetried(t *testing.T) {
	ctx := context.Background()
	local := &memLocal{}
	remote := newMemRemote()
	server := State{Items: []Item{{ProductSlug: "decaf", Quantity: 3, Price: 4800, UserAdded: true}}}
	remote.carts["u1"] = server
	remote.fetchFails = 1

	m := NewManager(ctx, NewReducer(testCatalog()), local, remote, nil)
	require.Error(t, m.OnIdentityChange(ctx, "u1"))
	assert.Empty(t, m.UserID())
	assert.True(t, m.State().IsEmpty())

	require.NoError(t, m.OnIdentityChange(ctx, "u1"))
	assert.Equal(t, "u1", m.UserID())
	assert.Equal(t, server.Items, m.State().Items)
	assert.Equal(t, server.Items, local.state.Items)
}

func TestManager_FailedPushIsRetried(t *testing.T) {
	ctx := context.Background()
	localState := State{Items: []Item{{ProductSlug: "decaf", Quantity: 1, Price: 4800, UserAdded: true}}}
	local := &memLocal{state: localState}
	remote := newMemRemote()
	remote.pushErr = errors.New("offline")

	m := NewManager(ctx, NewReducer(testCatalog()), local, remote, nil)
	require.Error(t, m.OnIdentityChange(ctx, "u1"))
	assert.Empty(t, m.UserID())

	remote.pushErr = nil
	require.NoError(t, m.OnIdentityChange(ctx, "u1"))
	assert.Equal(t, "u1", m.UserID())
	assert.Equal(t, localState.Items, remote.get("u1").Items)
}
