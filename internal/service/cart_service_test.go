package service

import (
	"context"
	"testing"

	"go-roastery-api/internal/cart"
	"go-roastery-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cartState builds a client cart holding one line of slug
func cartState(subscription bool, slug string, qty int) cart.State {
	return cart.State{
		IsSubscription: subscription,
		Items: []cart.Item{{
			ProductSlug: slug,
			ProductType: model.ProductConsumable,
			Quantity:    qty,
			Price:       1, // ignored; the catalog decides
			UserAdded:   true,
		}},
	}
}

func TestCartService_ReplaceCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedProduct(t, "house-blend", model.ProductConsumable, 5500, 10)
	f.seedProduct(t, machineSlug, model.ProductMachine, 45000, 3)
	shopper := f.seedUser(t, "shopper@example.com")

	t.Run("re-prices and applies the promotion", func(t *testing.T) {
		saved, err := f.cart.ReplaceCart(ctx, shopper.ID, cartState(true, "house-blend", 2))
		require.NoError(t, err)

		require.Len(t, saved.Items, 2)
		assert.Equal(t, int64(5500), saved.Items[0].Price)
		assert.Equal(t, machineSlug, saved.Items[1].ProductSlug)
		assert.True(t, saved.Items[1].FreeWithSubscription)
		assert.Equal(t, int64(11000), saved.Total)
		assert.Equal(t, 3, saved.ItemCount)

		stored, err := f.cart.GetCart(ctx, shopper.ID)
		require.NoError(t, err)
		assert.Equal(t, saved.State, stored.State)
	})

	t.Run("turning the subscription off drops the injected machine", func(t *testing.T) {
		saved, err := f.cart.ReplaceCart(ctx, shopper.ID, cartState(false, "house-blend", 2))
		require.NoError(t, err)
		require.Len(t, saved.Items, 1)
		assert.Equal(t, int64(11000), saved.Total)
	})

	t.Run("unknown slug is not found", func(t *testing.T) {
		_, err := f.cart.ReplaceCart(ctx, shopper.ID, cartState(false, "mystery-roast", 1))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("zero quantity is invalid", func(t *testing.T) {
		_, err := f.cart.ReplaceCart(ctx, shopper.ID, cartState(false, "house-blend", 0))
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestCartService_SyncCart(t *testing.T) {
	ctx := context.Background()

	t.Run("non-empty server cart wins", func(t *testing.T) {
		f := newFixture(t)
		f.seedProduct(t, "house-blend", model.ProductConsumable, 5500, 10)
		f.seedProduct(t, "decaf", model.ProductConsumable, 4000, 10)
		shopper := f.seedUser(t, "shopper@example.com")

		_, err := f.cart.ReplaceCart(ctx, shopper.ID, cartState(false, "decaf", 1))
		require.NoError(t, err)

		winner, err := f.cart.SyncCart(ctx, shopper.ID, cartState(false, "house-blend", 3))
		require.NoError(t, err)
		require.Len(t, winner.Items, 1)
		assert.Equal(t, "decaf", winner.Items[0].ProductSlug)
	})

	t.Run("empty server cart takes the local one", func(t *testing.T) {
		f := newFixture(t)
		f.seedProduct(t, "house-blend", model.ProductConsumable, 5500, 10)
		shopper := f.seedUser(t, "shopper@example.com")

		winner, err := f.cart.SyncCart(ctx, shopper.ID, cartState(false, "house-blend", 3))
		require.NoError(t, err)
		require.Len(t, winner.Items, 1)
		assert.Equal(t, int64(16500), winner.Total)

		stored, err := f.cart.GetCart(ctx, shopper.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, stored.ItemCount)
	})

	t.Run("both empty stays empty", func(t *testing.T) {
		f := newFixture(t)
		shopper := f.seedUser(t, "shopper@example.com")

		winner, err := f.cart.SyncCart(ctx, shopper.ID, cart.State{})
		require.NoError(t, err)
		assert.True(t, winner.IsEmpty())
		assert.NotNil(t, winner.Items)
	})
}

func TestCartRemote_WithManager(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedProduct(t, "house-blend", model.ProductConsumable, 5500, 10)
	f.seedProduct(t, machineSlug, model.ProductMachine, 45000, 3)
	shopper := f.seedUser(t, "shopper@example.com")

	catalog := cart.NewStaticCatalog(machineSlug,
		cart.Product{Slug: "house-blend", Type: model.ProductConsumable, Price: 5500},
		cart.Product{Slug: machineSlug, Type: model.ProductMachine, Price: 45000},
	)
	local := &memoryLocal{}
	m := cart.NewManager(ctx, cart.NewReducer(catalog), local, CartRemote{Service: f.cart}, nil)

	_, err := m.Dispatch(ctx, cart.AddItem{Slug: "house-blend", Quantity: 2})
	require.NoError(t, err)
	_, err = m.Dispatch(ctx, cart.SetSubscription{On: true})
	require.NoError(t, err)

	// signing in pushes the local cart because the server has none
	require.NoError(t, m.OnIdentityChange(ctx, shopper.ID.String()))
	m.Wait()

	stored, err := f.cart.GetCart(ctx, shopper.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(11000), stored.Total)
	assert.True(t, stored.IsSubscription)
	assert.Len(t, stored.Items, 2)
}

type memoryLocal struct {
	state cart.State
}

func (l *memoryLocal) Load(context.Context) (cart.State, error) { return l.state, nil }

func (l *memoryLocal) Save(_ context.Context, s cart.State) error {
	l.state = s
	return nil
}
