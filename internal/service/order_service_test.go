package service

import (
	"context"
	"testing"

	"go-roastery-api/internal/model"
	"go-roastery-api/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subscriptionOrder() *CreateOrderRequest {
	return &CreateOrderRequest{
		IsSubscription:  true,
		ShippingAddress: testAddress(),
		Items: []OrderItemInput{
			{ProductSlug: "house-blend", Quantity: 2, Price: 5500},
			{ProductSlug: machineSlug, Quantity: 1, Price: 0, IsFree: true},
		},
	}
}

func TestOrderService_CreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("free machine is excluded from the total", func(t *testing.T) {
		f := newFixture(t)
		blend := f.seedProduct(t, "house-blend", model.ProductConsumable, 5500, 10)
		machine := f.seedProduct(t, machineSlug, model.ProductMachine, 45000, 3)
		shopper := f.seedUser(t, "shopper@example.com")

		order, err := f.order.CreateOrder(ctx, shopper, subscriptionOrder())
		require.NoError(t, err)

		assert.Equal(t, model.OrderPending, order.Status)
		assert.Len(t, order.Items, 2)
		assert.Equal(t, int64(11000), order.Total())

		stored, err := f.order.GetMyOrder(ctx, shopper, order.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(11000), stored.Total())
		for _, it := range stored.Items {
			if it.ProductSlug == machineSlug {
				assert.True(t, it.IsFree)
				assert.Zero(t, it.PriceAtPurchase)
			}
		}

		// stock left the shelf for every line, free ones included
		b, _ := f.products.FindByID(ctx, blend.ID)
		m, _ := f.products.FindByID(ctx, machine.ID)
		assert.Equal(t, 8, b.StockQuantity)
		assert.Equal(t, 2, m.StockQuantity)

		sales, err := f.movements.FindAll(ctx, &blend.ID)
		require.NoError(t, err)
		var saleRefs []string
		for _, mv := range sales {
			if mv.Type == model.MovementSale {
				assert.Equal(t, -2, mv.Quantity)
				saleRefs = append(saleRefs, mv.Reference)
			}
		}
		assert.Equal(t, []string{"order:" + order.ID.String()}, saleRefs)
	})

	t.Run("catalog price wins over the client price", func(t *testing.T) {
		f := newFixture(t)
		f.seedProduct(t, "house-blend", model.ProductConsumable, 5500, 10)
		shopper := f.seedUser(t, "shopper@example.com")

		order, err := f.order.CreateOrder(ctx, shopper, &CreateOrderRequest{
			ShippingAddress: testAddress(),
			Items:           []OrderItemInput{{ProductSlug: "house-blend", Quantity: 1, Price: 1}},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(5500), order.Total())
	})

	t.Run("unknown slug is not found and writes nothing", func(t *testing.T) {
		f := newFixture(t)
		blend := f.seedProduct(t, "house-blend", model.ProductConsumable, 5500, 10)
		shopper := f.seedUser(t, "shopper@example.com")

		_, err := f.order.CreateOrder(ctx, shopper, &CreateOrderRequest{
			ShippingAddress: testAddress(),
			Items: []OrderItemInput{
				{ProductSlug: "house-blend", Quantity: 1},
				{ProductSlug: "no-such-coffee", Quantity: 1},
			},
		})
		assert.ErrorIs(t, err, ErrNotFound)

		orders, err := f.orders.FindAll(ctx, repository.OrderFilter{})
		require.NoError(t, err)
		assert.Empty(t, orders)
		b, _ := f.products.FindByID(ctx, blend.ID)
		assert.Equal(t, 10, b.StockQuantity)
	})

	t.Run("insufficient stock rolls back the whole order", func(t *testing.T) {
		f := newFixture(t)
		blend := f.seedProduct(t, "house-blend", model.ProductConsumable, 5500, 10)
		f.seedProduct(t, "decaf", model.ProductConsumable, 4000, 1)
		shopper := f.seedUser(t, "shopper@example.com")

		_, err := f.order.CreateOrder(ctx, shopper, &CreateOrderRequest{
			ShippingAddress: testAddress(),
			Items: []OrderItemInput{
				{ProductSlug: "house-blend", Quantity: 2},
				{ProductSlug: "decaf", Quantity: 5},
			},
		})
		assert.ErrorIs(t, err, ErrValidation)
		assert.ErrorContains(t, err, "insufficient stock")

		b, _ := f.products.FindByID(ctx, blend.ID)
		assert.Equal(t, 10, b.StockQuantity)
		orders, _ := f.orders.FindAll(ctx, repository.OrderFilter{})
		assert.Empty(t, orders)
	})

	t.Run("extra machines next to the free one are charged", func(t *testing.T) {
		f := newFixture(t)
		f.seedProduct(t, "house-blend", model.ProductConsumable, 5500, 10)
		f.seedProduct(t, machineSlug, model.ProductMachine, 45000, 5)
		shopper := f.seedUser(t, "shopper@example.com")

		req := subscriptionOrder()
		req.Items = append(req.Items, OrderItemInput{ProductSlug: machineSlug, Quantity: 2})
		order, err := f.order.CreateOrder(ctx, shopper, req)
		require.NoError(t, err)

		assert.Len(t, order.Items, 3)
		assert.Equal(t, int64(11000+2*45000), order.Total())
	})

	t.Run("rejects invalid requests", func(t *testing.T) {
		f := newFixture(t)
		f.seedProduct(t, "house-blend", model.ProductConsumable, 5500, 10)
		f.seedProduct(t, machineSlug, model.ProductMachine, 45000, 10)
		f.seedProduct(t, "pro-grinder", model.ProductMachine, 30000, 10)
		shopper := f.seedUser(t, "shopper@example.com")

		cases := map[string]*CreateOrderRequest{
			"zero quantity": {
				ShippingAddress: testAddress(),
				Items:           []OrderItemInput{{ProductSlug: "house-blend", Quantity: 0}},
			},
			"duplicate slug": {
				ShippingAddress: testAddress(),
				Items: []OrderItemInput{
					{ProductSlug: "house-blend", Quantity: 1},
					{ProductSlug: "house-blend", Quantity: 1},
				},
			},
			"no items": {ShippingAddress: testAddress()},
			"free machine without subscription": {
				ShippingAddress: testAddress(),
				Items: []OrderItemInput{
					{ProductSlug: "house-blend", Quantity: 1},
					{ProductSlug: machineSlug, Quantity: 1, IsFree: true},
				},
			},
			"several free machines": {
				IsSubscription:  true,
				ShippingAddress: testAddress(),
				Items: []OrderItemInput{
					{ProductSlug: "house-blend", Quantity: 1},
					{ProductSlug: machineSlug, Quantity: 5, IsFree: true},
				},
			},
			"free machine other than the promoted one": {
				IsSubscription:  true,
				ShippingAddress: testAddress(),
				Items: []OrderItemInput{
					{ProductSlug: "house-blend", Quantity: 1},
					{ProductSlug: "pro-grinder", Quantity: 1, IsFree: true},
				},
			},
			"two free lines": {
				IsSubscription:  true,
				ShippingAddress: testAddress(),
				Items: []OrderItemInput{
					{ProductSlug: "house-blend", Quantity: 1},
					{ProductSlug: machineSlug, Quantity: 1, IsFree: true},
					{ProductSlug: "pro-grinder", Quantity: 1, IsFree: true},
				},
			},
			"free consumable": {
				IsSubscription:  true,
				ShippingAddress: testAddress(),
				Items:           []OrderItemInput{{ProductSlug: "house-blend", Quantity: 1, IsFree: true}},
			},
			"missing address": {
				Items: []OrderItemInput{{ProductSlug: "house-blend", Quantity: 1}},
			},
		}
		for name, req := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := f.order.CreateOrder(ctx, shopper, req)
				assert.ErrorIs(t, err, ErrValidation)
			})
		}
	})

	t.Run("sold out product is rejected", func(t *testing.T) {
		f := newFixture(t)
		blend := f.seedProduct(t, "house-blend", model.ProductConsumable, 5500, 10)
		shopper := f.seedUser(t, "shopper@example.com")
		_, err := f.product.SetSoldOut(ctx, blend.ID, true, testActor)
		require.NoError(t, err)

		_, err = f.order.CreateOrder(ctx, shopper, &CreateOrderRequest{
			ShippingAddress: testAddress(),
			Items:           []OrderItemInput{{ProductSlug: "house-blend", Quantity: 1}},
		})
		assert.ErrorIs(t, err, ErrValidation)
		assert.ErrorContains(t, err, "sold out")
	})

	t.Run("anonymous callers cannot order", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.order.CreateOrder(ctx, Actor{}, subscriptionOrder())
		assert.ErrorIs(t, err, ErrNotAuthenticated)
	})

	t.Run("checkout clears the server cart", func(t *testing.T) {
		f := newFixture(t)
		f.seedProduct(t, "house-blend", model.ProductConsumable, 5500, 10)
		f.seedProduct(t, machineSlug, model.ProductMachine, 45000, 3)
		shopper := f.seedUser(t, "shopper@example.com")

		_, err := f.cart.ReplaceCart(ctx, shopper.ID, cartState(true, "house-blend", 2))
		require.NoError(t, err)

		_, err = f.order.CreateOrder(ctx, shopper, subscriptionOrder())
		require.NoError(t, err)

		c, err := f.cart.GetCart(ctx, shopper.ID)
		require.NoError(t, err)
		assert.True(t, c.IsEmpty())
		assert.False(t, c.IsSubscription)
	})
}

func TestOrderService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("pending order returns stock", func(t *testing.T) {
		f := newFixture(t)
		blend := f.seedProduct(t, "house-blend", model.ProductConsumable, 5500, 10)
		machine := f.seedProduct(t, machineSlug, model.ProductMachine, 45000, 3)
		shopper := f.seedUser(t, "shopper@example.com")

		order, err := f.order.CreateOrder(ctx, shopper, subscriptionOrder())
		require.NoError(t, err)

		cancelled, err := f.order.CancelMyOrder(ctx, shopper, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderCancelled, cancelled.Status)

		b, _ := f.products.FindByID(ctx, blend.ID)
		m, _ := f.products.FindByID(ctx, machine.ID)
		assert.Equal(t, 10, b.StockQuantity)
		assert.Equal(t, 3, m.StockQuantity)

		sum, err := f.movements.SumByProduct(ctx, blend.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, sum)
	})

	t.Run("only pending orders can be cancelled by the shopper", func(t *testing.T) {
		f := newFixture(t)
		f.seedProduct(t, "house-blend", model.ProductConsumable, 5500, 10)
		f.seedProduct(t, machineSlug, model.ProductMachine, 45000, 3)
		shopper := f.seedUser(t, "shopper@example.com")

		order, err := f.order.CreateOrder(ctx, shopper, subscriptionOrder())
		require.NoError(t, err)
		_, err = f.order.UpdateStatus(ctx, order.ID, model.OrderConfirmed, testActor)
		require.NoError(t, err)

		_, err = f.order.CancelMyOrder(ctx, shopper, order.ID)
		assert.ErrorIs(t, err, ErrValidation)

		stored, _ := f.order.GetOrder(ctx, order.ID)
		assert.Equal(t, model.OrderConfirmed, stored.Status)
	})

	t.Run("another shopper's order is not found", func(t *testing.T) {
		f := newFixture(t)
		f.seedProduct(t, "house-blend", model.ProductConsumable, 5500, 10)
		f.seedProduct(t, machineSlug, model.ProductMachine, 45000, 3)
		owner := f.seedUser(t, "owner@example.com")
		other := f.seedUser(t, "other@example.com")

		order, err := f.order.CreateOrder(ctx, owner, subscriptionOrder())
		require.NoError(t, err)

		_, err = f.order.CancelMyOrder(ctx, other, order.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = f.order.GetMyOrder(ctx, other, order.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestOrderService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedProduct(t, "house-blend", model.ProductConsumable, 5500, 10)
	f.seedProduct(t, machineSlug, model.ProductMachine, 45000, 3)
	shopper := f.seedUser(t, "shopper@example.com")

	order, err := f.order.CreateOrder(ctx, shopper, subscriptionOrder())
	require.NoError(t, err)

	_, err = f.order.UpdateStatus(ctx, order.ID, model.OrderShipped, testActor)
	assert.ErrorIs(t, err, ErrValidation, "cannot skip confirmation")

	for _, next := range []model.OrderStatus{model.OrderConfirmed, model.OrderProcessing, model.OrderShipped, model.OrderDelivered} {
		updated, err := f.order.UpdateStatus(ctx, order.ID, next, testActor)
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}

	_, err = f.order.UpdateStatus(ctx, order.ID, model.OrderCancelled, testActor)
	assert.ErrorIs(t, err, ErrValidation, "delivered is final")

	_, err = f.order.UpdateStatus(ctx, order.ID, "lost", testActor)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.order.UpdateStatus(ctx, uuid.New(), model.OrderConfirmed, testActor)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderService_TotalOverride(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedProduct(t, "house-blend", model.ProductConsumable, 5500, 10)
	f.seedProduct(t, machineSlug, model.ProductMachine, 45000, 3)
	shopper := f.seedUser(t, "shopper@example.com")

	order, err := f.order.CreateOrder(ctx, shopper, subscriptionOrder())
	require.NoError(t, err)

	total := int64(9000)
	updated, err := f.order.SetTotalOverride(ctx, order.ID, &total, testActor)
	require.NoError(t, err)
	require.NotNil(t, updated.TotalOverride)
	assert.Equal(t, int64(9000), updated.Total())
	assert.Equal(t, int64(11000), updated.ItemsTotal())

	zero := int64(0)
	updated, err = f.order.SetTotalOverride(ctx, order.ID, &zero, testActor)
	require.NoError(t, err)
	assert.Equal(t, int64(0), updated.Total(), "a zero override is still an override")

	updated, err = f.order.SetTotalOverride(ctx, order.ID, nil, testActor)
	require.NoError(t, err)
	assert.Nil(t, updated.TotalOverride)
	assert.Equal(t, int64(11000), updated.Total())

	negative := int64(-1)
	_, err = f.order.SetTotalOverride(ctx, order.ID, &negative, testActor)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.order.SetTotalOverride(ctx, uuid.New(), &total, testActor)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderService_ListOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedProduct(t, "house-blend", model.ProductConsumable, 5500, 20)
	f.seedProduct(t, machineSlug, model.ProductMachine, 45000, 5)
	a := f.seedUser(t, "a@example.com")
	b := f.seedUser(t, "b@example.com")

	first, err := f.order.CreateOrder(ctx, a, subscriptionOrder())
	require.NoError(t, err)
	_, err = f.order.CreateOrder(ctx, b, subscriptionOrder())
	require.NoError(t, err)
	_, err = f.order.UpdateStatus(ctx, first.ID, model.OrderConfirmed, testActor)
	require.NoError(t, err)

	all, err := f.order.ListOrders(ctx, repository.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	confirmed := model.OrderConfirmed
	filtered, err := f.order.ListOrders(ctx, repository.OrderFilter{Status: &confirmed})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, first.ID, filtered[0].ID)

	mine, err := f.order.ListMyOrders(ctx, b)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, b.ID, mine[0].UserID)
}
