package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grocery/internal/domain"
	"grocery/internal/events"
)

func placeOrder(t *testing.T, f *fixture, customerID string) *domain.Order {
	t.Helper()
	ctx := context.Background()
	p := f.product(t, "Rice", variation("1kg", 100, 10))
	_, err := f.carts.AddItem(ctx, customerID, domain.LineKey{ProductID: p.ID, Size: "1kg"}, 1)
	require.NoError(t, err)
	o, _, err := f.checkout.PlaceOrder(ctx, CheckoutRequest{CustomerID: customerID, Address: &homeAddress, PaymentMethod: domain.PaymentCOD})
	require.NoError(t, err)
	return o
}

func TestOrderService_AdvanceStatusForwardOnly(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	o := placeOrder(t, f, "c1")

	_, err := f.orders.AdvanceStatus(ctx, o.OrderNumber, domain.OrderStatusDelivered)
	var ite *domain.InvalidTransitionError
	require.True(t, errors.As(err, &ite))
	assert.Equal(t, domain.OrderStatusProcessing, ite.From)

	updated, err := f.orders.AdvanceStatus(ctx, o.OrderNumber, domain.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, updated.Status)

	updated, err = f.orders.AdvanceStatus(ctx, o.OrderNumber, domain.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, updated.Status)

	_, err = f.orders.AdvanceStatus(ctx, o.OrderNumber, domain.OrderStatusProcessing)
	assert.True(t, errors.As(err, &ite))

	_, err = f.orders.AdvanceStatus(ctx, o.OrderNumber, "Cancelled")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.orders.AdvanceStatus(ctx, "SS0-missing", domain.OrderStatusShipped)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, []string{events.TopicOrderPlaced, events.TopicOrderStatusChanged, events.TopicOrderStatusChanged}, f.events.topics())
}

func TestOrderService_OrdersAreImmutable(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	o := placeOrder(t, f, "c1")

	// changing the catalog does not touch the placed order
	p, err := f.repos.Products.GetByID(ctx, o.Items[0].ProductID)
	require.NoError(t, err)
	_, err = f.products.Update(ctx, p.ID, ProductInput{Name: "Renamed", Variations: []domain.Variation{variation("1kg", 999, 1)}})
	require.NoError(t, err)

	_, err = f.orders.AdvanceStatus(ctx, o.OrderNumber, domain.OrderStatusShipped)
	require.NoError(t, err)

	got, err := f.orders.GetOrder(ctx, o.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, o.Items, got.Items)
	assert.True(t, o.TotalAmount.Equal(got.TotalAmount))
	assert.Equal(t, o.ShippingAddress, got.ShippingAddress)
	assert.Equal(t, o.OrderDate, got.OrderDate)
}

func TestOrderService_ListsNewestFirst(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	clock := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	f.checkout.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	first := placeOrder(t, f, "c1")
	second := placeOrder(t, f, "c1")
	placeOrder(t, f, "c2")

	list, err := f.orders.ListOrders(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.OrderNumber, list[0].OrderNumber)
	assert.Equal(t, first.OrderNumber, list[1].OrderNumber)

	all, err := f.orders.ListAll(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	processing, err := f.orders.ListAll(ctx, domain.OrderStatusProcessing)
	require.NoError(t, err)
	assert.Len(t, processing, 3)

	_, err = f.orders.ListAll(ctx, "Lost")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.orders.ListOrders(ctx, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAddressService(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a, err := f.addresses.Add(ctx, "c1", homeAddress)
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "India", a.Country)

	_, err = f.addresses.Add(ctx, "c1", domain.Address{FullName: "No Street"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.addresses.Update(ctx, "c1", "missing", homeAddress)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := f.addresses.List(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, f.addresses.Delete(ctx, "c1", a.ID))
	assert.ErrorIs(t, f.addresses.Delete(ctx, "c1", a.ID), domain.ErrNotFound)
}
