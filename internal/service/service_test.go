package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"grocery/internal/domain"
	"grocery/internal/events"
	"grocery/internal/repository"
)

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) topics() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Topic)
	}
	return out
}

type fixture struct {
	repos     *repository.Repositories
	products  *ProductService
	carts     *CartService
	checkout  *CheckoutService
	orders    *OrderService
	addresses *AddressService
	events    *recordingPublisher
}

func setup(t *testing.T) *fixture {
	t.Helper()
	repos := repository.NewMemoryRepositories(repository.NewMemoryStore())
	return newFixture(t, repos, CheckoutOptions{ExpressFee: decimal.NewFromInt(50), Producer: "grocery-test"})
}

func newFixture(t *testing.T, repos *repository.Repositories, opts CheckoutOptions) *fixture {
	t.Helper()
	logger := zap.NewNop()
	pub := &recordingPublisher{}
	return &fixture{
		repos:     repos,
		products:  NewProductService(repos.Products, repos.Categories, nil, logger),
		carts:     NewCartService(repos.Products, repos.Carts, repos.Tx),
		checkout:  NewCheckoutService(repos, nil, nil, pub, opts, logger),
		orders:    NewOrderService(repos.Orders, repos.Reconciliation, pub, opts.Producer, logger),
		addresses: NewAddressService(repos.Addresses),
		events:    pub,
	}
}

func (f *fixture) product(t *testing.T, name string, variations ...domain.Variation) *domain.Product {
	t.Helper()
	p, err := f.products.Create(context.Background(), ProductInput{Name: name, Category: "Staples", Variations: variations})
	require.NoError(t, err)
	return p
}

func (f *fixture) stock(t *testing.T, id, size string) int64 {
	t.Helper()
	p, err := f.repos.Products.GetByID(context.Background(), id)
	require.NoError(t, err)
	v, err := p.FindVariation(size)
	require.NoError(t, err)
	return v.Stock
}

func variation(size string, price, stock int64) domain.Variation {
	return domain.Variation{Size: size, Price: decimal.NewFromInt(price), Stock: stock}
}

var homeAddress = domain.Address{FullName: "Maria D'Souza", Street: "12 Rua de Ourem", City: "Panaji", PostalCode: "403001"}
