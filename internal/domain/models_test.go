package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseLineID(t *testing.T) {
	cases := []struct {
		in      string
		product string
		size    string
		wantErr bool
	}{
		{in: "42-500g", product: "42", size: "500g"},
		{in: "42-1-kg", product: "42", size: "1-kg"},
		{in: "64f1a2b3c4d5e6f708091a2b-250 ml", product: "64f1a2b3c4d5e6f708091a2b", size: "250 ml"},
		{in: "42", wantErr: true},
		{in: "-500g", wantErr: true},
		{in: "42-", wantErr: true},
	}
	for _, tc := range cases {
		key, err := ParseLineID(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("%q: expected validation error, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || key.ProductID != tc.product || key.Size != tc.size {
			t.Fatalf("%q: got %+v, %v", tc.in, key, err)
		}
		if key.String() != tc.in {
			t.Fatalf("%q: round trip gave %q", tc.in, key.String())
		}
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	allowed := map[[2]OrderStatus]bool{
		{OrderStatusProcessing, OrderStatusShipped}: true,
		{OrderStatusShipped, OrderStatusDelivered}:  true,
	}
	all := []OrderStatus{OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered}
	for _, from := range all {
		for _, to := range all {
			if got := from.CanTransitionTo(to); got != allowed[[2]OrderStatus{from, to}] {
				t.Fatalf("%s -> %s: got %v", from, to, got)
			}
		}
	}
	if OrderStatus("Cancelled").IsValid() {
		t.Fatalf("unknown status accepted")
	}
}

func TestCartFindAndRemove(t *testing.T) {
	c := Cart{Items: []CartItem{
		{ProductID: "1", Size: "500g", Quantity: 1},
		{ProductID: "1", Size: "1kg", Quantity: 2},
	}}
	if i := c.Find(LineKey{ProductID: "1", Size: "1kg"}); i != 1 {
		t.Fatalf("find: got %d", i)
	}
	if !c.Remove(LineKey{ProductID: "1", Size: "500g"}) || len(c.Items) != 1 {
		t.Fatalf("remove failed: %+v", c.Items)
	}
	if c.Remove(LineKey{ProductID: "1", Size: "500g"}) {
		t.Fatalf("second remove reported success")
	}
}

func TestInsufficientStockMessage(t *testing.T) {
	if m := (&InsufficientStockError{Available: 3}).Message(); m != "Only 3 left in stock" {
		t.Fatalf("got %q", m)
	}
	if m := (&InsufficientStockError{Available: 0}).Message(); m != "Out of stock" {
		t.Fatalf("got %q", m)
	}
	line := OrderLine{UnitPrice: decimal.RequireFromString("12.50"), Quantity: 3}
	if !line.LineTotal().Equal(decimal.RequireFromString("37.5")) {
		t.Fatalf("line total: %s", line.LineTotal())
	}
}
