package mongostore

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"grocery/internal/domain"
)

func TestDecimal128KeepsPrecision(t *testing.T) {
	for _, s := range []string{"0", "99.5", "1234.56", "0.01"} {
		d := decimal.RequireFromString(s)
		got := fromDecimal128(toDecimal128(d))
		if !got.Equal(d) {
			t.Fatalf("%s: got %s", s, got)
		}
	}
}

func TestProductDocRoundTripThroughBSON(t *testing.T) {
	oid := primitive.NewObjectID()
	p := domain.Product{
		Name:     "Cashew",
		Category: "Dry Fruits",
		Images:   []string{"cashew.jpg"},
		Variations: []domain.Variation{
			{Size: "250g", Price: decimal.RequireFromString("240.50"), Stock: 7},
			{Size: "1-kg", Price: decimal.NewFromInt(900), Stock: 0},
		},
		CreatedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	doc := toProductDoc(&p)
	doc.ID = oid

	raw, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back productDoc
	if err := bson.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := back.toDomain()
	if got.ID != oid.Hex() || len(got.Variations) != 2 {
		t.Fatalf("unexpected product: %+v", got)
	}
	if !got.Variations[0].Price.Equal(p.Variations[0].Price) || got.Variations[1].Size != "1-kg" {
		t.Fatalf("variations changed: %+v", got.Variations)
	}
}

func TestCartDocRestoresLineIDs(t *testing.T) {
	c := domain.Cart{
		CustomerID: "c1",
		Items: []domain.CartItem{
			{ProductID: "64b0", Size: "500g", DisplayName: "Rice (500g)", UnitPrice: decimal.NewFromInt(60), Quantity: 2},
		},
	}
	got := toCartDoc(&c).toDomain()
	if got.Items[0].LineID != "64b0-500g" {
		t.Fatalf("line id not restored: %q", got.Items[0].LineID)
	}
}

func TestParseObjectIDRejectsForeignFormat(t *testing.T) {
	if _, err := parseObjectID("product", "12"); err == nil {
		t.Fatalf("expected error for non-hex id")
	}
}
