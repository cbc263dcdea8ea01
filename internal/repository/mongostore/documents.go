package mongostore

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"grocery/internal/domain"
)

type variationDoc struct {
	Size  string               `bson:"size"`
	Price primitive.Decimal128 `bson:"price"`
	Stock int64                `bson:"stock"`
}

type productDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Category    string             `bson:"category"`
	Images      []string           `bson:"images"`
	Variations  []variationDoc     `bson:"variations"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

type categoryDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type cartItemDoc struct {
	ProductID   string               `bson:"productId"`
	Size        string               `bson:"size"`
	DisplayName string               `bson:"productName"`
	UnitPrice   primitive.Decimal128 `bson:"price"`
	Quantity    int64                `bson:"quantity"`
	ImageURL    string               `bson:"imageUrl,omitempty"`
}

type cartDoc struct {
	CustomerID string        `bson:"_id"`
	Items      []cartItemDoc `bson:"items"`
	UpdatedAt  time.Time     `bson:"updatedAt"`
}

type addressDoc struct {
	ID         string `bson:"id"`
	FullName   string `bson:"fullName"`
	Street     string `bson:"street"`
	City       string `bson:"city"`
	PostalCode string `bson:"pincode"`
	Country    string `bson:"country"`
}

type userDoc struct {
	ID        string       `bson:"_id"`
	Addresses []addressDoc `bson:"addresses"`
}

type orderLineDoc struct {
	ProductID string               `bson:"productId"`
	Size      string               `bson:"size"`
	Name      string               `bson:"name"`
	UnitPrice primitive.Decimal128 `bson:"price"`
	Quantity  int64                `bson:"quantity"`
}

type orderDoc struct {
	OrderNumber     string               `bson:"_id"`
	CustomerID      string               `bson:"customerId"`
	Items           []orderLineDoc       `bson:"items"`
	Subtotal        primitive.Decimal128 `bson:"subtotal"`
	ShippingMethod  string               `bson:"shippingMethod"`
	ShippingFee     primitive.Decimal128 `bson:"shippingFee"`
	TotalAmount     primitive.Decimal128 `bson:"totalAmount"`
	ShippingAddress addressDoc           `bson:"shippingAddress"`
	PaymentMethod   string               `bson:"paymentMethod"`
	Status          string               `bson:"status"`
	OrderDate       time.Time            `bson:"orderDate"`
	UpdatedAt       time.Time            `bson:"updatedAt"`
}

type reconciliationDoc struct {
	ID          string    `bson:"_id"`
	OrderNumber string    `bson:"orderNumber"`
	ProductID   string    `bson:"productId"`
	Size        string    `bson:"size"`
	Requested   int64     `bson:"requested"`
	Available   int64     `bson:"available"`
	Reason      string    `bson:"reason"`
	RecordedAt  time.Time `bson:"recordedAt"`
}

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.NewDecimal128(0, 0)
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func toProductDoc(p *domain.Product) productDoc {
	doc := productDoc{
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Images:      append([]string{}, p.Images...),
		Variations:  make([]variationDoc, 0, len(p.Variations)),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	for _, v := range p.Variations {
		doc.Variations = append(doc.Variations, variationDoc{Size: v.Size, Price: toDecimal128(v.Price), Stock: v.Stock})
	}
	return doc
}

func (d productDoc) toDomain() domain.Product {
	p := domain.Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		Images:      d.Images,
		Variations:  make([]domain.Variation, 0, len(d.Variations)),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	for _, v := range d.Variations {
		p.Variations = append(p.Variations, domain.Variation{Size: v.Size, Price: fromDecimal128(v.Price), Stock: v.Stock})
	}
	return p
}

func toCartDoc(c *domain.Cart) cartDoc {
	doc := cartDoc{CustomerID: c.CustomerID, Items: make([]cartItemDoc, 0, len(c.Items)), UpdatedAt: c.UpdatedAt}
	for _, it := range c.Items {
		doc.Items = append(doc.Items, cartItemDoc{
			ProductID:   it.ProductID,
			Size:        it.Size,
			DisplayName: it.DisplayName,
			UnitPrice:   toDecimal128(it.UnitPrice),
			Quantity:    it.Quantity,
			ImageURL:    it.ImageURL,
		})
	}
	return doc
}

func (d cartDoc) toDomain() domain.Cart {
	c := domain.Cart{CustomerID: d.CustomerID, Items: make([]domain.CartItem, 0, len(d.Items)), UpdatedAt: d.UpdatedAt}
	for _, it := range d.Items {
		key := domain.LineKey{ProductID: it.ProductID, Size: it.Size}
		c.Items = append(c.Items, domain.CartItem{
			LineID:      key.String(),
			ProductID:   it.ProductID,
			Size:        it.Size,
			DisplayName: it.DisplayName,
			UnitPrice:   fromDecimal128(it.UnitPrice),
			Quantity:    it.Quantity,
			ImageURL:    it.ImageURL,
		})
	}
	return c
}

func toAddressDoc(a domain.Address) addressDoc {
	return addressDoc{ID: a.ID, FullName: a.FullName, Street: a.Street, City: a.City, PostalCode: a.PostalCode, Country: a.Country}
}

func (d addressDoc) toDomain() domain.Address {
	return domain.Address{ID: d.ID, FullName: d.FullName, Street: d.Street, City: d.City, PostalCode: d.PostalCode, Country: d.Country}
}

func toOrderDoc(o *domain.Order) orderDoc {
	doc := orderDoc{
		OrderNumber:    o.OrderNumber,
		CustomerID:     o.CustomerID,
		Items:          make([]orderLineDoc, 0, len(o.Items)),
		Subtotal:       toDecimal128(o.Subtotal),
		ShippingMethod: string(o.ShippingMethod),
		ShippingFee:    toDecimal128(o.ShippingFee),
		TotalAmount:    toDecimal128(o.TotalAmount),
		ShippingAddress: addressDoc{
			FullName:   o.ShippingAddress.FullName,
			Street:     o.ShippingAddress.Street,
			City:       o.ShippingAddress.City,
			PostalCode: o.ShippingAddress.PostalCode,
			Country:    o.ShippingAddress.Country,
		},
		PaymentMethod: string(o.PaymentMethod),
		Status:        string(o.Status),
		OrderDate:     o.OrderDate,
		UpdatedAt:     o.UpdatedAt,
	}
	for _, l := range o.Items {
		doc.Items = append(doc.Items, orderLineDoc{
			ProductID: l.ProductID,
			Size:      l.Size,
			Name:      l.Name,
			UnitPrice: toDecimal128(l.UnitPrice),
			Quantity:  l.Quantity,
		})
	}
	return doc
}

func (d orderDoc) toDomain() domain.Order {
	o := domain.Order{
		OrderNumber:    d.OrderNumber,
		CustomerID:     d.CustomerID,
		Items:          make([]domain.OrderLine, 0, len(d.Items)),
		Subtotal:       fromDecimal128(d.Subtotal),
		ShippingMethod: domain.ShippingMethod(d.ShippingMethod),
		ShippingFee:    fromDecimal128(d.ShippingFee),
		TotalAmount:    fromDecimal128(d.TotalAmount),
		ShippingAddress: domain.ShippingAddress{
			FullName:   d.ShippingAddress.FullName,
			Street:     d.ShippingAddress.Street,
			City:       d.ShippingAddress.City,
			PostalCode: d.ShippingAddress.PostalCode,
			Country:    d.ShippingAddress.Country,
		},
		PaymentMethod: domain.PaymentMethod(d.PaymentMethod),
		Status:        domain.OrderStatus(d.Status),
		OrderDate:     d.OrderDate,
		UpdatedAt:     d.UpdatedAt,
	}
	for _, l := range d.Items {
		o.Items = append(o.Items, domain.OrderLine{
			ProductID: l.ProductID,
			Size:      l.Size,
			Name:      l.Name,
			UnitPrice: fromDecimal128(l.UnitPrice),
			Quantity:  l.Quantity,
		})
	}
	return o
}
