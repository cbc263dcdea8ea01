package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Variation фасовка товара: размер, цена и остаток на складе
type Variation struct {
	Size  string          `json:"size"`
	Price decimal.Decimal `json:"price" swaggertype:"string"`
	Stock int64           `json:"stock"`
}

// Product представляет товар в каталоге магазина
type Product struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Images      []string    `json:"images"`
	Variations  []Variation `json:"variations"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// FindVariation ищет фасовку по размеру
func (p *Product) FindVariation(size string) (*Variation, error) {
	for i := range p.Variations {
		if p.Variations[i].Size == size {
			return &p.Variations[i], nil
		}
	}
	return nil, ErrVariationNotFound
}

// ImageURL первая картинка товара или пустая строка
func (p *Product) ImageURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Category категория товаров
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// LineKey составной ключ строки корзины
type LineKey struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
}

// String возвращает ключ в формате "<productId>-<size>"
func (k LineKey) String() string {
	return k.ProductID + "-" + k.Size
}

// ParseLineID разбирает "<productId>-<size>". ID товара не содержит дефисов,
// поэтому режем по первому; размер может содержать дефис.
func ParseLineID(lineID string) (LineKey, error) {
	productID, size, ok := strings.Cut(lineID, "-")
	if !ok || productID == "" || size == "" {
		return LineKey{}, ErrInvalidLineID
	}
	return LineKey{ProductID: productID, Size: size}, nil
}

// CartItem строка корзины. Цена и название фиксируются при добавлении.
type CartItem struct {
	LineID      string          `json:"lineId"`
	ProductID   string          `json:"productId"`
	Size        string          `json:"size"`
	DisplayName string          `json:"displayName"`
	UnitPrice   decimal.Decimal `json:"unitPrice" swaggertype:"string"`
	Quantity    int64           `json:"quantity"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}

// Key составной ключ строки
func (it CartItem) Key() LineKey {
	return LineKey{ProductID: it.ProductID, Size: it.Size}
}

// Cart корзина покупателя
type Cart struct {
	CustomerID string     `json:"customerId"`
	Items      []CartItem `json:"items"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Find возвращает индекс строки или -1
func (c *Cart) Find(key LineKey) int {
	for i, it := range c.Items {
		if it.ProductID == key.ProductID && it.Size == key.Size {
			return i
		}
	}
	return -1
}

// Remove удаляет строку, если она есть
func (c *Cart) Remove(key LineKey) bool {
	i := c.Find(key)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// Address адрес доставки из адресной книги покупателя
type Address struct {
	ID         string `json:"id"`
	FullName   string `json:"fullName"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// ShippingAddress копия адреса, сохранённая в заказе
type ShippingAddress struct {
	FullName   string `json:"fullName"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Snapshot копирует адрес в заказ
func (a Address) Snapshot() ShippingAddress {
	return ShippingAddress{
		FullName:   a.FullName,
		Street:     a.Street,
		City:       a.City,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

// OrderLine позиция заказа (снимок строки корзины)
type OrderLine struct {
	ProductID string          `json:"productId"`
	Size      string          `json:"size"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice" swaggertype:"string"`
	Quantity  int64           `json:"quantity"`
}

// LineTotal цена позиции
func (l OrderLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// Order сущность заказа. После создания меняется только статус.
type Order struct {
	OrderNumber     string          `json:"orderNumber"`
	CustomerID      string          `json:"customerId"`
	Items           []OrderLine     `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal" swaggertype:"string"`
	ShippingMethod  ShippingMethod  `json:"shippingMethod"`
	ShippingFee     decimal.Decimal `json:"shippingFee" swaggertype:"string"`
	TotalAmount     decimal.Decimal `json:"totalAmount" swaggertype:"string"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	Status          OrderStatus     `json:"status"`
	OrderDate       time.Time       `json:"orderDate"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// ReconciliationEntry запись о списании, которое не удалось после фиксации заказа
type ReconciliationEntry struct {
	ID          string    `json:"id"`
	OrderNumber string    `json:"orderNumber"`
	ProductID   string    `json:"productId"`
	Size        string    `json:"size"`
	Requested   int64     `json:"requested"`
	Available   int64     `json:"available"`
	Reason      string    `json:"reason"`
	RecordedAt  time.Time `json:"recordedAt"`
}
