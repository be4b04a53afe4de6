package models

import (
	"maps"
	"time"
)

type ProductImages struct {
	Main    string   `json:"main"`
	Hover   string   `json:"hover,omitempty"`
	Gallery []string `json:"gallery,omitempty"`
}

type Product struct {
	ID          int           `json:"id"`
	Name        string        `json:"name"`
	Category    string        `json:"category"`
	Description string        `json:"description,omitempty"`
	Price       float64       `json:"price"`
	SalePrice   float64       `json:"salePrice,omitempty"`
	Discount    int           `json:"discount,omitempty"`
	Badge       string        `json:"badge,omitempty"`
	Stock       int           `json:"stock"`
	Rating      float64       `json:"rating"`
	Reviews     int           `json:"reviews"`
	Tags        []string      `json:"tags"`
	Images      ProductImages `json:"images"`
	Colors      []string      `json:"colors,omitempty"`
	Sizes       []string      `json:"sizes,omitempty"`
}

// EffectivePrice is the sale price when one is set, otherwise the list price.
func (p Product) EffectivePrice() float64 {
	if p.SalePrice > 0 {
		return p.SalePrice
	}
	return p.Price
}

type Catalog struct {
	Products []Product `json:"products"`
}

// CartLine keeps a copy of the product as it was when added.
type CartLine struct {
	ProductID int               `json:"id"`
	Quantity  int               `json:"quantity"`
	Options   map[string]string `json:"options"`
	Product   Product           `json:"product"`
}

func (l CartLine) SameItem(productID int, options map[string]string) bool {
	return l.ProductID == productID && maps.Equal(l.Options, options)
}

func (l CartLine) LineTotal() float64 {
	return l.Product.EffectivePrice() * float64(l.Quantity)
}

type ShippingAddress struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
}

const OrderStatusConfirmed = "confirmed"

type Order struct {
	OrderNumber     string          `json:"orderNumber"`
	Date            time.Time       `json:"date"`
	Items           []CartLine      `json:"items"`
	Subtotal        float64         `json:"subtotal"`
	Shipping        float64         `json:"shipping"`
	Tax             float64         `json:"tax"`
	Discount        float64         `json:"discount"`
	CODFee          float64         `json:"codFee"`
	Coupon          string          `json:"coupon,omitempty"`
	Total           float64         `json:"total"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	PaymentMethod   string          `json:"paymentMethod"`
	Status          string          `json:"status"`
}

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session is the public part of a user kept as the current-user pointer.
type Session struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u User) Session() Session {
	return Session{ID: u.ID, Name: u.Name, Email: u.Email}
}
