package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func init() {
	// prices go out as JSON numbers, like the rest of the API
	decimal.MarshalJSONWithoutQuotes = true
}

type User struct {
	gorm.Model
	Username     string  `gorm:"uniqueIndex;size:80;not null"`
	Email        *string `gorm:"uniqueIndex;size:120"`
	PasswordHash *string `gorm:"size:256"`
	IsAdmin      bool    `gorm:"not null;default:false"`
	FirstName    *string `gorm:"size:120"`
	LastName     *string `gorm:"size:120"`
	Phone        *string `gorm:"size:40"`
	Address      *string `gorm:"size:255"`
	Orders       []Order
}

// DisplayName prefers the customer's full name over the login name.
func (u User) DisplayName() string {
	name := strings.TrimSpace(deref(u.FirstName) + " " + deref(u.LastName))
	if name == "" {
		return u.Username
	}
	return name
}

type Product struct {
	gorm.Model
	Name        string          `gorm:"size:120;not null"`
	Description *string         `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	ImageURL    *string         `gorm:"size:255"`
}

// CartItem is a pending order line; one row per (user, product).
type CartItem struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_cart_user_product"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_cart_user_product"`
	Product   Product
	Quantity  int `gorm:"not null;default:1"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Order struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"not null;index"`
	User      User
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt time.Time       `gorm:"index"`
	UpdatedAt time.Time
	Items     []OrderItem
	Info      *OrderInfo
	Status    *OrderStatus
}

// CurrentStatus treats a missing status record as pending.
func (o Order) CurrentStatus() Status {
	if o.Status == nil {
		return StatusPending
	}
	return o.Status.Status
}

// OrderItem captures the unit price at purchase time so historical totals do
// not follow later catalog edits.
type OrderItem struct {
	ID              uint `gorm:"primaryKey"`
	OrderID         uint `gorm:"not null;index"`
	ProductID       uint `gorm:"not null"`
	Product         Product
	Quantity        int             `gorm:"not null;default:1"`
	PriceAtPurchase decimal.Decimal `gorm:"type:decimal(10,2);not null"`
}

// Subtotal is quantity times the captured price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type OrderInfo struct {
	ID              uint      `gorm:"primaryKey"`
	OrderID         uint      `gorm:"not null;uniqueIndex"`
	OrderType       OrderType `gorm:"size:20;not null"`
	TableNumber     *int
	DeliveryAddress *string `gorm:"size:255"`
	DeliveryPhone   *string `gorm:"size:40"`
	PaymentMethod   *string `gorm:"size:40"`
	CreatedAt       time.Time
}

type OrderStatus struct {
	ID        uint   `gorm:"primaryKey"`
	OrderID   uint   `gorm:"not null;uniqueIndex"`
	Status    Status `gorm:"size:20;not null;default:'pendiente'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type DailyMenuItem struct {
	ID        uint `gorm:"primaryKey"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_menu_product_date"`
	Product   Product
	Date      datatypes.Date `gorm:"not null;uniqueIndex:idx_menu_product_date"`
	CreatedAt time.Time
}

// Restaurant lists the models migrated for the ordering backend.
func Restaurant() []any {
	return []any{
		&User{}, &Product{}, &CartItem{}, &Order{}, &OrderItem{},
		&OrderInfo{}, &OrderStatus{}, &DailyMenuItem{},
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
