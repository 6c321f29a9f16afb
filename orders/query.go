package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/judyrop/restaurant-backend/auth"
	"github.com/judyrop/restaurant-backend/models"
)

// Scope selects open orders or the paid history.
type Scope int

const (
	Active Scope = iota
	History
)

type ItemView struct {
	ID              uint            `json:"id"`
	ProductID       uint            `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

// View is an order as shown to staff and customers.
type View struct {
	ID              uint             `json:"id"`
	UserID          uint             `json:"user_id"`
	UserName        string           `json:"user_name"`
	Total           decimal.Decimal  `json:"total"`
	CreatedAt       time.Time        `json:"created_at"`
	Items           []ItemView       `json:"items"`
	OrderType       models.OrderType `json:"order_type"`
	TableNumber     *int             `json:"table_number"`
	DeliveryAddress *string          `json:"delivery_address"`
	DeliveryPhone   *string          `json:"delivery_phone"`
	PaymentMethod   *string          `json:"payment_method"`
	Status          models.Status    `json:"status"`
}

// List returns the orders visible to p, newest first. Admins see everyone's.
func (s *Service) List(ctx context.Context, p auth.Principal, scope Scope) ([]View, error) {
	if err := auth.RequireUser(p); err != nil {
		return nil, err
	}
	q := s.withDetails(s.db.WithContext(ctx)).
		Joins("LEFT JOIN order_statuses ON order_statuses.order_id = orders.id")
	if scope == History {
		q = q.Where("COALESCE(order_statuses.status, ?) = ?", models.StatusPending, models.StatusPaid)
	} else {
		q = q.Where("COALESCE(order_statuses.status, ?) <> ?", models.StatusPending, models.StatusPaid)
	}
	if !p.Admin {
		q = q.Where("orders.user_id = ?", p.UserID)
	}
	var list []models.Order
	if err := q.Order("orders.created_at DESC, orders.id DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	views := make([]View, 0, len(list))
	for _, o := range list {
		views = append(views, NewView(o))
	}
	return views, nil
}

// Get returns one order to its owner or an admin.
func (s *Service) Get(ctx context.Context, p auth.Principal, orderID uint) (View, error) {
	if _, err := s.accessible(s.db.WithContext(ctx), p, orderID); err != nil {
		return View{}, err
	}
	var order models.Order
	if err := s.withDetails(s.db.WithContext(ctx)).First(&order, orderID).Error; err != nil {
		return View{}, fmt.Errorf("failed to load order %d: %w", orderID, err)
	}
	return NewView(order), nil
}

// withDetails preloads everything a View needs. Products are loaded unscoped
// so lines of retired products still show their name.
func (s *Service) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id") }).
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Info").
		Preload("Status")
}

func NewView(o models.Order) View {
	v := View{
		ID:        o.ID,
		UserID:    o.UserID,
		UserName:  o.User.DisplayName(),
		Total:     o.Total,
		CreatedAt: o.CreatedAt,
		Items:     make([]ItemView, 0, len(o.Items)),
		OrderType: models.OrderTypeTable,
		Status:    o.CurrentStatus(),
	}
	for _, it := range o.Items {
		v.Items = append(v.Items, ItemView{
			ID:              it.ID,
			ProductID:       it.ProductID,
			ProductName:     it.Product.Name,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase,
			Subtotal:        it.Subtotal(),
		})
	}
	if o.Info != nil {
		v.OrderType = o.Info.OrderType
		v.TableNumber = o.Info.TableNumber
		v.DeliveryAddress = o.Info.DeliveryAddress
		v.DeliveryPhone = o.Info.DeliveryPhone
		v.PaymentMethod = o.Info.PaymentMethod
	}
	return v
}
