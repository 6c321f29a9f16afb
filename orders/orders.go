// Package orders turns carts into orders and tracks each order's status.
package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/judyrop/restaurant-backend/apperr"
	"github.com/judyrop/restaurant-backend/auth"
	"github.com/judyrop/restaurant-backend/cart"
	"github.com/judyrop/restaurant-backend/catalog"
	"github.com/judyrop/restaurant-backend/events"
	"github.com/judyrop/restaurant-backend/models"
	"github.com/judyrop/restaurant-backend/store"
)

type Service struct {
	db        *gorm.DB
	publisher events.Publisher
	log       *logrus.Entry
	now       func() time.Time
}

func NewService(db *gorm.DB, publisher events.Publisher, log *logrus.Entry) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{db: db, publisher: publisher, log: log, now: time.Now}
}

// Line is one requested product and quantity.
type Line struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type CheckoutRequest struct {
	Fulfillment
	// UserID lets an admin place the order for another customer.
	UserID *uint `json:"user_id"`
}

type AdminOrderRequest struct {
	UserID uint   `json:"user_id"`
	Items  []Line `json:"items"`
	Fulfillment
}

// Receipt summarizes a placed order.
type Receipt struct {
	OrderID   uint
	UserID    uint
	Total     decimal.Decimal
	OrderType models.OrderType
	Lines     int
}

// priced is an order line with the unit price captured at checkout.
type priced struct {
	productID uint
	quantity  int
	price     decimal.Decimal
}

// Checkout converts the caller's cart into an order. An admin may attribute
// the order to another customer with UserID; the lines still come from the
// admin's own cart, which is emptied.
func (s *Service) Checkout(ctx context.Context, p auth.Principal, req CheckoutRequest) (Receipt, error) {
	if err := auth.RequireUser(p); err != nil {
		return Receipt{}, err
	}
	info, err := req.Info()
	if err != nil {
		return Receipt{}, err
	}
	owner := p.UserID
	if req.UserID != nil && *req.UserID != 0 && *req.UserID != p.UserID {
		if !p.Admin {
			return Receipt{}, apperr.Forbidden("only admins can order for another customer")
		}
		owner = *req.UserID
	}

	var receipt Receipt
	err = store.Transact(ctx, s.db, func(tx *gorm.DB) error {
		if owner != p.UserID {
			if err := userExists(tx, owner); err != nil {
				return err
			}
		}
		items, err := cart.Lines(tx, p.UserID, true)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return apperr.Invalid("cart is empty")
		}
		lines := make([]priced, 0, len(items))
		for _, it := range items {
			lines = append(lines, priced{productID: it.ProductID, quantity: it.Quantity, price: it.Product.Price})
		}
		if receipt, err = place(tx, owner, lines, info); err != nil {
			return err
		}
		return cart.Clear(tx, p.UserID)
	})
	if err != nil {
		return Receipt{}, err
	}
	s.publishPlaced(ctx, receipt)
	return receipt, nil
}

// CreateForUser places an order from an explicit line list on behalf of a
// customer. Admin only; no cart is involved.
func (s *Service) CreateForUser(ctx context.Context, p auth.Principal, req AdminOrderRequest) (Receipt, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return Receipt{}, err
	}
	if req.UserID == 0 {
		return Receipt{}, apperr.Invalid("user_id is required")
	}
	if len(req.Items) == 0 {
		return Receipt{}, apperr.Invalid("items are required")
	}
	info, err := req.Info()
	if err != nil {
		return Receipt{}, err
	}

	var receipt Receipt
	err = store.Transact(ctx, s.db, func(tx *gorm.DB) error {
		if err := userExists(tx, req.UserID); err != nil {
			return err
		}
		lines := make([]priced, 0, len(req.Items))
		for _, it := range req.Items {
			product, err := catalog.FindProduct(tx, it.ProductID)
			if err != nil {
				return err
			}
			lines = append(lines, priced{productID: product.ID, quantity: max(1, it.Quantity), price: product.Price})
		}
		receipt, err = place(tx, req.UserID, lines, info)
		return err
	})
	if err != nil {
		return Receipt{}, err
	}
	s.publishPlaced(ctx, receipt)
	return receipt, nil
}

// place writes the order, its lines, the computed total and the fulfillment
// record. The caller owns the transaction.
func place(tx *gorm.DB, owner uint, lines []priced, info models.OrderInfo) (Receipt, error) {
	order := models.Order{UserID: owner, Total: decimal.Zero}
	if err := tx.Omit("User", "Items", "Info", "Status").Create(&order).Error; err != nil {
		return Receipt{}, fmt.Errorf("failed to create order: %w", err)
	}

	total := decimal.Zero
	for _, l := range lines {
		item := models.OrderItem{
			OrderID:         order.ID,
			ProductID:       l.productID,
			Quantity:        l.quantity,
			PriceAtPurchase: l.price,
		}
		if err := tx.Omit("Product").Create(&item).Error; err != nil {
			return Receipt{}, fmt.Errorf("failed to create order item: %w", err)
		}
		total = total.Add(item.Subtotal())
	}

	if err := tx.Model(&order).Update("total", total).Error; err != nil {
		return Receipt{}, fmt.Errorf("failed to write order total: %w", err)
	}

	info.OrderID = order.ID
	if err := tx.Create(&info).Error; err != nil {
		return Receipt{}, fmt.Errorf("failed to create order info: %w", err)
	}
	return Receipt{OrderID: order.ID, UserID: owner, Total: total, OrderType: info.OrderType, Lines: len(lines)}, nil
}

func userExists(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up user %d: %w", id, err)
	}
	if count == 0 {
		return apperr.NotFound("user %d not found", id)
	}
	return nil
}

func (s *Service) publishPlaced(ctx context.Context, r Receipt) {
	s.publish(ctx, events.OrderEvent{
		Type:      events.TypeOrderPlaced,
		OrderID:   r.OrderID,
		UserID:    r.UserID,
		Total:     r.Total,
		OrderType: string(r.OrderType),
		Status:    string(models.StatusPending),
	})
}

// publish is best effort: the order is already committed.
func (s *Service) publish(ctx context.Context, ev events.OrderEvent) {
	ev.OccurredAt = s.now().UTC()
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.WithFields(logrus.Fields{
			"action":   "publish_event",
			"event":    ev.Type,
			"order_id": ev.OrderID,
		}).WithError(err).Warn("failed to publish order event")
	}
}
