package orders

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/judyrop/restaurant-backend/apperr"
	"github.com/judyrop/restaurant-backend/auth"
	"github.com/judyrop/restaurant-backend/events"
	"github.com/judyrop/restaurant-backend/models"
	"github.com/judyrop/restaurant-backend/store"
)

// Status returns the order's current status. Orders never given one are pending.
func (s *Service) Status(ctx context.Context, p auth.Principal, orderID uint) (models.Status, error) {
	order, err := s.accessible(s.db.WithContext(ctx), p, orderID)
	if err != nil {
		return "", err
	}
	return order.CurrentStatus(), nil
}

// SetStatus records a new status. Any value may follow any other.
func (s *Service) SetStatus(ctx context.Context, p auth.Principal, orderID uint, raw string) (models.Status, error) {
	status, ok := models.ParseStatus(raw)
	if !ok {
		return "", apperr.Invalid("invalid status %q, allowed: %v", raw, models.Statuses)
	}
	var owner uint
	err := store.Transact(ctx, s.db, func(tx *gorm.DB) error {
		order, err := s.accessible(tx, p, orderID)
		if err != nil {
			return err
		}
		owner = order.UserID
		now := s.now()
		rec := models.OrderStatus{OrderID: orderID, Status: status, CreatedAt: now, UpdatedAt: now}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
		}).Create(&rec).Error
		if err != nil {
			return fmt.Errorf("failed to set status of order %d: %w", orderID, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	s.publish(ctx, events.OrderEvent{
		Type:    events.StatusType(string(status)),
		OrderID: orderID,
		UserID:  owner,
		Status:  string(status),
	})
	return status, nil
}

// accessible loads an order with its status if p may see it.
func (s *Service) accessible(tx *gorm.DB, p auth.Principal, orderID uint) (models.Order, error) {
	if err := auth.RequireUser(p); err != nil {
		return models.Order{}, err
	}
	var order models.Order
	err := tx.Preload("Status").First(&order, orderID).Error
	if store.IsNotFound(err) {
		return models.Order{}, apperr.NotFound("order %d not found", orderID)
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to load order %d: %w", orderID, err)
	}
	if err := auth.RequireOwnerOrAdmin(p, order.UserID); err != nil {
		return models.Order{}, err
	}
	return order, nil
}
