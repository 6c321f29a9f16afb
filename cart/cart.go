// Package cart keeps each user's pending order lines.
package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/judyrop/restaurant-backend/apperr"
	"github.com/judyrop/restaurant-backend/auth"
	"github.com/judyrop/restaurant-backend/catalog"
	"github.com/judyrop/restaurant-backend/models"
	"github.com/judyrop/restaurant-backend/store"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Line is a cart item priced at the product's current price.
type Line struct {
	ID       uint
	Product  models.Product
	Quantity int
	Subtotal decimal.Decimal
}

type Summary struct {
	Items []Line
	Total decimal.Decimal
}

// Add puts qty units of a product in the caller's cart, merging with an
// existing line for the same product. A zero qty means one unit.
func (s *Service) Add(ctx context.Context, p auth.Principal, productID uint, qty int) (models.CartItem, error) {
	if err := auth.RequireUser(p); err != nil {
		return models.CartItem{}, err
	}
	if productID == 0 {
		return models.CartItem{}, apperr.Invalid("product_id is required")
	}
	if qty < 0 {
		return models.CartItem{}, apperr.Invalid("quantity must be positive")
	}
	if qty == 0 {
		qty = 1
	}

	var item models.CartItem
	err := store.Transact(ctx, s.db, func(tx *gorm.DB) error {
		if _, err := catalog.FindProduct(tx, productID); err != nil {
			return err
		}
		line := models.CartItem{UserID: p.UserID, ProductID: productID, Quantity: qty}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
				"updated_at": gorm.Expr("excluded.updated_at"),
			}),
		}).Create(&line).Error
		if err != nil {
			return fmt.Errorf("failed to add product %d to cart: %w", productID, err)
		}
		// the upsert does not report the id of an existing row
		return tx.Where("user_id = ? AND product_id = ?", p.UserID, productID).First(&item).Error
	})
	return item, err
}

// Update sets the quantity of a line, never below one.
func (s *Service) Update(ctx context.Context, p auth.Principal, itemID uint, qty int) (models.CartItem, error) {
	var item models.CartItem
	err := store.Transact(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		if item, err = s.owned(tx, p, itemID); err != nil {
			return err
		}
		item.Quantity = max(1, qty)
		if err := tx.Model(&item).Update("quantity", item.Quantity).Error; err != nil {
			return fmt.Errorf("failed to update cart item %d: %w", itemID, err)
		}
		return nil
	})
	return item, err
}

func (s *Service) Remove(ctx context.Context, p auth.Principal, itemID uint) error {
	return store.Transact(ctx, s.db, func(tx *gorm.DB) error {
		item, err := s.owned(tx, p, itemID)
		if err != nil {
			return err
		}
		if err := tx.Delete(&item).Error; err != nil {
			return fmt.Errorf("failed to remove cart item %d: %w", itemID, err)
		}
		return nil
	})
}

// List returns the caller's cart with subtotals at live prices.
func (s *Service) List(ctx context.Context, p auth.Principal) (Summary, error) {
	if err := auth.RequireUser(p); err != nil {
		return Summary{}, err
	}
	items, err := Lines(s.db.WithContext(ctx), p.UserID, false)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{Items: make([]Line, 0, len(items)), Total: decimal.Zero}
	for _, it := range items {
		subtotal := it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		sum.Items = append(sum.Items, Line{ID: it.ID, Product: it.Product, Quantity: it.Quantity, Subtotal: subtotal})
		sum.Total = sum.Total.Add(subtotal)
	}
	return sum, nil
}

// Lines loads a user's cart with products. With lock set the rows are read
// FOR UPDATE so concurrent checkouts of the same cart serialize.
func Lines(tx *gorm.DB, userID uint, lock bool) ([]models.CartItem, error) {
	q := tx.Preload("Product").Where("user_id = ?", userID).Order("id")
	if lock {
		q = q.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
	var items []models.CartItem
	if err := q.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to load cart of user %d: %w", userID, err)
	}
	return items, nil
}

// Clear deletes every line of a user's cart.
func Clear(tx *gorm.DB, userID uint) error {
	if err := tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart of user %d: %w", userID, err)
	}
	return nil
}

func (s *Service) owned(tx *gorm.DB, p auth.Principal, itemID uint) (models.CartItem, error) {
	if err := auth.RequireUser(p); err != nil {
		return models.CartItem{}, err
	}
	var item models.CartItem
	err := tx.First(&item, itemID).Error
	if store.IsNotFound(err) {
		return models.CartItem{}, apperr.NotFound("cart item %d not found", itemID)
	}
	if err != nil {
		return models.CartItem{}, fmt.Errorf("failed to load cart item %d: %w", itemID, err)
	}
	// carts are private, even to admins
	if !p.Owns(item.UserID) {
		return models.CartItem{}, apperr.Forbidden("not authorized to modify this cart item")
	}
	return item, nil
}
