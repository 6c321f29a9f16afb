// Package catalog holds the product catalog and the daily menu.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/judyrop/restaurant-backend/apperr"
	"github.com/judyrop/restaurant-backend/auth"
	"github.com/judyrop/restaurant-backend/models"
	"github.com/judyrop/restaurant-backend/store"
)

type Products struct {
	db *gorm.DB
}

func NewProducts(db *gorm.DB) *Products {
	return &Products{db: db}
}

// ProductInput is a create or partial update; nil fields are left unchanged.
type ProductInput struct {
	Name        *string
	Description *string
	Price       *string
	ImageURL    *string
}

func (s *Products) List(ctx context.Context) ([]models.Product, error) {
	var list []models.Product
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return list, nil
}

func (s *Products) Get(ctx context.Context, id uint) (models.Product, error) {
	return FindProduct(s.db.WithContext(ctx), id)
}

// FindProduct loads a live product inside the caller's transaction.
func FindProduct(tx *gorm.DB, id uint) (models.Product, error) {
	var p models.Product
	err := tx.First(&p, id).Error
	if store.IsNotFound(err) {
		return models.Product{}, apperr.NotFound("product %d not found", id)
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("failed to load product %d: %w", id, err)
	}
	return p, nil
}

func (s *Products) Create(ctx context.Context, p auth.Principal, in ProductInput) (models.Product, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return models.Product{}, err
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return models.Product{}, apperr.Invalid("name is required")
	}
	if in.Price == nil || strings.TrimSpace(*in.Price) == "" {
		return models.Product{}, apperr.Invalid("price is required")
	}
	price, err := ParsePrice(*in.Price)
	if err != nil {
		return models.Product{}, err
	}
	product := models.Product{
		Name:        strings.TrimSpace(*in.Name),
		Description: in.Description,
		Price:       price,
		ImageURL:    in.ImageURL,
	}
	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return models.Product{}, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (s *Products) Update(ctx context.Context, p auth.Principal, id uint, in ProductInput) (models.Product, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return models.Product{}, err
	}
	var product models.Product
	err := store.Transact(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		if product, err = FindProduct(tx, id); err != nil {
			return err
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return apperr.Invalid("name must not be empty")
			}
			product.Name = name
		}
		if in.Price != nil {
			if product.Price, err = ParsePrice(*in.Price); err != nil {
				return err
			}
		}
		if in.Description != nil {
			product.Description = in.Description
		}
		if in.ImageURL != nil {
			product.ImageURL = in.ImageURL
		}
		if err := tx.Save(&product).Error; err != nil {
			return fmt.Errorf("failed to update product %d: %w", id, err)
		}
		return nil
	})
	return product, err
}

// Delete retires a product. Past order lines keep referencing the soft
// deleted row; open carts and menus drop it.
func (s *Products) Delete(ctx context.Context, p auth.Principal, id uint) error {
	if err := auth.RequireAdmin(p); err != nil {
		return err
	}
	return store.Transact(ctx, s.db, func(tx *gorm.DB) error {
		product, err := FindProduct(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to remove product from carts: %w", err)
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.DailyMenuItem{}).Error; err != nil {
			return fmt.Errorf("failed to remove product from menus: %w", err)
		}
		if err := tx.Delete(&product).Error; err != nil {
			return fmt.Errorf("failed to delete product %d: %w", id, err)
		}
		return nil
	})
}

// maxPrice is the first value that no longer fits decimal(10,2).
var maxPrice = decimal.New(1, 8)

// ParsePrice accepts a non-negative decimal with at most two fraction digits.
func ParsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, apperr.Invalid("invalid price %q", raw)
	}
	if price.IsNegative() {
		return decimal.Decimal{}, apperr.Invalid("price must not be negative")
	}
	if !price.Equal(price.Round(2)) {
		return decimal.Decimal{}, apperr.Invalid("price has more than two decimals")
	}
	if price.GreaterThanOrEqual(maxPrice) {
		return decimal.Decimal{}, apperr.Invalid("price must be less than %s", maxPrice)
	}
	return price, nil
}
