package catalog

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/judyrop/restaurant-backend/apperr"
	"github.com/judyrop/restaurant-backend/auth"
	"github.com/judyrop/restaurant-backend/models"
	"github.com/judyrop/restaurant-backend/store"
)

// Menu is the set of products featured on each calendar day. Days are
// evaluated in the configured location.
type Menu struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

func NewMenu(db *gorm.DB, loc *time.Location) *Menu {
	if loc == nil {
		loc = time.Local
	}
	return &Menu{db: db, loc: loc, now: time.Now}
}

// WithClock replaces the time source.
func (m *Menu) WithClock(now func() time.Time) *Menu {
	m.now = now
	return m
}

func (m *Menu) today() datatypes.Date {
	y, mo, d := m.now().In(m.loc).Date()
	return datatypes.Date(time.Date(y, mo, d, 0, 0, 0, 0, time.UTC))
}

// Today lists the products on today's menu.
func (m *Menu) Today(ctx context.Context) ([]models.Product, error) {
	var items []models.DailyMenuItem
	err := m.db.WithContext(ctx).
		Joins("Product").
		Where("daily_menu_items.date = ?", m.today()).
		Order("daily_menu_items.id").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load today's menu: %w", err)
	}
	products := make([]models.Product, 0, len(items))
	for _, it := range items {
		products = append(products, it.Product)
	}
	return products, nil
}

// Add puts a product on today's menu. It reports false when the product was
// already there.
func (m *Menu) Add(ctx context.Context, p auth.Principal, productID uint) (bool, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return false, err
	}
	if productID == 0 {
		return false, apperr.Invalid("product_id is required")
	}
	var created bool
	err := store.Transact(ctx, m.db, func(tx *gorm.DB) error {
		if _, err := FindProduct(tx, productID); err != nil {
			return err
		}
		item := models.DailyMenuItem{ProductID: productID, Date: m.today()}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&item)
		if res.Error != nil {
			return fmt.Errorf("failed to add product %d to menu: %w", productID, res.Error)
		}
		created = res.RowsAffected == 1
		return nil
	})
	return created, err
}

// Remove takes a product off today's menu.
func (m *Menu) Remove(ctx context.Context, p auth.Principal, productID uint) error {
	if err := auth.RequireAdmin(p); err != nil {
		return err
	}
	res := m.db.WithContext(ctx).
		Where("product_id = ? AND date = ?", productID, m.today()).
		Delete(&models.DailyMenuItem{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove product %d from menu: %w", productID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("product %d is not on today's menu", productID)
	}
	return nil
}
