package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/judyrop/restaurant-backend/apperr"
	"github.com/judyrop/restaurant-backend/auth"
	"github.com/judyrop/restaurant-backend/models"
	"github.com/judyrop/restaurant-backend/store/storetest"
)

var (
	admin    = auth.Principal{UserID: 1, Username: "admin", Admin: true}
	customer = auth.Principal{UserID: 2, Username: "ana"}
)

func str(s string) *string { return &s }

func createProduct(t *testing.T, db *gorm.DB, name, price string) models.Product {
	t.Helper()
	p := models.Product{Name: name, Price: decimal.RequireFromString(price)}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func TestParsePrice(t *testing.T) {
	p, err := ParsePrice(" 12.50 ")
	require.NoError(t, err)
	assert.True(t, p.Equal(decimal.RequireFromString("12.5")))

	p, err = ParsePrice("99999999.99")
	require.NoError(t, err)
	assert.Equal(t, "99999999.99", p.String())

	for _, raw := range []string{"abc", "-1", "1.234", "", "100000000", "1e9"} {
		_, err := ParsePrice(raw)
		assert.True(t, apperr.Is(err, apperr.KindInvalid), raw)
	}
}

func TestCreateProduct(t *testing.T) {
	svc := NewProducts(storetest.New(t))
	ctx := context.Background()

	p, err := svc.Create(ctx, admin, ProductInput{Name: str("Pizza"), Price: str("9.99"), Description: str("Margarita")})
	require.NoError(t, err)
	assert.NotZero(t, p.ID)

	_, err = svc.Create(ctx, admin, ProductInput{Price: str("1")})
	assert.True(t, apperr.Is(err, apperr.KindInvalid))
	_, err = svc.Create(ctx, admin, ProductInput{Name: str("Soda")})
	assert.True(t, apperr.Is(err, apperr.KindInvalid))
	_, err = svc.Create(ctx, customer, ProductInput{Name: str("Soda"), Price: str("1")})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestUpdateProductIsPartial(t *testing.T) {
	db := storetest.New(t)
	svc := NewProducts(db)
	ctx := context.Background()
	p := createProduct(t, db, "Pizza", "9.99")

	updated, err := svc.Update(ctx, admin, p.ID, ProductInput{Price: str("11")})
	require.NoError(t, err)
	assert.Equal(t, "Pizza", updated.Name)
	assert.Equal(t, "11", updated.Price.String())

	_, err = svc.Update(ctx, admin, 999, ProductInput{Price: str("11")})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = svc.Update(ctx, admin, p.ID, ProductInput{Name: str("  ")})
	assert.True(t, apperr.Is(err, apperr.KindInvalid))
}

func TestDeleteProductClearsCartsAndMenus(t *testing.T) {
	db := storetest.New(t)
	svc := NewProducts(db)
	ctx := context.Background()
	p := createProduct(t, db, "Pizza", "9.99")
	require.NoError(t, db.Create(&models.User{Username: "ana"}).Error)
	require.NoError(t, db.Create(&models.CartItem{UserID: 1, ProductID: p.ID, Quantity: 2}).Error)
	_, err := NewMenu(db, time.UTC).Add(ctx, admin, p.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, admin, p.ID))

	_, err = svc.Get(ctx, p.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	var carts, menus int64
	db.Model(&models.CartItem{}).Count(&carts)
	db.Model(&models.DailyMenuItem{}).Count(&menus)
	assert.Zero(t, carts)
	assert.Zero(t, menus)

	// soft deleted: still there for order history
	var kept models.Product
	require.NoError(t, db.Unscoped().First(&kept, p.ID).Error)
	assert.Equal(t, "Pizza", kept.Name)
}

func TestListProductsNewestFirst(t *testing.T) {
	db := storetest.New(t)
	svc := NewProducts(db)
	createProduct(t, db, "First", "1")
	createProduct(t, db, "Second", "2")

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Second", list[0].Name)
}

func TestMenuLifecycle(t *testing.T) {
	db := storetest.New(t)
	day := time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC)
	menu := NewMenu(db, time.UTC).WithClock(func() time.Time { return day })
	ctx := context.Background()
	p := createProduct(t, db, "Pizza", "9.99")

	created, err := menu.Add(ctx, admin, p.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = menu.Add(ctx, admin, p.ID)
	require.NoError(t, err)
	assert.False(t, created)

	today, err := menu.Today(ctx)
	require.NoError(t, err)
	require.Len(t, today, 1)
	assert.Equal(t, "Pizza", today[0].Name)

	// next day the menu starts empty
	day = day.Add(time.Hour)
	today, err = menu.Today(ctx)
	require.NoError(t, err)
	assert.Empty(t, today)

	err = menu.Remove(ctx, admin, p.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	day = day.Add(-time.Hour)
	require.NoError(t, menu.Remove(ctx, admin, p.ID))
}

func TestMenuValidation(t *testing.T) {
	menu := NewMenu(storetest.New(t), time.UTC)
	ctx := context.Background()

	_, err := menu.Add(ctx, admin, 0)
	assert.True(t, apperr.Is(err, apperr.KindInvalid))
	_, err = menu.Add(ctx, admin, 42)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = menu.Add(ctx, customer, 42)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestMenuUsesConfiguredLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	menu := NewMenu(storetest.New(t), loc).
		WithClock(func() time.Time { return time.Date(2024, 5, 2, 2, 0, 0, 0, time.UTC) })
	assert.Equal(t, "2024-05-01", time.Time(menu.today()).Format("2006-01-02"))
}
