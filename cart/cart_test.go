package cart

import (
	"context"
	"testing"

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
	ana = auth.Principal{UserID: 1, Username: "ana"}
	bob = auth.Principal{UserID: 2, Username: "bob"}
)

func seed(t *testing.T) (*gorm.DB, models.Product, models.Product) {
	t.Helper()
	db := storetest.New(t)
	require.NoError(t, db.Create(&models.User{Username: "ana"}).Error)
	require.NoError(t, db.Create(&models.User{Username: "bob"}).Error)
	pizza := models.Product{Name: "Pizza", Price: decimal.RequireFromString("10.50")}
	soda := models.Product{Name: "Soda", Price: decimal.RequireFromString("2")}
	require.NoError(t, db.Create(&pizza).Error)
	require.NoError(t, db.Create(&soda).Error)
	return db, pizza, soda
}

func TestAddMergesSameProduct(t *testing.T) {
	db, pizza, _ := seed(t)
	svc := NewService(db)
	ctx := context.Background()

	first, err := svc.Add(ctx, ana, pizza.ID, 2)
	require.NoError(t, err)
	second, err := svc.Add(ctx, ana, pizza.ID, 3)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Quantity)

	var count int64
	db.Model(&models.CartItem{}).Where("user_id = ?", ana.UserID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAddValidation(t *testing.T) {
	db, pizza, _ := seed(t)
	svc := NewService(db)
	ctx := context.Background()

	item, err := svc.Add(ctx, ana, pizza.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)

	_, err = svc.Add(ctx, ana, pizza.ID, -2)
	assert.True(t, apperr.Is(err, apperr.KindInvalid))
	_, err = svc.Add(ctx, ana, 999, 1)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = svc.Add(ctx, ana, 0, 1)
	assert.True(t, apperr.Is(err, apperr.KindInvalid))
	_, err = svc.Add(ctx, auth.Principal{}, pizza.ID, 1)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestUpdateClampsAndChecksOwner(t *testing.T) {
	db, pizza, _ := seed(t)
	svc := NewService(db)
	ctx := context.Background()
	item, err := svc.Add(ctx, ana, pizza.ID, 3)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, ana, item.ID, -4)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Quantity)

	_, err = svc.Update(ctx, bob, item.ID, 2)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	_, err = svc.Update(ctx, ana, 999, 2)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	var stored models.CartItem
	require.NoError(t, db.First(&stored, item.ID).Error)
	assert.Equal(t, 1, stored.Quantity)
}

func TestRemove(t *testing.T) {
	db, pizza, _ := seed(t)
	svc := NewService(db)
	ctx := context.Background()
	item, err := svc.Add(ctx, ana, pizza.ID, 1)
	require.NoError(t, err)

	assert.True(t, apperr.Is(svc.Remove(ctx, bob, item.ID), apperr.KindForbidden))
	require.NoError(t, svc.Remove(ctx, ana, item.ID))
	assert.True(t, apperr.Is(svc.Remove(ctx, ana, item.ID), apperr.KindNotFound))
}

func TestListComputesLivePrices(t *testing.T) {
	db, pizza, soda := seed(t)
	svc := NewService(db)
	ctx := context.Background()
	_, err := svc.Add(ctx, ana, pizza.ID, 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, ana, soda.ID, 3)
	require.NoError(t, err)
	_, err = svc.Add(ctx, bob, soda.ID, 1)
	require.NoError(t, err)

	sum, err := svc.List(ctx, ana)
	require.NoError(t, err)
	require.Len(t, sum.Items, 2)
	assert.Equal(t, "21", sum.Items[0].Subtotal.String())
	assert.Equal(t, "27", sum.Total.String())

	require.NoError(t, db.Model(&soda).Update("price", decimal.RequireFromString("3")).Error)
	sum, err = svc.List(ctx, ana)
	require.NoError(t, err)
	assert.Equal(t, "30", sum.Total.String())
}
