package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/judyrop/restaurant-backend/models"
	"github.com/judyrop/restaurant-backend/store"
	"github.com/judyrop/restaurant-backend/store/storetest"
)

func TestTransactRollsBackOnError(t *testing.T) {
	db := storetest.New(t)
	boom := errors.New("boom")

	err := store.Transact(context.Background(), db, func(tx *gorm.DB) error {
		if err := tx.Create(&models.Product{Name: "Flan", Price: decimal.NewFromInt(3)}).Error; err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTransactCommits(t *testing.T) {
	db := storetest.New(t)

	err := store.Transact(context.Background(), db, func(tx *gorm.DB) error {
		return tx.Create(&models.Product{Name: "Flan", Price: decimal.NewFromInt(3)}).Error
	})
	require.NoError(t, err)

	var p models.Product
	require.NoError(t, db.First(&p).Error)
	assert.Equal(t, "Flan", p.Name)
	assert.True(t, decimal.NewFromInt(3).Equal(p.Price))
}

func TestIsDuplicate(t *testing.T) {
	db := storetest.New(t)
	require.NoError(t, db.Create(&models.User{Username: "ana"}).Error)

	err := db.Create(&models.User{Username: "ana"}).Error
	assert.True(t, store.IsDuplicate(err))

	err = db.First(&models.User{}, 999).Error
	assert.True(t, store.IsNotFound(err))
}
