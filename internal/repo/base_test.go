package repo

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/shoptab-backend/pkg/db/dbtest"
	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
)

type ctxKey struct{}

func TestBaseDBBindsContext(t *testing.T) {
	db := dbtest.New(t)
	base := NewBase(db)

	ctx := context.WithValue(context.Background(), ctxKey{}, "value")
	bound := base.DB(ctx)
	require.NotNil(t, bound.Statement)
	require.Equal(t, ctx, bound.Statement.Context)

	require.Same(t, db, base.DB(nil))
}

func TestBaseWithTxKeepsRootOnNil(t *testing.T) {
	db := dbtest.New(t)
	base := NewBase(db)

	require.Same(t, db, base.WithTx(nil).db)

	err := db.Transaction(func(tx *gorm.DB) error {
		require.Same(t, tx, base.WithTx(tx).db)
		return nil
	})
	require.NoError(t, err)
}

func TestBaseLockedReadsRow(t *testing.T) {
	db := dbtest.New(t)
	shop := dbtest.SeedShop(t, db, nil)

	var got models.Shop
	require.NoError(t, NewBase(db).Locked(context.Background()).Where("id = ?", shop.ID).First(&got).Error)
	require.Equal(t, shop.ID, got.ID)
}

func TestPageCountsBeforeSlicing(t *testing.T) {
	db := dbtest.New(t)
	owner := uuid.New()
	for i := 0; i < 5; i++ {
		dbtest.SeedShop(t, db, func(s *models.Shop) { s.OwnerUserID = owner })
	}
	dbtest.SeedShop(t, db, nil)

	q := NewBase(db).DB(context.Background()).Model(&models.Shop{}).Where("owner_user_id = ?", owner)
	var shops []models.Shop
	total, err := Page(q, "id ASC", 2, 4, &shops)
	require.NoError(t, err)
	require.EqualValues(t, 5, total)
	require.Len(t, shops, 1)
}
