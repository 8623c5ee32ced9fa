package service

import (
	"context"
	"testing"
	"time"

	"affiliate-payout-service/internal/dto"
	"affiliate-payout-service/internal/model"

	"github.com/stretchr/testify/require"
)

func TestRegisterMerchantAndFindByEmail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	merchant, err := e.merchants.Register(ctx, &dto.MerchantRegistration{
		Domain:                "store.example.com",
		Name:                  "Example Store",
		Email:                 "owner@store.example.com",
		APIKey:                "secret-api-key",
		DefaultCommissionRate: 0.12,
	})
	require.NoError(t, err)
	require.NotZero(t, merchant.ID)
	requireDecimal(t, 0.12, merchant.DefaultCommissionRate)

	var user model.User
	require.NoError(t, e.db.Where("id = ?", merchant.UserID).First(&user).Error)
	require.Equal(t, model.UserTypeMerchant, user.Type)
	// credential is stored hashed, never plain
	require.NotEqual(t, "secret-api-key", user.Password)

	found, err := e.merchants.FindMerchantByEmail(ctx, "owner@store.example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, merchant.ID, found.ID)
}

func TestFindMerchantByEmailMissing(t *testing.T) {
	e := newEnv(t)

	found, err := e.merchants.FindMerchantByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	require.Nil(t, found)
}

func TestUpdateMerchant(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	merchant, err := e.merchants.Register(ctx, &dto.MerchantRegistration{
		Domain: "store.example.com",
		Name:   "Example Store",
		Email:  "owner@store.example.com",
		APIKey: "secret-api-key",
	})
	require.NoError(t, err)

	err = e.merchants.UpdateMerchant(ctx, merchant.UserID, &dto.MerchantUpdate{
		Domain: "new.example.com",
		Name:   "Renamed Store",
		Email:  "owner@new.example.com",
	})
	require.NoError(t, err)

	var got model.Merchant
	require.NoError(t, e.db.Where("id = ?", merchant.ID).First(&got).Error)
	require.Equal(t, "new.example.com", got.Domain)
	require.Equal(t, "Renamed Store", got.DisplayName)

	var user model.User
	require.NoError(t, e.db.Where("id = ?", merchant.UserID).First(&user).Error)
	require.Equal(t, "owner@new.example.com", user.Email)
}

func TestOrderStatsAggregatesRange(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	merchant := createMerchant(t, e.db, "shop.example.com")
	affiliate := createAffiliate(t, e.db, merchant, "jane@example.com", "SAVE10", 0.1)

	inRange := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	createOrderAt(t, e, merchant, nil, "ord-1", 10, 0, inRange)
	createOrderAt(t, e, merchant, nil, "ord-2", 20, 0, inRange)
	createOrderAt(t, e, merchant, affiliate, "ord-3", 30, 3, inRange)
	// outside the range, must not count
	createOrderAt(t, e, merchant, affiliate, "ord-4", 500, 50, inRange.AddDate(0, 1, 0))

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)
	stats, err := e.merchants.OrderStats(ctx, merchant.ID, from, to)
	require.NoError(t, err)
	require.Equal(t, 3, stats.Count)
	requireDecimal(t, 60, stats.Revenue)
	requireDecimal(t, 3, stats.CommissionsOwed)
}

func createOrderAt(t *testing.T, e *env, merchant *model.Merchant, affiliate *model.Affiliate, externalID string, subtotal, commission float64, at time.Time) {
	t.Helper()
	order := createOrder(t, e.db, merchant, affiliate, externalID, subtotal, commission)
	require.NoError(t, e.db.Model(order).Update("created_at", at).Error)
}
