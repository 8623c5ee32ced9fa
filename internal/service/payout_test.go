package service

import (
	"context"
	"errors"
	"testing"

	"affiliate-payout-service/internal/jobs"
	"affiliate-payout-service/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// syncScheduler settles tasks inline so tests stay deterministic.
type syncScheduler struct{}

func (syncScheduler) Enqueue(task jobs.Task) {
	_ = task.Run(context.Background())
}

func newPayoutService(e *env) PayoutService {
	return NewPayoutService(e.db, e.gateway, syncScheduler{}, discardLogger(), e.orderRepo, e.affiliateRepo, e.userRepo)
}

func TestSettleOrderPayoutMarksPaid(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	merchant := createMerchant(t, e.db, "shop.example.com")
	affiliate := createAffiliate(t, e.db, merchant, "jane@example.com", "SAVE15", 0.15)
	order := createOrder(t, e.db, merchant, affiliate, "ord-1", 200, 30)

	payouts := newPayoutService(e)
	require.NoError(t, payouts.SettleOrderPayout(ctx, order.ID))

	var got model.Order
	require.NoError(t, e.db.Where("id = ?", order.ID).First(&got).Error)
	require.Equal(t, model.PayoutStatusPaid, got.PayoutStatus)

	require.Len(t, e.gateway.payouts, 1)
	require.Equal(t, "jane@example.com", e.gateway.payouts[0].email)
	requireDecimal(t, 30, e.gateway.payouts[0].amount)
}

func TestSettleOrderPayoutGatewayFailureKeepsUnpaid(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	merchant := createMerchant(t, e.db, "shop.example.com")
	affiliate := createAffiliate(t, e.db, merchant, "jane@example.com", "SAVE15", 0.15)
	order := createOrder(t, e.db, merchant, affiliate, "ord-1", 200, 30)

	e.gateway.payoutErr = errors.New("gateway timeout")
	payouts := newPayoutService(e)
	require.Error(t, payouts.SettleOrderPayout(ctx, order.ID))

	var got model.Order
	require.NoError(t, e.db.Where("id = ?", order.ID).First(&got).Error)
	require.Equal(t, model.PayoutStatusUnpaid, got.PayoutStatus)
	require.Equal(t, 0, e.gateway.payoutCount())

	// a later retry succeeds and flips the status
	e.gateway.payoutErr = nil
	require.NoError(t, payouts.SettleOrderPayout(ctx, order.ID))
	require.NoError(t, e.db.Where("id = ?", order.ID).First(&got).Error)
	require.Equal(t, model.PayoutStatusPaid, got.PayoutStatus)
}

func TestSettleOrderPayoutAlreadyPaidIsNoOp(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	merchant := createMerchant(t, e.db, "shop.example.com")
	affiliate := createAffiliate(t, e.db, merchant, "jane@example.com", "SAVE15", 0.15)
	order := createOrder(t, e.db, merchant, affiliate, "ord-1", 200, 30)
	require.NoError(t, e.db.Model(order).Update("payout_status", model.PayoutStatusPaid).Error)

	payouts := newPayoutService(e)
	require.NoError(t, payouts.SettleOrderPayout(ctx, order.ID))
	require.Equal(t, 0, e.gateway.payoutCount())
}

func TestPayoutAffiliateSettlesUnpaidOrdersOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	merchant := createMerchant(t, e.db, "shop.example.com")
	affiliate := createAffiliate(t, e.db, merchant, "jane@example.com", "SAVE15", 0.15)
	createOrder(t, e.db, merchant, affiliate, "ord-1", 100, 15)
	createOrder(t, e.db, merchant, affiliate, "ord-2", 200, 30)
	paid := createOrder(t, e.db, merchant, affiliate, "ord-3", 300, 45)
	require.NoError(t, e.db.Model(paid).Update("payout_status", model.PayoutStatusPaid).Error)

	payouts := newPayoutService(e)
	scheduled, err := payouts.PayoutAffiliate(ctx, affiliate.ID)
	require.NoError(t, err)
	require.Equal(t, 2, scheduled)
	require.Equal(t, 2, e.gateway.payoutCount())

	var unpaid int64
	require.NoError(t, e.db.Model(&model.Order{}).
		Where("payout_status = ?", model.PayoutStatusUnpaid).
		Count(&unpaid).Error)
	require.EqualValues(t, 0, unpaid)

	// re-running the trigger re-selects nothing and pays nothing again
	scheduled, err = payouts.PayoutAffiliate(ctx, affiliate.ID)
	require.NoError(t, err)
	require.Equal(t, 0, scheduled)
	require.Equal(t, 2, e.gateway.payoutCount())
}

func TestPayoutAffiliateUnknownAffiliate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	payouts := newPayoutService(e)
	_, err := payouts.PayoutAffiliate(ctx, 12345)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
