package repository

import (
	"context"
	"time"

	"affiliate-payout-service/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	ExistsByExternalID(ctx context.Context, externalOrderID string) (bool, error)
	FindUnpaidByAffiliate(ctx context.Context, affiliateID uint) ([]*model.Order, error)
	LockUnpaid(ctx context.Context, tx *gorm.DB, orderID uint) (*model.Order, error)
	MarkPaid(ctx context.Context, tx *gorm.DB, orderID uint) error
	FindByMerchantInRange(ctx context.Context, merchantID uint, from, to time.Time) ([]*model.Order, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) ExistsByExternalID(ctx context.Context, externalOrderID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("external_order_id = ?", externalOrderID).
		Count(&count).Error

	return count > 0, err
}

func (r *orderRepoImpl) FindUnpaidByAffiliate(ctx context.Context, affiliateID uint) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Where("affiliate_id = ?", affiliateID).
		Where("payout_status = ?", model.PayoutStatusUnpaid).
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

// LockUnpaid re-reads the order inside the settlement transaction. The
// status predicate makes an already-settled order surface as
// gorm.ErrRecordNotFound, which the caller treats as a no-op.
func (r *orderRepoImpl) LockUnpaid(ctx context.Context, tx *gorm.DB, orderID uint) (*model.Order, error) {
	q := tx.WithContext(ctx)
	// sqlite serializes writers itself and rejects FOR UPDATE syntax
	if tx.Dialector.Name() == "mysql" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var order model.Order
	err := q.
		Where("id = ?", orderID).
		Where("payout_status = ?", model.PayoutStatusUnpaid).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) MarkPaid(ctx context.Context, tx *gorm.DB, orderID uint) error {
	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Where("payout_status = ?", model.PayoutStatusUnpaid).
		Updates(map[string]interface{}{
			"payout_status": model.PayoutStatusPaid,
			"updated_at":    time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *orderRepoImpl) FindByMerchantInRange(ctx context.Context, merchantID uint, from, to time.Time) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Where("created_at BETWEEN ? AND ?", from, to).
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}
