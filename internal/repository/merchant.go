package repository

import (
	"context"

	"affiliate-payout-service/internal/model"

	"gorm.io/gorm"
)

type MerchantRepository interface {
	Create(ctx context.Context, tx *gorm.DB, merchant *model.Merchant) error
	Find(ctx context.Context, merchantID uint) (*model.Merchant, error)
	FindByDomain(ctx context.Context, domain string) (*model.Merchant, error)
	FindByUserID(ctx context.Context, userID uint) (*model.Merchant, error)
	Update(ctx context.Context, tx *gorm.DB, merchantID uint, fields map[string]interface{}) error
}

type merchantRepoImpl struct {
	db *gorm.DB
}

func NewMerchantRepository(db *gorm.DB) MerchantRepository {
	return &merchantRepoImpl{
		db: db,
	}
}

func (r *merchantRepoImpl) Create(ctx context.Context, tx *gorm.DB, merchant *model.Merchant) error {
	return tx.WithContext(ctx).Create(merchant).Error
}

func (r *merchantRepoImpl) Find(ctx context.Context, merchantID uint) (*model.Merchant, error) {
	var merchant model.Merchant
	err := r.db.WithContext(ctx).
		Where("id = ?", merchantID).
		First(&merchant).Error

	if err != nil {
		return nil, err
	}

	return &merchant, nil
}

func (r *merchantRepoImpl) FindByDomain(ctx context.Context, domain string) (*model.Merchant, error) {
	var merchant model.Merchant
	err := r.db.WithContext(ctx).
		Where("domain = ?", domain).
		First(&merchant).Error

	if err != nil {
		return nil, err
	}

	return &merchant, nil
}

func (r *merchantRepoImpl) FindByUserID(ctx context.Context, userID uint) (*model.Merchant, error) {
	var merchant model.Merchant
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&merchant).Error

	if err != nil {
		return nil, err
	}

	return &merchant, nil
}

func (r *merchantRepoImpl) Update(ctx context.Context, tx *gorm.DB, merchantID uint, fields map[string]interface{}) error {
	result := tx.WithContext(ctx).Model(&model.Merchant{}).
		Where("id = ?", merchantID).
		Updates(fields)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
