package repository

import (
	"context"

	"affiliate-payout-service/internal/model"

	"gorm.io/gorm"
)

type AffiliateRepository interface {
	Create(ctx context.Context, tx *gorm.DB, affiliate *model.Affiliate) error
	Find(ctx context.Context, affiliateID uint) (*model.Affiliate, error)
	FindByMerchantAndCode(ctx context.Context, merchantID uint, discountCode string) (*model.Affiliate, error)
	FindByUserAndMerchant(ctx context.Context, userID, merchantID uint) (*model.Affiliate, error)
}

type affiliateRepoImpl struct {
	db *gorm.DB
}

func NewAffiliateRepository(db *gorm.DB) AffiliateRepository {
	return &affiliateRepoImpl{
		db: db,
	}
}

func (r *affiliateRepoImpl) Create(ctx context.Context, tx *gorm.DB, affiliate *model.Affiliate) error {
	return tx.WithContext(ctx).Create(affiliate).Error
}

func (r *affiliateRepoImpl) Find(ctx context.Context, affiliateID uint) (*model.Affiliate, error) {
	var affiliate model.Affiliate
	err := r.db.WithContext(ctx).
		Where("id = ?", affiliateID).
		First(&affiliate).Error

	if err != nil {
		return nil, err
	}

	return &affiliate, nil
}

func (r *affiliateRepoImpl) FindByMerchantAndCode(ctx context.Context, merchantID uint, discountCode string) (*model.Affiliate, error) {
	var affiliate model.Affiliate
	err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Where("discount_code = ?", discountCode).
		First(&affiliate).Error

	if err != nil {
		return nil, err
	}

	return &affiliate, nil
}

func (r *affiliateRepoImpl) FindByUserAndMerchant(ctx context.Context, userID, merchantID uint) (*model.Affiliate, error) {
	var affiliate model.Affiliate
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("merchant_id = ?", merchantID).
		First(&affiliate).Error

	if err != nil {
		return nil, err
	}

	return &affiliate, nil
}
