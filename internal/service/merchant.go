package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"affiliate-payout-service/internal/dto"
	"affiliate-payout-service/internal/model"
	"affiliate-payout-service/internal/repository"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type MerchantService interface {
	Register(ctx context.Context, in *dto.MerchantRegistration) (*model.Merchant, error)
	UpdateMerchant(ctx context.Context, userID uint, in *dto.MerchantUpdate) error
	FindMerchantByEmail(ctx context.Context, email string) (*model.Merchant, error)
	OrderStats(ctx context.Context, merchantID uint, from, to time.Time) (*dto.OrderStats, error)
}

type merchantServiceImpl struct {
	db           *gorm.DB
	userRepo     repository.UserRepository
	merchantRepo repository.MerchantRepository
	orderRepo    repository.OrderRepository
}

func NewMerchantService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	merchantRepo repository.MerchantRepository,
	orderRepo repository.OrderRepository,
) MerchantService {
	return &merchantServiceImpl{
		db:           db,
		userRepo:     userRepo,
		merchantRepo: merchantRepo,
		orderRepo:    orderRepo,
	}
}

// Register creates the identity and merchant records in one transaction.
// The api key is stored hashed as the identity credential.
func (s *merchantServiceImpl) Register(ctx context.Context, in *dto.MerchantRegistration) (*model.Merchant, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.APIKey), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash api key: %w", err)
	}

	merchant := &model.Merchant{
		Domain:                      in.Domain,
		DisplayName:                 in.Name,
		TurnCustomersIntoAffiliates: in.TurnCustomersIntoAffiliates,
		DefaultCommissionRate:       decimal.NewFromFloat(in.DefaultCommissionRate),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := &model.User{
			Name:     in.Name,
			Email:    in.Email,
			Password: string(hashed),
			Type:     model.UserTypeMerchant,
		}
		if err := s.userRepo.Create(ctx, tx, user); err != nil {
			return fmt.Errorf("store user: %w", err)
		}

		merchant.UserID = user.ID
		if err := s.merchantRepo.Create(ctx, tx, merchant); err != nil {
			return fmt.Errorf("store merchant: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("register merchant: %w", err)
	}

	return merchant, nil
}

func (s *merchantServiceImpl) UpdateMerchant(ctx context.Context, userID uint, in *dto.MerchantUpdate) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userFields := map[string]interface{}{
			"name":  in.Name,
			"email": in.Email,
		}
		if in.APIKey != "" {
			hashed, err := bcrypt.GenerateFromPassword([]byte(in.APIKey), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash api key: %w", err)
			}
			userFields["password"] = string(hashed)
		}

		if err := s.userRepo.Update(ctx, tx, userID, userFields); err != nil {
			return fmt.Errorf("update user: %w", err)
		}

		merchant, err := s.merchantRepo.FindByUserID(ctx, userID)
		if err != nil {
			return fmt.Errorf("resolve merchant: %w", err)
		}

		err = s.merchantRepo.Update(ctx, tx, merchant.ID, map[string]interface{}{
			"domain":       in.Domain,
			"display_name": in.Name,
		})
		if err != nil {
			return fmt.Errorf("update merchant: %w", err)
		}

		return nil
	})
}

func (s *merchantServiceImpl) FindMerchantByEmail(ctx context.Context, email string) (*model.Merchant, error) {
	user, err := s.userRepo.FindByEmail(ctx, email, model.UserTypeMerchant)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}

	merchant, err := s.merchantRepo.FindByUserID(ctx, user.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup merchant: %w", err)
	}

	return merchant, nil
}

// OrderStats aggregates orders created in the inclusive range.
// CommissionsOwed counts only orders attributed to an affiliate.
func (s *merchantServiceImpl) OrderStats(ctx context.Context, merchantID uint, from, to time.Time) (*dto.OrderStats, error) {
	orders, err := s.orderRepo.FindByMerchantInRange(ctx, merchantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list orders in range: %w", err)
	}

	revenue := decimal.Zero
	commissionsOwed := decimal.Zero
	for _, order := range orders {
		revenue = revenue.Add(order.Subtotal)
		if order.AffiliateID != nil {
			commissionsOwed = commissionsOwed.Add(order.CommissionOwed)
		}
	}

	return &dto.OrderStats{
		Count:           len(orders),
		Revenue:         revenue,
		CommissionsOwed: commissionsOwed,
	}, nil
}
