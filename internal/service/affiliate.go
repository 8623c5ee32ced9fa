package service

import (
	"context"
	"fmt"
	"log/slog"

	"affiliate-payout-service/internal/client"
	"affiliate-payout-service/internal/model"
	"affiliate-payout-service/internal/notify"
	"affiliate-payout-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AffiliateCreateError reports a failed affiliate registration. It wraps
// the underlying persistence or gateway error without leaking it raw.
type AffiliateCreateError struct {
	Reason string
	Err    error
}

func (e *AffiliateCreateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("create affiliate: %s: %v", e.Reason, e.Err)
	}
	return "create affiliate: " + e.Reason
}

func (e *AffiliateCreateError) Unwrap() error {
	return e.Err
}

type AffiliateService interface {
	Register(ctx context.Context, merchant *model.Merchant, email, name string, commissionRate decimal.Decimal) (*model.Affiliate, error)
}

type affiliateServiceImpl struct {
	db            *gorm.DB
	gateway       client.PaymentGateway
	mailer        notify.Mailer
	logger        *slog.Logger
	userRepo      repository.UserRepository
	affiliateRepo repository.AffiliateRepository
}

func NewAffiliateService(
	db *gorm.DB,
	gateway client.PaymentGateway,
	mailer notify.Mailer,
	logger *slog.Logger,
	userRepo repository.UserRepository,
	affiliateRepo repository.AffiliateRepository,
) AffiliateService {
	return &affiliateServiceImpl{
		db:            db,
		gateway:       gateway,
		mailer:        mailer,
		logger:        logger,
		userRepo:      userRepo,
		affiliateRepo: affiliateRepo,
	}
}

// Register creates the identity and affiliate records for a merchant in one
// transaction, with a fresh gateway-issued discount code. The email must
// not belong to any existing identity, merchant or affiliate.
func (s *affiliateServiceImpl) Register(ctx context.Context, merchant *model.Merchant, email, name string, commissionRate decimal.Decimal) (*model.Affiliate, error) {
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, &AffiliateCreateError{Reason: "check email", Err: err}
	}
	if exists {
		return nil, &AffiliateCreateError{Reason: "email already used"}
	}

	code, err := s.gateway.CreateDiscountCode(ctx, merchant.Domain)
	if err != nil {
		return nil, &AffiliateCreateError{Reason: "issue discount code", Err: err}
	}

	// random, never-exposed credential for the identity record
	password, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, &AffiliateCreateError{Reason: "generate credential", Err: err}
	}

	affiliate := &model.Affiliate{
		MerchantID:     merchant.ID,
		CommissionRate: commissionRate,
		DiscountCode:   code.Code,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := &model.User{
			Name:     name,
			Email:    email,
			Password: string(password),
			Type:     model.UserTypeAffiliate,
		}
		if err := s.userRepo.Create(ctx, tx, user); err != nil {
			return fmt.Errorf("store user: %w", err)
		}

		affiliate.UserID = user.ID
		if err := s.affiliateRepo.Create(ctx, tx, affiliate); err != nil {
			return fmt.Errorf("store affiliate: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, &AffiliateCreateError{Reason: "persist affiliate", Err: err}
	}

	// fire-and-forget: mail failure never affects the created affiliate
	go func() {
		if err := s.mailer.SendAffiliateWelcome(context.Background(), email, affiliate); err != nil {
			s.logger.Warn("send affiliate welcome mail",
				"email", email,
				"error", err,
			)
		}
	}()

	return affiliate, nil
}
