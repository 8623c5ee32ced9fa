package service

import (
	"context"
	"errors"
	"fmt"

	"affiliate-payout-service/internal/dto"
	"affiliate-payout-service/internal/model"
	"affiliate-payout-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// rate granted to buyers converted into affiliates by an unmatched
// discount code
var autoEnrollCommissionRate = decimal.NewFromFloat(0.10)

const fallbackCustomerName = "Unknown"

type IngestOutcome string

const (
	OutcomeCreated         IngestOutcome = "created"
	OutcomeDuplicate       IngestOutcome = "duplicate_ignored"
	OutcomeUnknownMerchant IngestOutcome = "merchant_unknown"
)

// IngestResult distinguishes a processed order from one that was
// deliberately dropped. Order is set only for OutcomeCreated.
type IngestResult struct {
	Outcome IngestOutcome
	Order   *model.Order
}

type OrderService interface {
	ProcessOrder(ctx context.Context, event *dto.OrderEvent) (*IngestResult, error)
}

type orderServiceImpl struct {
	db               *gorm.DB
	affiliateService AffiliateService
	orderRepo        repository.OrderRepository
	merchantRepo     repository.MerchantRepository
	affiliateRepo    repository.AffiliateRepository
	userRepo         repository.UserRepository
}

func NewOrderService(
	db *gorm.DB,
	affiliateService AffiliateService,
	orderRepo repository.OrderRepository,
	merchantRepo repository.MerchantRepository,
	affiliateRepo repository.AffiliateRepository,
	userRepo repository.UserRepository,
) OrderService {
	return &orderServiceImpl{
		db:               db,
		affiliateService: affiliateService,
		orderRepo:        orderRepo,
		merchantRepo:     merchantRepo,
		affiliateRepo:    affiliateRepo,
		userRepo:         userRepo,
	}
}

// ProcessOrder ingests one purchase event. Duplicate external ids and
// unknown merchant domains are absorbed, not errored: the webhook sender
// must never retry those.
func (s *orderServiceImpl) ProcessOrder(ctx context.Context, event *dto.OrderEvent) (*IngestResult, error) {
	externalOrderID := event.ExternalOrderID
	if externalOrderID == "" {
		externalOrderID = uuid.NewString()
	}

	exists, err := s.orderRepo.ExistsByExternalID(ctx, externalOrderID)
	if err != nil {
		return nil, fmt.Errorf("check duplicate order: %w", err)
	}
	if exists {
		return &IngestResult{Outcome: OutcomeDuplicate}, nil
	}

	merchant, err := s.merchantRepo.FindByDomain(ctx, event.MerchantDomain)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &IngestResult{Outcome: OutcomeUnknownMerchant}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve merchant: %w", err)
	}

	var affiliate *model.Affiliate
	if event.DiscountCode != "" {
		affiliate, err = s.resolveAffiliate(ctx, merchant, event)
		if err != nil {
			return nil, err
		}
	}

	subtotal := decimal.NewFromFloat(event.SubtotalPrice)
	commission := decimal.Zero
	var affiliateID *uint
	discountCode := ""
	if affiliate != nil {
		// rate is snapshotted here, never recomputed
		commission = subtotal.Mul(affiliate.CommissionRate)
		affiliateID = &affiliate.ID
		discountCode = affiliate.DiscountCode
	}

	order := &model.Order{
		ExternalOrderID: externalOrderID,
		MerchantID:      merchant.ID,
		AffiliateID:     affiliateID,
		Subtotal:        subtotal,
		CommissionOwed:  commission,
		PayoutStatus:    model.PayoutStatusUnpaid,
		DiscountCode:    discountCode,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.orderRepo.Create(ctx, tx, order)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// lost an ingestion race on the external id
		return &IngestResult{Outcome: OutcomeDuplicate}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store order: %w", err)
	}

	return &IngestResult{Outcome: OutcomeCreated, Order: order}, nil
}

// resolveAffiliate matches the discount code to an existing affiliate or
// converts the buyer into a new one. A buyer who is already an affiliate
// of the merchant is resolved to their existing record, at its existing
// rate and code, rather than failing the ingestion.
func (s *orderServiceImpl) resolveAffiliate(ctx context.Context, merchant *model.Merchant, event *dto.OrderEvent) (*model.Affiliate, error) {
	affiliate, err := s.affiliateRepo.FindByMerchantAndCode(ctx, merchant.ID, event.DiscountCode)
	if err == nil {
		return affiliate, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup affiliate by code: %w", err)
	}

	name := event.CustomerName
	if name == "" {
		name = fallbackCustomerName
	}

	affiliate, err = s.affiliateService.Register(ctx, merchant, event.CustomerEmail, name, autoEnrollCommissionRate)
	if err == nil {
		return affiliate, nil
	}

	// a concurrent event may have enrolled this buyer already; a lost
	// uniqueness race resolves to the now-existing affiliate instead of
	// failing the ingestion
	if existing := s.findExistingAffiliate(ctx, merchant, event); existing != nil {
		return existing, nil
	}

	return nil, err
}

func (s *orderServiceImpl) findExistingAffiliate(ctx context.Context, merchant *model.Merchant, event *dto.OrderEvent) *model.Affiliate {
	if affiliate, err := s.affiliateRepo.FindByMerchantAndCode(ctx, merchant.ID, event.DiscountCode); err == nil {
		return affiliate
	}

	user, err := s.userRepo.FindByEmail(ctx, event.CustomerEmail, model.UserTypeAffiliate)
	if err != nil {
		return nil
	}

	affiliate, err := s.affiliateRepo.FindByUserAndMerchant(ctx, user.ID, merchant.ID)
	if err != nil {
		return nil
	}

	return affiliate
}
