package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"affiliate-payout-service/internal/client"
	"affiliate-payout-service/internal/jobs"
	"affiliate-payout-service/internal/repository"

	"gorm.io/gorm"
)

type PayoutService interface {
	// PayoutAffiliate schedules one settlement task per unpaid order of
	// the affiliate and returns how many were scheduled.
	PayoutAffiliate(ctx context.Context, affiliateID uint) (int, error)
	// SettleOrderPayout sends the owed commission and marks the order
	// paid in one atomic unit. Any failure rolls both back so the
	// scheduler can retry.
	SettleOrderPayout(ctx context.Context, orderID uint) error
}

type payoutServiceImpl struct {
	db            *gorm.DB
	gateway       client.PaymentGateway
	scheduler     jobs.Scheduler
	logger        *slog.Logger
	orderRepo     repository.OrderRepository
	affiliateRepo repository.AffiliateRepository
	userRepo      repository.UserRepository
}

func NewPayoutService(
	db *gorm.DB,
	gateway client.PaymentGateway,
	scheduler jobs.Scheduler,
	logger *slog.Logger,
	orderRepo repository.OrderRepository,
	affiliateRepo repository.AffiliateRepository,
	userRepo repository.UserRepository,
) PayoutService {
	return &payoutServiceImpl{
		db:            db,
		gateway:       gateway,
		scheduler:     scheduler,
		logger:        logger,
		orderRepo:     orderRepo,
		affiliateRepo: affiliateRepo,
		userRepo:      userRepo,
	}
}

func (s *payoutServiceImpl) PayoutAffiliate(ctx context.Context, affiliateID uint) (int, error) {
	if _, err := s.affiliateRepo.Find(ctx, affiliateID); err != nil {
		return 0, fmt.Errorf("resolve affiliate: %w", err)
	}

	orders, err := s.orderRepo.FindUnpaidByAffiliate(ctx, affiliateID)
	if err != nil {
		return 0, fmt.Errorf("list unpaid orders: %w", err)
	}

	for _, order := range orders {
		orderID := order.ID
		s.scheduler.Enqueue(jobs.Task{
			Name: fmt.Sprintf("payout-order-%d", orderID),
			Run: func(taskCtx context.Context) error {
				return s.SettleOrderPayout(taskCtx, orderID)
			},
		})
	}

	s.logger.InfoContext(ctx, "payout run scheduled",
		"affiliate_id", affiliateID,
		"orders", len(orders),
	)

	return len(orders), nil
}

func (s *payoutServiceImpl) SettleOrderPayout(ctx context.Context, orderID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.LockUnpaid(ctx, tx, orderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// already settled by an earlier run
			return nil
		}
		if err != nil {
			return fmt.Errorf("select order for payout: %w", err)
		}
		if order.AffiliateID == nil {
			return nil
		}

		affiliate, err := s.affiliateRepo.Find(ctx, *order.AffiliateID)
		if err != nil {
			return fmt.Errorf("resolve affiliate: %w", err)
		}
		user, err := s.userRepo.Find(ctx, affiliate.UserID)
		if err != nil {
			return fmt.Errorf("resolve affiliate identity: %w", err)
		}

		// a timeout here is a failure: the order must stay UNPAID
		if err := s.gateway.SendPayout(ctx, user.Email, order.CommissionOwed); err != nil {
			return fmt.Errorf("send payout: %w", err)
		}

		if err := s.orderRepo.MarkPaid(ctx, tx, order.ID); err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}

		return nil
	})
}
