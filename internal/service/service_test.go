package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"affiliate-payout-service/internal/client"
	"affiliate-payout-service/internal/model"
	"affiliate-payout-service/internal/notify"
	"affiliate-payout-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	// per-test in-memory database to avoid cross-test interference
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Merchant{},
		&model.Affiliate{},
		&model.Order{},
	))
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type payoutCall struct {
	email  string
	amount decimal.Decimal
}

// stubGateway records payouts and hands out unique discount codes unless
// told to fail.
type stubGateway struct {
	mu         sync.Mutex
	payouts    []payoutCall
	fixedCode  string
	codeErr    error
	payoutErr  error
	codesGiven int
}

func (g *stubGateway) CreateDiscountCode(ctx context.Context, merchantDomain string) (*client.DiscountCode, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.codeErr != nil {
		return nil, g.codeErr
	}
	g.codesGiven++
	code := g.fixedCode
	if code == "" {
		code = uuid.NewString()
	}
	return &client.DiscountCode{ID: uuid.NewString(), Code: code}, nil
}

func (g *stubGateway) SendPayout(ctx context.Context, email string, amount decimal.Decimal) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.payoutErr != nil {
		return g.payoutErr
	}
	g.payouts = append(g.payouts, payoutCall{email: email, amount: amount})
	return nil
}

func (g *stubGateway) payoutCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.payouts)
}

type env struct {
	db            *gorm.DB
	gateway       *stubGateway
	userRepo      repository.UserRepository
	merchantRepo  repository.MerchantRepository
	affiliateRepo repository.AffiliateRepository
	orderRepo     repository.OrderRepository
	affiliates    AffiliateService
	orders        OrderService
	merchants     MerchantService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := setupDB(t)
	gateway := &stubGateway{}
	logger := discardLogger()

	userRepo := repository.NewUserRepository(db)
	merchantRepo := repository.NewMerchantRepository(db)
	affiliateRepo := repository.NewAffiliateRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	affiliates := NewAffiliateService(db, gateway, notify.NewLogMailer(logger), logger, userRepo, affiliateRepo)

	return &env{
		db:            db,
		gateway:       gateway,
		userRepo:      userRepo,
		merchantRepo:  merchantRepo,
		affiliateRepo: affiliateRepo,
		orderRepo:     orderRepo,
		affiliates:    affiliates,
		orders:        NewOrderService(db, affiliates, orderRepo, merchantRepo, affiliateRepo, userRepo),
		merchants:     NewMerchantService(db, userRepo, merchantRepo, orderRepo),
	}
}

func createMerchant(t *testing.T, db *gorm.DB, domain string) *model.Merchant {
	t.Helper()
	user := &model.User{
		Name:     domain,
		Email:    "owner@" + domain,
		Password: "hashed",
		Type:     model.UserTypeMerchant,
	}
	require.NoError(t, db.Create(user).Error)

	merchant := &model.Merchant{
		UserID:                user.ID,
		Domain:                domain,
		DisplayName:           domain,
		DefaultCommissionRate: decimal.NewFromFloat(0.1),
	}
	require.NoError(t, db.Create(merchant).Error)
	return merchant
}

func createAffiliate(t *testing.T, db *gorm.DB, merchant *model.Merchant, email, code string, rate float64) *model.Affiliate {
	t.Helper()
	user := &model.User{
		Name:     email,
		Email:    email,
		Password: "hashed",
		Type:     model.UserTypeAffiliate,
	}
	require.NoError(t, db.Create(user).Error)

	affiliate := &model.Affiliate{
		UserID:         user.ID,
		MerchantID:     merchant.ID,
		CommissionRate: decimal.NewFromFloat(rate),
		DiscountCode:   code,
	}
	require.NoError(t, db.Create(affiliate).Error)
	return affiliate
}

func createOrder(t *testing.T, db *gorm.DB, merchant *model.Merchant, affiliate *model.Affiliate, externalID string, subtotal, commission float64) *model.Order {
	t.Helper()
	order := &model.Order{
		ExternalOrderID: externalID,
		MerchantID:      merchant.ID,
		Subtotal:        decimal.NewFromFloat(subtotal),
		CommissionOwed:  decimal.NewFromFloat(commission),
		PayoutStatus:    model.PayoutStatusUnpaid,
	}
	if affiliate != nil {
		order.AffiliateID = &affiliate.ID
		order.DiscountCode = affiliate.DiscountCode
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func requireDecimal(t *testing.T, want float64, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(decimal.NewFromFloat(want)), "want %v, got %s", want, got)
}
