package notify

import (
	"context"
	"log/slog"

	"affiliate-payout-service/internal/model"
)

// Mailer delivers affiliate notifications. Delivery is best-effort and
// always happens outside the registration transaction.
type Mailer interface {
	SendAffiliateWelcome(ctx context.Context, email string, affiliate *model.Affiliate) error
}

type logMailer struct {
	logger *slog.Logger
}

// NewLogMailer returns a Mailer that records deliveries to the log.
// Stand-in until a real mail provider is wired up.
func NewLogMailer(logger *slog.Logger) Mailer {
	return &logMailer{
		logger: logger,
	}
}

func (m *logMailer) SendAffiliateWelcome(ctx context.Context, email string, affiliate *model.Affiliate) error {
	m.logger.InfoContext(ctx, "affiliate welcome mail",
		"email", email,
		"merchant_id", affiliate.MerchantID,
		"discount_code", affiliate.DiscountCode,
	)
	return nil
}
