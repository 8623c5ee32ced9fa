package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	UserTypeMerchant  = "merchant"
	UserTypeAffiliate = "affiliate"
)

const (
	PayoutStatusUnpaid = "UNPAID"
	PayoutStatusPaid   = "PAID"
)

// User is the identity record shared by merchants and affiliates,
// distinguished by Type.
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:255;not null"`
	Email     string `gorm:"size:255;uniqueIndex;not null"`
	Password  string `gorm:"size:255;not null"`
	Type      string `gorm:"size:16;index;not null"` // merchant, affiliate
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Merchant struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"uniqueIndex;not null"`
	Domain      string `gorm:"size:255;uniqueIndex;not null"`
	DisplayName string `gorm:"size:255;not null"`
	// onboarding preference; buyer-to-affiliate conversion currently
	// applies to every merchant regardless
	TurnCustomersIntoAffiliates bool            `gorm:"not null;default:false"`
	DefaultCommissionRate       decimal.Decimal `gorm:"type:decimal(8,4);not null"`
	CreatedAt                   time.Time
	UpdatedAt                   time.Time
}

type Affiliate struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"uniqueIndex;not null"`
	// discount codes resolve to exactly one affiliate per merchant
	MerchantID     uint            `gorm:"not null;uniqueIndex:ux_affiliates_merchant_code"`
	CommissionRate decimal.Decimal `gorm:"type:decimal(8,4);not null"`
	DiscountCode   string          `gorm:"size:64;not null;uniqueIndex:ux_affiliates_merchant_code"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Order struct {
	ID uint `gorm:"primaryKey"`
	// idempotency key: re-ingesting the same external id is a no-op
	ExternalOrderID string          `gorm:"size:64;uniqueIndex;not null"`
	MerchantID      uint            `gorm:"index;not null"`
	AffiliateID     *uint           `gorm:"index"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CommissionOwed  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PayoutStatus    string          `gorm:"size:16;index;not null"` // UNPAID, PAID
	DiscountCode    string          `gorm:"size:64"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
