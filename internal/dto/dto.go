package dto

import "github.com/shopspring/decimal"

// OrderEvent is the raw purchase event delivered by a storefront webhook.
type OrderEvent struct {
	ExternalOrderID string  `json:"order_id"`
	SubtotalPrice   float64 `json:"subtotal_price"`
	MerchantDomain  string  `json:"merchant_domain"`
	DiscountCode    string  `json:"discount_code"`
	CustomerEmail   string  `json:"customer_email"`
	CustomerName    string  `json:"customer_name"`
}

type IngestResponse struct {
	Outcome string `json:"outcome"`
	OrderID string `json:"order_id,omitempty"`
}

type MerchantRegistration struct {
	Domain                      string  `json:"domain"`
	Name                        string  `json:"name"`
	Email                       string  `json:"email"`
	APIKey                      string  `json:"api_key"`
	TurnCustomersIntoAffiliates bool    `json:"turn_customers_into_affiliates"`
	DefaultCommissionRate       float64 `json:"default_commission_rate"`
}

type MerchantUpdate struct {
	Domain string `json:"domain"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	APIKey string `json:"api_key"`
}

type AffiliateRegistration struct {
	Email          string  `json:"email"`
	Name           string  `json:"name"`
	CommissionRate float64 `json:"commission_rate"`
}

type AffiliateResponse struct {
	ID             uint            `json:"id"`
	MerchantID     uint            `json:"merchant_id"`
	DiscountCode   string          `json:"discount_code"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
}

type OrderStats struct {
	Count           int             `json:"count"`
	Revenue         decimal.Decimal `json:"revenue"`
	CommissionsOwed decimal.Decimal `json:"commissions_owed"`
}

type PayoutResponse struct {
	Scheduled int `json:"scheduled"`
}
