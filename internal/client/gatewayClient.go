package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"affiliate-payout-service/internal/config"

	"github.com/shopspring/decimal"
)

// PaymentGateway is the remote provider that issues discount codes and
// transfers commissions. Any error means the operation did not happen.
type PaymentGateway interface {
	CreateDiscountCode(ctx context.Context, merchantDomain string) (*DiscountCode, error)
	SendPayout(ctx context.Context, email string, amount decimal.Decimal) error
}

type DiscountCode struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

type gatewayClientImpl struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewGatewayClient(cfg *config.Gateway) PaymentGateway {
	return &gatewayClientImpl{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

func (c *gatewayClientImpl) CreateDiscountCode(ctx context.Context, merchantDomain string) (*DiscountCode, error) {
	payload := map[string]string{
		"merchant_domain": merchantDomain,
	}

	var code DiscountCode
	if err := c.post(ctx, "/v1/discount-codes", payload, &code); err != nil {
		return nil, fmt.Errorf("gateway create discount code: %w", err)
	}
	if code.Code == "" {
		return nil, fmt.Errorf("gateway create discount code: empty code in response")
	}

	return &code, nil
}

func (c *gatewayClientImpl) SendPayout(ctx context.Context, email string, amount decimal.Decimal) error {
	payload := map[string]string{
		"email":  email,
		"amount": amount.StringFixed(2),
	}

	if err := c.post(ctx, "/v1/payouts", payload, nil); err != nil {
		return fmt.Errorf("gateway send payout: %w", err)
	}

	return nil
}

func (c *gatewayClientImpl) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal req payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}
