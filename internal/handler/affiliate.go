package handler

import (
	"errors"
	"net/http"

	"affiliate-payout-service/internal/dto"
	"affiliate-payout-service/internal/repository"
	"affiliate-payout-service/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AffiliateHandler struct {
	affiliateService service.AffiliateService
	payoutService    service.PayoutService
	merchantRepo     repository.MerchantRepository
}

func NewAffiliateHandler(
	affiliateService service.AffiliateService,
	payoutService service.PayoutService,
	merchantRepo repository.MerchantRepository,
) *AffiliateHandler {
	return &AffiliateHandler{
		affiliateService: affiliateService,
		payoutService:    payoutService,
		merchantRepo:     merchantRepo,
	}
}

func (h *AffiliateHandler) RegisterAffiliate(c echo.Context) error {
	ctx := c.Request().Context()

	merchantID, err := paramUint(c, "merchantID")
	if err != nil {
		return err
	}

	var req dto.AffiliateRegistration
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing email")
	}

	merchant, err := h.merchantRepo.Find(ctx, merchantID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "merchant not found")
	}
	if err != nil {
		return err
	}

	affiliate, err := h.affiliateService.Register(ctx, merchant, req.Email, req.Name, decimal.NewFromFloat(req.CommissionRate))
	if err != nil {
		var createErr *service.AffiliateCreateError
		if errors.As(err, &createErr) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, createErr.Error())
		}
		return err
	}

	return c.JSON(http.StatusCreated, dto.AffiliateResponse{
		ID:             affiliate.ID,
		MerchantID:     affiliate.MerchantID,
		DiscountCode:   affiliate.DiscountCode,
		CommissionRate: affiliate.CommissionRate,
	})
}

// TriggerPayout starts a payout run for one affiliate. Settlement happens
// asynchronously; the response only says how many tasks were scheduled.
func (h *AffiliateHandler) TriggerPayout(c echo.Context) error {
	ctx := c.Request().Context()

	affiliateID, err := paramUint(c, "affiliateID")
	if err != nil {
		return err
	}

	scheduled, err := h.payoutService.PayoutAffiliate(ctx, affiliateID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "affiliate not found")
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusAccepted, dto.PayoutResponse{Scheduled: scheduled})
}
