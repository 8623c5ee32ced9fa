package handler

import (
	"net/http"
	"strconv"
	"time"

	"affiliate-payout-service/internal/dto"
	"affiliate-payout-service/internal/service"

	"github.com/labstack/echo/v4"
)

type MerchantHandler struct {
	merchantService service.MerchantService
}

func NewMerchantHandler(merchantService service.MerchantService) *MerchantHandler {
	return &MerchantHandler{
		merchantService: merchantService,
	}
}

func (h *MerchantHandler) CreateMerchant(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.MerchantRegistration
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if req.Domain == "" || req.Email == "" || req.APIKey == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "domain, email and api_key are required")
	}

	merchant, err := h.merchantService.Register(ctx, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, merchant)
}

func (h *MerchantHandler) UpdateMerchant(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := paramUint(c, "userID")
	if err != nil {
		return err
	}

	var req dto.MerchantUpdate
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	if err := h.merchantService.UpdateMerchant(ctx, userID, &req); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *MerchantHandler) OrderStats(c echo.Context) error {
	ctx := c.Request().Context()

	merchantID, err := paramUint(c, "merchantID")
	if err != nil {
		return err
	}

	from, err := time.Parse(time.DateOnly, c.QueryParam("from"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid from date, want YYYY-MM-DD")
	}
	to, err := time.Parse(time.DateOnly, c.QueryParam("to"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid to date, want YYYY-MM-DD")
	}
	// inclusive range: stretch "to" to the end of its day
	to = to.Add(24*time.Hour - time.Nanosecond)

	stats, err := h.merchantService.OrderStats(ctx, merchantID, from, to)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, stats)
}

func paramUint(c echo.Context, name string) (uint, error) {
	raw := c.Param(name)
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return uint(v), nil
}
