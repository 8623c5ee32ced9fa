package handler

import (
	"errors"
	"net/http"

	"affiliate-payout-service/internal/dto"
	"affiliate-payout-service/internal/service"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// IngestOrder receives storefront order webhooks. Duplicate and
// unknown-merchant events still answer 200 so the sender never retries
// them; the outcome tag says what actually happened.
func (h *OrderHandler) IngestOrder(c echo.Context) error {
	ctx := c.Request().Context()

	var event dto.OrderEvent
	if err := c.Bind(&event); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if event.MerchantDomain == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing merchant_domain")
	}
	if event.CustomerEmail == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing customer_email")
	}
	if event.SubtotalPrice < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "subtotal_price must not be negative")
	}

	result, err := h.orderService.ProcessOrder(ctx, &event)
	if err != nil {
		var createErr *service.AffiliateCreateError
		if errors.As(err, &createErr) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, createErr.Error())
		}
		return err
	}

	resp := dto.IngestResponse{Outcome: string(result.Outcome)}
	if result.Order != nil {
		resp.OrderID = result.Order.ExternalOrderID
	}

	return c.JSON(http.StatusOK, resp)
}
