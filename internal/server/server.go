package server

import (
	"log/slog"

	"affiliate-payout-service/internal/handler"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo             *echo.Echo
	orderHandler     *handler.OrderHandler
	merchantHandler  *handler.MerchantHandler
	affiliateHandler *handler.AffiliateHandler
}

func NewServer(
	logger *slog.Logger,
	orderHandler *handler.OrderHandler,
	merchantHandler *handler.MerchantHandler,
	affiliateHandler *handler.AffiliateHandler,
) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"error", v.Error,
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:             e,
		orderHandler:     orderHandler,
		merchantHandler:  merchantHandler,
		affiliateHandler: affiliateHandler,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- storefront webhooks --------
	api.POST("/webhooks/orders", s.orderHandler.IngestOrder)

	// -------- merchants --------
	api.POST("/merchants", s.merchantHandler.CreateMerchant)
	api.PUT("/merchants/:userID", s.merchantHandler.UpdateMerchant)
	api.GET("/merchants/:merchantID/stats", s.merchantHandler.OrderStats)
	api.POST("/merchants/:merchantID/affiliates", s.affiliateHandler.RegisterAffiliate)

	// -------- payouts --------
	api.POST("/affiliates/:affiliateID/payouts", s.affiliateHandler.TriggerPayout)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
