package api

import (
	"errors"

	models "CoinPulse/internal/domain/models"
	domrepo "CoinPulse/internal/domain/repository"
	"CoinPulse/internal/market"
	"CoinPulse/internal/service/exchange"
	"CoinPulse/internal/usecase"
	xhttp "CoinPulse/pkg/http"
	xlogger "CoinPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MarketEchoHandler exposes the market engine over Echo.
type MarketEchoHandler struct {
	logger *xlogger.Logger
	market *usecase.MarketUseCase
}

// NewMarketEchoHandler creates the handler.
func NewMarketEchoHandler(logger *xlogger.Logger, market *usecase.MarketUseCase) *MarketEchoHandler {
	return &MarketEchoHandler{logger: logger, market: market}
}

// RegisterRoutes wires the API routes.
func (h *MarketEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/price", h.Price)
	g.GET("/indicators", h.Indicators)
	g.GET("/zones", h.Zones)
	g.GET("/analysis", h.Analysis)
	g.GET("/candles", h.Candles)

	e.GET("/healthz", h.Health)
}

// Price handles GET /api/price.
func (h *MarketEchoHandler) Price(c echo.Context) error {
	req := &models.PriceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.market.GetPrice(c.Request().Context(), req.Symbol)
	if err != nil {
		return h.fail(c, "price", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Indicators handles GET /api/indicators.
func (h *MarketEchoHandler) Indicators(c echo.Context) error {
	req := &models.IndicatorsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	interval := domrepo.NormalizeInterval(req.Interval)

	res, err := h.market.GetIndicators(c.Request().Context(), req.Symbol, interval, req.N)
	if err != nil {
		return h.fail(c, "indicators", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Zones handles GET /api/zones.
func (h *MarketEchoHandler) Zones(c echo.Context) error {
	req := &models.ZonesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.market.GetZones(c.Request().Context(), req.Symbol)
	if err != nil {
		return h.fail(c, "zones", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Analysis handles GET /api/analysis.
func (h *MarketEchoHandler) Analysis(c echo.Context) error {
	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.market.GetAnalysis(c.Request().Context(), req.Symbol)
	if err != nil {
		return h.fail(c, "analysis", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

// Candles handles GET /api/candles.
func (h *MarketEchoHandler) Candles(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	interval := domrepo.NormalizeInterval(req.Interval)

	res, err := h.market.GetCandles(c.Request().Context(), req.Symbol, interval, req.N)
	if err != nil {
		return h.fail(c, "candles", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Health handles GET /healthz.
func (h *MarketEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// fail maps domain errors onto HTTP statuses and logs the failure.
func (h *MarketEchoHandler) fail(c echo.Context, op string, err error) error {
	h.logger.Error(op+" usecase error", xlogger.Error(err))

	switch {
	case errors.Is(err, market.ErrInsufficientData):
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("no quote source responded").WithError(err))
	case errors.Is(err, market.ErrNoMarketData):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no market data for symbol").WithError(err))
	case errors.Is(err, exchange.ErrUnsupportedSymbol):
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("unsupported symbol").WithError(err))
	default:
		return xhttp.AppErrorResponse(c, xhttp.UpstreamError("upstream fetch failed").WithError(err))
	}
}
