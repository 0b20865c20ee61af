package api

import (
	"encoding/json"
	"net/http"
	"time"

	models "InvestAgent/internal/domain/models"
	domrepo "InvestAgent/internal/domain/repository"
	icache "InvestAgent/internal/service/cache"
	"InvestAgent/internal/service/ratelimit"
	"InvestAgent/internal/usecase"
	pkgcache "InvestAgent/pkg/cache"
	xhttp "InvestAgent/pkg/http"
	xlogger "InvestAgent/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MarketEchoHandler serves tick and candle queries.
type MarketEchoHandler struct {
	logger  *xlogger.Logger
	ticks   domrepo.TickStore
	candles *usecase.CandlesUseCase
	cache   icache.BytesCache
	rl      *ratelimit.Limiter
}

func NewMarketEchoHandler(logger *xlogger.Logger, ticks domrepo.TickStore, candles *usecase.CandlesUseCase) *MarketEchoHandler {
	return &MarketEchoHandler{logger: logger, ticks: ticks, candles: candles, rl: ratelimit.New()}
}

// SetCache enables short-TTL response caching for candle queries.
func (h *MarketEchoHandler) SetCache(c icache.BytesCache) { h.cache = c }

func (h *MarketEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/market")
	g.GET("/ticks", h.Ticks)
	g.GET("/candles", h.Candles)
}

func (h *MarketEchoHandler) Ticks(c echo.Context) error {
	req := &models.TicksRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":ticks", 5, 2) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limited")
	}

	now := time.Now()
	from := xhttp.ParseTimeDefault(req.From, now.Add(-time.Hour))
	to := xhttp.ParseTimeDefault(req.To, now)

	rows, err := h.ticks.Query(c.Request().Context(), req.Symbol, from, to, req.Limit)
	if err != nil {
		h.logger.Error("ticks query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *MarketEchoHandler) Candles(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":candles", 5, 2) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limited")
	}

	now := time.Now()
	from := xhttp.ParseTimeDefault(req.From, now.Add(-time.Hour))
	to := xhttp.ParseTimeDefault(req.To, now)
	tf := domrepo.NormalizeTimeframe(req.TF)

	cacheKey := pkgcache.GenerateKeyWithParams("candles", req.Symbol, tf, req.From, req.To)
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
			h.logger.Warn("candles cache_get_error", xlogger.Error(err))
		} else if ok {
			return xhttp.SuccessResponse(c, json.RawMessage(b))
		}
	}

	res, err := h.candles.GetCandles(c.Request().Context(), usecase.GetCandlesParams{
		Symbol:    req.Symbol,
		From:      from,
		To:        to,
		Timeframe: tf,
		Limit:     req.Limit,
	})
	if err != nil {
		h.logger.Error("candles usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	if h.cache != nil {
		if b, err := json.Marshal(res); err == nil {
			if err := h.cache.SetBytes(cacheKey, b, 10*time.Second); err != nil {
				h.logger.Warn("candles cache_set_error", xlogger.Error(err))
			}
		}
	}
	return xhttp.SuccessResponse(c, res)
}
