package api

import (
	"github.com/labstack/echo/v4"
)

// Router aggregates all API handlers into one route registrar.
type Router struct {
	market     *MarketEchoHandler
	alerts     *AlertsEchoHandler
	models     *ModelsEchoHandler
	analysis   *AnalysisEchoHandler
	compliance *ComplianceEchoHandler
}

func NewRouter(
	market *MarketEchoHandler,
	alerts *AlertsEchoHandler,
	models *ModelsEchoHandler,
	analysis *AnalysisEchoHandler,
	compliance *ComplianceEchoHandler,
) *Router {
	return &Router{
		market:     market,
		alerts:     alerts,
		models:     models,
		analysis:   analysis,
		compliance: compliance,
	}
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	r.market.RegisterRoutes(e)
	r.alerts.RegisterRoutes(e)
	r.models.RegisterRoutes(e)
	r.analysis.RegisterRoutes(e)
	r.compliance.RegisterRoutes(e)
}
