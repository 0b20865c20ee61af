package api

import (
	models "InvestAgent/internal/domain/models"
	domsvc "InvestAgent/internal/domain/service"
	xhttp "InvestAgent/pkg/http"
	xlogger "InvestAgent/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ComplianceEchoHandler exposes compliance checks and regulation lookup.
type ComplianceEchoHandler struct {
	logger  *xlogger.Logger
	checker domsvc.ComplianceChecker
}

func NewComplianceEchoHandler(logger *xlogger.Logger, checker domsvc.ComplianceChecker) *ComplianceEchoHandler {
	return &ComplianceEchoHandler{logger: logger, checker: checker}
}

func (h *ComplianceEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/compliance/check", h.Check)
	e.GET("/api/regulations/:id", h.Regulation)
}

func (h *ComplianceEchoHandler) Check(c echo.Context) error {
	req := &models.ComplianceCheckRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	result, err := h.checker.ProcessComplianceRequest(c.Request().Context(), &models.ComplianceCheck{
		ActivityType: req.ActivityType,
		Jurisdiction: req.Jurisdiction,
		AssetClass:   req.AssetClass,
		Amount:       req.Amount,
		Counterparty: req.Counterparty,
		Description:  req.Description,
		WithLLM:      req.WithLLM,
	})
	if err != nil {
		h.logger.Error("compliance check failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, result)
}

func (h *ComplianceEchoHandler) Regulation(c echo.Context) error {
	id := c.Param("id")
	reg, err := h.checker.GetRegulationDetails(c.Request().Context(), id)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("regulation %s not found", id))
	}
	return xhttp.SuccessResponse(c, reg)
}
