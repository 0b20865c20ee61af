package api

import (
	models "InvestAgent/internal/domain/models"
	domsvc "InvestAgent/internal/domain/service"
	xhttp "InvestAgent/pkg/http"
	xlogger "InvestAgent/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ModelsEchoHandler exposes model selection and registry operations.
type ModelsEchoHandler struct {
	logger   *xlogger.Logger
	selector domsvc.ModelSelector
}

func NewModelsEchoHandler(logger *xlogger.Logger, selector domsvc.ModelSelector) *ModelsEchoHandler {
	return &ModelsEchoHandler{logger: logger, selector: selector}
}

func (h *ModelsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/models")
	g.POST("/select", h.Select)
	g.POST("/register", h.Register)
	g.GET("/:id/health", h.Health)
	g.GET("/:id/fallback", h.Fallback)
}

func (h *ModelsEchoHandler) Select(c echo.Context) error {
	req := &models.SelectModelRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	profile, err := h.selector.SelectModel(c.Request().Context(), &models.TaskRequest{
		TaskType:         req.TaskType,
		Capabilities:     req.Capabilities,
		MaxCostPer1K:     req.MaxCostPer1K,
		LatencySensitive: req.LatencySensitive,
		MinContextTokens: req.MinContextTokens,
	})
	if err != nil {
		h.logger.Warn("model selection failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError(err.Error()))
	}
	return xhttp.SuccessResponse(c, profile)
}

func (h *ModelsEchoHandler) Register(c echo.Context) error {
	req := &models.RegisterModelRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	profile := &models.ModelProfile{
		ID:              req.ID,
		Provider:        req.Provider,
		Family:          req.Family,
		Capabilities:    req.Capabilities,
		InputCostPer1K:  req.InputCostPer1K,
		OutputCostPer1K: req.OutputCostPer1K,
		MaxTokens:       req.MaxTokens,
		ContextWindow:   req.ContextWindow,
		TargetLatencyMs: req.TargetLatencyMs,
		FallbackID:      req.FallbackID,
	}
	if err := h.selector.RegisterCustomModel(c.Request().Context(), profile); err != nil {
		h.logger.Warn("model registration failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}
	return xhttp.CreatedResponse(c, profile)
}

func (h *ModelsEchoHandler) Health(c echo.Context) error {
	id := c.Param("id")
	health, err := h.selector.GetModelHealth(c.Request().Context(), id)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("model %s not found", id))
	}
	return xhttp.SuccessResponse(c, health)
}

func (h *ModelsEchoHandler) Fallback(c echo.Context) error {
	id := c.Param("id")
	fb, err := h.selector.GetFallbackModel(c.Request().Context(), id)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError(err.Error()))
	}
	return xhttp.SuccessResponse(c, fb)
}
