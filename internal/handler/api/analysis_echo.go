package api

import (
	models "InvestAgent/internal/domain/models"
	"InvestAgent/internal/usecase"
	xhttp "InvestAgent/pkg/http"
	xlogger "InvestAgent/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AnalysisEchoHandler runs investment analyses, sync and queued.
type AnalysisEchoHandler struct {
	logger *xlogger.Logger
	orch   *usecase.AnalysisOrchestrator
	async  *usecase.AsyncAnalysis
}

func NewAnalysisEchoHandler(logger *xlogger.Logger, orch *usecase.AnalysisOrchestrator, async *usecase.AsyncAnalysis) *AnalysisEchoHandler {
	return &AnalysisEchoHandler{logger: logger, orch: orch, async: async}
}

func (h *AnalysisEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/analysis")
	g.POST("", h.Analyze)
	g.POST("/async", h.Submit)
	g.GET("/async/:id", h.Result)
}

func (h *AnalysisEchoHandler) toTask(req *models.AnalysisRequest) *models.AnalysisTask {
	return &models.AnalysisTask{
		AnalysisType: req.AnalysisType,
		Investment:   req.Investment,
		Horizon:      req.Horizon,
		MaxTokens:    req.MaxTokens,
		Temperature:  req.Temperature,
	}
}

func (h *AnalysisEchoHandler) Analyze(c echo.Context) error {
	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	analysis, err := h.orch.Analyze(c.Request().Context(), h.toTask(req))
	if err != nil {
		h.logger.Error("analysis failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("analysis failed: %v", err))
	}
	return xhttp.SuccessResponse(c, analysis)
}

func (h *AnalysisEchoHandler) Submit(c echo.Context) error {
	if h.async == nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("async analysis disabled: queue not configured"))
	}
	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	id, err := h.async.Submit(c.Request().Context(), h.toTask(req))
	if err != nil {
		h.logger.Error("analysis enqueue failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("enqueue failed: %v", err))
	}
	return xhttp.CreatedResponse(c, map[string]string{"request_id": id})
}

func (h *AnalysisEchoHandler) Result(c echo.Context) error {
	if h.async == nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("async analysis disabled: queue not configured"))
	}
	id := c.Param("id")
	analysis, ready, err := h.async.Result(c.Request().Context(), id)
	if err != nil {
		h.logger.Error("analysis result lookup failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if !ready {
		return xhttp.SuccessResponse(c, map[string]string{"request_id": id, "status": "pending"})
	}
	return xhttp.SuccessResponse(c, analysis)
}
