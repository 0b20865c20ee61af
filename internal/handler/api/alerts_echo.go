package api

import (
	"time"

	models "InvestAgent/internal/domain/models"
	domrepo "InvestAgent/internal/domain/repository"
	xhttp "InvestAgent/pkg/http"
	xlogger "InvestAgent/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AlertsEchoHandler manages alert rule CRUD.
type AlertsEchoHandler struct {
	logger          *xlogger.Logger
	store           domrepo.AlertStore
	defaultCooldown time.Duration
}

func NewAlertsEchoHandler(logger *xlogger.Logger, store domrepo.AlertStore, defaultCooldown time.Duration) *AlertsEchoHandler {
	if defaultCooldown <= 0 {
		defaultCooldown = time.Minute
	}
	return &AlertsEchoHandler{logger: logger, store: store, defaultCooldown: defaultCooldown}
}

func (h *AlertsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/alerts")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.DELETE("/:id", h.Delete)
}

func (h *AlertsEchoHandler) Create(c echo.Context) error {
	req := &models.CreateAlertRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	cooldown := time.Duration(req.Cooldown) * time.Second
	if cooldown <= 0 {
		cooldown = h.defaultCooldown
	}
	rule := &models.AlertRule{
		ID:        uuid.NewString(),
		Symbol:    req.Symbol,
		Condition: req.Condition,
		Threshold: req.Threshold,
		Window:    time.Duration(req.WindowSec) * time.Second,
		Channels:  req.Channels,
		Cooldown:  cooldown,
		Enabled:   true,
		CreatedAt: time.Now(),
	}
	if err := rule.Validate(); err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}

	if err := h.store.Save(c.Request().Context(), rule); err != nil {
		h.logger.Error("alert save error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, rule)
}

func (h *AlertsEchoHandler) List(c echo.Context) error {
	rules, err := h.store.List(c.Request().Context())
	if err != nil {
		h.logger.Error("alert list error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rules, int64(len(rules)))
}

func (h *AlertsEchoHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if _, err := h.store.Get(c.Request().Context(), id); err != nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("alert rule %s not found", id))
	}
	if err := h.store.Delete(c.Request().Context(), id); err != nil {
		h.logger.Error("alert delete error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}
