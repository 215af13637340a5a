package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"TransferDesk/internal/domain/models"
	"TransferDesk/internal/usecase/transfer"
	xhttp "TransferDesk/pkg/http"
	"TransferDesk/pkg/http/middleware"
	xlogger "TransferDesk/pkg/logger"

	"github.com/labstack/echo/v4"
)

// TransfersEchoHandler exposes transfer sessions over HTTP.
type TransfersEchoHandler struct {
	logger    *xlogger.Logger
	registry  *transfer.Registry
	limiter   middleware.Limiter
	rps       float64
	burst     float64
	maxSubmit time.Duration
	origins   map[string]struct{}
}

func NewTransfersEchoHandler(logger *xlogger.Logger, registry *transfer.Registry) *TransfersEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &TransfersEchoHandler{logger: logger, registry: registry}
}

// WithRateLimit limits every transfer route per client IP.
func (h *TransfersEchoHandler) WithRateLimit(l middleware.Limiter, rps, burst float64) *TransfersEchoHandler {
	h.limiter, h.rps, h.burst = l, rps, burst
	return h
}

// WithSubmitLimit caps how long a submit may wait on the signer, whatever the
// client asks for.
func (h *TransfersEchoHandler) WithSubmitLimit(d time.Duration) *TransfersEchoHandler {
	h.maxSubmit = d
	return h
}

// WithAllowedOrigins lets browsers on origins open the session stream. The
// server's own origin is always allowed; "*" allows any.
func (h *TransfersEchoHandler) WithAllowedOrigins(origins []string) *TransfersEchoHandler {
	h.origins = make(map[string]struct{}, len(origins))
	for _, o := range origins {
		h.origins[strings.TrimRight(o, "/")] = struct{}{}
	}
	return h
}

func (h *TransfersEchoHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if _, ok := h.origins["*"]; ok {
		return true
	}
	if _, ok := h.origins[origin]; ok {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

func (h *TransfersEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/transfers")
	if h.limiter != nil && h.rps > 0 {
		g.Use(middleware.RateLimit(h.limiter, h.rps, h.burst))
	}
	g.POST("", h.Open)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Edit)
	g.DELETE("/:id", h.Cancel)
	g.POST("/:id/open", h.Reopen)
	g.POST("/:id/balance", h.UseBalance)
	g.POST("/:id/refresh", h.Refresh)
	g.POST("/:id/submit", h.Submit)
	g.GET("/:id/ws", h.Stream)
}

func (h *TransfersEchoHandler) Open(c echo.Context) error {
	req := &models.OpenTransferRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	s, err := h.registry.Open(ctx, req.Account, req.To)
	if err != nil {
		h.logger.Warn("open transfer failed", xlogger.String("account", req.Account), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapError(err))
	}
	return xhttp.CreatedResponse(c, s.View(ctx))
}

func (h *TransfersEchoHandler) Get(c echo.Context) error {
	s, err := h.registry.Get(c.Param("id"))
	if err != nil {
		return xhttp.AppErrorResponse(c, mapError(err))
	}
	return xhttp.SuccessResponse(c, s.View(c.Request().Context()))
}

func (h *TransfersEchoHandler) Edit(c echo.Context) error {
	req := &models.EditFieldRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	s, err := h.registry.Get(c.Param("id"))
	if err != nil {
		return xhttp.AppErrorResponse(c, mapError(err))
	}
	if err := s.EditField(models.Field(req.Field), req.Value); err != nil {
		return xhttp.AppErrorResponse(c, mapError(err))
	}
	return xhttp.SuccessResponse(c, s.View(c.Request().Context()))
}

func (h *TransfersEchoHandler) Reopen(c echo.Context) error {
	req := &models.ReopenTransferRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	s, err := h.registry.Get(c.Param("id"))
	if err != nil {
		return xhttp.AppErrorResponse(c, mapError(err))
	}
	s.Open(req.To)
	return xhttp.SuccessResponse(c, s.View(c.Request().Context()))
}

func (h *TransfersEchoHandler) UseBalance(c echo.Context) error {
	s, err := h.registry.Get(c.Param("id"))
	if err != nil {
		return xhttp.AppErrorResponse(c, mapError(err))
	}
	if err := s.UseBalance(); err != nil {
		return xhttp.AppErrorResponse(c, mapError(err))
	}
	return xhttp.SuccessResponse(c, s.View(c.Request().Context()))
}

func (h *TransfersEchoHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	s, err := h.registry.Refresh(ctx, c.Param("id"))
	if err != nil {
		h.logger.Warn("account refresh failed", xlogger.String("session", c.Param("id")), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapError(err))
	}
	return xhttp.SuccessResponse(c, s.View(ctx))
}

func (h *TransfersEchoHandler) Submit(c echo.Context) error {
	req := &models.SubmitTransferRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	s, err := h.registry.Get(c.Param("id"))
	if err != nil {
		return xhttp.AppErrorResponse(c, mapError(err))
	}

	timeout := time.Duration(req.TimeoutSeconds) * time.Second
	if h.maxSubmit > 0 && timeout > h.maxSubmit {
		timeout = h.maxSubmit
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
	defer cancel()

	outcome, fieldErrs, err := s.Submit(ctx)
	if err != nil {
		return xhttp.AppErrorResponse(c, mapError(err))
	}
	res := models.SubmitResult{Outcome: outcome, Errors: fieldErrs, View: s.View(c.Request().Context())}
	if len(fieldErrs) > 0 {
		return xhttp.BadRequestResponse(c, res)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *TransfersEchoHandler) Cancel(c echo.Context) error {
	s, err := h.registry.Get(c.Param("id"))
	if err != nil {
		return xhttp.AppErrorResponse(c, mapError(err))
	}
	s.Cancel()
	return xhttp.NoContentResponse(c)
}

// mapError translates session errors into API errors.
func mapError(err error) error {
	switch {
	case errors.Is(err, transfer.ErrSessionNotFound):
		return xhttp.NotFoundError("Transfer session not found.").WithError(err)
	case errors.Is(err, transfer.ErrAccountNotFound):
		return xhttp.NotFoundError("Account not found.").WithError(err)
	case errors.Is(err, transfer.ErrSessionClosed):
		return xhttp.ConflictError("Transfer session is closed.").WithError(err)
	case errors.Is(err, transfer.ErrSubmitInProgress):
		return xhttp.ConflictError("A submit is already in progress.").WithError(err)
	case errors.Is(err, transfer.ErrRequestChanged):
		return xhttp.ConflictError("The transfer changed while submitting. Please review and submit again.").WithError(err)
	case errors.Is(err, transfer.ErrNotAuthenticated):
		return xhttp.ForbiddenError("Log in to send transfers.").WithError(err)
	case errors.Is(err, transfer.ErrUnknownField):
		return xhttp.BadRequestError("Unknown field.").WithError(err)
	default:
		return xhttp.BadGatewayError("Upstream service unavailable.").WithError(err)
	}
}
