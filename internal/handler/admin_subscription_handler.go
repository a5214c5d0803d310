package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "novalabs/internal/errors"
	"novalabs/internal/service"
)

// AdminSubscriptionHandler handles live subscription reads and management
// actions against the payment processor.
type AdminSubscriptionHandler struct {
	subscriptionService service.SubscriptionService
}

// NewAdminSubscriptionHandler creates a new admin subscription handler.
func NewAdminSubscriptionHandler(subscriptionService service.SubscriptionService) *AdminSubscriptionHandler {
	return &AdminSubscriptionHandler{subscriptionService: subscriptionService}
}

// List godoc
// @Summary List subscriptions from the payment processor
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter (default all)"
// @Param limit query int false "Page size (default 50)"
// @Success 200 {object} service.SubscriptionListResult
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/subscriptions [get]
func (h *AdminSubscriptionHandler) List(c echo.Context) error {
	status := c.QueryParam("status")
	if status == "" {
		status = "all"
	}
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit < 1 {
		limit = 50
	}

	result, err := h.subscriptionService.List(c.Request().Context(), status, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{Error: err.Error(), Code: "PROCESSOR_ERROR"})
	}
	return c.JSON(http.StatusOK, result)
}

// ManageSubscriptionRequest represents a subscription management action.
type ManageSubscriptionRequest struct {
	Action          string `json:"action" validate:"required"`
	SubscriptionID  string `json:"subscriptionId" validate:"required"`
	PaymentMethodID string `json:"paymentMethodId"`
}

// Manage godoc
// @Summary Apply a management action to a subscription
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ManageSubscriptionRequest true "Action"
// @Success 200 {object} service.ManagedSubscription
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/subscriptions [post]
func (h *AdminSubscriptionHandler) Manage(c echo.Context) error {
	var req ManageSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{Error: err.Error(), Code: "VALIDATION_ERROR"})
	}

	result, err := h.subscriptionService.Manage(c.Request().Context(), req.Action, req.SubscriptionID, service.ManageParams{
		PaymentMethodID: req.PaymentMethodID,
	})
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, result)
}
