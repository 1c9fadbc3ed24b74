// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/socialbucket/socialbucket/app/dto"
	businessflow "github.com/socialbucket/socialbucket/business_flow"
	"github.com/socialbucket/socialbucket/utils"
)

// DispatchHandlerInterface defines the contract for dispatch handlers
type DispatchHandlerInterface interface {
	PostNow(c fiber.Ctx) error
}

// DispatchHandler handles manual dispatch HTTP requests
type DispatchHandler struct {
	dispatchFlow businessflow.DispatchFlow
	validator    *validator.Validate
}

// NewDispatchHandler creates a new dispatch handler
func NewDispatchHandler(dispatchFlow businessflow.DispatchFlow) *DispatchHandler {
	return &DispatchHandler{
		dispatchFlow: dispatchFlow,
		validator:    validator.New(),
	}
}

func (h *DispatchHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *DispatchHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// PostNow dispatches a schedule immediately, outside its recurrence
func (h *DispatchHandler) PostNow(c fiber.Ctx) error {
	var req dto.PostNowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	// Fan-out waits for every network, so this endpoint gets a longer timeout
	result, err := h.dispatchFlow.PostNow(h.createRequestContextWithTimeout(c, "/api/v1/dispatch/post-now", 2*time.Minute), &req, userID, metadata)
	if err != nil {
		if businessflow.IsScheduleNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Schedule not found", "SCHEDULE_NOT_FOUND", nil)
		}
		if businessflow.IsScheduleAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied: schedule belongs to another user", "SCHEDULE_ACCESS_DENIED", nil)
		}
		if businessflow.IsScheduleAlreadySent(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Already sent", "SCHEDULE_ALREADY_SENT", nil)
		}
		if businessflow.IsAnnualTooSoon(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Annual schedule was sent less than a year ago", "ANNUAL_TOO_SOON", nil)
		}
		if businessflow.IsDispatchInFlight(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "A dispatch for this schedule is already in flight", "DISPATCH_IN_FLIGHT", nil)
		}
		if businessflow.IsNoImageDue(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "No image is due for this schedule", "NO_IMAGE_DUE", nil)
		}

		log.Println("Manual dispatch failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Dispatch failed", "DISPATCH_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Dispatch completed", result)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *DispatchHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)

	return ctx
}
