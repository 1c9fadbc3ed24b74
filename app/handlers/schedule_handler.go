// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/socialbucket/socialbucket/app/dto"
	businessflow "github.com/socialbucket/socialbucket/business_flow"
	"github.com/socialbucket/socialbucket/utils"
)

// ScheduleHandlerInterface defines the contract for schedule handlers
type ScheduleHandlerInterface interface {
	ListSchedules(c fiber.Ctx) error
	GetSchedule(c fiber.Ctx) error
	CreateRotation(c fiber.Ctx) error
	CreateDated(c fiber.Ctx) error
	UpdateSchedule(c fiber.Ctx) error
	DeleteSchedule(c fiber.Ctx) error
	BulkRetarget(c fiber.Ctx) error
	BulkDelete(c fiber.Ctx) error
	SkipImage(c fiber.Ctx) error
	SkipImageSingle(c fiber.Ctx) error
	NextDue(c fiber.Ctx) error
	History(c fiber.Ctx) error
}

// ScheduleHandler handles schedule-related HTTP requests
type ScheduleHandler struct {
	scheduleFlow businessflow.ScheduleFlow
	validator    *validator.Validate
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(scheduleFlow businessflow.ScheduleFlow) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleFlow: scheduleFlow,
		validator:    validator.New(),
	}
}

func (h *ScheduleHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ScheduleHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListSchedules returns the schedules of a bucket owned by the authenticated user
func (h *ScheduleHandler) ListSchedules(c fiber.Ctx) error {
	bucketID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid bucket ID", "INVALID_BUCKET_ID", nil)
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	result, err := h.scheduleFlow.ListSchedules(h.createRequestContext(c, "/api/v1/buckets/:id/schedules"), bucketID, userID)
	if err != nil {
		if resp := h.bucketError(c, err); resp != nil {
			return resp
		}

		log.Println("List schedules failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list schedules", "LIST_SCHEDULES_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Schedules retrieved successfully", fiber.Map{
		"items": result,
	})
}

// GetSchedule returns one schedule owned by the authenticated user
func (h *ScheduleHandler) GetSchedule(c fiber.Ctx) error {
	scheduleID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid schedule ID", "INVALID_SCHEDULE_ID", nil)
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	result, err := h.scheduleFlow.GetSchedule(h.createRequestContext(c, "/api/v1/schedules/:id"), scheduleID, userID)
	if err != nil {
		if resp := h.scheduleError(c, err); resp != nil {
			return resp
		}

		log.Println("Get schedule failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get schedule", "GET_SCHEDULE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Schedule retrieved successfully", result)
}

// CreateRotation creates a recurring weekly schedule for a bucket
func (h *ScheduleHandler) CreateRotation(c fiber.Ctx) error {
	var req dto.CreateRotationScheduleRequest
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

	result, err := h.scheduleFlow.CreateRotation(h.createRequestContext(c, "/api/v1/schedules/rotation"), &req, userID, metadata)
	if err != nil {
		if resp := h.bucketError(c, err); resp != nil {
			return resp
		}
		if businessflow.IsNoDaysSelected(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "At least one weekday must be selected", "NO_DAYS_SELECTED", nil)
		}
		if businessflow.IsNoNetworksSelected(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "At least one network must be selected", "NO_NETWORKS_SELECTED", nil)
		}

		log.Println("Rotation schedule creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Schedule creation failed", "SCHEDULE_CREATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Schedule created successfully", result)
}

// CreateDated creates a one-time or annual schedule pinned to one image
func (h *ScheduleHandler) CreateDated(c fiber.Ctx) error {
	var req dto.CreateDatedScheduleRequest
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

	result, err := h.scheduleFlow.CreateDated(h.createRequestContext(c, "/api/v1/schedules/dated"), &req, userID, metadata)
	if err != nil {
		if resp := h.bucketError(c, err); resp != nil {
			return resp
		}
		if businessflow.IsImageNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Image not found in bucket", "IMAGE_NOT_FOUND", nil)
		}
		if businessflow.IsNoNetworksSelected(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "At least one network must be selected", "NO_NETWORKS_SELECTED", nil)
		}

		log.Println("Dated schedule creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Schedule creation failed", "SCHEDULE_CREATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Schedule created successfully", result)
}

// UpdateSchedule updates the recurrence, networks, or captions of a schedule
func (h *ScheduleHandler) UpdateSchedule(c fiber.Ctx) error {
	scheduleID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid schedule ID", "INVALID_SCHEDULE_ID", nil)
	}

	var req dto.UpdateScheduleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.ScheduleID = scheduleID

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.scheduleFlow.UpdateSchedule(h.createRequestContext(c, "/api/v1/schedules/:id"), &req, userID, metadata)
	if err != nil {
		if resp := h.scheduleError(c, err); resp != nil {
			return resp
		}
		if businessflow.IsScheduleDisabled(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Schedule format is invalid", "INVALID_SCHEDULE_FORMAT", nil)
		}
		if businessflow.IsNoNetworksSelected(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "At least one network must be selected", "NO_NETWORKS_SELECTED", nil)
		}

		log.Println("Schedule update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Schedule update failed", "SCHEDULE_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Schedule updated successfully", result)
}

// DeleteSchedule removes a schedule owned by the authenticated user
func (h *ScheduleHandler) DeleteSchedule(c fiber.Ctx) error {
	scheduleID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid schedule ID", "INVALID_SCHEDULE_ID", nil)
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	if err := h.scheduleFlow.DeleteSchedule(h.createRequestContext(c, "/api/v1/schedules/:id"), scheduleID, userID); err != nil {
		if resp := h.scheduleError(c, err); resp != nil {
			return resp
		}

		log.Println("Schedule deletion failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Schedule deletion failed", "SCHEDULE_DELETION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Schedule deleted successfully", nil)
}

// BulkRetarget moves many schedules to a new date and network selection at once
func (h *ScheduleHandler) BulkRetarget(c fiber.Ctx) error {
	var req dto.BulkRetargetRequest
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

	result, err := h.scheduleFlow.BulkRetarget(h.createRequestContext(c, "/api/v1/schedules/bulk-retarget"), &req, userID, metadata)
	if err != nil {
		if businessflow.IsNoNetworksSelected(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "At least one network must be selected", "NO_NETWORKS_SELECTED", nil)
		}

		log.Println("Bulk retarget failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Bulk retarget failed", "BULK_RETARGET_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Schedules updated successfully", fiber.Map{
		"count": result.Count,
	})
}

// BulkDelete removes many schedules owned by the authenticated user at once
func (h *ScheduleHandler) BulkDelete(c fiber.Ctx) error {
	var req dto.BulkDeleteRequest
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

	result, err := h.scheduleFlow.BulkDelete(h.createRequestContext(c, "/api/v1/schedules/bulk-delete"), &req, userID, metadata)
	if err != nil {
		log.Println("Bulk delete failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Bulk delete failed", "BULK_DELETE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Schedules deleted successfully", fiber.Map{
		"count": result.Count,
	})
}

// SkipImage advances the rotation of a schedule past its next image
func (h *ScheduleHandler) SkipImage(c fiber.Ctx) error {
	scheduleID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid schedule ID", "INVALID_SCHEDULE_ID", nil)
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	if err := h.scheduleFlow.SkipImage(h.createRequestContext(c, "/api/v1/schedules/:id/skip"), scheduleID, userID); err != nil {
		if resp := h.scheduleError(c, err); resp != nil {
			return resp
		}

		log.Println("Skip image failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Skip failed", "SKIP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Next image will be skipped", nil)
}

// SkipImageSingle declines the next occurrence of a dated schedule
func (h *ScheduleHandler) SkipImageSingle(c fiber.Ctx) error {
	scheduleID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid schedule ID", "INVALID_SCHEDULE_ID", nil)
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	if err := h.scheduleFlow.SkipImageSingle(h.createRequestContext(c, "/api/v1/schedules/:id/skip-single"), scheduleID, userID); err != nil {
		if resp := h.scheduleError(c, err); resp != nil {
			return resp
		}

		log.Println("Skip single occurrence failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Skip failed", "SKIP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Next occurrence will be skipped", nil)
}

// NextDue previews the image and captions the next dispatch would send
func (h *ScheduleHandler) NextDue(c fiber.Ctx) error {
	scheduleID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid schedule ID", "INVALID_SCHEDULE_ID", nil)
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	result, err := h.scheduleFlow.NextDue(h.createRequestContext(c, "/api/v1/schedules/:id/next"), scheduleID, userID)
	if err != nil {
		if resp := h.scheduleError(c, err); resp != nil {
			return resp
		}
		if businessflow.IsNoImageDue(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "No image is due for this schedule", "NO_IMAGE_DUE", nil)
		}

		log.Println("Next due preview failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Preview failed", "PREVIEW_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Preview retrieved successfully", result)
}

// History returns the dispatch records of a schedule, newest first
func (h *ScheduleHandler) History(c fiber.Ctx) error {
	scheduleID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid schedule ID", "INVALID_SCHEDULE_ID", nil)
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	limit := 20
	if v, err := strconv.Atoi(c.Query("limit", "20")); err == nil && v > 0 {
		limit = v
	}
	if limit > 100 {
		limit = 100
	}
	offset := 0
	if v, err := strconv.Atoi(c.Query("offset", "0")); err == nil && v > 0 {
		offset = v
	}

	result, err := h.scheduleFlow.History(h.createRequestContext(c, "/api/v1/schedules/:id/history"), scheduleID, userID, limit, offset)
	if err != nil {
		if resp := h.scheduleError(c, err); resp != nil {
			return resp
		}

		log.Println("History retrieval failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve history", "HISTORY_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "History retrieved successfully", fiber.Map{
		"items": result,
	})
}

// bucketError maps bucket ownership errors to HTTP responses, nil when unhandled
func (h *ScheduleHandler) bucketError(c fiber.Ctx, err error) error {
	if businessflow.IsBucketNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Bucket not found", "BUCKET_NOT_FOUND", nil)
	}
	if businessflow.IsBucketAccessDenied(err) {
		return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied: bucket belongs to another user", "BUCKET_ACCESS_DENIED", nil)
	}
	return nil
}

// scheduleError maps schedule ownership errors to HTTP responses, nil when unhandled
func (h *ScheduleHandler) scheduleError(c fiber.Ctx, err error) error {
	if businessflow.IsScheduleNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Schedule not found", "SCHEDULE_NOT_FOUND", nil)
	}
	if businessflow.IsScheduleAccessDenied(err) {
		return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied: schedule belongs to another user", "SCHEDULE_ACCESS_DENIED", nil)
	}
	return nil
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *ScheduleHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)

	return ctx
}
