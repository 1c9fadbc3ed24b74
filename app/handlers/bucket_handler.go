// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/socialbucket/socialbucket/app/dto"
	businessflow "github.com/socialbucket/socialbucket/business_flow"
	"github.com/socialbucket/socialbucket/utils"
)

// BucketHandlerInterface defines the contract for bucket handlers
type BucketHandlerInterface interface {
	ListBuckets(c fiber.Ctx) error
	GetBucket(c fiber.Ctx) error
	ListImages(c fiber.Ctx) error
}

// BucketHandler handles bucket-related HTTP requests
type BucketHandler struct {
	bucketFlow businessflow.BucketFlow
}

// NewBucketHandler creates a new bucket handler
func NewBucketHandler(bucketFlow businessflow.BucketFlow) *BucketHandler {
	return &BucketHandler{
		bucketFlow: bucketFlow,
	}
}

func (h *BucketHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *BucketHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListBuckets returns the authenticated user's buckets with image counts
func (h *BucketHandler) ListBuckets(c fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	result, err := h.bucketFlow.ListBuckets(h.createRequestContext(c, "/api/v1/buckets"), userID)
	if err != nil {
		log.Println("List buckets failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list buckets", "LIST_BUCKETS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Buckets retrieved successfully", fiber.Map{
		"items": result,
	})
}

// GetBucket returns one bucket owned by the authenticated user
func (h *BucketHandler) GetBucket(c fiber.Ctx) error {
	bucketID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid bucket ID", "INVALID_BUCKET_ID", nil)
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	result, err := h.bucketFlow.GetBucket(h.createRequestContext(c, "/api/v1/buckets/:id"), bucketID, userID)
	if err != nil {
		if businessflow.IsBucketNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Bucket not found", "BUCKET_NOT_FOUND", nil)
		}
		if businessflow.IsBucketAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied: bucket belongs to another user", "BUCKET_ACCESS_DENIED", nil)
		}

		log.Println("Get bucket failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get bucket", "GET_BUCKET_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Bucket retrieved successfully", result)
}

// ListImages returns the images of a bucket ordered by friendly name
func (h *BucketHandler) ListImages(c fiber.Ctx) error {
	bucketID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid bucket ID", "INVALID_BUCKET_ID", nil)
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	result, err := h.bucketFlow.ListImages(h.createRequestContext(c, "/api/v1/buckets/:id/images"), bucketID, userID)
	if err != nil {
		if businessflow.IsBucketNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Bucket not found", "BUCKET_NOT_FOUND", nil)
		}
		if businessflow.IsBucketAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied: bucket belongs to another user", "BUCKET_ACCESS_DENIED", nil)
		}

		log.Println("List bucket images failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list images", "LIST_IMAGES_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Images retrieved successfully", fiber.Map{
		"items": result,
	})
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *BucketHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)

	return ctx
}

// parseIDParam parses a positive numeric path parameter
func parseIDParam(c fiber.Ctx, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || v == 0 {
		return 0, strconv.ErrSyntax
	}
	return uint(v), nil
}
