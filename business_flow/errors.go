// Package businessflow contains the core business logic and use cases for scheduling and dispatch workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// User-related errors
	ErrUserNotFound    = errors.New("user not found")
	ErrAccountInactive = errors.New("account is inactive")
	ErrNoTimezone      = errors.New("user has no timezone configured")

	// Bucket-related errors
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrBucketAccessDenied = errors.New("bucket access denied")
	ErrBucketEmpty        = errors.New("bucket has no images")

	// Schedule-related errors
	ErrScheduleNotFound     = errors.New("schedule not found")
	ErrScheduleAccessDenied = errors.New("schedule access denied")
	ErrScheduleAlreadySent  = errors.New("schedule already sent")
	ErrScheduleDisabled     = errors.New("schedule is disabled")
	ErrInvalidScheduleType  = errors.New("invalid schedule type")
	ErrNoDaysSelected       = errors.New("at least one day must be selected")
	ErrNoNetworksSelected   = errors.New("at least one network must be selected")
	ErrImageRequired        = errors.New("a bucket image is required for this schedule type")
	ErrImageNotFound        = errors.New("bucket image not found")
	ErrAnnualTooSoon        = errors.New("annual schedule was sent less than a year ago")

	// Dispatch-related errors
	ErrNoImageDue          = errors.New("no image is due for this schedule")
	ErrDispatchInFlight    = errors.New("a dispatch for this schedule is already in flight")
	ErrAllNetworksFailed   = errors.New("all networks failed")
	ErrNetworkNotSupported = errors.New("network is not supported")
	ErrMissingCredentials  = errors.New("missing platform credentials")
	ErrCacheNotAvailable   = errors.New("cache not available")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsNoTimezone(err error) bool {
	return errors.Is(err, ErrNoTimezone)
}

func IsBucketNotFound(err error) bool {
	return errors.Is(err, ErrBucketNotFound)
}

func IsBucketAccessDenied(err error) bool {
	return errors.Is(err, ErrBucketAccessDenied)
}

func IsBucketEmpty(err error) bool {
	return errors.Is(err, ErrBucketEmpty)
}

func IsScheduleNotFound(err error) bool {
	return errors.Is(err, ErrScheduleNotFound)
}

func IsScheduleAccessDenied(err error) bool {
	return errors.Is(err, ErrScheduleAccessDenied)
}

func IsScheduleAlreadySent(err error) bool {
	return errors.Is(err, ErrScheduleAlreadySent)
}

func IsScheduleDisabled(err error) bool {
	return errors.Is(err, ErrScheduleDisabled)
}

func IsInvalidScheduleType(err error) bool {
	return errors.Is(err, ErrInvalidScheduleType)
}

func IsNoDaysSelected(err error) bool {
	return errors.Is(err, ErrNoDaysSelected)
}

func IsNoNetworksSelected(err error) bool {
	return errors.Is(err, ErrNoNetworksSelected)
}

func IsImageRequired(err error) bool {
	return errors.Is(err, ErrImageRequired)
}

func IsImageNotFound(err error) bool {
	return errors.Is(err, ErrImageNotFound)
}

func IsAnnualTooSoon(err error) bool {
	return errors.Is(err, ErrAnnualTooSoon)
}

func IsNoImageDue(err error) bool {
	return errors.Is(err, ErrNoImageDue)
}

func IsDispatchInFlight(err error) bool {
	return errors.Is(err, ErrDispatchInFlight)
}

func IsAllNetworksFailed(err error) bool {
	return errors.Is(err, ErrAllNetworksFailed)
}

func IsNetworkNotSupported(err error) bool {
	return errors.Is(err, ErrNetworkNotSupported)
}

func IsMissingCredentials(err error) bool {
	return errors.Is(err, ErrMissingCredentials)
}

func IsCacheNotAvailable(err error) bool {
	return errors.Is(err, ErrCacheNotAvailable)
}
