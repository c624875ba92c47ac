package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
	CodeBadRequest   = "BAD_REQUEST"
	CodeTimeout      = "TIMEOUT"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"
	CodeInvalidInput = "INVALID_INPUT"

	CodeRoomUnavailable        = "ROOM_UNAVAILABLE"
	CodeInvalidDateRange       = "INVALID_DATE_RANGE"
	CodeInvalidRoomsCount      = "INVALID_ROOMS_COUNT"
	CodeNotOwner               = "NOT_OWNER"
	CodeBookingExpired         = "BOOKING_EXPIRED"
	CodePaymentGateway         = "PAYMENT_GATEWAY_ERROR"
	CodeRefundProcessing       = "REFUND_PROCESSING_ERROR"
	CodeIllegalStateTransition = "ILLEGAL_STATE_TRANSITION"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

func (e *AppError) ToJSON() []byte {
	data, _ := json.Marshal(ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
	return data
}

type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func NotFoundWithID(resource, id string) *AppError {
	return NotFound(resource).WithDetails(map[string]any{
		"resource": resource,
		"id":       id,
	})
}

func Validation(message string, details map[string]any) *AppError {
	return New(CodeValidation, message, http.StatusUnprocessableEntity).WithDetails(details)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message, http.StatusBadRequest)
}

func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}

func Forbidden(message string) *AppError {
	return New(CodeForbidden, message, http.StatusForbidden)
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusConflict)
}

func Internal(message string, err error) *AppError {
	return Wrap(err, CodeInternal, message, http.StatusInternalServerError)
}

func Timeout(message string) *AppError {
	return New(CodeTimeout, message, http.StatusGatewayTimeout)
}

func Unavailable(service string) *AppError {
	return New(CodeUnavailable, fmt.Sprintf("%s is temporarily unavailable", service), http.StatusServiceUnavailable)
}

func RoomUnavailable(message string, details map[string]any) *AppError {
	return New(CodeRoomUnavailable, message, http.StatusConflict).WithDetails(details)
}

func InvalidDateRange(message string) *AppError {
	return New(CodeInvalidDateRange, message, http.StatusBadRequest)
}

func InvalidRoomsCount(count int) *AppError {
	return New(CodeInvalidRoomsCount, "rooms count must be greater than zero", http.StatusBadRequest).
		WithDetails(map[string]any{"rooms_count": count})
}

func NotOwner(resource, id string) *AppError {
	return New(CodeNotOwner, fmt.Sprintf("%s does not belong to the requester", resource), http.StatusForbidden).
		WithDetails(map[string]any{"resource": resource, "id": id})
}

func BookingExpired(id string) *AppError {
	return New(CodeBookingExpired, "booking has expired", http.StatusGone).
		WithDetails(map[string]any{"id": id})
}

func PaymentGateway(message string, err error) *AppError {
	return Wrap(err, CodePaymentGateway, message, http.StatusBadGateway)
}

func RefundProcessing(bookingID string, err error) *AppError {
	return Wrap(err, CodeRefundProcessing, "booking cancelled but refund failed", http.StatusBadGateway).
		WithDetails(map[string]any{"id": bookingID})
}

func IllegalStateTransition(from, to string) *AppError {
	return New(CodeIllegalStateTransition, fmt.Sprintf("cannot move booking from %s to %s", from, to), http.StatusConflict).
		WithDetails(map[string]any{"from": from, "to": to})
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

// HasCode reports whether err, or anything it wraps, is an AppError with code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
