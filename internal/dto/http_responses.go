package dto

import (
	"net/http"

	"github.com/wb-go/wbf/ginext"
)

const (
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	InvalidCredentials = "INVALID_CREDENTIALS"
	UserCreateFailed   = "USER_CREATE_FAILED"
	Unauthorized       = "UNAUTHORIZED"
	Forbidden          = "FORBIDDEN"
	TooManyRequests    = "TOO_MANY_REQUESTS"

	EventNotFound    = "EVENT_NOT_FOUND"
	EventInactive    = "EVENT_INACTIVE"
	CheckoutNotFound = "CHECKOUT_NOT_FOUND"
	CardNotFound     = "CARD_NOT_FOUND"
	AlreadyPaid      = "ALREADY_PAID"
)

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

// ErrorResponse aborts the chain so middleware can use it too.
func ErrorResponse(c *ginext.Context, status int, code, desc string) {
	c.AbortWithStatusJSON(status, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func BadResponseError(c *ginext.Context, code, desc string) {
	ErrorResponse(c, http.StatusBadRequest, code, desc)
}

func InternalServerError(c *ginext.Context) {
	ErrorResponse(c, http.StatusInternalServerError, ServiceUnavailable, InternalError)
}

func FieldIncorrectError(c *ginext.Context, desc string) {
	BadResponseError(c, FieldIncorrect, desc)
}

func InvalidCredentialsError(c *ginext.Context) {
	ErrorResponse(c, http.StatusUnauthorized, InvalidCredentials, "Invalid email or password")
}

func UserCreateError(c *ginext.Context) {
	BadResponseError(c, UserCreateFailed, "Failed to create user")
}

func UnauthorizedError(c *ginext.Context, desc string) {
	ErrorResponse(c, http.StatusUnauthorized, Unauthorized, desc)
}

func ForbiddenError(c *ginext.Context) {
	ErrorResponse(c, http.StatusForbidden, Forbidden, "You do not have access to this resource")
}

func TooManyRequestsError(c *ginext.Context) {
	ErrorResponse(c, http.StatusTooManyRequests, TooManyRequests, "Too many attempts. Please wait a moment and try again.")
}

func EventNotFoundError(c *ginext.Context) {
	ErrorResponse(c, http.StatusNotFound, EventNotFound, "Event not found")
}

func EventInactiveError(c *ginext.Context) {
	ErrorResponse(c, http.StatusConflict, EventInactive, "Event is no longer open for registration")
}

func CheckoutNotFoundError(c *ginext.Context) {
	ErrorResponse(c, http.StatusNotFound, CheckoutNotFound, "No payment is waiting for you")
}

func CardNotFoundError(c *ginext.Context) {
	ErrorResponse(c, http.StatusNotFound, CardNotFound, "Saved card not found")
}

func AlreadyPaidError(c *ginext.Context) {
	ErrorResponse(c, http.StatusConflict, AlreadyPaid, "This registration is already paid")
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(http.StatusCreated, Response{
		Status: "ok",
		Data:   data,
	})
}
