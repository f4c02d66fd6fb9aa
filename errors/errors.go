// Package errors defines the sentinel errors of the delivery pipeline and
// their mapping to wire codes and HTTP statuses. Services wrap these with
// %w; the transport boundary unwraps them with errors.Is.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Input validation, reported to the caller and never fatal to the channel.
	ErrMissingFields     = fmt.Errorf("receiver id and content are required")
	ErrEmptyContent      = fmt.Errorf("message content cannot be empty")
	ErrContentTooLong    = fmt.Errorf("message content exceeds the maximum length")
	ErrInvalidReceiverID = fmt.Errorf("invalid receiver id")
	ErrSelfMessage       = fmt.Errorf("cannot send a message to yourself")
	ErrInvalidUserID     = fmt.Errorf("invalid user id")

	// Authentication. On the channel these force-close the connection.
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")
	ErrTokenExpired       = fmt.Errorf("token expired")
	ErrInvalidToken       = fmt.Errorf("invalid token")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrValidation         = fmt.Errorf("invalid registration fields")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	// Delivery. Persistence failures are reported to the sender only.
	ErrSendMessage = fmt.Errorf("failed to send message")

	// Runtime.
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no censored words have been found")
)

// codes are the stable identifiers exposed in error payloads.
var codes = map[error]string{
	ErrMissingFields:      "MISSING_FIELDS",
	ErrEmptyContent:       "EMPTY_CONTENT",
	ErrContentTooLong:     "CONTENT_TOO_LONG",
	ErrInvalidReceiverID:  "INVALID_RECEIVER_ID",
	ErrSelfMessage:        "SELF_MESSAGE",
	ErrInvalidUserID:      "INVALID_USER_ID",
	ErrNotAuthenticated:   "NOT_AUTHENTICATED",
	ErrTokenExpired:       "TOKEN_EXPIRED",
	ErrInvalidToken:       "INVALID_TOKEN",
	ErrInvalidCredentials: "INVALID_CREDENTIALS",
	ErrValidation:         "VALIDATION_ERROR",
	ErrInvalidPassword:    "INVALID_PASSWORD",
	ErrUserAlreadyExists:  "USER_ALREADY_EXISTS",
	ErrTokenGeneration:    "TOKEN_GENERATION_ERROR",
	ErrSendMessage:        "SEND_MESSAGE_ERROR",
}

var statuses = map[error]int{
	ErrMissingFields:      http.StatusBadRequest,
	ErrEmptyContent:       http.StatusBadRequest,
	ErrContentTooLong:     http.StatusBadRequest,
	ErrInvalidReceiverID:  http.StatusBadRequest,
	ErrSelfMessage:        http.StatusBadRequest,
	ErrInvalidUserID:      http.StatusBadRequest,
	ErrNotAuthenticated:   http.StatusUnauthorized,
	ErrTokenExpired:       http.StatusUnauthorized,
	ErrInvalidToken:       http.StatusUnauthorized,
	ErrInvalidCredentials: http.StatusUnauthorized,
	ErrValidation:         http.StatusBadRequest,
	ErrInvalidPassword:    http.StatusBadRequest,
	ErrUserAlreadyExists:  http.StatusConflict,
	ErrTokenGeneration:    http.StatusInternalServerError,
	ErrSendMessage:        http.StatusInternalServerError,
}

// CodeOf returns the wire code for err, walking the wrap chain.
// Unknown errors map to SEND_MESSAGE_ERROR territory only at the call
// site; here they get a generic internal code.
func CodeOf(err error) string {
	for sentinel, code := range codes {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return "INTERNAL_ERROR"
}

// Message returns the public-facing text for err: the sentinel's own
// message for known errors, a generic one otherwise so internals never
// leak to clients.
func Message(err error) string {
	for sentinel := range codes {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "internal error"
}

// HTTPStatus returns the status the REST boundary should answer with.
func HTTPStatus(err error) int {
	for sentinel, status := range statuses {
		if errors.Is(err, sentinel) {
			return status
		}
	}
	return http.StatusInternalServerError
}
