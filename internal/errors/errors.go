package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Common error types that can be used across the application
var (
	ErrNotFound         = new(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists    = new(ErrCodeAlreadyExists, "resource already exists")
	ErrValidation       = new(ErrCodeValidation, "validation error")
	ErrInvalidOperation = new(ErrCodeInvalidOperation, "invalid operation")
	ErrDatabase         = new(ErrCodeDatabase, "database error")
	ErrSystem           = new(ErrCodeSystemError, "system error")

	// Checkout business-rule rejections. These are user-facing and carry a
	// stable machine-readable code.
	ErrAlreadySubscribed = new(ErrCodeAlreadySubscribed, "user already has a subscription to this plan")
	ErrAlreadyFinanced   = new(ErrCodeAlreadyFinanced, "user already has a plan financing for this plan")
	ErrFreeTrialUsed     = new(ErrCodeFreeTrialUsed, "free trial of this plan was already used")

	// Renewal timing holds. Expected outcomes of a renewal attempt, logged
	// and self-healing on the next sweep; never retried by the queue.
	ErrEntityIsOver       = new(ErrCodeEntityIsOver, "billing entity is over")
	ErrEntityNeedsPayment = new(ErrCodeEntityNeedsPayment, "billing entity needs to be paid")
	ErrRenewalNotDue      = new(ErrCodeRenewalNotDue, "consumable doesn't need to be renewed")

	// Data-integrity gap. Operator-actionable, never self-heals.
	ErrNoResourceLinked = new(ErrCodeNoResourceLinked, "no resource linked to the billing entity")

	// Gateway errors bubble the provider failure; the queue retries the
	// transient ones.
	ErrGateway = new(ErrCodeGateway, "payment gateway error")

	// maps errors to http status codes
	statusCodeMap = map[error]int{
		ErrNotFound:           http.StatusNotFound,
		ErrAlreadyExists:      http.StatusConflict,
		ErrValidation:         http.StatusBadRequest,
		ErrInvalidOperation:   http.StatusBadRequest,
		ErrDatabase:           http.StatusInternalServerError,
		ErrSystem:             http.StatusInternalServerError,
		ErrAlreadySubscribed:  http.StatusConflict,
		ErrAlreadyFinanced:    http.StatusConflict,
		ErrFreeTrialUsed:      http.StatusConflict,
		ErrEntityIsOver:       http.StatusConflict,
		ErrEntityNeedsPayment: http.StatusPaymentRequired,
		ErrRenewalNotDue:      http.StatusConflict,
		ErrNoResourceLinked:   http.StatusUnprocessableEntity,
		ErrGateway:            http.StatusBadGateway,
	}
)

const (
	ErrCodeSystemError      = "system_error"
	ErrCodeNotFound         = "not_found"
	ErrCodeAlreadyExists    = "already_exists"
	ErrCodeValidation       = "validation_error"
	ErrCodeInvalidOperation = "invalid_operation"
	ErrCodeDatabase         = "database_error"

	ErrCodeAlreadySubscribed = "already_subscribed"
	ErrCodeAlreadyFinanced   = "already_financed"
	ErrCodeFreeTrialUsed     = "free_trial_already_used"

	ErrCodeEntityIsOver       = "entity_is_over"
	ErrCodeEntityNeedsPayment = "entity_needs_payment"
	ErrCodeRenewalNotDue      = "renewal_not_due"
	ErrCodeNoResourceLinked   = "no_resource_linked"

	ErrCodeGateway = "gateway_error"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Op      string // Logical operation name
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

// new creates a new InternalError
func new(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidOperation checks if an error is an invalid operation error
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsDatabase checks if an error is a database error
func IsDatabase(err error) bool {
	return errors.Is(err, ErrDatabase)
}

// IsTimingHold reports whether an error is one of the expected renewal
// holds (entity over, entity unpaid, renewal not yet due). Holds are
// business outcomes, not failures; the queue must not retry them.
func IsTimingHold(err error) bool {
	return errors.Is(err, ErrEntityIsOver) ||
		errors.Is(err, ErrEntityNeedsPayment) ||
		errors.Is(err, ErrRenewalNotDue)
}

// IsBusinessAbort reports whether an error is a non-retryable business
// outcome of a background job: a timing hold, a data-integrity gap, a
// validation rejection, or a missing row. Only errors outside this set
// should trigger queue-level retry.
func IsBusinessAbort(err error) bool {
	return IsTimingHold(err) ||
		errors.Is(err, ErrNoResourceLinked) ||
		IsValidation(err) ||
		IsInvalidOperation(err) ||
		IsNotFound(err)
}

// ErrorCode extracts the machine-readable code from a marked error
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var internal *InternalError
	if errors.As(err, &internal) {
		return internal.Code
	}
	for marked := range statusCodeMap {
		if errors.Is(err, marked) {
			return marked.(*InternalError).Code
		}
	}
	return ErrCodeSystemError
}

// HTTPStatusFromErr maps a marked error to an HTTP status code
func HTTPStatusFromErr(err error) int {
	for marked, status := range statusCodeMap {
		if errors.Is(err, marked) {
			return status
		}
	}
	return http.StatusInternalServerError
}
