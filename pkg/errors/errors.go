// Package errors defines the response error taxonomy of the paytrust gateway.
// Every failure that reaches an API boundary is a *ResponseError whose Kind maps to
// a fixed HTTP status and case index, and from there to a numeric response code.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/turtacn/paytrust/pkg/logger"
)

// ================================================================================
// Response Error
// ================================================================================

// ResponseError is one catalogue failure, optionally carrying a detail string and
// the internal cause. The cause is kept for logs and is never rendered in Error().
type ResponseError struct {
	kind     Kind
	detail   string
	cause    error
	metadata map[string]interface{}
}

// New creates a ResponseError of the given kind. The detail is rendered only for
// kinds whose display string has a detail slot.
func New(kind Kind, detail string) *ResponseError {
	if !kind.Valid() {
		kind = KindGeneralError
	}
	return &ResponseError{kind: kind, detail: detail}
}

// Error renders the display string with the detail substituted.
func (e *ResponseError) Error() string {
	return e.Message()
}

// Message is the responseMessage transmitted on the wire.
func (e *ResponseError) Message() string {
	tmpl := e.kind.lookup().message
	if !containsVerb(tmpl) {
		return tmpl
	}
	return strings.Replace(tmpl, "%s", e.detail, 1)
}

// Kind returns the catalogue member
func (e *ResponseError) Kind() Kind {
	return e.kind
}

// Detail returns the detail string, empty for kinds without a detail slot.
func (e *ResponseError) Detail() string {
	if !e.kind.CarriesDetail() {
		return ""
	}
	return e.detail
}

// Category returns the routing category
func (e *ResponseError) Category() Category {
	return e.kind.Category()
}

// HTTPStatus returns the HTTP status code
func (e *ResponseError) HTTPStatus() int {
	return e.kind.HTTPStatus()
}

// CaseCode returns the case index within the status class
func (e *ResponseError) CaseCode() uint8 {
	return e.kind.CaseCode()
}

// Code composes the response code for the given service partition.
func (e *ResponseError) Code(serviceCode uint8) ResponseCode {
	return e.kind.Code(serviceCode)
}

// Unwrap returns the underlying cause error
func (e *ResponseError) Unwrap() error {
	return e.cause
}

// Is matches another *ResponseError of the same kind.
func (e *ResponseError) Is(target error) bool {
	t, ok := target.(*ResponseError)
	if !ok {
		return false
	}
	return t.kind == e.kind
}

// WithCause returns a copy carrying the internal cause.
func (e *ResponseError) WithCause(cause error) *ResponseError {
	cp := e.clone()
	cp.cause = cause
	return cp
}

// WithMetadata returns a copy with one more metadata entry for logs.
func (e *ResponseError) WithMetadata(key string, value interface{}) *ResponseError {
	cp := e.clone()
	cp.metadata[key] = value
	return cp
}

// Metadata returns all metadata
func (e *ResponseError) Metadata() map[string]interface{} {
	return e.metadata
}

// LogFields renders the error as structured log fields, cause included.
func (e *ResponseError) LogFields() logger.Fields {
	fields := logger.Fields{
		"error_kind":  e.kind.String(),
		"http_status": e.HTTPStatus(),
		"category":    e.Category().String(),
	}
	if d := e.Detail(); d != "" {
		fields["error_detail"] = d
	}
	if e.cause != nil {
		fields["cause"] = e.cause.Error()
	}
	for k, v := range e.metadata {
		fields[k] = v
	}
	return fields
}

// Traced logs the error at a level matching its severity and returns it, so a
// failing guard can be written as `return errors.Unauthorized("...").Traced(ctx, log)`.
func (e *ResponseError) Traced(ctx context.Context, log logger.Logger) *ResponseError {
	if log == nil {
		return e
	}
	if ShouldLogError(e) {
		log.Error(ctx, e.Message(), e.cause, e.LogFields())
	} else {
		log.Debug(ctx, e.Message(), e.LogFields())
	}
	return e
}

func (e *ResponseError) clone() *ResponseError {
	cp := *e
	cp.metadata = make(map[string]interface{}, len(e.metadata)+1)
	for k, v := range e.metadata {
		cp.metadata[k] = v
	}
	return &cp
}

// ================================================================================
// Predefined Error Constructors
// ================================================================================

// 400

func BadRequest() *ResponseError { return New(KindBadRequest, "") }

// InvalidFieldFormat names the offending field, e.g. "X-TIMESTAMP".
func InvalidFieldFormat(field string) *ResponseError { return New(KindInvalidFieldFormat, field) }

// InvalidMandatoryField names the missing field.
func InvalidMandatoryField(field string) *ResponseError {
	return New(KindInvalidMandatoryField, field)
}

// 401

// Unauthorized carries the failing check, e.g. "Signature".
func Unauthorized(reason string) *ResponseError { return New(KindUnauthorized, reason) }

func InvalidTokenB2B() *ResponseError       { return New(KindInvalidTokenB2B, "") }
func InvalidCustomerToken() *ResponseError  { return New(KindInvalidCustomerToken, "") }
func TokenNotFoundB2B() *ResponseError      { return New(KindTokenNotFoundB2B, "") }
func CustomerTokenNotFound() *ResponseError { return New(KindCustomerTokenNotFound, "") }

// 403

func TransactionExpired() *ResponseError { return New(KindTransactionExpired, "") }
func FeatureNotAllowed(detail string) *ResponseError {
	return New(KindFeatureNotAllowed, detail)
}
func ExceedsTransactionAmountLimit() *ResponseError {
	return New(KindExceedsTransactionAmountLimit, "")
}
func SuspectedFraud() *ResponseError             { return New(KindSuspectedFraud, "") }
func ActivityCountLimitExceeded() *ResponseError { return New(KindActivityCountLimitExceeded, "") }
func DoNotHonor() *ResponseError                 { return New(KindDoNotHonor, "") }
func FeatureNotAllowedAtThisTime(detail string) *ResponseError {
	return New(KindFeatureNotAllowedAtThisTime, detail)
}
func CardBlocked() *ResponseError         { return New(KindCardBlocked, "") }
func CardExpired() *ResponseError         { return New(KindCardExpired, "") }
func DormantAccount() *ResponseError      { return New(KindDormantAccount, "") }
func NeedToSetTokenLimit() *ResponseError { return New(KindNeedToSetTokenLimit, "") }
func OTPBlocked() *ResponseError          { return New(KindOTPBlocked, "") }
func OTPLifetimeExpired() *ResponseError  { return New(KindOTPLifetimeExpired, "") }
func OTPSentToCardholder() *ResponseError { return New(KindOTPSentToCardholder, "") }
func InsufficientFunds() *ResponseError   { return New(KindInsufficientFunds, "") }
func TransactionNotPermitted(detail string) *ResponseError {
	return New(KindTransactionNotPermitted, detail)
}
func SuspendTransaction() *ResponseError { return New(KindSuspendTransaction, "") }
func TokenLimitExceeded() *ResponseError { return New(KindTokenLimitExceeded, "") }
func InactiveCardOrAccountOrCustomer() *ResponseError {
	return New(KindInactiveCardOrAccountOrCustomer, "")
}
func MerchantBlacklisted() *ResponseError { return New(KindMerchantBlacklisted, "") }
func MerchantLimitExceed() *ResponseError { return New(KindMerchantLimitExceed, "") }
func SetLimitNotAllowed() *ResponseError  { return New(KindSetLimitNotAllowed, "") }
func TokenLimitInvalid() *ResponseError   { return New(KindTokenLimitInvalid, "") }
func AccountLimitExceed() *ResponseError  { return New(KindAccountLimitExceed, "") }

// 404

func InvalidTransactionStatus() *ResponseError { return New(KindInvalidTransactionStatus, "") }
func TransactionNotFound() *ResponseError      { return New(KindTransactionNotFound, "") }
func InvalidRouting() *ResponseError           { return New(KindInvalidRouting, "") }
func BankNotSupportedBySwitch() *ResponseError { return New(KindBankNotSupportedBySwitch, "") }
func TransactionCancelled() *ResponseError     { return New(KindTransactionCancelled, "") }
func MerchantNotRegisteredForCardRegistration() *ResponseError {
	return New(KindMerchantNotRegisteredForCardRegistration, "")
}
func NeedToRequestOTP() *ResponseError     { return New(KindNeedToRequestOTP, "") }
func JourneyNotFound() *ResponseError      { return New(KindJourneyNotFound, "") }
func InvalidMerchant() *ResponseError      { return New(KindInvalidMerchant, "") }
func NoIssuer() *ResponseError             { return New(KindNoIssuer, "") }
func InvalidAPITransition() *ResponseError { return New(KindInvalidAPITransition, "") }
func InvalidCardOrAccountOrCustomerOrVirtualAccount(detail string) *ResponseError {
	return New(KindInvalidCardOrAccountOrCustomerOrVirtualAccount, detail)
}
func InvalidBillOrVirtualAccountWithReason(reason string) *ResponseError {
	return New(KindInvalidBillOrVirtualAccountWithReason, reason)
}
func InvalidAmount() *ResponseError       { return New(KindInvalidAmount, "") }
func PaidBill() *ResponseError            { return New(KindPaidBill, "") }
func InvalidOTP() *ResponseError          { return New(KindInvalidOTP, "") }
func PartnerNotFound() *ResponseError     { return New(KindPartnerNotFound, "") }
func InvalidTerminal() *ResponseError     { return New(KindInvalidTerminal, "") }
func InconsistentRequest() *ResponseError { return New(KindInconsistentRequest, "") }
func InvalidBillOrVirtualAccount() *ResponseError {
	return New(KindInvalidBillOrVirtualAccount, "")
}

// 405

func RequestedFunctionIsNotSupported() *ResponseError {
	return New(KindRequestedFunctionIsNotSupported, "")
}
func RequestedOperationIsNotAllowed() *ResponseError {
	return New(KindRequestedOperationIsNotAllowed, "")
}

// 409

func Conflict() *ResponseError                    { return New(KindConflict, "") }
func DuplicatePartnerReferenceNo() *ResponseError { return New(KindDuplicatePartnerReferenceNo, "") }

// 429

func TooManyRequests() *ResponseError { return New(KindTooManyRequests, "") }

// 500

func GeneralError() *ResponseError        { return New(KindGeneralError, "") }
func InternalServerError() *ResponseError { return New(KindInternalServerError, "") }
func ExternalServerError() *ResponseError { return New(KindExternalServerError, "") }

// 504

func Timeout() *ResponseError { return New(KindTimeout, "") }

// ================================================================================
// Error Validation Utilities
// ================================================================================

// AsResponseError finds the first *ResponseError in the chain of err.
func AsResponseError(err error) (*ResponseError, bool) {
	var re *ResponseError
	if stderrors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// FromError converts any error to a *ResponseError. Errors outside the taxonomy
// become GeneralError with the original kept as cause.
func FromError(err error) *ResponseError {
	if err == nil {
		return nil
	}
	if re, ok := AsResponseError(err); ok {
		return re
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return Timeout().WithCause(err)
	}
	return GeneralError().WithCause(err)
}

// Wrap attaches a cause to a new error of the given kind.
func Wrap(err error, kind Kind, detail string) *ResponseError {
	return New(kind, detail).WithCause(err)
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	re, ok := AsResponseError(err)
	return ok && re.kind == kind
}

// IsAuthenticationError checks if an error is related to authentication
func IsAuthenticationError(err error) bool {
	if re, ok := AsResponseError(err); ok {
		return re.HTTPStatus() == http.StatusUnauthorized
	}
	return false
}

// IsRateLimitError checks if an error is related to rate limiting
func IsRateLimitError(err error) bool {
	if re, ok := AsResponseError(err); ok {
		return re.HTTPStatus() == http.StatusTooManyRequests
	}
	return false
}

// ShouldLogError determines if an error should be logged based on severity
func ShouldLogError(err error) bool {
	if re, ok := AsResponseError(err); ok {
		// Don't log client errors (4xx) except rate limiting
		status := re.HTTPStatus()
		return status >= 500 || status == http.StatusTooManyRequests
	}
	return true
}

// GoString helps test failure output.
func (e *ResponseError) GoString() string {
	return fmt.Sprintf("errors.ResponseError{kind: %s, detail: %q}", e.kind, e.detail)
}

//Personal.AI order the ending
