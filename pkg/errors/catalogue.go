package errors

import "net/http"

// Kind identifies one member of the closed response error catalogue.
//
// The (HTTP status, case index) pair of every Kind is part of the wire contract:
// new kinds are appended with a fresh case index inside their status class and
// existing entries are never renumbered.
type Kind uint8

const (
	KindBadRequest Kind = iota
	KindInvalidFieldFormat
	KindInvalidMandatoryField
	KindUnauthorized
	KindInvalidTokenB2B
	KindInvalidCustomerToken
	KindTokenNotFoundB2B
	KindCustomerTokenNotFound
	KindTransactionExpired
	KindFeatureNotAllowed
	KindExceedsTransactionAmountLimit
	KindSuspectedFraud
	KindActivityCountLimitExceeded
	KindDoNotHonor
	KindFeatureNotAllowedAtThisTime
	KindCardBlocked
	KindCardExpired
	KindDormantAccount
	KindNeedToSetTokenLimit
	KindOTPBlocked
	KindOTPLifetimeExpired
	KindOTPSentToCardholder
	KindInsufficientFunds
	KindTransactionNotPermitted
	KindSuspendTransaction
	KindTokenLimitExceeded
	KindInactiveCardOrAccountOrCustomer
	KindMerchantBlacklisted
	KindMerchantLimitExceed
	KindSetLimitNotAllowed
	KindTokenLimitInvalid
	KindAccountLimitExceed
	KindInvalidTransactionStatus
	KindTransactionNotFound
	KindInvalidRouting
	KindBankNotSupportedBySwitch
	KindTransactionCancelled
	KindMerchantNotRegisteredForCardRegistration
	KindNeedToRequestOTP
	KindJourneyNotFound
	KindInvalidMerchant
	KindNoIssuer
	KindInvalidAPITransition
	KindInvalidCardOrAccountOrCustomerOrVirtualAccount
	KindInvalidBillOrVirtualAccountWithReason
	KindInvalidAmount
	KindPaidBill
	KindInvalidOTP
	KindPartnerNotFound
	KindInvalidTerminal
	KindInconsistentRequest
	KindInvalidBillOrVirtualAccount
	KindRequestedFunctionIsNotSupported
	KindRequestedOperationIsNotAllowed
	KindConflict
	KindDuplicatePartnerReferenceNo
	KindTooManyRequests
	KindGeneralError
	KindInternalServerError
	KindExternalServerError
	KindTimeout

	kindCount
)

// entry is the fixed attribute set of a Kind.
// A message containing %s carries a detail string.
type entry struct {
	name     string
	message  string
	category Category
	status   int
	caseCode uint8
}

var catalogue = [kindCount]entry{
	// 400 Bad Request
	KindBadRequest:            {"BadRequest", "Bad Request", CategorySystem, http.StatusBadRequest, 0},
	KindInvalidFieldFormat:    {"InvalidFieldFormat", "Invalid Field Format %s", CategoryMessage, http.StatusBadRequest, 1},
	KindInvalidMandatoryField: {"InvalidMandatoryField", "Invalid Mandatory Field %s", CategoryMessage, http.StatusBadRequest, 2},

	// 401 Unauthorized
	KindUnauthorized:          {"Unauthorized", "Unauthorized. %s", CategorySystem, http.StatusUnauthorized, 0},
	KindInvalidTokenB2B:       {"InvalidTokenB2B", "Invalid Token (B2B)", CategorySystem, http.StatusUnauthorized, 1},
	KindInvalidCustomerToken:  {"InvalidCustomerToken", "Invalid Customer Token", CategorySystem, http.StatusUnauthorized, 2},
	KindTokenNotFoundB2B:      {"TokenNotFoundB2B", "Token Not Found (B2B)", CategorySystem, http.StatusUnauthorized, 3},
	KindCustomerTokenNotFound: {"CustomerTokenNotFound", "Customer Token Not Found", CategorySystem, http.StatusUnauthorized, 4},

	// 403 Forbidden
	KindTransactionExpired:              {"TransactionExpired", "Transaction Expired", CategoryBusiness, http.StatusForbidden, 0},
	KindFeatureNotAllowed:               {"FeatureNotAllowed", "Feature Not Allowed %s", CategorySystem, http.StatusForbidden, 1},
	KindExceedsTransactionAmountLimit:   {"ExceedsTransactionAmountLimit", "Exceeds Transaction Amount Limit", CategoryBusiness, http.StatusForbidden, 2},
	KindSuspectedFraud:                  {"SuspectedFraud", "Suspected Fraud", CategoryBusiness, http.StatusForbidden, 3},
	KindActivityCountLimitExceeded:      {"ActivityCountLimitExceeded", "Activity Count Limit Exceeded", CategoryBusiness, http.StatusForbidden, 4},
	KindDoNotHonor:                      {"DoNotHonor", "Do Not Honor", CategoryBusiness, http.StatusForbidden, 5},
	KindFeatureNotAllowedAtThisTime:     {"FeatureNotAllowedAtThisTime", "Feature Not Allowed At This Time. %s", CategorySystem, http.StatusForbidden, 6},
	KindCardBlocked:                     {"CardBlocked", "Card Blocked", CategoryBusiness, http.StatusForbidden, 7},
	KindCardExpired:                     {"CardExpired", "Card Expired", CategoryBusiness, http.StatusForbidden, 8},
	KindDormantAccount:                  {"DormantAccount", "Dormant Account", CategoryBusiness, http.StatusForbidden, 9},
	KindNeedToSetTokenLimit:             {"NeedToSetTokenLimit", "Need To Set Token Limit", CategoryBusiness, http.StatusForbidden, 10},
	KindOTPBlocked:                      {"OTPBlocked", "OTP Blocked", CategorySystem, http.StatusForbidden, 11},
	KindOTPLifetimeExpired:              {"OTPLifetimeExpired", "OTP Lifetime Expired", CategorySystem, http.StatusForbidden, 12},
	KindOTPSentToCardholder:             {"OTPSentToCardholder", "OTP Sent To Cardholder", CategorySystem, http.StatusForbidden, 13},
	KindInsufficientFunds:               {"InsufficientFunds", "Insufficient Funds", CategoryBusiness, http.StatusForbidden, 14},
	KindTransactionNotPermitted:         {"TransactionNotPermitted", "Transaction Not Permitted. %s", CategoryBusiness, http.StatusForbidden, 15},
	KindSuspendTransaction:              {"SuspendTransaction", "Suspend Transaction", CategoryBusiness, http.StatusForbidden, 16},
	KindTokenLimitExceeded:              {"TokenLimitExceeded", "Token Limit Exceeded", CategoryBusiness, http.StatusForbidden, 17},
	KindInactiveCardOrAccountOrCustomer: {"InactiveCardOrAccountOrCustomer", "Inactive Card/Account/Customer", CategoryBusiness, http.StatusForbidden, 18},
	KindMerchantBlacklisted:             {"MerchantBlacklisted", "Merchant Blacklisted", CategoryBusiness, http.StatusForbidden, 19},
	KindMerchantLimitExceed:             {"MerchantLimitExceed", "Merchant Limit Exceed", CategoryBusiness, http.StatusForbidden, 20},
	KindSetLimitNotAllowed:              {"SetLimitNotAllowed", "Set Limit Not Allowed", CategoryBusiness, http.StatusForbidden, 21},
	KindTokenLimitInvalid:               {"TokenLimitInvalid", "Token Limit Invalid", CategoryBusiness, http.StatusForbidden, 22},
	KindAccountLimitExceed:              {"AccountLimitExceed", "Account Limit Exceed", CategoryBusiness, http.StatusForbidden, 23},

	// 404 Not Found
	KindInvalidTransactionStatus:                       {"InvalidTransactionStatus", "Invalid Transaction Status", CategoryBusiness, http.StatusNotFound, 0},
	KindTransactionNotFound:                            {"TransactionNotFound", "Transaction Not Found", CategoryBusiness, http.StatusNotFound, 1},
	KindInvalidRouting:                                 {"InvalidRouting", "Invalid Routing", CategorySystem, http.StatusNotFound, 2},
	KindBankNotSupportedBySwitch:                       {"BankNotSupportedBySwitch", "Bank Not Supported By Switch", CategorySystem, http.StatusNotFound, 3},
	KindTransactionCancelled:                           {"TransactionCancelled", "Transaction Cancelled", CategoryBusiness, http.StatusNotFound, 4},
	KindMerchantNotRegisteredForCardRegistration:       {"MerchantNotRegisteredForCardRegistrationServices", "Merchant Is Not Registered For Card Registration Services", CategoryBusiness, http.StatusNotFound, 5},
	KindNeedToRequestOTP:                               {"NeedToRequestOTP", "Need To Request OTP", CategorySystem, http.StatusNotFound, 6},
	KindJourneyNotFound:                                {"JourneyNotFound", "Journey Not Found", CategorySystem, http.StatusNotFound, 7},
	KindInvalidMerchant:                                {"InvalidMerchant", "Invalid Merchant", CategoryBusiness, http.StatusNotFound, 8},
	KindNoIssuer:                                       {"NoIssuer", "No Issuer", CategoryBusiness, http.StatusNotFound, 9},
	KindInvalidAPITransition:                           {"InvalidAPITransition", "Invalid API Transition", CategorySystem, http.StatusNotFound, 10},
	KindInvalidCardOrAccountOrCustomerOrVirtualAccount: {"InvalidCardOrAccountOrCustomerOrVirtualAccount", "Invalid Card/Account/Customer %s/Virtual Account", CategoryBusiness, http.StatusNotFound, 11},
	KindInvalidBillOrVirtualAccountWithReason:          {"InvalidBillOrVirtualAccountWithReason", "Invalid Bill/Virtual Account %s", CategoryBusiness, http.StatusNotFound, 12},
	KindInvalidAmount:                                  {"InvalidAmount", "Invalid Amount", CategoryBusiness, http.StatusNotFound, 13},
	KindPaidBill:                                       {"PaidBill", "Paid Bill", CategoryBusiness, http.StatusNotFound, 14},
	KindInvalidOTP:                                     {"InvalidOTP", "Invalid OTP", CategorySystem, http.StatusNotFound, 15},
	KindPartnerNotFound:                                {"PartnerNotFound", "Partner Not Found", CategoryBusiness, http.StatusNotFound, 16},
	KindInvalidTerminal:                                {"InvalidTerminal", "Invalid Terminal", CategoryBusiness, http.StatusNotFound, 17},
	KindInconsistentRequest:                            {"InconsistentRequest", "Inconsistent Request", CategoryBusiness, http.StatusNotFound, 18},
	KindInvalidBillOrVirtualAccount:                    {"InvalidBillOrVirtualAccount", "Invalid Bill/Virtual Account", CategoryBusiness, http.StatusNotFound, 19},

	// 405 Method Not Allowed
	KindRequestedFunctionIsNotSupported: {"RequestedFunctionIsNotSupported", "Requested Function Is Not Supported", CategorySystem, http.StatusMethodNotAllowed, 0},
	KindRequestedOperationIsNotAllowed:  {"RequestedOperationIsNotAllowed", "Requested Operation Is Not Allowed", CategoryBusiness, http.StatusMethodNotAllowed, 1},

	// 409 Conflict
	KindConflict:                    {"Conflict", "Conflict", CategorySystem, http.StatusConflict, 0},
	KindDuplicatePartnerReferenceNo: {"DuplicatePartnerReferenceNo", "Duplicate partnerReferenceNo", CategorySystem, http.StatusConflict, 1},

	// 429 Too Many Requests
	KindTooManyRequests: {"TooManyRequests", "Too Many Requests", CategorySystem, http.StatusTooManyRequests, 0},

	// 500 Internal Server Error
	KindGeneralError:        {"GeneralError", "General Error", CategorySystem, http.StatusInternalServerError, 0},
	KindInternalServerError: {"InternalServerError", "Internal Server Error", CategorySystem, http.StatusInternalServerError, 1},
	KindExternalServerError: {"ExternalServerError", "External Server Error", CategorySystem, http.StatusInternalServerError, 2},

	// 504 Gateway Timeout
	KindTimeout: {"Timeout", "Timeout", CategorySystem, http.StatusGatewayTimeout, 0},
}

// byStatusCase is the reverse index used by Lookup.
var byStatusCase = func() map[int]Kind {
	idx := make(map[int]Kind, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		e := catalogue[k]
		idx[e.status*100+int(e.caseCode)] = k
	}
	return idx
}()

// Kinds returns every catalogue member in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Valid reports whether k is a catalogue member.
func (k Kind) Valid() bool {
	return k < kindCount
}

func (k Kind) String() string {
	if !k.Valid() {
		return "Unknown"
	}
	return catalogue[k].name
}

// Category returns the routing category of k.
func (k Kind) Category() Category {
	return k.lookup().category
}

// HTTPStatus returns the HTTP status class of k.
func (k Kind) HTTPStatus() int {
	return k.lookup().status
}

// CaseCode returns the case index of k inside its status class.
func (k Kind) CaseCode() uint8 {
	return k.lookup().caseCode
}

// CarriesDetail reports whether the display string of k has a detail slot.
func (k Kind) CarriesDetail() bool {
	return containsVerb(k.lookup().message)
}

// Code composes the response code of k for the given service partition.
func (k Kind) Code(serviceCode uint8) ResponseCode {
	e := k.lookup()
	return Encode(e.status, serviceCode, e.caseCode)
}

// Lookup finds the catalogue member for a status class and case index.
func Lookup(status int, caseCode uint8) (Kind, bool) {
	k, ok := byStatusCase[status*100+int(caseCode)]
	return k, ok
}

// unknown kinds resolve to GeneralError so the table stays total.
func (k Kind) lookup() entry {
	if !k.Valid() {
		return catalogue[KindGeneralError]
	}
	return catalogue[k]
}

func containsVerb(s string) bool {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '%' && s[i+1] == 's' {
			return true
		}
	}
	return false
}
