package errors

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/turtacn/paytrust/pkg/constants"
)

// ResponseCode is the seven digit outcome code of an API call, laid out as
// HTTP status (3 digits), service code (2 digits) and case code (2 digits).
type ResponseCode uint32

// Encode composes a response code. The service code is reduced modulo 100.
func Encode(status int, serviceCode uint8, caseCode uint8) ResponseCode {
	return ResponseCode(status*constants.StatusWeight +
		int(serviceCode%100)*constants.ServiceWeight +
		int(caseCode%100))
}

// Decode splits a response code into its three parts. It is the exact inverse of
// Encode for every status in 100..999, service 0..99 and case 0..99.
func Decode(code ResponseCode) (status int, serviceCode uint8, caseCode uint8) {
	c := int(code)
	status = c / constants.StatusWeight
	serviceCode = uint8((c % constants.StatusWeight) / constants.ServiceWeight)
	caseCode = uint8(c % constants.ServiceWeight)
	return status, serviceCode, caseCode
}

// SuccessCode is the response code of a successful call: 200 SS CC.
func SuccessCode(serviceCode uint8, caseCode uint8) ResponseCode {
	return Encode(http.StatusOK, serviceCode, caseCode)
}

// ParseResponseCode reads the decimal wire form of a response code.
func ParseResponseCode(s string) (ResponseCode, error) {
	if len(s) != 7 {
		return 0, fmt.Errorf("response code %q: expected 7 digits", s)
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("response code %q: %w", s, err)
	}
	code := ResponseCode(v)
	if status := code.HTTPStatus(); status < 100 || status > 599 {
		return 0, fmt.Errorf("response code %q: status %d out of range", s, status)
	}
	return code, nil
}

// String returns the decimal wire form
func (c ResponseCode) String() string {
	return strconv.FormatUint(uint64(c), 10)
}

// HTTPStatus returns the status part
func (c ResponseCode) HTTPStatus() int {
	status, _, _ := Decode(c)
	return status
}

// ServiceCode returns the service part
func (c ResponseCode) ServiceCode() uint8 {
	_, service, _ := Decode(c)
	return service
}

// CaseCode returns the case part
func (c ResponseCode) CaseCode() uint8 {
	_, _, caseCode := Decode(c)
	return caseCode
}

// IsSuccess reports whether the status part is 2xx.
func (c ResponseCode) IsSuccess() bool {
	status := c.HTTPStatus()
	return status >= 200 && status < 300
}

// Kind resolves the catalogue member of a failure code.
func (c ResponseCode) Kind() (Kind, bool) {
	status, _, caseCode := Decode(c)
	return Lookup(status, caseCode)
}

//Personal.AI order the ending
