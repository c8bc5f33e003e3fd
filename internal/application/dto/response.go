package dto

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/turtacn/paytrust/pkg/constants"
	"github.com/turtacn/paytrust/pkg/errors"
)

// Wire names of the envelope metadata. Payload fields may not reuse them.
const (
	FieldResponseCode    = "responseCode"
	FieldResponseMessage = "responseMessage"
)

var (
	// ErrMalformedEnvelope 报文既不是错误形态也不是成功形态
	ErrMalformedEnvelope = stderrors.New("dto: malformed response envelope")
	// ErrPayloadNotObject payload 必须序列化为 JSON 对象
	ErrPayloadNotObject = stderrors.New("dto: payload must serialize to a JSON object")
	// ErrPayloadFieldCollision payload 字段与元数据字段重名
	ErrPayloadFieldCollision = stderrors.New("dto: payload field collides with envelope metadata")
)

// Envelope 统一响应报文：responseCode、responseMessage 与 payload 字段平铺在同一个 JSON 对象中
//
// An envelope is either a success carrying a payload of type T, or a failure
// carrying only the metadata. Both shapes are untagged on the wire.
type Envelope[T any] struct {
	code    errors.ResponseCode
	message string
	payload *T
	err     *errors.ResponseError
}

// envelopeMeta is the metadata-only (error) shape
type envelopeMeta struct {
	ResponseCode    string `json:"responseCode"`
	ResponseMessage string `json:"responseMessage"`
}

// ================================================================================
// Constructors
// ================================================================================

// Success 创建成功响应，响应码为 200 SS 00
func Success[T any](payload T, serviceCode uint8) *Envelope[T] {
	return SuccessWithCase(payload, serviceCode, 0)
}

// SuccessWithCase 创建带成功子码的成功响应，响应码为 200 SS CC
func SuccessWithCase[T any](payload T, serviceCode uint8, caseCode uint8) *Envelope[T] {
	return &Envelope[T]{
		code:    errors.SuccessCode(serviceCode, caseCode),
		message: constants.SuccessMessage,
		payload: &payload,
	}
}

// FromError 根据错误创建失败响应。非分类错误按 GeneralError 处理
func FromError[T any](err error, serviceCode uint8) *Envelope[T] {
	re := errors.FromError(err)
	if re == nil {
		re = errors.GeneralError()
	}
	return &Envelope[T]{
		code:    re.Code(serviceCode),
		message: re.Message(),
		err:     re,
	}
}

// FromResult 将 (payload, err) 结果转换为响应
func FromResult[T any](payload T, err error, serviceCode uint8) *Envelope[T] {
	if err != nil {
		return FromError[T](err, serviceCode)
	}
	return Success(payload, serviceCode)
}

// ================================================================================
// Accessors
// ================================================================================

// Payload returns the success payload, nil for failures.
func (e *Envelope[T]) Payload() *T {
	return e.payload
}

// Err returns the failure, nil for successes.
func (e *Envelope[T]) Err() *errors.ResponseError {
	return e.err
}

// ResponseCode returns the composed response code
func (e *Envelope[T]) ResponseCode() errors.ResponseCode {
	return e.code
}

// ResponseMessage returns the response message
func (e *Envelope[T]) ResponseMessage() string {
	return e.message
}

// HTTPStatus is derived from the response code.
func (e *Envelope[T]) HTTPStatus() int {
	if status := e.code.HTTPStatus(); status >= 100 && status <= 599 {
		return status
	}
	return http.StatusInternalServerError
}

// ServiceCode is derived from the response code.
func (e *Envelope[T]) ServiceCode() uint8 {
	return e.code.ServiceCode()
}

// IsSuccess reports whether the response code is 2xx.
func (e *Envelope[T]) IsSuccess() bool {
	return e.code.IsSuccess()
}

// ErrorKind resolves the catalogue member of a failure envelope.
func (e *Envelope[T]) ErrorKind() (errors.Kind, bool) {
	if e.err != nil {
		return e.err.Kind(), true
	}
	if e.IsSuccess() {
		return 0, false
	}
	return e.code.Kind()
}

// ================================================================================
// JSON
// ================================================================================

// MarshalJSON writes one flat object: the metadata first, then the payload fields.
func (e Envelope[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"` + FieldResponseCode + `":`)
	code, _ := json.Marshal(e.code.String())
	buf.Write(code)
	buf.WriteString(`,"` + FieldResponseMessage + `":`)
	msg, err := json.Marshal(e.message)
	if err != nil {
		return nil, err
	}
	buf.Write(msg)

	if e.payload != nil {
		inner, err := payloadMembers(e.payload)
		if err != nil {
			return nil, err
		}
		if len(inner) > 0 {
			buf.WriteByte(',')
			buf.Write(inner)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// payloadMembers returns the members of the payload object without braces.
func payloadMembers(payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if len(raw) < 2 || raw[0] != '{' {
		return nil, ErrPayloadNotObject
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, ErrPayloadNotObject
	}
	for _, name := range []string{FieldResponseCode, FieldResponseMessage} {
		if _, clash := fields[name]; clash {
			return nil, fmt.Errorf("%w: %s", ErrPayloadFieldCollision, name)
		}
	}
	return bytes.TrimSpace(raw[1 : len(raw)-1]), nil
}

// UnmarshalJSON tries the metadata-only (error) shape first, then metadata plus
// payload (success shape). A metadata-only body with a 2xx code is a success
// without payload. Extra members next to a failure code, such as SNAP's
// additionalInfo, are ignored and never become a payload.
func (e *Envelope[T]) UnmarshalJSON(data []byte) error {
	if env, ok := decodeErrorShape[T](data); ok {
		*e = *env
		return nil
	}
	env, err := decodeSuccessShape[T](data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	*e = *env
	return nil
}

func decodeErrorShape[T any](data []byte) (*Envelope[T], bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var meta envelopeMeta
	if err := dec.Decode(&meta); err != nil {
		return nil, false
	}
	if dec.More() {
		return nil, false
	}
	code, err := parseMeta(meta)
	if err != nil {
		return nil, false
	}

	return metaEnvelope[T](code, meta.ResponseMessage), true
}

// metaEnvelope builds an envelope without payload; failure codes carry their kind.
func metaEnvelope[T any](code errors.ResponseCode, message string) *Envelope[T] {
	env := &Envelope[T]{code: code, message: message}
	if !code.IsSuccess() {
		if kind, ok := code.Kind(); ok {
			env.err = errors.New(kind, "")
		}
	}
	return env
}

func decodeSuccessShape[T any](data []byte) (*Envelope[T], error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}

	var meta envelopeMeta
	if err := json.Unmarshal(fields[FieldResponseCode], &meta.ResponseCode); err != nil {
		return nil, fmt.Errorf("%s: %v", FieldResponseCode, err)
	}
	if err := json.Unmarshal(fields[FieldResponseMessage], &meta.ResponseMessage); err != nil {
		return nil, fmt.Errorf("%s: %v", FieldResponseMessage, err)
	}
	code, err := parseMeta(meta)
	if err != nil {
		return nil, err
	}
	if !code.IsSuccess() {
		return metaEnvelope[T](code, meta.ResponseMessage), nil
	}

	delete(fields, FieldResponseCode)
	delete(fields, FieldResponseMessage)
	rest, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	var payload T
	if err := json.Unmarshal(rest, &payload); err != nil {
		return nil, err
	}
	return &Envelope[T]{code: code, message: meta.ResponseMessage, payload: &payload}, nil
}

func parseMeta(meta envelopeMeta) (errors.ResponseCode, error) {
	if meta.ResponseCode == "" || meta.ResponseMessage == "" {
		return 0, fmt.Errorf("missing %s or %s", FieldResponseCode, FieldResponseMessage)
	}
	return errors.ParseResponseCode(meta.ResponseCode)
}
