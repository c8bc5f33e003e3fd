package dto

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/paytrust/pkg/errors"
)

// ContextKeyResponseCategory 保存已写出报文的类别（success 或错误类别），供指标中间件读取
const ContextKeyResponseCategory = "response_category"

// CategorySuccess is the response category recorded for 2xx envelopes.
const CategorySuccess = "success"

// Render 将报文写入响应，HTTP 状态码由响应码推导
func Render[T any](c *gin.Context, env *Envelope[T]) {
	body, err := json.Marshal(env)
	if err != nil {
		// Only a payload that is not a JSON object or collides with the metadata gets here.
		env = FromError[T](errors.InternalServerError().WithCause(err), env.ServiceCode())
		body, _ = json.Marshal(env)
	}

	category := CategorySuccess
	if re := env.Err(); re != nil {
		category = re.Category().String()
	} else if kind, ok := env.ErrorKind(); ok {
		category = kind.Category().String()
	}
	c.Set(ContextKeyResponseCategory, category)
	c.Data(env.HTTPStatus(), "application/json; charset=utf-8", body)
}

// SendError 写出失败报文
func SendError(c *gin.Context, err error, serviceCode uint8) {
	Render(c, FromError[Empty](err, serviceCode))
}

// AbortWithError 写出失败报文并中止后续处理
func AbortWithError(c *gin.Context, err error, serviceCode uint8) {
	SendError(c, err, serviceCode)
	c.Abort()
}

// SendSuccess 写出成功报文
func SendSuccess[T any](c *gin.Context, payload T, serviceCode uint8) {
	Render(c, Success(payload, serviceCode))
}

// Empty is the payload of a success that carries only the metadata.
type Empty struct{}

