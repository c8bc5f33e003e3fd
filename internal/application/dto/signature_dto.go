package dto

// AccessTokenSignatureRequest 访问令牌请求的签名头 DTO
// The signature covers "<X-CLIENT-KEY>|<X-TIMESTAMP>" and is verified with the
// partner's RSA public key.
type AccessTokenSignatureRequest struct {
	ClientKey string `header:"X-CLIENT-KEY" json:"client_key" validate:"required,max=128"`
	Timestamp string `header:"X-TIMESTAMP" json:"timestamp" validate:"required"`
	Signature string `header:"X-SIGNATURE" json:"signature" validate:"required"`
}

// TransactionSignatureRequest 交易请求的签名输入 DTO
// The signature is an HMAC-SHA512 keyed with the partner's client secret over
// "<METHOD>:<path>:<token>:<sha256(minified body)>:<X-TIMESTAMP>".
type TransactionSignatureRequest struct {
	PartnerID   string `header:"X-PARTNER-ID" json:"partner_id" validate:"required,max=128"`
	Method      string `json:"method" validate:"required,method"`
	Path        string `json:"path" validate:"required,startswith=/"`
	AccessToken string `header:"Authorization" json:"access_token" validate:"required"`
	Timestamp   string `header:"X-TIMESTAMP" json:"timestamp" validate:"required"`
	Body        []byte `json:"-"`
	Signature   string `header:"X-SIGNATURE" json:"signature,omitempty"`
	ServiceCode uint8  `json:"-"`
}

// AsymmetricSignRequest 网关签名工具：非对称签名请求 DTO
type AsymmetricSignRequest struct {
	ClientKey string `header:"X-CLIENT-KEY" json:"client_key" validate:"required,max=128"`
	Timestamp string `header:"X-TIMESTAMP" json:"timestamp" validate:"required"`
}

// SignatureResponse 签名结果 DTO
type SignatureResponse struct {
	Signature    string `json:"signature"`
	StringToSign string `json:"stringToSign,omitempty"`
}
