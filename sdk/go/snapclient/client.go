// Package snapclient signs outgoing SNAP requests on the partner side and
// decodes the gateway's flat response envelopes.
package snapclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/turtacn/paytrust/internal/application/dto"
	"github.com/turtacn/paytrust/internal/infrastructure/crypto"
	"github.com/turtacn/paytrust/pkg/constants"
)

var (
	ErrNoPrivateKey   = errors.New("snapclient: no private key configured")
	ErrNoClientSecret = errors.New("snapclient: no client secret configured")
)

// Config holds the partner's identity and key material.
type Config struct {
	BaseURL string
	// ClientKey is sent as X-CLIENT-KEY on token requests and X-PARTNER-ID on transactions
	ClientKey     string
	ClientSecret  string
	PrivateKeyPEM string
	ChannelID     string

	HTTPClient *http.Client
	// Now supplies X-TIMESTAMP; its location sets the offset written
	Now func() time.Time
}

// Client signs requests with the partner's credentials. A Client is safe for
// concurrent use.
type Client struct {
	baseURL    string
	clientKey  string
	channelID  string
	hmac       *crypto.HMACPool
	rsa        *crypto.RSASigner
	httpClient *http.Client
	now        func() time.Time
}

// New creates a client. At least one of ClientSecret or PrivateKeyPEM must be set.
func New(cfg Config) (*Client, error) {
	if cfg.ClientKey == "" {
		return nil, fmt.Errorf("snapclient: client key is required")
	}
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		clientKey:  cfg.ClientKey,
		channelID:  cfg.ChannelID,
		httpClient: cfg.HTTPClient,
		now:        cfg.Now,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.now == nil {
		c.now = time.Now
	}

	var err error
	if cfg.ClientSecret != "" {
		if c.hmac, err = crypto.NewHMACPool([]byte(cfg.ClientSecret)); err != nil {
			return nil, err
		}
	}
	if cfg.PrivateKeyPEM != "" {
		if c.rsa, err = crypto.NewRSASigner(cfg.PrivateKeyPEM); err != nil {
			return nil, err
		}
	}
	if c.hmac == nil && c.rsa == nil {
		return nil, fmt.Errorf("snapclient: client secret or private key is required")
	}
	return c, nil
}

// SignAccessTokenRequest sets X-CLIENT-KEY, X-TIMESTAMP and the asymmetric X-SIGNATURE.
func (c *Client) SignAccessTokenRequest(req *http.Request) error {
	if c.rsa == nil {
		return ErrNoPrivateKey
	}
	timestamp := c.timestamp()
	signature, err := c.rsa.SignAsBase64(crypto.AsymmetricStringToSign(c.clientKey, timestamp))
	if err != nil {
		return err
	}
	req.Header.Set(constants.HeaderClientKey, c.clientKey)
	req.Header.Set(constants.HeaderTimestamp, timestamp)
	req.Header.Set(constants.HeaderSignature, signature)
	return nil
}

// SignTransactionRequest sets the transactional headers and the symmetric
// X-SIGNATURE over method, request URI, token, body digest and timestamp.
// The body is read and restored.
func (c *Client) SignTransactionRequest(req *http.Request, accessToken, externalID string) error {
	if c.hmac == nil {
		return ErrNoClientSecret
	}

	var body []byte
	if req.Body != nil {
		var err error
		if body, err = io.ReadAll(req.Body); err != nil {
			return err
		}
		_ = req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	timestamp := c.timestamp()
	payload, err := crypto.SymmetricStringToSign(req.Method, req.URL.RequestURI(), accessToken, body, timestamp)
	if err != nil {
		return err
	}

	req.Header.Set(constants.HeaderAuthorization, "Bearer "+accessToken)
	req.Header.Set(constants.HeaderPartnerID, c.clientKey)
	req.Header.Set(constants.HeaderTimestamp, timestamp)
	req.Header.Set(constants.HeaderSignature, c.hmac.Sign(payload))
	if externalID != "" {
		req.Header.Set(constants.HeaderExternalID, externalID)
	}
	if c.channelID != "" {
		req.Header.Set(constants.HeaderChannelID, c.channelID)
	}
	return nil
}

// NewRequest builds a request against the base URL with a JSON body.
func (c *Client) NewRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// Do sends req and decodes the envelope. The error is non-nil only for transport
// or decoding failures; gateway rejections come back as a failure envelope.
func Do[T any](c *Client, req *http.Request) (*dto.Envelope[T], error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var env dto.Envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("snapclient: status %d: %w", resp.StatusCode, err)
	}
	return &env, nil
}

// AccessToken posts a signed access token request and decodes the answer.
func AccessToken[T any](ctx context.Context, c *Client, path string, body interface{}) (*dto.Envelope[T], error) {
	req, err := c.NewRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	if err := c.SignAccessTokenRequest(req); err != nil {
		return nil, err
	}
	return Do[T](c, req)
}

// Transaction sends a signed transactional request and decodes the answer.
func Transaction[T any](ctx context.Context, c *Client, method, path, accessToken, externalID string, body interface{}) (*dto.Envelope[T], error) {
	req, err := c.NewRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if err := c.SignTransactionRequest(req, accessToken, externalID); err != nil {
		return nil, err
	}
	return Do[T](c, req)
}

func (c *Client) timestamp() string {
	return c.now().Format(time.RFC3339)
}
