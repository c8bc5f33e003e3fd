package snapclient_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/paytrust/internal/application/dto"
	appservice "github.com/turtacn/paytrust/internal/application/service"
	"github.com/turtacn/paytrust/internal/config"
	"github.com/turtacn/paytrust/internal/infrastructure/audit"
	"github.com/turtacn/paytrust/internal/infrastructure/crypto"
	"github.com/turtacn/paytrust/internal/infrastructure/kms"
	"github.com/turtacn/paytrust/internal/infrastructure/monitoring"
	"github.com/turtacn/paytrust/internal/infrastructure/redis"
	gateway "github.com/turtacn/paytrust/internal/interfaces/http"
	"github.com/turtacn/paytrust/internal/interfaces/http/handlers"
	"github.com/turtacn/paytrust/pkg/constants"
	"github.com/turtacn/paytrust/pkg/errors"
	"github.com/turtacn/paytrust/pkg/logger"
	"github.com/turtacn/paytrust/sdk/go/snapclient"
)

const serviceTransferIntrabank uint8 = 17

type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   string `json:"expiresIn"`
}

type transferResponse struct {
	ReferenceNo        string `json:"referenceNo"`
	PartnerReferenceNo string `json:"partnerReferenceNo"`
}

// newGateway runs the real router with two partner routes behind the signature groups.
func newGateway(t *testing.T, partnerPublicPEM string) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{Port: 8080, Mode: gin.TestMode},
		Signing: config.SigningConfig{
			CredentialSource: "config",
			Clients: []config.ClientCredential{
				{ClientKey: "partner-a", ClientSecret: "partner-a-client-secret", PublicKeyPEM: partnerPublicPEM},
			},
			TimestampSkew: 5 * time.Minute,
		},
	}
	log := logger.NewNoopLogger()
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	svc := appservice.NewSignatureAppService(
		kms.NewKeyring(kms.NewConfigSource(cfg.Signing), 0, log),
		audit.NoopAuditService{},
		metrics,
		appservice.SignatureAppServiceConfig{TimestampSkew: cfg.Signing.TimestampSkew},
		log,
	)
	router := gateway.NewRouter(cfg, log, gateway.RouterDeps{
		Signatures:       svc,
		ExternalIDs:      redis.NewExternalIDStore(rdb, "sdk"),
		Metrics:          metrics,
		HTTPMetrics:      metrics,
		Gatherer:         prometheus.NewRegistry(),
		HealthHandler:    handlers.NewHealthHandler(nil, log),
		SignatureHandler: handlers.NewSignatureHandler(svc),
	})

	router.AccessTokenGroup("/v1.0/access-token/b2b").POST("", func(c *gin.Context) {
		dto.SendSuccess(c, accessTokenResponse{AccessToken: "token-123", TokenType: "Bearer", ExpiresIn: "900"}, constants.ServiceCodeAccessTokenB2B)
	})
	router.TransactionGroup("/v1.0/transfer-intrabank", serviceTransferIntrabank).POST("", func(c *gin.Context) {
		dto.SendSuccess(c, transferResponse{ReferenceNo: "2020102977770000000009", PartnerReferenceNo: "2020102900000000000001"}, serviceTransferIntrabank)
	})

	server := httptest.NewServer(router.Engine())
	t.Cleanup(server.Close)
	return server
}

func partnerKeys(t *testing.T) (privatePEM, publicPEM string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})),
		string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pub}))
}

func TestClient_AgainstGateway(t *testing.T) {
	privatePEM, publicPEM := partnerKeys(t)
	server := newGateway(t, publicPEM)
	ctx := context.Background()

	client, err := snapclient.New(snapclient.Config{
		BaseURL:       server.URL,
		ClientKey:     "partner-a",
		ClientSecret:  "partner-a-client-secret",
		PrivateKeyPEM: privatePEM,
		ChannelID:     "95221",
		Now:           func() time.Time { return time.Now().In(time.FixedZone("WIB", 7*3600)) },
	})
	require.NoError(t, err)

	t.Run("access token request", func(t *testing.T) {
		env, err := snapclient.AccessToken[accessTokenResponse](ctx, client, "/v1.0/access-token/b2b",
			map[string]string{"grantType": "client_credentials"})
		require.NoError(t, err)
		require.True(t, env.IsSuccess(), env.ResponseMessage())
		assert.Equal(t, "2007300", env.ResponseCode().String())
		assert.Equal(t, "token-123", env.Payload().AccessToken)
	})

	body := map[string]interface{}{
		"partnerReferenceNo": "2020102900000000000001",
		"amount":             map[string]string{"value": "12345678.00", "currency": "IDR"},
	}

	t.Run("transaction request", func(t *testing.T) {
		env, err := snapclient.Transaction[transferResponse](ctx, client, http.MethodPost, "/v1.0/transfer-intrabank", "token-123", "41807553358950093184162180797837", body)
		require.NoError(t, err)
		require.True(t, env.IsSuccess(), env.ResponseMessage())
		assert.Equal(t, "2001700", env.ResponseCode().String())
		assert.Equal(t, "2020102977770000000009", env.Payload().ReferenceNo)
	})

	t.Run("replayed external id", func(t *testing.T) {
		env, err := snapclient.Transaction[transferResponse](ctx, client, http.MethodPost, "/v1.0/transfer-intrabank", "token-123", "41807553358950093184162180797837", body)
		require.NoError(t, err)
		assert.False(t, env.IsSuccess())
		assert.Equal(t, "4091700", env.ResponseCode().String())
		kind, ok := env.ErrorKind()
		require.True(t, ok)
		assert.Equal(t, errors.KindConflict, kind)
		assert.Nil(t, env.Payload())
	})

	t.Run("wrong client secret", func(t *testing.T) {
		impostor, err := snapclient.New(snapclient.Config{BaseURL: server.URL, ClientKey: "partner-a", ClientSecret: "guessed"})
		require.NoError(t, err)
		env, err := snapclient.Transaction[transferResponse](ctx, impostor, http.MethodPost, "/v1.0/transfer-intrabank", "token-123", "ext-2", body)
		require.NoError(t, err)
		assert.Equal(t, "4011700", env.ResponseCode().String())
		assert.Equal(t, "Unauthorized. Verify Client Secret Fail.", env.ResponseMessage())
	})
}

func TestClient_SignTransactionRequestRestoresBody(t *testing.T) {
	client, err := snapclient.New(snapclient.Config{ClientKey: "partner-a", ClientSecret: "secret", ChannelID: "95221"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "http://gateway/v1.0/balance-inquiry?x=1", strings.NewReader(`{"accountNo": "123"}`))
	require.NoError(t, client.SignTransactionRequest(req, "token-123", "ext-1"))

	raw, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"accountNo": "123"}`, string(raw))
	assert.Equal(t, "Bearer token-123", req.Header.Get(constants.HeaderAuthorization))
	assert.Equal(t, "partner-a", req.Header.Get(constants.HeaderPartnerID))
	assert.Equal(t, "ext-1", req.Header.Get(constants.HeaderExternalID))
	assert.Equal(t, "95221", req.Header.Get(constants.HeaderChannelID))
	assert.NotEmpty(t, req.Header.Get(constants.HeaderSignature))
}

func TestClient_MissingKeyMaterial(t *testing.T) {
	_, err := snapclient.New(snapclient.Config{ClientKey: "partner-a"})
	assert.Error(t, err)

	client, err := snapclient.New(snapclient.Config{ClientKey: "partner-a", ClientSecret: "secret"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1.0/access-token/b2b", nil)
	assert.ErrorIs(t, client.SignAccessTokenRequest(req), snapclient.ErrNoPrivateKey)
}

func TestClient_ConcurrentTransactionSigning(t *testing.T) {
	now := time.Date(2024, 1, 2, 15, 4, 5, 0, time.FixedZone("WIB", 7*3600))
	client, err := snapclient.New(snapclient.Config{
		ClientKey:    "partner-a",
		ClientSecret: "partner-a-client-secret",
		Now:          func() time.Time { return now },
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body := fmt.Sprintf(`{"partnerReferenceNo":"%d"}`, i)
			req := httptest.NewRequest(http.MethodPost, "http://gateway/v1.0/transfer-intrabank", strings.NewReader(body))
			if !assert.NoError(t, client.SignTransactionRequest(req, "token-123", fmt.Sprint(i))) {
				return
			}

			payload, err := crypto.SymmetricStringToSign(http.MethodPost, "/v1.0/transfer-intrabank", "token-123",
				[]byte(body), req.Header.Get(constants.HeaderTimestamp))
			if !assert.NoError(t, err) {
				return
			}
			want, err := crypto.SignOnce("partner-a-client-secret", payload)
			if assert.NoError(t, err) {
				assert.Equal(t, want, req.Header.Get(constants.HeaderSignature), "request %d", i)
			}
		}()
	}
	wg.Wait()
}
