package kms_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/paytrust/internal/config"
	"github.com/turtacn/paytrust/internal/infrastructure/crypto"
	"github.com/turtacn/paytrust/internal/infrastructure/kms"
	"github.com/turtacn/paytrust/pkg/logger"
)

type mockSource struct {
	mock.Mock
	calls atomic.Int32
}

func (m *mockSource) GetCredential(ctx context.Context, clientKey string) (*kms.Credential, error) {
	m.calls.Add(1)
	args := m.Called(ctx, clientKey)
	if c := args.Get(0); c != nil {
		return c.(*kms.Credential), args.Error(1)
	}
	return nil, args.Error(1)
}

func publicKeyPEM(t *testing.T) (string, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), key
}

func TestKeyring_CachesParsedMaterial(t *testing.T) {
	pub, _ := publicKeyPEM(t)
	src := new(mockSource)
	src.On("GetCredential", mock.Anything, "partner-A").
		Return(&kms.Credential{ClientKey: "partner-A", ClientSecret: "s3cr3t", PublicKeyPEM: pub}, nil)

	ring := kms.NewKeyring(src, time.Minute, logger.NewNoopLogger())
	ctx := context.Background()

	v1, err := ring.Verifier(ctx, "partner-A")
	require.NoError(t, err)
	v2, err := ring.Verifier(ctx, "partner-A")
	require.NoError(t, err)
	assert.Same(t, v1, v2)

	pool, err := ring.HMAC(ctx, "partner-A")
	require.NoError(t, err)
	ref, _ := crypto.SignOnce("s3cr3t", []byte("x"))
	assert.Equal(t, ref, pool.Sign([]byte("x")))

	assert.Equal(t, int32(2), src.calls.Load(), "one lookup per scheme")

	ring.Invalidate("partner-A")
	_, err = ring.Verifier(ctx, "partner-A")
	require.NoError(t, err)
	assert.Equal(t, int32(3), src.calls.Load())
}

func TestKeyring_SingleflightCollapsesMisses(t *testing.T) {
	src := new(mockSource)
	src.On("GetCredential", mock.Anything, "partner-A").
		After(50*time.Millisecond).
		Return(&kms.Credential{ClientKey: "partner-A", ClientSecret: "s3cr3t"}, nil)

	ring := kms.NewKeyring(src, time.Minute, logger.NewNoopLogger())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ring.HMAC(context.Background(), "partner-A")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestKeyring_Errors(t *testing.T) {
	src := kms.NewConfigSource(config.SigningConfig{Clients: []config.ClientCredential{
		{ClientKey: "hmac-only", ClientSecret: "s"},
		{ClientKey: "broken", PublicKeyPEM: "not a key"},
	}})
	ring := kms.NewKeyring(src, 0, logger.NewNoopLogger())
	ctx := context.Background()

	_, err := ring.Verifier(ctx, "missing")
	assert.ErrorIs(t, err, kms.ErrClientNotFound)

	_, err = ring.Verifier(ctx, "hmac-only")
	assert.ErrorIs(t, err, kms.ErrSchemeNotRegistered)

	_, err = ring.Verifier(ctx, "broken")
	assert.ErrorIs(t, err, crypto.ErrInvalidPEMPublicKey)

	_, err = ring.HMAC(ctx, "broken")
	assert.ErrorIs(t, err, kms.ErrSchemeNotRegistered)
}

func TestConfigSource_Replace(t *testing.T) {
	src := kms.NewConfigSource(config.SigningConfig{Clients: []config.ClientCredential{{ClientKey: "a", ClientSecret: "1"}}})

	cred, err := src.GetCredential(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "1", cred.ClientSecret)

	src.Replace(config.SigningConfig{Clients: []config.ClientCredential{{ClientKey: "b", ClientSecret: "2"}}})
	_, err = src.GetCredential(context.Background(), "a")
	assert.ErrorIs(t, err, kms.ErrClientNotFound)
	cred, err = src.GetCredential(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "2", cred.ClientSecret)
}
