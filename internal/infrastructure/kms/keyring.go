package kms

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/paytrust/internal/infrastructure/crypto"
	"github.com/turtacn/paytrust/pkg/constants"
	"github.com/turtacn/paytrust/pkg/logger"
)

// Keyring turns partner credentials into ready-to-use verifiers. Parsed key
// material is cached in memory and concurrent misses for one client collapse
// into a single source lookup.
type Keyring struct {
	source CredentialSource
	cache  *cache.Cache
	sf     singleflight.Group
	logger logger.Logger
}

// NewKeyring creates a keyring over source. A zero ttl uses the default.
func NewKeyring(source CredentialSource, ttl time.Duration, log logger.Logger) *Keyring {
	if ttl <= 0 {
		ttl = constants.ClientCredentialCacheTTL
	}
	return &Keyring{
		source: source,
		cache:  cache.New(ttl, constants.ClientCredentialCacheCleanup),
		logger: log.WithComponent("Keyring"),
	}
}

// Verifier returns the RSA verifier of clientKey.
func (k *Keyring) Verifier(ctx context.Context, clientKey string) (*crypto.RSAVerifier, error) {
	v, err := k.load(ctx, "rsa:"+clientKey, func(cred *Credential) (interface{}, error) {
		if cred.PublicKeyPEM == "" {
			return nil, ErrSchemeNotRegistered
		}
		return crypto.NewRSAVerifier(cred.PublicKeyPEM)
	}, clientKey)
	if err != nil {
		return nil, err
	}
	return v.(*crypto.RSAVerifier), nil
}

// HMAC returns the HMAC signer pool of clientKey.
func (k *Keyring) HMAC(ctx context.Context, clientKey string) (*crypto.HMACPool, error) {
	v, err := k.load(ctx, "hmac:"+clientKey, func(cred *Credential) (interface{}, error) {
		if cred.ClientSecret == "" {
			return nil, ErrSchemeNotRegistered
		}
		return crypto.NewHMACPool([]byte(cred.ClientSecret))
	}, clientKey)
	if err != nil {
		return nil, err
	}
	return v.(*crypto.HMACPool), nil
}

// Invalidate drops the cached material of clientKey.
func (k *Keyring) Invalidate(clientKey string) {
	k.cache.Delete("rsa:" + clientKey)
	k.cache.Delete("hmac:" + clientKey)
}

// Flush drops all cached material.
func (k *Keyring) Flush() {
	k.cache.Flush()
}

func (k *Keyring) load(ctx context.Context, cacheKey string, build func(*Credential) (interface{}, error), clientKey string) (interface{}, error) {
	if v, found := k.cache.Get(cacheKey); found {
		return v, nil
	}

	v, err, _ := k.sf.Do(cacheKey, func() (interface{}, error) {
		if v, found := k.cache.Get(cacheKey); found {
			return v, nil
		}
		cred, err := k.source.GetCredential(ctx, clientKey)
		if err != nil {
			return nil, err
		}
		material, err := build(cred)
		if err != nil {
			k.logger.Warn(ctx, "client key material rejected", logger.Fields{
				"client_key": clientKey,
				"reason":     err.Error(),
			})
			return nil, err
		}
		k.cache.SetDefault(cacheKey, material)
		return material, nil
	})
	return v, err
}
