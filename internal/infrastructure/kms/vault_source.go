package kms

import (
	"context"
	stderrors "errors"
	"fmt"
	"path"

	vault "github.com/hashicorp/vault/api"

	"github.com/turtacn/paytrust/internal/config"
	"github.com/turtacn/paytrust/pkg/logger"
)

// Field names inside a client's KV v2 secret.
const (
	vaultFieldClientSecret = "client_secret"
	vaultFieldPublicKey    = "public_key"
	vaultFieldPrivateKey   = "private_key"
)

// VaultSource reads partner credentials from a Vault KV v2 mount, one secret per
// client at <mount>/data/<path_prefix>/<client_key>.
type VaultSource struct {
	kv     *vault.KVv2
	prefix string
	logger logger.Logger
}

// NewVaultClient builds a Vault API client from configuration.
func NewVaultClient(cfg config.VaultConfig) (*vault.Client, error) {
	vcfg := vault.DefaultConfig()
	vcfg.Address = cfg.Address
	client, err := vault.NewClient(vcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}
	return client, nil
}

// NewVaultSource creates a new VaultSource.
func NewVaultSource(cfg config.VaultConfig, client *vault.Client, log logger.Logger) *VaultSource {
	return &VaultSource{
		kv:     client.KVv2(cfg.MountPath),
		prefix: cfg.PathPrefix,
		logger: log.WithComponent("VaultSource"),
	}
}

// GetCredential implements CredentialSource.
func (s *VaultSource) GetCredential(ctx context.Context, clientKey string) (*Credential, error) {
	data, err := s.read(ctx, clientKey)
	if err != nil {
		return nil, err
	}

	cred := &Credential{ClientKey: clientKey}
	cred.ClientSecret, _ = data[vaultFieldClientSecret].(string)
	cred.PublicKeyPEM, _ = data[vaultFieldPublicKey].(string)
	if cred.ClientSecret == "" && cred.PublicKeyPEM == "" {
		return nil, ErrSchemeNotRegistered
	}
	return cred, nil
}

// GetPrivateKeyPEM reads a PEM private key stored under name, e.g. the gateway's
// own signing key.
func (s *VaultSource) GetPrivateKeyPEM(ctx context.Context, name string) (string, error) {
	data, err := s.read(ctx, name)
	if err != nil {
		return "", err
	}
	pemData, ok := data[vaultFieldPrivateKey].(string)
	if !ok || pemData == "" {
		return "", fmt.Errorf("private_key not found or not a string in vault secret %s", name)
	}
	return pemData, nil
}

// PutCredential registers or replaces a client's credential.
func (s *VaultSource) PutCredential(ctx context.Context, cred Credential) error {
	data := map[string]interface{}{}
	if cred.ClientSecret != "" {
		data[vaultFieldClientSecret] = cred.ClientSecret
	}
	if cred.PublicKeyPEM != "" {
		data[vaultFieldPublicKey] = cred.PublicKeyPEM
	}
	if len(data) == 0 {
		return ErrSchemeNotRegistered
	}
	if _, err := s.kv.Put(ctx, s.secretPath(cred.ClientKey), data); err != nil {
		s.logger.Error(ctx, "failed to write client credential to Vault", err, logger.Fields{"client_key": cred.ClientKey})
		return fmt.Errorf("failed to write credential to vault: %w", err)
	}
	return nil
}

func (s *VaultSource) read(ctx context.Context, name string) (map[string]interface{}, error) {
	secret, err := s.kv.Get(ctx, s.secretPath(name))
	if err != nil {
		if stderrors.Is(err, vault.ErrSecretNotFound) {
			return nil, ErrClientNotFound
		}
		s.logger.Error(ctx, "failed to read client credential from Vault", err, logger.Fields{"client_key": name})
		return nil, fmt.Errorf("could not retrieve credential from vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, ErrClientNotFound
	}
	return secret.Data, nil
}

func (s *VaultSource) secretPath(name string) string {
	return path.Join(s.prefix, name)
}
