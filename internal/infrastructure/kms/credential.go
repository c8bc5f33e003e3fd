// Package kms resolves partner key material: shared HMAC secrets and RSA public
// keys, from configuration or HashiCorp Vault, with an in-memory keyring on top.
package kms

import (
	"context"
	stderrors "errors"
)

var (
	// ErrClientNotFound is returned when no credential is registered for a client key
	ErrClientNotFound = stderrors.New("kms: client not found")
	// ErrSchemeNotRegistered is returned when the client has no material for the requested scheme
	ErrSchemeNotRegistered = stderrors.New("kms: signature scheme not registered for client")
)

// Credential is the key material registered for one partner.
type Credential struct {
	ClientKey    string
	ClientSecret string
	PublicKeyPEM string
}

// CredentialSource looks up partner credentials by client key.
type CredentialSource interface {
	GetCredential(ctx context.Context, clientKey string) (*Credential, error)
}
