package kms

import (
	"context"
	"sync"

	"github.com/turtacn/paytrust/internal/config"
)

// ConfigSource serves credentials declared under signing.clients. Replace swaps
// the whole set on config reload.
type ConfigSource struct {
	mu      sync.RWMutex
	clients map[string]Credential
}

// NewConfigSource creates a source from the signing configuration.
func NewConfigSource(cfg config.SigningConfig) *ConfigSource {
	s := &ConfigSource{}
	s.Replace(cfg)
	return s
}

// Replace installs a new credential set.
func (s *ConfigSource) Replace(cfg config.SigningConfig) {
	clients := make(map[string]Credential, len(cfg.Clients))
	for _, c := range cfg.Clients {
		clients[c.ClientKey] = Credential{
			ClientKey:    c.ClientKey,
			ClientSecret: c.ClientSecret,
			PublicKeyPEM: c.PublicKeyPEM,
		}
	}
	s.mu.Lock()
	s.clients = clients
	s.mu.Unlock()
}

// GetCredential implements CredentialSource.
func (s *ConfigSource) GetCredential(_ context.Context, clientKey string) (*Credential, error) {
	s.mu.RLock()
	c, ok := s.clients[clientKey]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrClientNotFound
	}
	return &c, nil
}
