package crypto

import "sync"

// HMACPool hands out HMACSigners for one secret so concurrent callers never
// share a MAC state. The zero value is not usable; call NewHMACPool.
type HMACPool struct {
	secret []byte
	pool   sync.Pool
}

// NewHMACPool creates a pool for secret. An empty secret is rejected.
func NewHMACPool(secret []byte) (*HMACPool, error) {
	if len(secret) == 0 {
		return nil, ErrInvalidSecretLength
	}
	p := &HMACPool{secret: append([]byte(nil), secret...)}
	p.pool.New = func() interface{} {
		s, _ := NewHMACSigner(p.secret)
		return s
	}
	return p, nil
}

// Sign borrows a signer, signs and returns it.
func (p *HMACPool) Sign(payload []byte) string {
	s := p.pool.Get().(*HMACSigner)
	defer p.pool.Put(s)
	return s.Sign(payload)
}

// Verify borrows a signer, verifies and returns it.
func (p *HMACPool) Verify(signatureB64 string, payload []byte) error {
	s := p.pool.Get().(*HMACSigner)
	defer p.pool.Put(s)
	return s.Verify(signatureB64, payload)
}
