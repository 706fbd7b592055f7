package server

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
)

// Verifier checks interaction request signatures against the
// application's public key.
type Verifier struct {
	key ed25519.PublicKey
}

// NewVerifier parses a hex-encoded ed25519 public key.
func NewVerifier(hexKey string) (*Verifier, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decoding public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return &Verifier{key: ed25519.PublicKey(raw)}, nil
}

// Verify reports whether signature (hex) is a valid ed25519 signature
// over timestamp followed by the raw request body.
func (v *Verifier) Verify(signature, timestamp string, body []byte) bool {
	if v == nil {
		return false
	}
	sig, err := hex.DecodeString(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	msg := make([]byte, 0, len(timestamp)+len(body))
	msg = append(msg, timestamp...)
	msg = append(msg, body...)
	return ed25519.Verify(v.key, msg, sig)
}
