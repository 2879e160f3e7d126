package token

import "fmt"

// MinSecretLength is the minimum signing secret size in bytes. HMAC-SHA256
// keys shorter than the hash output are trivially brute-forceable, so this
// is a hard startup requirement with no fallback.
const MinSecretLength = 32

// SigningKey is the symmetric key used to sign and verify tokens. It is
// derived once at startup and safe to share across goroutines read-only.
type SigningKey []byte

// NewSigningKey derives a signing key from the configured secret. There is
// deliberately no default secret; a missing or weak secret is a fatal
// configuration error.
func NewSigningKey(secret string) (SigningKey, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("signing secret must be at least %d bytes, got %d", MinSecretLength, len(secret))
	}
	return SigningKey(secret), nil
}
