package token

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Wire claim names. The format is a standard HS256 JWT so tokens remain
// verifiable by off-the-shelf JWT tooling.
const (
	claimSubject     = "sub"
	claimPermissions = "permissions"
	claimEnvironment = "environmentId"
	claimResource    = "fileName"
	claimIssuedAt    = "iat"
	claimExpiresAt   = "exp"
)

// Encode serializes claims into a compact signed token string. IssuedAt and
// ExpiresAt travel inside the signed payload, so expiry cannot be tampered
// with without breaking the signature.
func Encode(claims *ClaimSet, key SigningKey) (string, error) {
	if err := claims.validateShape(); err != nil {
		return "", fmt.Errorf("invalid claim set: %w", err)
	}

	perms := make([]string, 0, len(claims.Permissions))
	for _, p := range claims.Permissions {
		perms = append(perms, string(p))
	}
	mc := jwt.MapClaims{
		claimSubject:     string(claims.Kind),
		claimPermissions: perms,
		claimIssuedAt:    claims.IssuedAt,
		claimExpiresAt:   claims.ExpiresAt,
	}
	if claims.EnvironmentID != 0 {
		mc[claimEnvironment] = claims.EnvironmentID
	}
	if claims.ResourceName != "" {
		mc[claimResource] = claims.ResourceName
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, mc)
	signed, err := tok.SignedString([]byte(key))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies structure and signature, then reconstructs the ClaimSet.
// It does not interpret expiry; that is the Validator's job, so tests and
// callers can evaluate freshness against their own clock. The signature is
// checked before any payload field is trusted.
func Decode(tokenString string, key SigningKey) (*ClaimSet, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	parsed, err := parser.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return []byte(key), nil
	})
	if err != nil {
		return nil, newError(classifyParseError(err), err)
	}
	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, newError(ErrCodeMalformed, errors.New("unexpected claims type"))
	}

	claims := &ClaimSet{}
	if sub, _ := mc[claimSubject].(string); sub != "" {
		claims.Kind = Kind(sub)
	}
	claims.Permissions = extractPermissions(mc[claimPermissions])
	if env, ok := extractInt64(mc[claimEnvironment]); ok {
		claims.EnvironmentID = env
	}
	if name, _ := mc[claimResource].(string); name != "" {
		claims.ResourceName = name
	}
	if iat, ok := extractInt64(mc[claimIssuedAt]); ok {
		claims.IssuedAt = iat
	}
	if exp, ok := extractInt64(mc[claimExpiresAt]); ok {
		claims.ExpiresAt = exp
	}

	if err := claims.validateShape(); err != nil {
		return nil, newError(ErrCodeMalformed, err)
	}
	return claims, nil
}

func classifyParseError(err error) ErrorCode {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
		return ErrCodeSignature
	default:
		return ErrCodeMalformed
	}
}

func extractPermissions(v any) []Permission {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Permission, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, Permission(s))
		}
	}
	return out
}

func extractInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case float64:
		return int64(x), true
	case int64:
		return x, true
	case int:
		return int64(x), true
	case json.Number:
		n, err := x.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}
