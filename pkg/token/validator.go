package token

import (
	"net/http"
	"time"
)

// Reason records why an authorization was denied. Reasons are for internal
// logging and metrics; the HTTP layer must collapse them to 401/403 without
// leaking which check failed.
type Reason string

const (
	ReasonMalformed           Reason = "malformed"
	ReasonBadSignature        Reason = "bad-signature"
	ReasonExpired             Reason = "expired"
	ReasonMissingPermission   Reason = "missing-permission"
	ReasonEnvironmentMismatch Reason = "environment-mismatch"
	ReasonResourceMismatch    Reason = "resource-mismatch"
)

// Decision is the outcome of an Authorize call.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Status maps the decision to an HTTP status: 401 when the token itself is
// unusable, 403 when the token is valid but its scope does not match.
func (d Decision) Status() int {
	if d.Allowed {
		return http.StatusOK
	}
	switch d.Reason {
	case ReasonMissingPermission, ReasonEnvironmentMismatch, ReasonResourceMismatch:
		return http.StatusForbidden
	default:
		return http.StatusUnauthorized
	}
}

func allow() Decision        { return Decision{Allowed: true} }
func deny(r Reason) Decision { return Decision{Reason: r} }

// AuthorizeOption adds a scope requirement to an Authorize call.
type AuthorizeOption func(*scopeCheck)

type scopeCheck struct {
	environmentID    int64
	checkEnvironment bool
	resourceName     string
	checkResource    bool
}

// WithEnvironment requires the token to be scoped to environmentID.
func WithEnvironment(environmentID int64) AuthorizeOption {
	return func(s *scopeCheck) {
		s.environmentID = environmentID
		s.checkEnvironment = true
	}
}

// WithResource requires the token to be scoped to exactly resourceName.
func WithResource(resourceName string) AuthorizeOption {
	return func(s *scopeCheck) {
		s.resourceName = resourceName
		s.checkResource = true
	}
}

// Validator verifies tokens and evaluates scope predicates. It is stateless:
// every call is an independent evaluation against the injected clock.
type Validator struct {
	key SigningKey
	now func() time.Time
}

// NewValidator creates a Validator. now may be nil, in which case time.Now
// is used.
func NewValidator(key SigningKey, now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{key: key, now: now}
}

// ClaimsOf decodes the token and returns its claims without checking expiry.
func (v *Validator) ClaimsOf(tokenString string) (*ClaimSet, error) {
	return Decode(tokenString, v.key)
}

// IsValid reports whether the token decodes, verifies and has not expired.
// The boundary is inclusive: a token is invalid at exactly its expiry time.
func (v *Validator) IsValid(tokenString string) bool {
	claims, err := v.ClaimsOf(tokenString)
	if err != nil {
		return false
	}
	return v.now().UTC().Unix() < claims.ExpiresAt
}

// Authorize is the single authorization entry point. The check order is
// fixed: decode, expiry, permission, environment, resource. Permission is
// checked before scope so a caller lacking the permission never learns
// whether its scope would have matched.
func (v *Validator) Authorize(tokenString string, required Permission, opts ...AuthorizeOption) Decision {
	claims, err := v.ClaimsOf(tokenString)
	if err != nil {
		switch CodeOf(err) {
		case ErrCodeSignature:
			return deny(ReasonBadSignature)
		default:
			return deny(ReasonMalformed)
		}
	}
	if v.now().UTC().Unix() >= claims.ExpiresAt {
		return deny(ReasonExpired)
	}
	if !claims.HasPermission(required) {
		return deny(ReasonMissingPermission)
	}

	var check scopeCheck
	for _, opt := range opts {
		opt(&check)
	}
	if check.checkEnvironment && !claims.MatchesEnvironment(check.environmentID) {
		return deny(ReasonEnvironmentMismatch)
	}
	if check.checkResource && !claims.MatchesResource(check.resourceName) {
		return deny(ReasonResourceMismatch)
	}
	return allow()
}
