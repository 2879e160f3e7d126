package token

import (
	"fmt"
	"time"
)

// DefaultResourceTTL applies when a caller requests a temporary resource
// token without specifying a lifetime.
const DefaultResourceTTL = 10 * time.Minute

// Issuer builds claim sets for each supported token kind and signs them.
// Issuance is pure computation: it never touches storage, and issuing the
// same claims twice yields two independently valid tokens (iat differs).
type Issuer struct {
	key            SigningKey
	defaultTTL     time.Duration
	maxResourceTTL time.Duration
	now            func() time.Time
}

// NewIssuer creates an Issuer. defaultTTL covers edit and environment
// download tokens; maxResourceTTL caps caller-supplied resource token
// lifetimes. now may be nil, in which case time.Now is used.
func NewIssuer(key SigningKey, defaultTTL, maxResourceTTL time.Duration, now func() time.Time) *Issuer {
	if defaultTTL <= 0 {
		defaultTTL = 24 * time.Hour
	}
	if maxResourceTTL <= 0 {
		maxResourceTTL = 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{key: key, defaultTTL: defaultTTL, maxResourceTTL: maxResourceTTL, now: now}
}

// IssueEditToken produces a token granting upload and delete across all
// environments, expiring after the default TTL.
func (i *Issuer) IssueEditToken() (string, error) {
	return i.sign(&ClaimSet{
		Kind:        KindEdit,
		Permissions: []Permission{PermissionUpload, PermissionDelete},
	}, i.defaultTTL)
}

// IssueEnvironmentDownloadToken produces a token granting download of any
// image in the given environment, expiring after the default TTL.
func (i *Issuer) IssueEnvironmentDownloadToken(environmentID int64) (string, error) {
	if environmentID == 0 {
		return "", fmt.Errorf("environmentId is required")
	}
	return i.sign(&ClaimSet{
		Kind:          KindEnvironmentDownload,
		Permissions:   []Permission{PermissionDownload},
		EnvironmentID: environmentID,
	}, i.defaultTTL)
}

// IssueResourceToken produces a short-lived token scoped to a single file in
// a single environment. ttl must be positive and is capped at the issuer's
// configured maximum.
func (i *Issuer) IssueResourceToken(environmentID int64, resourceName string, ttl time.Duration) (string, error) {
	if environmentID == 0 {
		return "", fmt.Errorf("environmentId is required")
	}
	if resourceName == "" {
		return "", fmt.Errorf("fileName is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("ttl must be positive")
	}
	if ttl > i.maxResourceTTL {
		ttl = i.maxResourceTTL
	}
	return i.sign(&ClaimSet{
		Kind:          KindImageDownload,
		Permissions:   []Permission{PermissionDownload},
		EnvironmentID: environmentID,
		ResourceName:  resourceName,
	}, ttl)
}

func (i *Issuer) sign(claims *ClaimSet, ttl time.Duration) (string, error) {
	now := i.now().UTC()
	claims.IssuedAt = now.Unix()
	claims.ExpiresAt = now.Add(ttl).Unix()
	return Encode(claims, i.key)
}
