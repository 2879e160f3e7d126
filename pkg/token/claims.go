package token

import "fmt"

// Kind identifies the permission model a token was issued under.
type Kind string

const (
	KindEdit                Kind = "EDIT_PERMISSION"
	KindEnvironmentDownload Kind = "DOWNLOAD_PERMISSION"
	KindImageDownload       Kind = "IMAGE_DOWNLOAD"
)

// Permission is a single action a token may authorize.
type Permission string

const (
	PermissionUpload   Permission = "UPLOAD"
	PermissionDelete   Permission = "DELETE"
	PermissionDownload Permission = "DOWNLOAD"
)

// ClaimSet is the decoded, typed payload of an authorization token. It is a
// value: constructed by the Issuer at creation time and reconstructed by the
// Validator at verification time, never stored or mutated.
//
// EnvironmentID and ResourceName are meaningful only for the kinds that
// require them; zero values mean "absent".
type ClaimSet struct {
	Kind          Kind
	Permissions   []Permission
	EnvironmentID int64
	ResourceName  string
	IssuedAt      int64 // unix seconds
	ExpiresAt     int64 // unix seconds
}

// HasPermission reports whether the claim set grants p.
func (c *ClaimSet) HasPermission(p Permission) bool {
	if c == nil {
		return false
	}
	for _, have := range c.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

// MatchesEnvironment reports whether the claim set is scoped to environmentID.
func (c *ClaimSet) MatchesEnvironment(environmentID int64) bool {
	return c != nil && c.EnvironmentID != 0 && c.EnvironmentID == environmentID
}

// MatchesResource reports whether the claim set is scoped to resourceName.
// Comparison is exact and case-sensitive; no normalization.
func (c *ClaimSet) MatchesResource(resourceName string) bool {
	return c != nil && c.ResourceName != "" && c.ResourceName == resourceName
}

// validateShape enforces the per-kind field requirements. A signed payload
// that violates these is rejected as malformed regardless of its signature.
func (c *ClaimSet) validateShape() error {
	if c.ExpiresAt <= c.IssuedAt {
		return fmt.Errorf("exp %d not after iat %d", c.ExpiresAt, c.IssuedAt)
	}
	switch c.Kind {
	case KindEdit:
		if len(c.Permissions) == 0 {
			return fmt.Errorf("%s requires permissions", c.Kind)
		}
		if c.EnvironmentID != 0 || c.ResourceName != "" {
			return fmt.Errorf("%s must not carry environment or resource scope", c.Kind)
		}
	case KindEnvironmentDownload:
		if len(c.Permissions) == 0 {
			return fmt.Errorf("%s requires permissions", c.Kind)
		}
		if c.EnvironmentID == 0 {
			return fmt.Errorf("%s requires environmentId", c.Kind)
		}
		if c.ResourceName != "" {
			return fmt.Errorf("%s must not carry a resource scope", c.Kind)
		}
	case KindImageDownload:
		if c.EnvironmentID == 0 {
			return fmt.Errorf("%s requires environmentId", c.Kind)
		}
		if c.ResourceName == "" {
			return fmt.Errorf("%s requires fileName", c.Kind)
		}
	default:
		return fmt.Errorf("unknown token kind %q", c.Kind)
	}
	return nil
}
