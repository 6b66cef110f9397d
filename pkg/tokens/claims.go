package tokens

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role names carried in access-token claims. Comparison is case-insensitive
// everywhere, Normalize first.
const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleTester    = "tester"
	RoleUnknown   = "unknown"
)

// Normalize lowercases a role name and maps anything unrecognized to RoleUnknown.
func Normalize(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RoleUser:
		return RoleUser
	case RoleAdmin:
		return RoleAdmin
	case RoleModerator:
		return RoleModerator
	case RoleTester:
		return RoleTester
	default:
		return RoleUnknown
	}
}

// Known reports whether role names one of the platform roles.
func Known(role string) bool {
	return Normalize(role) != RoleUnknown
}

type AccessClaims struct {
	Role     string `json:"role"`
	Approved bool   `json:"approved"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	jwt.RegisteredClaims
}

func Sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func NewJTI() string { return uuid.NewString() }
