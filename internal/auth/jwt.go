// Package auth verifies the actor identity carried in bearer tokens. Tokens
// are issued by the identity service; GenerateToken exists for the seed
// tool and tests.
package auth

import (
	"fmt"
	"time"

	"github.com/dinerhq/pos-api/internal/enum"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the verified actor. BranchID is uuid.Nil for tenant-wide
// roles such as OWNER.
type Claims struct {
	UserID   uuid.UUID `json:"user_id"`
	TenantID uuid.UUID `json:"tenant_id"`
	BranchID uuid.UUID `json:"branch_id"`
	Role     enum.Role `json:"role"`
	jwt.RegisteredClaims
}

// CanAccessBranch reports whether the actor may work in branchID.
func (c *Claims) CanAccessBranch(branchID uuid.UUID) bool {
	return c.Role == enum.RoleOwner || c.BranchID == branchID
}

func GenerateToken(secret string, userID, tenantID, branchID uuid.UUID, role enum.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		TenantID: tenantID,
		BranchID: branchID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.TenantID == uuid.Nil || claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("token is missing tenant or user")
	}
	return claims, nil
}
