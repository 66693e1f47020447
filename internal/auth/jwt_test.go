package auth_test

import (
	"testing"
	"time"

	"github.com/dinerhq/pos-api/internal/auth"
	"github.com/dinerhq/pos-api/internal/enum"
	"github.com/google/uuid"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret"
	userID := uuid.New()
	tenantID := uuid.New()
	branchID := uuid.New()

	token, err := auth.GenerateToken(secret, userID, tenantID, branchID, enum.RoleCashier, time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := auth.ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("user ID: got %v, want %v", claims.UserID, userID)
	}
	if claims.TenantID != tenantID {
		t.Errorf("tenant ID: got %v, want %v", claims.TenantID, tenantID)
	}
	if claims.BranchID != branchID {
		t.Errorf("branch ID: got %v, want %v", claims.BranchID, branchID)
	}
	if claims.Role != enum.RoleCashier {
		t.Errorf("role: got %v, want %v", claims.Role, enum.RoleCashier)
	}
}

func TestValidateTokenWithWrongSecret(t *testing.T) {
	token, err := auth.GenerateToken("secret-a", uuid.New(), uuid.New(), uuid.New(), enum.RoleCashier, time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	_, err = auth.ValidateToken("secret-b", token)
	if err == nil {
		t.Fatal("expected error validating with wrong secret")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	token, err := auth.GenerateToken("secret", uuid.New(), uuid.New(), uuid.New(), enum.RoleCashier, -time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := auth.ValidateToken("secret", token); err == nil {
		t.Fatal("expected error validating expired token")
	}
}

func TestValidateTokenWithoutTenant(t *testing.T) {
	token, err := auth.GenerateToken("secret", uuid.New(), uuid.Nil, uuid.New(), enum.RoleCashier, time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := auth.ValidateToken("secret", token); err == nil {
		t.Fatal("expected error for token without tenant")
	}
}

func TestValidateTokenWithInvalidString(t *testing.T) {
	_, err := auth.ValidateToken("secret", "not-a-jwt")
	if err == nil {
		t.Fatal("expected error validating invalid token string")
	}
}

func TestClaimsCanAccessBranch(t *testing.T) {
	branchID := uuid.New()
	other := uuid.New()

	cashier := &auth.Claims{BranchID: branchID, Role: enum.RoleCashier}
	if !cashier.CanAccessBranch(branchID) {
		t.Error("cashier should access own branch")
	}
	if cashier.CanAccessBranch(other) {
		t.Error("cashier should not access another branch")
	}

	owner := &auth.Claims{Role: enum.RoleOwner}
	if !owner.CanAccessBranch(other) {
		t.Error("owner should access any branch")
	}
}
