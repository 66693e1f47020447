package approval

import (
	"context"
	"errors"
	"fmt"

	"github.com/dinerhq/pos-api/internal/apperr"
	"github.com/dinerhq/pos-api/internal/enum"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Approver is the stored credential of a user who may co-sign.
type Approver struct {
	UserID  uuid.UUID
	Role    enum.Role
	PINHash string
}

// ApproverStore loads approver credentials. It returns an error wrapping
// apperr.ErrNotFound for unknown users.
type ApproverStore interface {
	GetApprover(ctx context.Context, tenantID, userID uuid.UUID) (Approver, error)
}

// BcryptVerifier checks PINs against bcrypt hashes.
type BcryptVerifier struct {
	store ApproverStore
}

// NewBcryptVerifier creates a BcryptVerifier.
func NewBcryptVerifier(store ApproverStore) *BcryptVerifier {
	return &BcryptVerifier{store: store}
}

// Verify implements PINVerifier. Unknown users and wrong PINs look the same
// to the caller.
func (v *BcryptVerifier) Verify(ctx context.Context, tenantID, userID uuid.UUID, pin string) (enum.Role, error) {
	if pin == "" {
		return "", ErrInvalidPIN
	}
	a, err := v.store.GetApprover(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", ErrInvalidPIN
		}
		return "", fmt.Errorf("get approver: %w", err)
	}
	if a.PINHash == "" {
		return "", ErrInvalidPIN
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PINHash), []byte(pin)); err != nil {
		return "", ErrInvalidPIN
	}
	return a.Role, nil
}

// HashPIN hashes a PIN for storage.
func HashPIN(pin string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash pin: %w", err)
	}
	return string(h), nil
}
