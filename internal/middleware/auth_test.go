package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dinerhq/pos-api/internal/auth"
	"github.com/dinerhq/pos-api/internal/enum"
	"github.com/dinerhq/pos-api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const testSecret = "test-secret"

func token(t *testing.T, userID, tenantID, branchID uuid.UUID, role enum.Role) string {
	t.Helper()
	tok, err := auth.GenerateToken(testSecret, userID, tenantID, branchID, role, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return tok
}

func branchRouter(inner http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testSecret))
	r.With(middleware.RequireBranch).Get("/branches/{bid}/test", inner.ServeHTTP)
	return r
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	userID := uuid.New()
	tok := token(t, userID, uuid.New(), uuid.New(), enum.RoleCashier)

	handler := middleware.Authenticate(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			t.Fatal("expected claims in context")
		}
		if claims.UserID != userID {
			t.Errorf("user ID: got %v, want %v", claims.UserID, userID)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	handler := middleware.Authenticate(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	handler := middleware.Authenticate(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	for _, header := range []string{"Bearer invalid-token", "Basic abc", "Bearer"} {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", header)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%q status: got %d, want %d", header, rr.Code, http.StatusUnauthorized)
		}
	}
}

func TestRequireBranch_MatchingBranch(t *testing.T) {
	userID, tenantID, branchID := uuid.New(), uuid.New(), uuid.New()
	tok := token(t, userID, tenantID, branchID, enum.RoleCashier)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			t.Fatal("expected actor in context")
		}
		if actor.TenantID != tenantID || actor.BranchID != branchID || actor.UserID != userID || actor.Role != enum.RoleCashier {
			t.Errorf("unexpected actor: %+v", actor)
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/branches/"+branchID.String()+"/test", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	branchRouter(inner).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestRequireBranch_MismatchedBranch(t *testing.T) {
	tok := token(t, uuid.New(), uuid.New(), uuid.New(), enum.RoleManager)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})

	req := httptest.NewRequest("GET", "/branches/"+uuid.New().String()+"/test", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	branchRouter(inner).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
}

func TestRequireBranch_InvalidBranchID(t *testing.T) {
	tok := token(t, uuid.New(), uuid.New(), uuid.New(), enum.RoleCashier)

	req := httptest.NewRequest("GET", "/branches/not-a-uuid/test", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	branchRouter(http.NotFoundHandler()).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestRequireBranch_OwnerEntersAnyBranch(t *testing.T) {
	tok := token(t, uuid.New(), uuid.New(), uuid.Nil, enum.RoleOwner)
	branchID := uuid.New()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.ActorFromContext(r.Context())
		if actor.BranchID != branchID {
			t.Errorf("branch: got %v, want %v", actor.BranchID, branchID)
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/branches/"+branchID.String()+"/test", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	branchRouter(inner).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d (OWNER should bypass branch check)", rr.Code, http.StatusOK)
	}
}

func TestRequireRole(t *testing.T) {
	tok := token(t, uuid.New(), uuid.New(), uuid.New(), enum.RoleCashier)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// CASHIER trying to reach a manager-only endpoint
	handler := middleware.Authenticate(testSecret)(middleware.RequireRole(enum.RoleOwner, enum.RoleManager)(inner))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
}
