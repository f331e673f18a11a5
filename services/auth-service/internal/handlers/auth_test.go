package handlers

import (
	"testing"
	"time"

	"github.com/rmedina-dev/salonbook/libs/auth"
	"github.com/rmedina-dev/salonbook/services/auth-service/internal/storage"
)

func TestPasswordHashing(t *testing.T) {
	password := "pass1234"
	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	if hash == "" {
		t.Fatal("expected non-empty hash")
	}
	if err := verifyPassword(hash, password); err != nil {
		t.Fatalf("verifyPassword should succeed: %v", err)
	}
	if err := verifyPassword(hash, "wrong-pass"); err == nil {
		t.Fatal("verifyPassword should fail for wrong password")
	}
}

func TestIssueJWTCarriesUserClaims(t *testing.T) {
	h := NewAuthHandler(nil, "test-secret", time.Hour)
	user := storage.User{
		ID:   "user-1",
		Name: "Dana",
		Role: auth.RoleClient,
	}

	token, err := h.issueJWT(user)
	if err != nil {
		t.Fatalf("issueJWT failed: %v", err)
	}

	claims, err := auth.ParseAndVerifyHS256(token, "test-secret")
	if err != nil {
		t.Fatalf("token should verify: %v", err)
	}
	if claims.Sub != "user-1" || claims.Name != "Dana" || claims.Role != auth.RoleClient {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Exp <= claims.Iat {
		t.Fatal("expiry should be after issue time")
	}

	if _, err := auth.ParseAndVerifyHS256(token, "other-secret"); err == nil {
		t.Fatal("token should not verify with a different secret")
	}
}
