package auth

import (
	"strings"
	"testing"

	"github.com/seyio/acadex/internal/model"
)

func testUser() *model.User {
	return &model.User{
		ID:       "user-1",
		Username: "ada",
		Role:     model.UserRoleStaff,
	}
}

func TestTokenPairRoundTrip(t *testing.T) {
	svc := NewService("test-secret")

	pair, err := svc.IssueTokenPair(testUser())
	if err != nil {
		t.Fatalf("IssueTokenPair: %v", err)
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Fatal("expected both tokens to be set")
	}

	claims, err := svc.ParseAccess(pair.Access)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("uid = %q, want %q", claims.UserID, "user-1")
	}
	if claims.Role != string(model.UserRoleStaff) {
		t.Errorf("role = %q, want %q", claims.Role, model.UserRoleStaff)
	}
	if claims.Subject != "ada" {
		t.Errorf("sub = %q, want %q", claims.Subject, "ada")
	}
}

func TestRefreshTokenRejectedAsAccess(t *testing.T) {
	svc := NewService("test-secret")

	pair, err := svc.IssueTokenPair(testUser())
	if err != nil {
		t.Fatalf("IssueTokenPair: %v", err)
	}
	if _, err := svc.ParseAccess(pair.Refresh); err == nil {
		t.Error("refresh token must not pass access verification")
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	svc := NewService("test-secret")

	pair, err := svc.IssueTokenPair(testUser())
	if err != nil {
		t.Fatalf("IssueTokenPair: %v", err)
	}
	tampered := pair.Access[:len(pair.Access)-2] + "xx"
	if _, err := svc.ParseAccess(tampered); err == nil {
		t.Error("tampered token must be rejected")
	}
}

func TestWrongSecretRejected(t *testing.T) {
	pair, err := NewService("secret-a").IssueTokenPair(testUser())
	if err != nil {
		t.Fatalf("IssueTokenPair: %v", err)
	}
	if _, err := NewService("secret-b").ParseAccess(pair.Access); err == nil {
		t.Error("token signed with another secret must be rejected")
	}
}

func TestGarbageRejected(t *testing.T) {
	svc := NewService("test-secret")
	for _, tok := range []string{"", "not-a-token", strings.Repeat("a.", 3)} {
		if _, err := svc.ParseAccess(tok); err == nil {
			t.Errorf("expected %q to be rejected", tok)
		}
	}
}
