package session_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ErlanBelekov/uptask-api/internal/session"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "session-test-secret-32-chars!!!!"

func newIssuer(t *testing.T, now func() time.Time) *session.Issuer {
	t.Helper()
	iss, err := session.NewIssuer(session.Config{
		Secret:          []byte(testSecret),
		AccessTTL:       15 * time.Minute,
		RefreshShortTTL: 24 * time.Hour,
		RefreshLongTTL:  30 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	return iss.WithClock(now)
}

func TestIssueAndVerify(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	iss := newIssuer(t, func() time.Time { return now })

	access, err := iss.IssueAccess("user-1")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	claims, err := iss.Verify(access)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Type != session.ClassAccess {
		t.Errorf("claims = %+v", claims)
	}
	if claims.ID == "" {
		t.Error("jti should be set")
	}

	refresh, err := iss.IssueRefresh("user-1", session.RefreshClass(true))
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	claims, err = iss.Verify(refresh)
	if err != nil {
		t.Fatalf("verify refresh: %v", err)
	}
	if claims.Type != session.ClassRefreshLong {
		t.Errorf("type = %s, want refresh_long", claims.Type)
	}
	if got := claims.ExpiresAt.Sub(now); got != 30*24*time.Hour {
		t.Errorf("refresh ttl = %s, want 720h", got)
	}
}

func TestTokensAreUnique(t *testing.T) {
	now := time.Now()
	iss := newIssuer(t, func() time.Time { return now })

	a, _ := iss.IssueRefresh("user-1", session.ClassRefreshShort)
	b, _ := iss.IssueRefresh("user-1", session.ClassRefreshShort)
	if a == b {
		t.Error("tokens issued in the same second should still differ")
	}
}

func TestVerifyExpired(t *testing.T) {
	now := time.Now()
	iss := newIssuer(t, func() time.Time { return now })

	tok, _ := iss.IssueAccess("user-1")
	now = now.Add(15*time.Minute + time.Second)

	if _, err := iss.Verify(tok); !errors.Is(err, session.ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	iss := newIssuer(t, time.Now)

	sign := func(method jwt.SigningMethod, key any, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	cases := map[string]string{
		"garbage":   "not.a.jwt",
		"wrong key": sign(jwt.SigningMethodHS256, []byte("another-secret-that-is-32-chars!"), session.Claims{UserID: "u", Type: session.ClassAccess, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}}),
		"hs512":     sign(jwt.SigningMethodHS512, []byte(testSecret), session.Claims{UserID: "u", Type: session.ClassAccess, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}}),
		"no exp":    sign(jwt.SigningMethodHS256, []byte(testSecret), session.Claims{UserID: "u", Type: session.ClassAccess}),
		"no user":   sign(jwt.SigningMethodHS256, []byte(testSecret), session.Claims{Type: session.ClassAccess, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}}),
		"bad class": sign(jwt.SigningMethodHS256, []byte(testSecret), session.Claims{UserID: "u", Type: "admin", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}}),
	}
	for name, tok := range cases {
		if _, err := iss.Verify(tok); !errors.Is(err, session.ErrInvalidToken) {
			t.Errorf("%s: err = %v, want ErrInvalidToken", name, err)
		}
	}
}

func TestIssueRefreshRejectsAccessClass(t *testing.T) {
	iss := newIssuer(t, time.Now)
	if _, err := iss.IssueRefresh("user-1", session.ClassAccess); err == nil {
		t.Error("expected error")
	}
}

func TestNewIssuerValidatesConfig(t *testing.T) {
	_, err := session.NewIssuer(session.Config{
		Secret:          []byte("short"),
		AccessTTL:       time.Minute,
		RefreshShortTTL: time.Hour,
		RefreshLongTTL:  time.Hour,
	})
	if err == nil {
		t.Error("expected error for short secret")
	}
}
