package security_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Gunvolt24/orderdesk/internal/domain"
	"github.com/Gunvolt24/orderdesk/internal/security"
)

func newIssuer(t *testing.T, now time.Time) *security.TokenIssuer {
	t.Helper()
	iss, err := security.NewTokenIssuer(security.Config{
		SecretKey:  "test-secret",
		Algorithm:  "HS256",
		BcryptCost: 4, // bcrypt.MinCost — быстро в тестах
	})
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	return iss.WithClock(func() time.Time { return now })
}

func TestNewTokenIssuer_Validation(t *testing.T) {
	t.Parallel()

	if _, err := security.NewTokenIssuer(security.Config{}); err == nil {
		t.Fatalf("expected error for empty secret")
	}
	if _, err := security.NewTokenIssuer(security.Config{SecretKey: "s", Algorithm: "RS256"}); err == nil {
		t.Fatalf("expected error for asymmetric algorithm")
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()
	iss := newIssuer(t, time.Now())

	h1, err := iss.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	h2, _ := iss.HashPassword("correct horse")
	if h1 == h2 {
		t.Fatalf("hashes must differ (per-call salt)")
	}
	if strings.Contains(h1, "correct horse") {
		t.Fatalf("hash must not contain plaintext")
	}
	if !iss.VerifyPassword("correct horse", h1) || !iss.VerifyPassword("correct horse", h2) {
		t.Fatalf("VerifyPassword must accept the original password")
	}
	if iss.VerifyPassword("wrong", h1) {
		t.Fatalf("VerifyPassword must reject a wrong password")
	}
	if iss.VerifyPassword("correct horse", "not-a-bcrypt-hash") {
		t.Fatalf("VerifyPassword must reject a malformed digest")
	}
}

func TestCreateAndVerifyTokenPair(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	iss := newIssuer(t, now)

	org := int64(7)
	role := "admin"
	pair, err := iss.CreateTokenPair(42, &org, &role)
	if err != nil {
		t.Fatalf("CreateTokenPair: %v", err)
	}
	if pair.TokenType != "bearer" || pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("unexpected pair: %+v", pair)
	}

	access, err := iss.VerifyToken(pair.AccessToken, domain.TokenAccess)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if access.Subject != "42" || access.Type != domain.TokenAccess {
		t.Fatalf("access payload: %+v", access)
	}
	if !access.ExpiresAt.Equal(now.Add(30 * time.Minute)) {
		t.Fatalf("access exp: got %s", access.ExpiresAt)
	}
	if access.OrganizationID == nil || *access.OrganizationID != 7 || access.Role == nil || *access.Role != "admin" {
		t.Fatalf("optional claims lost: %+v", access)
	}

	refresh, err := iss.VerifyToken(pair.RefreshToken, domain.TokenRefresh)
	if err != nil {
		t.Fatalf("verify refresh: %v", err)
	}
	if !refresh.ExpiresAt.Equal(now.Add(7 * 24 * time.Hour)) {
		t.Fatalf("refresh exp: got %s", refresh.ExpiresAt)
	}
}

func TestVerifyToken_OptionalClaimsOmitted(t *testing.T) {
	t.Parallel()
	iss := newIssuer(t, time.Now())

	pair, err := iss.CreateTokenPair(1, nil, nil)
	if err != nil {
		t.Fatalf("CreateTokenPair: %v", err)
	}

	// в полезной нагрузке нет organization_id/role
	parts := strings.Split(pair.AccessToken, ".")
	if len(parts) != 3 {
		t.Fatalf("malformed jwt: %q", pair.AccessToken)
	}
	payload, err := jwt.NewParser().DecodeSegment(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if strings.Contains(string(payload), "organization_id") || strings.Contains(string(payload), "role") {
		t.Fatalf("optional claims must be omitted: %s", payload)
	}

	got, err := iss.VerifyToken(pair.AccessToken, domain.TokenAccess)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.OrganizationID != nil || got.Role != nil {
		t.Fatalf("expected nil optional claims, got %+v", got)
	}
}

func TestVerifyToken_Errors(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	iss := newIssuer(t, now)

	pair, err := iss.CreateTokenPair(5, nil, nil)
	if err != nil {
		t.Fatalf("CreateTokenPair: %v", err)
	}

	other, err := security.NewTokenIssuer(security.Config{SecretKey: "other-secret"})
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	foreign, _ := other.WithClock(func() time.Time { return now }).CreateTokenPair(5, nil, nil)

	// alg=none с теми же claims
	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "5", "type": "access", "exp": now.Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	// без exp
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "5", "type": "access",
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign noExp: %v", err)
	}

	tests := []struct {
		name     string
		verifier *security.TokenIssuer
		token    string
		expected domain.TokenType
		wantErr  error
	}{
		{"refresh_used_as_access", iss, pair.RefreshToken, domain.TokenAccess, domain.ErrWrongTokenType},
		{"access_used_as_refresh", iss, pair.AccessToken, domain.TokenRefresh, domain.ErrWrongTokenType},
		{"expired_access", iss.WithClock(func() time.Time { return now.Add(31 * time.Minute) }), pair.AccessToken, domain.TokenAccess, domain.ErrTokenExpired},
		{"bad_signature", iss, foreign.AccessToken, domain.TokenAccess, domain.ErrInvalidToken},
		{"garbage", iss, "not.a.jwt", domain.TokenAccess, domain.ErrInvalidToken},
		{"alg_none", iss, noneToken, domain.TokenAccess, domain.ErrInvalidToken},
		{"missing_exp", iss, noExp, domain.TokenAccess, domain.ErrInvalidToken},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := tt.verifier.VerifyToken(tt.token, tt.expected)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("want %v, got %v", tt.wantErr, err)
			}
		})
	}
}
