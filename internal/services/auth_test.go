package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/boostcart-backend/internal/platform/ctxutil"
	"github.com/yungbote/boostcart-backend/internal/platform/logger"
)

func TestAuthRoundTrip(t *testing.T) {
	as, err := NewAuthService(logger.Nop(), "s3cret")
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	user := uuid.New()
	for _, tc := range []struct {
		role string
		want string
	}{
		{"admin", ctxutil.RoleAdmin},
		{"ADMIN", ctxutil.RoleAdmin},
		{"", ctxutil.RoleCustomer},
		{"root", ctxutil.RoleCustomer},
	} {
		tok, err := as.IssueToken(user, tc.role, time.Minute)
		if err != nil {
			t.Fatalf("IssueToken: %v", err)
		}
		ctx, err := as.SetContextFromToken(context.Background(), tok)
		if err != nil {
			t.Fatalf("SetContextFromToken: %v", err)
		}
		rd := ctxutil.GetRequestData(ctx)
		if rd == nil || rd.UserID != user || rd.Role != tc.want {
			t.Fatalf("role %q: got %+v", tc.role, rd)
		}
	}
}

func TestAuthRejectsBadTokens(t *testing.T) {
	as, _ := NewAuthService(logger.Nop(), "s3cret")
	other, _ := NewAuthService(logger.Nop(), "different")
	user := uuid.New()

	foreign, _ := other.IssueToken(user, "admin", time.Minute)
	expired := signClaims(t, "s3cret", jwt.SigningMethodHS256, JWTClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   user.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}})
	noExpiry := signClaims(t, "s3cret", jwt.SigningMethodHS256, JWTClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: user.String()}})
	badSubject := signClaims(t, "s3cret", jwt.SigningMethodHS256, JWTClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "not-a-uuid",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}})
	wrongAlg := signClaims(t, "s3cret", jwt.SigningMethodHS512, JWTClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   user.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}})

	for name, tok := range map[string]string{
		"empty":       "",
		"garbage":     "abc.def.ghi",
		"foreign key": foreign,
		"expired":     expired,
		"no expiry":   noExpiry,
		"bad subject": badSubject,
		"wrong alg":   wrongAlg,
	} {
		ctx, err := as.SetContextFromToken(context.Background(), tok)
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if ctxutil.GetRequestData(ctx) != nil {
			t.Fatalf("%s: request data must not be attached", name)
		}
	}
}

func TestNewAuthServiceRequiresSecret(t *testing.T) {
	if _, err := NewAuthService(logger.Nop(), "  "); err == nil {
		t.Fatalf("expected error for blank secret")
	}
}

func signClaims(t *testing.T, secret string, method jwt.SigningMethod, claims JWTClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}
