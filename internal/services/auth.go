package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/boostcart-backend/internal/platform/ctxutil"
	"github.com/yungbote/boostcart-backend/internal/platform/logger"
)

type JWTClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// AuthService verifies bearer tokens minted by the account service. Token
// issuance here is only used by tooling and tests.
type AuthService interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	IssueToken(userID uuid.UUID, role string, ttl time.Duration) (string, error)
}

type authService struct {
	log          *logger.Logger
	jwtSecretKey string
}

func NewAuthService(log *logger.Logger, jwtSecretKey string) (AuthService, error) {
	if strings.TrimSpace(jwtSecretKey) == "" {
		return nil, errors.New("jwt secret key is required")
	}
	return &authService{
		log:          log.With("service", "AuthService"),
		jwtSecretKey: jwtSecretKey,
	}, nil
}

func (as *authService) IssueToken(userID uuid.UUID, role string, ttl time.Duration) (string, error) {
	if userID == uuid.Nil {
		return "", errors.New("missing user id")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	now := time.Now()
	claims := JWTClaims{
		Role: normalizeRole(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, errors.New("missing token")
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return ctx, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, errors.New("invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return ctx, fmt.Errorf("invalid user id in token: %q", claims.Subject)
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		UserID: userID,
		Role:   normalizeRole(claims.Role),
	}), nil
}

func normalizeRole(role string) string {
	if strings.EqualFold(strings.TrimSpace(role), ctxutil.RoleAdmin) {
		return ctxutil.RoleAdmin
	}
	return ctxutil.RoleCustomer
}
