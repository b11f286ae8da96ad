// Package jwtauth issues and validates the bearer tokens callers present.
// The token subject is the caller's account id; there are no sessions.
package jwtauth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "aidgate/pkg/domain"
	dErrors "aidgate/pkg/domain-errors"
)

// Claims carries the account identity inside the signed token.
type Claims struct {
	AccountID string `json:"account_id"`
	jwt.RegisteredClaims
}

// Service signs and validates HMAC access tokens.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
}

func New(signingKey, issuer, audience string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// GenerateToken signs a token for the account, valid for expiresIn.
func (s *Service) GenerateToken(account id.AccountID, expiresIn time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		AccountID: account.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// ValidateToken parses and verifies a token string.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// ExtractAccountID validates the token and returns the caller account.
func (s *Service) ExtractAccountID(tokenString string) (id.AccountID, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return id.AccountID{}, err
	}
	account, err := id.ParseAccountID(claims.AccountID)
	if err != nil {
		return id.AccountID{}, dErrors.New(dErrors.CodeUnauthorized, "token subject is not a valid account")
	}
	return account, nil
}
