// server/internal/auth/auth.go
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// JWTClaims defines the payload for the JWT. FacilityID is the caller's single
// home facility; every referral decision is checked against it.
type JWTClaims struct {
	Email      string `json:"email"`
	Role       string `json:"role"`
	FacilityID string `json:"facilityID"`
	StaffID    string `json:"staffID"`
	jwt.RegisteredClaims
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Signer issues and verifies tokens with the configured secret.
type Signer struct {
	secret     []byte
	expiration time.Duration
}

func NewSigner(secret string, expiration time.Duration) *Signer {
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}
	return &Signer{secret: []byte(secret), expiration: expiration}
}

func (s *Signer) Secret() []byte { return s.secret }

func (s *Signer) GenerateJWT(email, role, facilityID, staffID string) (string, error) {
	claims := &JWTClaims{
		Email:      email,
		Role:       role,
		FacilityID: facilityID,
		StaffID:    staffID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.expiration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken verifies a token string and returns its claims.
func (s *Signer) ParseToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
