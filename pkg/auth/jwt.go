package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskapp/pkg/config"
)

var ErrInvalidToken = errors.New("invalid access token")

// Claims carries the user id under "user_id" alongside the registered claims.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

type JWT struct {
	Secret    string
	ExpiresIn time.Duration
	Issuer    string
}

func New(cfg config.JWTConfig) *JWT {
	return &JWT{
		Secret:    cfg.Secret,
		ExpiresIn: cfg.ExpiresIn,
		Issuer:    cfg.Issuer,
	}
}

func (j *JWT) CreateToken(userID int64) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ExpiresIn)),
		},
	})

	return token.SignedString([]byte(j.Secret))
}

// VerifyToken returns the user id carried by a valid token.
func (j *JWT) VerifyToken(tokenString string) (int64, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return []byte(j.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())

	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return 0, ErrInvalidToken
	}

	if claims.UserID <= 0 {
		return 0, ErrInvalidToken
	}

	return claims.UserID, nil
}
