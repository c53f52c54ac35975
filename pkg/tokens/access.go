package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims is the payload of the bearer token handed out on signup and login.
type AccessClaims struct {
	UserID        string `json:"userId"`
	IsCourseMaker bool   `json:"isCourseMaker"`
	jwt.RegisteredClaims
}

var ErrMissingUserID = errors.New("token has no userId")

func NewAccessToken(userID string, isCourseMaker bool, exp time.Time, secret []byte) (string, error) {
	claims := AccessClaims{
		UserID:        userID,
		IsCourseMaker: isCourseMaker,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func AccessClaimsFromToken(tokenStr string, secret []byte) (*AccessClaims, error) {
	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	return &claims, nil
}
