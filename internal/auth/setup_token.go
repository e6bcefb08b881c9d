package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenTypeSetup = "setup"

var ErrInvalidToken = errors.New("invalid token")

// SetupClaims authorize a single password setup for one account.
type SetupClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Type   string `json:"typ"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// IssueSetup returns the signed token and its id; the caller stores the id so
// the token can be consumed once.
func (tm *TokenManager) IssueSetup(userID, email string) (token, tokenID string, err error) {
	now := tm.now()
	tokenID = uuid.NewString()
	claims := SetupClaims{
		UserID: userID,
		Email:  email,
		Type:   tokenTypeSetup,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Issuer:    tm.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return "", "", err
	}
	return token, tokenID, nil
}

func (tm *TokenManager) ParseSetup(tokenStr string) (*SetupClaims, error) {
	claims := &SetupClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tm.issuer),
		jwt.WithTimeFunc(tm.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || claims.Type != tokenTypeSetup || claims.ID == "" || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
