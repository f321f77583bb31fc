package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenValidity is the fixed session token lifetime.
const TokenValidity = time.Hour

// Claims embeds the registered JWT claims plus the account identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// TokenIssuer signs and verifies session tokens with a shared HS256 secret.
// Tokens are stateless; there is no server-side session store and no
// revocation before expiry.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

func NewTokenIssuer(secret []byte) *TokenIssuer {
	return &TokenIssuer{secret: secret, now: time.Now}
}

func (ti *TokenIssuer) Issue(userID int64, username string) (string, error) {
	issued := ti.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(TokenValidity)),
		},
		UserID:   userID,
		Username: username,
	})
	return token.SignedString(ti.secret)
}

// Verify parses and validates a token string. Any malformed, tampered or
// expired token yields ok=false; it never panics or returns an error past
// this boundary.
func (ti *TokenIssuer) Verify(tokenString string) (Identity, bool) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return ti.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(func() time.Time { return ti.now() }))
	if err != nil || !token.Valid {
		return Identity{}, false
	}
	return Identity{UserID: claims.UserID, Username: claims.Username}, true
}
