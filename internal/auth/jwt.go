// Package auth provides credential hashing, token issuance and validation,
// and the request-scoped identity helpers for the link-sharing API.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. A client calls the signup or login mutation with email + password
//  2. The server checks/stores the bcrypt hash and issues a signed JWT
//  3. The client sends it back as "Authorization: Bearer <jwt>"
//  4. The Identify middleware validates it and puts the userId in the
//     request context; mutations that need a caller use RequireUser
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims (data) → {"userId":7,"iss":"hackernews","iat":...,"jti":"..."}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// The server can verify the signature without any DB lookup, only the secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"

	"github.com/sakif/hackernews/internal/apperror"
)

const issuer = "hackernews"

// MinSecretLength is the shortest signing secret NewTokenService accepts.
const MinSecretLength = 16

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens.
// The same secret must be used for both operations. Anyone holding it can
// mint a token for any user, so it comes from configuration and is never
// compiled in.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret.
//
// ttl is the token lifetime. Zero means tokens carry no "exp" claim and
// stay valid until the secret is rotated.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", MinSecretLength)
	}
	if ttl < 0 {
		return nil, errors.New("auth: token TTL must not be negative")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// Claims is the JWT payload: the user id plus the registered claims.
type Claims struct {
	UserID int `json:"userId"`
	jwt.RegisteredClaims
}

// Issue creates and signs a new token for userID.
//
// Every token gets a fresh "jti" (an xid), so two tokens issued for the same
// user in the same second are still distinct strings.
func (s *TokenService) Issue(userID int) (string, error) {
	return s.issueAt(userID, time.Now(), s.ttl)
}

func (s *TokenService) issueAt(userID int, now time.Time, ttl time.Duration) (string, error) {
	c := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       xid.New().String(),
			Issuer:   issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl != 0 {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	// jwt.NewWithClaims creates an unsigned token with the given algorithm.
	// SignedString(key) signs it and returns the complete JWT string.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string and returns the userId it carries.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
//   - Issuer matches (prevents tokens minted by other apps with the same secret)
//   - Not expired, when the token has an "exp" claim
//
// Every failure is reported as apperror.ErrInvalidToken; the library error is
// kept in the chain for logging.
func (s *TokenService) Validate(tokenStr string) (int, error) {
	if tokenStr == "" {
		return 0, apperror.InvalidToken(errors.New("empty token"))
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
	}
	if s.ttl != 0 {
		opts = append(opts, jwt.WithExpirationRequired())
	}

	var c Claims
	token, err := jwt.ParseWithClaims(tokenStr, &c, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		return 0, apperror.InvalidToken(err)
	}
	if !token.Valid {
		return 0, apperror.InvalidToken(nil)
	}
	if c.UserID <= 0 {
		return 0, apperror.InvalidToken(errors.New("token has no userId"))
	}

	return c.UserID, nil
}
