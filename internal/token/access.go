package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/EgehanKilicarslan/studyai/auth-go/internal/config"
)

// AccessTokenIssuer signs short-lived access credentials. The rotation core only
// relies on Issue and ExpirySeconds.
type AccessTokenIssuer interface {
	Issue(userID uint, roles []string, emailVerified bool) (string, error)
	ExpirySeconds() int64
	Validate(tokenString string) (*AccessClaims, error)
}

// AccessClaims is the claim set carried by access tokens
type AccessClaims struct {
	UserID        uint     `json:"user_id"`
	Roles         []string `json:"roles,omitempty"`
	EmailVerified bool     `json:"email_verified"`
	Type          string   `json:"type"`
	jwt.RegisteredClaims
}

const accessTokenType = "access"

var ErrInvalidAccessToken = errors.New("invalid access token")

type jwtIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTIssuer creates an HS256 issuer from the service configuration
func NewJWTIssuer(cfg *config.Config) AccessTokenIssuer {
	return &jwtIssuer{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.JWTIssuer,
		ttl:    time.Duration(cfg.AccessTokenExpiration) * time.Second,
		now:    time.Now,
	}
}

func (i *jwtIssuer) Issue(userID uint, roles []string, emailVerified bool) (string, error) {
	now := i.now()
	claims := AccessClaims{
		UserID:        userID,
		Roles:         roles,
		EmailVerified: emailVerified,
		Type:          accessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

func (i *jwtIssuer) ExpirySeconds() int64 {
	return int64(i.ttl / time.Second)
}

func (i *jwtIssuer) Validate(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidAccessToken
	}

	if claims.Type != accessTokenType || claims.UserID == 0 {
		return nil, ErrInvalidAccessToken
	}

	return claims, nil
}
