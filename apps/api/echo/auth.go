package echoapi

import (
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/tadeufagundes/go-geo-meet/core"
)

const jwtContextKey = "userToken"

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    jwtContextKey,
		Claims:        new(Claims),
	}
}

func GetIdentityClaims(conf *core.Config, id core.Identity) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   id.ID,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:  id.Name,
		Email: id.Email,
	}
}

// GenerateToken generates a signed JWT token string representing the identity Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(jwtContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, core.ErrUnauthorized()
}

func getContextIdentity(ctx echo.Context) (core.Identity, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return core.Identity{}, err
	}
	return core.Identity{ID: claims.Subject, Name: claims.Name, Email: claims.Email}, nil
}

// optionalIdentity returns the authenticated identity if any; anonymous callers
// get a zero Identity.
func optionalIdentity(ctx echo.Context) core.Identity {
	id, _ := getContextIdentity(ctx)
	return id
}

// optionalAuth decodes the Claims off a Bearer token when one is present and valid;
// requests without (or with a bad) token proceed anonymously.
func optionalAuth(conf *core.Config) echo.MiddlewareFunc {
	key := []byte(conf.SecretKey)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
			if strings.HasPrefix(auth, "Bearer ") {
				raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
				token, err := jwt.ParseWithClaims(raw, new(Claims), func(t *jwt.Token) (interface{}, error) {
					if t.Method.Alg() != middleware.AlgorithmHS256 {
						return nil, errors.Errorf("unexpected signing method: %v", t.Method.Alg())
					}
					return key, nil
				})
				if err == nil && token.Valid {
					ctx.Set(jwtContextKey, token)
				}
			}
			return next(ctx)
		}
	}
}
