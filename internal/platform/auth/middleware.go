package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/apperr"
)

// Claims are the fields read from identity provider access tokens. The
// subject is the staff user id.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

type JWTConfig struct {
	Issuer   string
	Audience string
	// SigningKey is the identity provider's HS256 secret.
	SigningKey []byte
}

// Account is the local staff record a token subject must map to.
type Account struct {
	ID     string
	Email  string
	Role   Role
	AreaID *string
	Active bool
}

// AccountLookup resolves token subjects to staff accounts. It returns an
// apperr NotFound error when the subject has no account.
type AccountLookup interface {
	GetAccount(ctx context.Context, id string) (*Account, error)
}

// JWTMiddleware verifies the bearer token and attaches the matching active
// staff account to the request context as a Principal.
func JWTMiddleware(cfg JWTConfig, lookup AccountLookup) echo.MiddlewareFunc {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	keyFunc := func(t *jwt.Token) (interface{}, error) {
		return cfg.SigningKey, nil
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" && c.IsWebSocket() {
				// Browsers cannot set headers on websocket upgrades.
				if tok := c.QueryParam("access_token"); tok != "" {
					authHeader = "Bearer " + tok
				}
			}
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(strings.TrimSpace(parts[1]), claims, keyFunc, opts...)
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if claims.Subject == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
			}

			p, err := resolvePrincipal(c.Request().Context(), lookup, claims.Subject)
			if err != nil {
				return err
			}
			c.SetRequest(c.Request().WithContext(WithPrincipal(c.Request().Context(), p)))
			return next(c)
		}
	}
}

func resolvePrincipal(ctx context.Context, lookup AccountLookup, userID string) (Principal, error) {
	acct, err := lookup.GetAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Principal{}, echo.NewHTTPError(http.StatusForbidden, "user is not registered as staff")
		}
		return Principal{}, apperr.ToHTTP(err)
	}
	if !acct.Active {
		return Principal{}, echo.NewHTTPError(http.StatusForbidden, "user is inactive")
	}
	return Principal{
		UserID: acct.ID,
		Email:  acct.Email,
		Role:   acct.Role,
		AreaID: acct.AreaID,
	}, nil
}

// DevUserHeader selects the staff account to impersonate under DevAuthMiddleware.
const DevUserHeader = "X-Dev-User"

// DevAuthMiddleware is a permissive middleware for local development. With
// no X-Dev-User header the caller acts as an admin; with one, the named
// account is looked up and must be active.
func DevAuthMiddleware(lookup AccountLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			p := Principal{UserID: "dev-user", Role: RoleAdmin}

			if id := c.Request().Header.Get(DevUserHeader); id != "" && lookup != nil {
				var err error
				if p, err = resolvePrincipal(ctx, lookup, id); err != nil {
					return err
				}
			}

			c.SetRequest(c.Request().WithContext(WithPrincipal(ctx, p)))
			return next(c)
		}
	}
}
