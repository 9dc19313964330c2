package webserver

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/textmint/textmint/internal/domain"
	"gorm.io/gorm"
)

// IdentityKey is the echo context key the auth middleware stores the resolved
// caller under.
const IdentityKey = "identity"

// Identity is the caller resolved from either a signed token or a personal
// access token.
type Identity struct {
	UserID int64
	Email  string
	Role   string
}

var errInvalidToken = errors.New("invalid token")

// IssueToken signs a short-lived HS256 token embedding the caller's id,
// email and role.
func IssueToken(secret string, user *domain.User, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"id":    strconv.FormatInt(user.ID, 10),
		"email": user.Email,
		"role":  user.Role,
		"exp":   time.Now().Add(ttl).Unix(),
		"iat":   time.Now().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// verifySignedToken checks signature and expiry and extracts the claim set.
func verifySignedToken(secret, raw string) (*Identity, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, errInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidToken
	}
	idStr, _ := claims["id"].(string)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id == 0 {
		return nil, errInvalidToken
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	if !domain.ValidRole(role) {
		return nil, errInvalidToken
	}
	return &Identity{UserID: id, Email: email, Role: role}, nil
}

// AuthMiddleware resolves the caller from the Authorization bearer value.
// Two verification paths exist: a signed session token checked against the
// shared secret, and a personal access token matched against the users table.
// Both failures report the same unauthenticated error.
func AuthMiddleware(secret string, db *gorm.DB) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: IdentityKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			if ident, err := verifySignedToken(secret, auth); err == nil {
				return ident, nil
			}
			var user domain.User
			err := db.WithContext(c.Request().Context()).
				Where("personal_access_token = ?", auth).
				First(&user).Error
			if err != nil {
				return nil, errInvalidToken
			}
			if !user.IsActive {
				return nil, errInvalidToken
			}
			return &Identity{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return Fail(c, 401, "UNAUTHENTICATED", "Invalid or missing token", nil)
		},
	})
}

// RequireRole restricts a route group to callers whose role is in the allowed
// set. A valid token with the wrong role yields forbidden, not unauthorized.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident := CurrentIdentity(c)
			if ident == nil || !allowed[ident.Role] {
				return Fail(c, 403, "FORBIDDEN", "Insufficient permissions", nil)
			}
			return next(c)
		}
	}
}

// CurrentIdentity returns the resolved caller, or nil outside authenticated
// routes.
func CurrentIdentity(c echo.Context) *Identity {
	ident, _ := c.Get(IdentityKey).(*Identity)
	return ident
}
