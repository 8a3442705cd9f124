package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"ShiftAudit/Models"
	"ShiftAudit/Store"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const CookieName = "jwt"

const (
	localUser         = "user"
	localLoginSession = "login_session"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// SessionLookup resolves the login session and user named by a token.
type SessionLookup interface {
	GetLoginSession(ctx context.Context, id uuid.UUID) (*Models.LoginSession, error)
	GetUser(ctx context.Context, id uuid.UUID) (*Models.User, error)
}

// IssueToken signs a token whose issuer is the user and whose id is the
// login session row backing it.
func IssueToken(secret []byte, userID, loginSessionID uuid.UUID, expiresAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    userID.String(),
		ID:        loginSessionID.String(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken validates the signature and expiry of raw.
func ParseToken(secret []byte, raw string) (*jwt.RegisteredClaims, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// tokenFrom reads the token from the jwt cookie, falling back to a bearer
// Authorization header.
func tokenFrom(c *fiber.Ctx) string {
	if cookie := c.Cookies(CookieName); cookie != "" {
		return cookie
	}
	if auth := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// Verify rejects requests without a live login session and stores the user
// in the request locals.
func Verify(secret []byte, accounts SessionLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := tokenFrom(c)
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Not Logged In.",
			})
		}

		claims, err := ParseToken(secret, raw)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		sessionID, err1 := uuid.Parse(claims.ID)
		userID, err2 := uuid.Parse(claims.Issuer)
		if err1 != nil || err2 != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token claims",
			})
		}

		ctx := c.UserContext()
		ls, err := accounts.GetLoginSession(ctx, sessionID)
		if errors.Is(err, Store.ErrNotFound) || (err == nil && (ls.UserID != userID || time.Now().After(ls.ExpiresAt))) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Session ended, please sign in again",
			})
		}
		if err != nil {
			return err
		}

		user, err := accounts.GetUser(ctx, userID)
		if errors.Is(err, Store.ErrNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		if err != nil {
			return err
		}

		c.Locals(localUser, *user)
		c.Locals(localLoginSession, ls.ID)
		return c.Next()
	}
}

// CurrentUser returns the user stored by Verify.
func CurrentUser(c *fiber.Ctx) (Models.User, bool) {
	user, ok := c.Locals(localUser).(Models.User)
	return user, ok
}

// CurrentLoginSession returns the login session id stored by Verify.
func CurrentLoginSession(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(localLoginSession).(uuid.UUID)
	return id, ok
}
