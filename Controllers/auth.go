package Controllers

import (
	"errors"
	"strings"
	"time"

	"ShiftAudit/Models"
	"ShiftAudit/Store"
	"ShiftAudit/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	FullName string `json:"full_name" validate:"required,max=255"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthController handles sign-up, sign-in and sign-out
type AuthController struct {
	Accounts     Store.Accounts
	Secret       []byte
	TokenTTL     time.Duration
	CookieSecure bool
	Log          *zap.Logger
}

func NewAuthController(accounts Store.Accounts, secret []byte, ttl time.Duration, secure bool, log *zap.Logger) *AuthController {
	return &AuthController{Accounts: accounts, Secret: secret, TokenTTL: ttl, CookieSecure: secure, Log: log}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// startSession creates the login session row, signs its token and sets the
// cookie.
func (a *AuthController) startSession(ctx *fiber.Ctx, user *Models.User) (string, time.Time, error) {
	expiresAt := time.Now().Add(a.TokenTTL)
	ls, err := a.Accounts.CreateLoginSession(ctx.UserContext(), user.ID, expiresAt)
	if err != nil {
		return "", time.Time{}, err
	}
	token, err := middleware.IssueToken(a.Secret, user.ID, ls.ID, expiresAt)
	if err != nil {
		return "", time.Time{}, err
	}
	ctx.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   a.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return token, expiresAt, nil
}

// SignUp registers a user with a profile and signs them in
// POST /api/auth/signup
func (a *AuthController) SignUp(ctx *fiber.Ctx) error {
	var req SignUpRequest
	if handled, err := bind(ctx, &req); handled {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return respondError(ctx, a.Log, err)
	}

	user, err := a.Accounts.CreateUser(ctx.UserContext(), normalizeEmail(req.Email), hash, strings.TrimSpace(req.FullName))
	if errors.Is(err, Store.ErrDuplicateEmail) {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "This email is already registered"})
	}
	if err != nil {
		return respondError(ctx, a.Log, err)
	}

	token, expiresAt, err := a.startSession(ctx, user)
	if err != nil {
		return respondError(ctx, a.Log, err)
	}

	a.Log.Info("user signed up", zap.String("user_id", user.ID.String()))
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":       user,
		"full_name":  strings.TrimSpace(req.FullName),
		"token":      token,
		"expires_at": expiresAt,
	})
}

// SignIn checks the password and opens a login session
// POST /api/auth/signin
func (a *AuthController) SignIn(ctx *fiber.Ctx) error {
	var req SignInRequest
	if handled, err := bind(ctx, &req); handled {
		return err
	}

	user, err := a.Accounts.FindUserByEmail(ctx.UserContext(), normalizeEmail(req.Email))
	if err != nil && !errors.Is(err, Store.ErrNotFound) {
		return respondError(ctx, a.Log, err)
	}
	if user == nil || bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.Password)) != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}

	token, expiresAt, err := a.startSession(ctx, user)
	if err != nil {
		return respondError(ctx, a.Log, err)
	}
	return ctx.JSON(fiber.Map{
		"user":       user,
		"token":      token,
		"expires_at": expiresAt,
	})
}

// SignOut deletes the login session so its token stops working
// POST /api/auth/signout
func (a *AuthController) SignOut(ctx *fiber.Ctx) error {
	if id, ok := middleware.CurrentLoginSession(ctx); ok {
		if err := a.Accounts.DeleteLoginSession(ctx.UserContext(), id); err != nil {
			return respondError(ctx, a.Log, err)
		}
	}
	ctx.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   a.CookieSecure,
	})
	return ctx.JSON(fiber.Map{"message": "Signed out"})
}

// Me returns the signed-in user and profile
// GET /api/auth/me
func (a *AuthController) Me(ctx *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(ctx)
	resp := fiber.Map{"user": user}
	profile, err := a.Accounts.GetProfile(ctx.UserContext(), user.ID)
	switch {
	case err == nil:
		resp["full_name"] = profile.FullName
	case !errors.Is(err, Store.ErrNotFound):
		return respondError(ctx, a.Log, err)
	}
	return ctx.JSON(resp)
}
