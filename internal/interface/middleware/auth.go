package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/storyverse-api/internal/domain/entity"
	"github.com/oksasatya/storyverse-api/pkg/helpers"
	"github.com/oksasatya/storyverse-api/pkg/response"
)

const (
	CtxUserIDKey  = "userID"
	ctxAccountKey = "account"
)

type accountCtxKey struct{}

// AccountResolver loads the account behind a verified token.
type AccountResolver interface {
	Profile(ctx context.Context, accountID string) (*entity.Account, error)
}

func bearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if tok, err := c.Cookie(helpers.SessionCookie); err == nil {
		return tok
	}
	return ""
}

func unauthorized(c *gin.Context, msg string) {
	response.Error[any](c, http.StatusUnauthorized, msg, nil)
	c.Abort()
}

// resolve verifies the request token and loads its account. Accounts that have
// logged out are treated as missing even while the token is unexpired.
func resolve(c *gin.Context, accounts AccountResolver, jwt *helpers.JWTManager) (*entity.Account, string) {
	token := bearerToken(c)
	if token == "" {
		return nil, "missing access token"
	}
	claims, err := jwt.Verify(token)
	if err != nil {
		return nil, "invalid access token"
	}
	acc, err := accounts.Profile(c.Request.Context(), claims.UserID)
	if err != nil || acc == nil || !acc.IsLoggedIn {
		return nil, "session not found"
	}
	return acc, ""
}

func setAccount(c *gin.Context, acc *entity.Account) {
	c.Set(CtxUserIDKey, acc.ID)
	c.Set(ctxAccountKey, acc)
	c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), accountCtxKey{}, acc))
}

// Auth accepts a session token from the Authorization header or the session
// cookie, verifies it and re-resolves the account. Any failure is a 401.
func Auth(accounts AccountResolver, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		acc, reason := resolve(c, accounts, jwt)
		if acc == nil {
			unauthorized(c, reason)
			return
		}
		setAccount(c, acc)
		c.Next()
	}
}

// Identify is Auth without the rejection: a valid session sets the account,
// anything else leaves the request anonymous.
func Identify(accounts AccountResolver, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if acc, _ := resolve(c, accounts, jwt); acc != nil {
			setAccount(c, acc)
		}
		c.Next()
	}
}

// RequireRole rejects authenticated callers whose role differs from role.
// An empty role lets every authenticated caller through.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if role == "" {
			c.Next()
			return
		}
		acc := CurrentAccount(c)
		if acc == nil {
			unauthorized(c, "unauthorized")
			return
		}
		if string(acc.Role) != role {
			response.Error[any](c, http.StatusForbidden, "forbidden", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentAccount returns the account set by Auth, or nil.
func CurrentAccount(c *gin.Context) *entity.Account {
	v, ok := c.Get(ctxAccountKey)
	if !ok {
		return nil
	}
	acc, _ := v.(*entity.Account)
	return acc
}

func AccountFromContext(ctx context.Context) (*entity.Account, bool) {
	acc, ok := ctx.Value(accountCtxKey{}).(*entity.Account)
	return acc, ok && acc != nil
}
