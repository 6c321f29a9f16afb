package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/judyrop/restaurant-backend/apperr"
)

type Verifier interface {
	Verify(ctx context.Context, raw string) (Principal, error)
}

// Chain tries each verifier in order and accepts the first success.
type Chain []Verifier

func (c Chain) Verify(ctx context.Context, raw string) (Principal, error) {
	err := apperr.Unauthorized("invalid token")
	for _, v := range c {
		p, verr := v.Verify(ctx, raw)
		if verr == nil {
			return p, nil
		}
		err = verr
	}
	return Principal{}, err
}

const principalKey = "auth.principal"

// Middleware rejects requests without a valid bearer token.
func Middleware(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		p, err := v.Verify(c.Request.Context(), token)
		if err != nil {
			status, msg := http.StatusUnauthorized, "Invalid token"
			if apperr.KindOf(err) != apperr.KindUnauthorized {
				status, msg = apperr.HTTPStatus(err), apperr.Message(err)
			}
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// FromContext returns the caller set by Middleware, or the anonymous principal.
func FromContext(c *gin.Context) Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(Principal); ok {
			return p
		}
	}
	return Principal{}
}
