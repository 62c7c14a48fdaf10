// Package auth resolves the request actor from the bearer token.
package auth

import (
	"context"
	"net/http"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-newsroom/internal/library/models"
	"github.com/Laisky/laisky-newsroom/library"
	"github.com/Laisky/laisky-newsroom/library/jwt"
)

const ctxKeyActor = "newsroom_actor"

// TokenParser verifies access tokens
type TokenParser interface {
	Parse(token string) (*jwt.UserClaims, error)
}

// ErrRevoked the token owner no longer exists or has been deactivated
var ErrRevoked = errors.New("actor revoked")

// ActorResolver loads the current identity behind a token uid.
//
// It returns an error wrapping ErrRevoked when the user is missing or inactive.
type ActorResolver interface {
	ActiveActor(ctx context.Context, uid int64) (models.Actor, error)
}

// ActorResolverFunc adapts a function to ActorResolver
type ActorResolverFunc func(ctx context.Context, uid int64) (models.Actor, error)

// ActiveActor calls f
func (f ActorResolverFunc) ActiveActor(ctx context.Context, uid int64) (models.Actor, error) {
	return f(ctx, uid)
}

// Middleware puts the actor of a valid bearer token into the gin context.
//
// The role comes from actors, not from the token claims, so demoted or
// deactivated users lose their rights immediately.
// Requests without token continue as anonymous, a bad or revoked token is rejected with 401.
func Middleware(parser TokenParser, actors ActorResolver) gin.HandlerFunc {
	if parser == nil || actors == nil {
		panic("auth middleware requires a token parser and an actor resolver")
	}

	return func(ctx *gin.Context) {
		token := library.StripBearerPrefix(ctx.GetHeader("Authorization"))
		if token == "" {
			ctx.Next()
			return
		}

		claims, err := parser.Parse(token)
		if err != nil {
			gmw.GetLogger(ctx).Debug("reject access token", zap.Error(err))
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		actor, err := actors.ActiveActor(ctx.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, ErrRevoked) {
				gmw.GetLogger(ctx).Debug("reject revoked token",
					zap.Int64("uid", claims.UserID), zap.Error(err))
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}

			gmw.GetLogger(ctx).Error("resolve token actor",
				zap.Int64("uid", claims.UserID), zap.Error(err))
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		ctx.Set(ctxKeyActor, actor)
		ctx.Next()
	}
}

// GetActor returns the request actor, zero Actor if anonymous
func GetActor(ctx *gin.Context) models.Actor {
	if v, ok := ctx.Get(ctxKeyActor); ok {
		if actor, ok := v.(models.Actor); ok {
			return actor
		}
	}

	return models.Actor{}
}

// RequireActor aborts anonymous requests with 401
func RequireActor(ctx *gin.Context) {
	if GetActor(ctx).IsAnonymous() {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return
	}

	ctx.Next()
}

// RequireRoles aborts requests whose actor has none of roles
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		actor := GetActor(ctx)
		switch {
		case actor.IsAnonymous():
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		case !actor.HasRole(roles...):
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission denied"})
			return
		}

		ctx.Next()
	}
}
