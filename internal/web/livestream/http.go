package livestream

import (
	"context"
	"net/http"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-newsroom/internal/library/models"
	"github.com/Laisky/laisky-newsroom/library/auth"
)

// RegisterRoutes mounts /live-stream endpoints
func RegisterRoutes(r gin.IRouter, svc *Service, timeout time.Duration) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	adminOnly := auth.RequireRoles(models.RoleAdministrator)

	r.GET("/live-stream", func(ctx *gin.Context) {
		reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), timeout)
		defer cancel()

		st, err := svc.Get(reqCtx)
		if err != nil {
			abortWithError(ctx, err)
			return
		}

		ctx.JSON(http.StatusOK, gin.H{"stream": st})
	})

	r.PUT("/live-stream", adminOnly, func(ctx *gin.Context) {
		var in Input
		if err := ctx.ShouldBindJSON(&in); err != nil {
			abortWithError(ctx, errors.Wrap(ErrInvalidInput, err.Error()))
			return
		}

		reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), timeout)
		defer cancel()

		st, err := svc.Set(reqCtx, auth.GetActor(ctx), in)
		if err != nil {
			abortWithError(ctx, err)
			return
		}

		ctx.JSON(http.StatusOK, gin.H{"stream": st})
	})

	r.DELETE("/live-stream", adminOnly, func(ctx *gin.Context) {
		reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), timeout)
		defer cancel()

		if err := svc.Clear(reqCtx, auth.GetActor(ctx)); err != nil {
			abortWithError(ctx, err)
			return
		}

		ctx.Status(http.StatusNoContent)
	})
}

func abortWithError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrForbidden):
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvalidInput):
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		gmw.GetLogger(ctx).Error("live stream request failed", zap.Error(err))
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
