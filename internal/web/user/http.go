package user

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-newsroom/internal/library/models"
	"github.com/Laisky/laisky-newsroom/library/auth"
)

// Controller user http handlers
type Controller struct {
	svc     *Service
	timeout time.Duration
}

// NewController create user controller
func NewController(svc *Service, timeout time.Duration) *Controller {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Controller{svc: svc, timeout: timeout}
}

// RegisterRoutes mounts /auth and /users endpoints
func (c *Controller) RegisterRoutes(r gin.IRouter) {
	r.POST("/auth/register", c.register)
	r.POST("/auth/login", c.login)

	users := r.Group("/users")
	users.GET("/me", auth.RequireActor, c.me)

	admin := users.Group("", auth.RequireRoles(models.RoleAdministrator))
	admin.GET("", c.list)
	admin.GET("/:id", c.get)
	admin.PATCH("/:id/role", c.updateRole)
	admin.PATCH("/:id/activate", c.setActive(true))
	admin.DELETE("/:id", c.setActive(false))
}

func (c *Controller) register(ctx *gin.Context) {
	var in RegisterInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		abortWithError(ctx, errors.Wrap(ErrInvalidInput, err.Error()))
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), c.timeout)
	defer cancel()

	sess, err := c.svc.Register(reqCtx, in)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, sess)
}

func (c *Controller) login(ctx *gin.Context) {
	req := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		abortWithError(ctx, errors.Wrap(ErrInvalidInput, err.Error()))
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), c.timeout)
	defer cancel()

	sess, err := c.svc.Login(reqCtx, req.Email, req.Password)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, sess)
}

func (c *Controller) me(ctx *gin.Context) {
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), c.timeout)
	defer cancel()

	u, err := c.svc.Get(reqCtx, auth.GetActor(ctx).ID)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (c *Controller) list(ctx *gin.Context) {
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), c.timeout)
	defer cancel()

	users, err := c.svc.List(reqCtx, auth.GetActor(ctx))
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, users)
}

func (c *Controller) get(ctx *gin.Context) {
	id, ok := parseUserID(ctx)
	if !ok {
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), c.timeout)
	defer cancel()

	u, err := c.svc.Get(reqCtx, id)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (c *Controller) updateRole(ctx *gin.Context) {
	id, ok := parseUserID(ctx)
	if !ok {
		return
	}

	req := struct {
		Role string `json:"role"`
	}{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		abortWithError(ctx, errors.Wrap(ErrInvalidInput, err.Error()))
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), c.timeout)
	defer cancel()

	u, err := c.svc.UpdateRole(reqCtx, auth.GetActor(ctx), id, req.Role)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (c *Controller) setActive(active bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, ok := parseUserID(ctx)
		if !ok {
			return
		}

		reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), c.timeout)
		defer cancel()

		u, err := c.svc.SetActive(reqCtx, auth.GetActor(ctx), id, active)
		if err != nil {
			abortWithError(ctx, err)
			return
		}

		ctx.JSON(http.StatusOK, u)
	}
}

func parseUserID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abortWithError(ctx, errors.Wrapf(ErrInvalidInput, "user id %q", ctx.Param("id")))
		return 0, false
	}

	return id, true
}

func abortWithError(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInactive):
		status = http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		gmw.GetLogger(ctx).Error("user request failed", zap.Error(err))
		ctx.AbortWithStatusJSON(status, gin.H{"error": "internal server error"})
		return
	}

	ctx.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
