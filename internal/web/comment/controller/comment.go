// Package controller exposes the comment thread over HTTP.
package controller

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Laisky/laisky-newsroom/internal/web/comment/model"
	"github.com/Laisky/laisky-newsroom/internal/web/comment/service"
	"github.com/Laisky/laisky-newsroom/library/auth"
)

const defaultTimeout = 10 * time.Second

// Controller comment http handlers
type Controller struct {
	svc     *service.Service
	timeout time.Duration
}

// New create comment controller, timeout <= 0 means 10s
func New(svc *service.Service, timeout time.Duration) *Controller {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Controller{svc: svc, timeout: timeout}
}

// RegisterRoutes mounts the comment endpoints
func (c *Controller) RegisterRoutes(r gin.IRouter) {
	grp := r.Group("/comments")
	grp.POST("", auth.RequireActor, c.Create)
	grp.GET("/article/:articleID", c.GetThread)
	grp.GET("/:id", c.Get)
	grp.PATCH("/:id", auth.RequireActor, c.Edit)
	grp.DELETE("/:id", auth.RequireActor, c.Delete)
}

type createCommentRequest struct {
	ArticleID int64   `json:"article_id"`
	Content   string  `json:"content"`
	ParentID  *string `json:"parent_id"`
}

type editCommentRequest struct {
	Content string `json:"content"`
}

// Create POST /comments
func (c *Controller) Create(ctx *gin.Context) {
	req := new(createCommentRequest)
	if err := ctx.ShouldBindJSON(req); err != nil {
		abortWithError(ctx, errors.Wrap(model.ErrInvalidInput, err.Error()))
		return
	}

	var parentID *uuid.UUID
	if req.ParentID != nil && *req.ParentID != "" {
		id, err := uuid.Parse(*req.ParentID)
		if err != nil {
			abortWithError(ctx, errors.Wrapf(model.ErrInvalidInput, "parent_id %q", *req.ParentID))
			return
		}
		parentID = &id
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), c.timeout)
	defer cancel()

	cmt, err := c.svc.CreateComment(reqCtx, req.ArticleID, auth.GetActor(ctx).ID, req.Content, parentID)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, cmt)
}

// GetThread GET /comments/article/:articleID
func (c *Controller) GetThread(ctx *gin.Context) {
	articleID, err := strconv.ParseInt(ctx.Param("articleID"), 10, 64)
	if err != nil {
		abortWithError(ctx, errors.Wrapf(model.ErrInvalidInput, "article id %q", ctx.Param("articleID")))
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), c.timeout)
	defer cancel()

	thread, err := c.svc.GetThread(reqCtx, articleID)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, thread)
}

// Get GET /comments/:id
func (c *Controller) Get(ctx *gin.Context) {
	id, ok := parseCommentID(ctx)
	if !ok {
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), c.timeout)
	defer cancel()

	cmt, err := c.svc.GetComment(reqCtx, id)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, cmt)
}

// Edit PATCH /comments/:id
func (c *Controller) Edit(ctx *gin.Context) {
	id, ok := parseCommentID(ctx)
	if !ok {
		return
	}

	req := new(editCommentRequest)
	if err := ctx.ShouldBindJSON(req); err != nil {
		abortWithError(ctx, errors.Wrap(model.ErrInvalidInput, err.Error()))
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), c.timeout)
	defer cancel()

	cmt, err := c.svc.EditComment(reqCtx, id, auth.GetActor(ctx), req.Content)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, cmt)
}

// Delete DELETE /comments/:id
func (c *Controller) Delete(ctx *gin.Context) {
	id, ok := parseCommentID(ctx)
	if !ok {
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), c.timeout)
	defer cancel()

	if err := c.svc.DeleteComment(reqCtx, id, auth.GetActor(ctx)); err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func parseCommentID(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		abortWithError(ctx, errors.Wrapf(model.ErrInvalidInput, "comment id %q", ctx.Param("id")))
		return uuid.Nil, false
	}

	return id, true
}

// abortWithError maps domain errors to status codes, infrastructure errors are logged and hidden
func abortWithError(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, model.ErrInvalidInput):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		gmw.GetLogger(ctx).Error("comment request failed", zap.Error(err))
		ctx.AbortWithStatusJSON(status, gin.H{"error": "internal server error"})
		return
	}

	gmw.GetLogger(ctx).Debug("comment request rejected",
		zap.Int("status", status), zap.Error(err))
	ctx.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
