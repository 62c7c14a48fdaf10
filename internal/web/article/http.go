package article

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

// CommentCounter counts the visible comments of an article
type CommentCounter interface {
	CountComments(ctx context.Context, articleID int64) (int64, error)
}

// Controller article http handlers
type Controller struct {
	svc      *Service
	comments CommentCounter
	timeout  time.Duration
}

// NewController create article controller, comments may be nil
func NewController(svc *Service, comments CommentCounter, timeout time.Duration) *Controller {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Controller{svc: svc, comments: comments, timeout: timeout}
}

// RegisterRoutes mounts /articles endpoints
func (c *Controller) RegisterRoutes(r gin.IRouter) {
	staff := auth.RequireRoles(models.RoleAdministrator, models.RoleJournalist)

	grp := r.Group("/articles")
	grp.POST("", staff, c.create)
	grp.GET("", c.list)
	grp.GET("/:id", c.get)
	grp.PATCH("/:id", staff, c.update)
	grp.DELETE("/:id", staff, c.delete)
}

type listItem struct {
	Article
	CommentCount int64 `json:"comment_count"`
}

func (c *Controller) create(ctx *gin.Context) {
	var in CreateInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		abortWithError(ctx, errors.Wrap(ErrInvalidInput, err.Error()))
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), c.timeout)
	defer cancel()

	a, err := c.svc.Create(reqCtx, auth.GetActor(ctx), in)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, a)
}

func (c *Controller) list(ctx *gin.Context) {
	opt := ListOptions{
		Category: ctx.Query("category"),
		Query:    ctx.Query("q"),
	}
	opt.Page, _ = strconv.Atoi(ctx.Query("page"))
	opt.PageSize, _ = strconv.Atoi(ctx.Query("size"))

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), c.timeout)
	defer cancel()

	articles, total, err := c.svc.List(reqCtx, auth.GetActor(ctx), opt)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	items := make([]listItem, 0, len(articles))
	for _, a := range articles {
		item := listItem{Article: a}
		if c.comments != nil {
			if item.CommentCount, err = c.comments.CountComments(reqCtx, a.ID); err != nil {
				abortWithError(ctx, errors.Wrapf(err, "count comments of article %d", a.ID))
				return
			}
		}
		items = append(items, item)
	}

	ctx.JSON(http.StatusOK, gin.H{"total": total, "items": items})
}

func (c *Controller) get(ctx *gin.Context) {
	id, ok := parseArticleID(ctx)
	if !ok {
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), c.timeout)
	defer cancel()

	a, err := c.svc.Get(reqCtx, auth.GetActor(ctx), id)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, a)
}

func (c *Controller) update(ctx *gin.Context) {
	id, ok := parseArticleID(ctx)
	if !ok {
		return
	}

	var in UpdateInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		abortWithError(ctx, errors.Wrap(ErrInvalidInput, err.Error()))
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), c.timeout)
	defer cancel()

	a, err := c.svc.Update(reqCtx, auth.GetActor(ctx), id, in)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, a)
}

func (c *Controller) delete(ctx *gin.Context) {
	id, ok := parseArticleID(ctx)
	if !ok {
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), c.timeout)
	defer cancel()

	if err := c.svc.Delete(reqCtx, auth.GetActor(ctx), id); err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func parseArticleID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abortWithError(ctx, errors.Wrapf(ErrInvalidInput, "article id %q", ctx.Param("id")))
		return 0, false
	}

	return id, true
}

func abortWithError(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, ErrInvalidInput):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		gmw.GetLogger(ctx).Error("article request failed", zap.Error(err))
		ctx.AbortWithStatusJSON(status, gin.H{"error": "internal server error"})
		return
	}

	ctx.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
