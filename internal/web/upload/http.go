package upload

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-newsroom/internal/library/models"
	"github.com/Laisky/laisky-newsroom/library/auth"
)

// RegisterRoutes mounts /uploads endpoints
func RegisterRoutes(r gin.IRouter, svc *Service, timeout time.Duration) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	// images embedded in articles are public, served by redirecting to the bucket
	r.GET("/uploads/:filename", func(ctx *gin.Context) {
		reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), timeout)
		defer cancel()

		u, err := svc.Link(reqCtx, ctx.Param("filename"))
		if err != nil {
			abortWithError(ctx, err)
			return
		}

		ctx.Redirect(http.StatusFound, u.String())
	})

	grp := r.Group("/uploads", auth.RequireRoles(models.RoleAdministrator, models.RoleJournalist))

	grp.POST("", func(ctx *gin.Context) {
		fh, err := ctx.FormFile("file")
		if err != nil {
			abortWithError(ctx, errors.Wrap(ErrInvalidInput, "form field file is required"))
			return
		}
		f, err := svc.readFormFile(fh)
		if err != nil {
			abortWithError(ctx, err)
			return
		}

		reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), timeout)
		defer cancel()

		obj, err := svc.Upload(reqCtx, auth.GetActor(ctx), f)
		if err != nil {
			abortWithError(ctx, err)
			return
		}

		ctx.JSON(http.StatusCreated, obj)
	})

	grp.POST("/batch", func(ctx *gin.Context) {
		form, err := ctx.MultipartForm()
		if err != nil {
			abortWithError(ctx, errors.Wrap(ErrInvalidInput, err.Error()))
			return
		}

		var files []File
		for _, fh := range form.File["files"] {
			f, err := svc.readFormFile(fh)
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			files = append(files, f)
		}

		reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), timeout)
		defer cancel()

		objs, err := svc.UploadMultiple(reqCtx, auth.GetActor(ctx), files)
		if err != nil {
			abortWithError(ctx, err)
			return
		}

		ctx.JSON(http.StatusCreated, gin.H{"files": objs})
	})

	grp.DELETE("/:filename", func(ctx *gin.Context) {
		reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), timeout)
		defer cancel()

		if err := svc.Delete(reqCtx, auth.GetActor(ctx), ctx.Param("filename")); err != nil {
			abortWithError(ctx, err)
			return
		}

		ctx.Status(http.StatusNoContent)
	})
}

// readFormFile loads an uploaded part, refusing parts above the size limit
func (s *Service) readFormFile(fh *multipart.FileHeader) (File, error) {
	if fh.Size > s.cfg.MaxFileBytes {
		return File{}, errors.Wrapf(ErrInvalidInput, "file %q exceeds %d bytes", fh.Filename, s.cfg.MaxFileBytes)
	}

	fp, err := fh.Open()
	if err != nil {
		return File{}, errors.Wrapf(err, "open form file %q", fh.Filename)
	}
	defer fp.Close()

	data, err := io.ReadAll(io.LimitReader(fp, s.cfg.MaxFileBytes+1))
	if err != nil {
		return File{}, errors.Wrapf(err, "read form file %q", fh.Filename)
	}

	return File{Name: fh.Filename, Data: data}, nil
}

func abortWithError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrForbidden):
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvalidInput):
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		gmw.GetLogger(ctx).Error("upload request failed", zap.Error(err))
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
