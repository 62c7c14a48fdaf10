// Package dao contains the comment store.
package dao

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Laisky/laisky-newsroom/internal/web/comment/model"
	"github.com/Laisky/laisky-newsroom/library/log"
)

// DefaultMaxContentLength is the content limit (in runes) used when none is configured.
const DefaultMaxContentLength = 5000

// Clock provides the current time in UTC.
type Clock func() time.Time

// ArticleChecker resolves whether an article exists.
type ArticleChecker interface {
	ArticleExists(ctx context.Context, articleID int64) (bool, error)
}

// Comments persists comment nodes and renders article threads.
type Comments struct {
	db               *gorm.DB
	articles         ArticleChecker
	logger           logSDK.Logger
	clock            Clock
	maxContentLength int
}

// New constructs the comment store and migrates the comments table.
//
// maxContentLength <= 0 falls back to DefaultMaxContentLength.
func New(db *gorm.DB,
	articles ArticleChecker,
	logger logSDK.Logger,
	clock Clock,
	maxContentLength int,
) (*Comments, error) {
	if db == nil {
		return nil, errors.New("gorm db is required")
	}
	if articles == nil {
		return nil, errors.New("article checker is required")
	}
	if logger == nil {
		logger = log.Logger.Named("comment_dao")
	}
	if clock == nil {
		clock = gutils.Clock.GetUTCNow
	}
	if maxContentLength <= 0 {
		maxContentLength = DefaultMaxContentLength
	}

	if err := db.AutoMigrate(&model.Comment{}); err != nil {
		return nil, errors.Wrap(err, "auto migrate comments table")
	}

	return &Comments{
		db:               db,
		articles:         articles,
		logger:           logger,
		clock:            clock,
		maxContentLength: maxContentLength,
	}, nil
}

func (d *Comments) now() time.Time {
	return d.clock().UTC().Truncate(time.Microsecond)
}

// normalizeContent trims the content and checks its length
func (d *Comments) normalizeContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", errors.Wrap(model.ErrInvalidInput, "content cannot be empty")
	}
	if n := utf8.RuneCountInString(content); n > d.maxContentLength {
		return "", errors.Wrapf(model.ErrInvalidInput,
			"content length %d exceeds %d", n, d.maxContentLength)
	}

	return content, nil
}

func (d *Comments) ensureArticle(ctx context.Context, articleID int64) error {
	if articleID <= 0 {
		return errors.Wrapf(model.ErrNotFound, "article %d", articleID)
	}

	ok, err := d.articles.ArticleExists(ctx, articleID)
	if err != nil {
		return errors.Wrapf(err, "check article %d", articleID)
	}
	if !ok {
		return errors.Wrapf(model.ErrNotFound, "article %d", articleID)
	}

	return nil
}

// Create persists a new visible comment.
//
// parentID, when set, must reference a comment of the same article.
func (d *Comments) Create(ctx context.Context,
	articleID, authorID int64,
	content string,
	parentID *uuid.UUID,
) (*model.Comment, error) {
	content, err := d.normalizeContent(content)
	if err != nil {
		return nil, err
	}
	if err = d.ensureArticle(ctx, articleID); err != nil {
		return nil, err
	}

	if parentID != nil {
		parent, err := d.GetByID(ctx, *parentID)
		if err != nil {
			return nil, errors.Wrap(err, "load parent comment")
		}
		if parent.ArticleID != articleID {
			return nil, errors.Wrapf(model.ErrNotFound,
				"parent comment %s does not belong to article %d", parentID, articleID)
		}
	}

	now := d.now()
	cmt := &model.Comment{
		Content:   content,
		ArticleID: articleID,
		AuthorID:  authorID,
		ParentID:  parentID,
		Visible:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err = d.db.WithContext(ctx).Create(cmt).Error; err != nil {
		return nil, errors.Wrap(err, "create comment")
	}

	d.logger.Debug("comment created",
		zap.String("comment_id", cmt.ID.String()),
		zap.Int64("article_id", articleID),
		zap.Int64("author_id", authorID),
		zap.Bool("reply", parentID != nil),
	)
	return cmt, nil
}

// GetByID loads a single comment regardless of its visibility.
func (d *Comments) GetByID(ctx context.Context, id uuid.UUID) (*model.Comment, error) {
	cmt := new(model.Comment)
	if err := d.db.WithContext(ctx).
		Where("id = ?", id).
		First(cmt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(model.ErrNotFound, "comment %s", id)
		}
		return nil, errors.Wrapf(err, "get comment %s", id)
	}

	return cmt, nil
}

// GetThread renders the visible comment forest of an article.
//
// All rows of the article are read by a single query.
func (d *Comments) GetThread(ctx context.Context, articleID int64) ([]*model.ThreadNode, error) {
	if err := d.ensureArticle(ctx, articleID); err != nil {
		return nil, err
	}

	var rows []*model.Comment
	if err := d.db.WithContext(ctx).
		Where("article_id = ?", articleID).
		Find(&rows).Error; err != nil {
		return nil, errors.Wrapf(err, "load comments of article %d", articleID)
	}

	return BuildThread(rows), nil
}

// Update overwrites the content of a comment and advances updated_at.
func (d *Comments) Update(ctx context.Context, id uuid.UUID, content string) (*model.Comment, error) {
	content, err := d.normalizeContent(content)
	if err != nil {
		return nil, err
	}

	result := d.db.WithContext(ctx).
		Model(&model.Comment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"content":    content,
			"updated_at": d.now(),
		})
	if result.Error != nil {
		return nil, errors.Wrapf(result.Error, "update comment %s", id)
	}
	if result.RowsAffected == 0 {
		return nil, errors.Wrapf(model.ErrNotFound, "comment %s", id)
	}

	return d.GetByID(ctx, id)
}

// SoftDelete hides a comment. Replies are left untouched.
//
// Hiding an already hidden comment succeeds.
func (d *Comments) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result := d.db.WithContext(ctx).
		Model(&model.Comment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"visible":    false,
			"updated_at": d.now(),
		})
	if result.Error != nil {
		return errors.Wrapf(result.Error, "soft delete comment %s", id)
	}
	if result.RowsAffected == 0 {
		return errors.Wrapf(model.ErrNotFound, "comment %s", id)
	}

	d.logger.Debug("comment hidden", zap.String("comment_id", id.String()))
	return nil
}

// CountVisible counts the visible comments of an article.
func (d *Comments) CountVisible(ctx context.Context, articleID int64) (int64, error) {
	var n int64
	if err := d.db.WithContext(ctx).
		Model(&model.Comment{}).
		Where("article_id = ? AND visible = ?", articleID, true).
		Count(&n).Error; err != nil {
		return 0, errors.Wrapf(err, "count comments of article %d", articleID)
	}

	return n, nil
}
