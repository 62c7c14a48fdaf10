package article

import (
	"context"
	"strings"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"gorm.io/gorm"

	"github.com/Laisky/laisky-newsroom/internal/library/models"
	"github.com/Laisky/laisky-newsroom/library/log"
)

// Service articles
type Service struct {
	db     *gorm.DB
	logger logSDK.Logger
}

// NewService constructs the service and migrates the articles table.
func NewService(db *gorm.DB, logger logSDK.Logger) (*Service, error) {
	if db == nil {
		return nil, errors.New("gorm db is required")
	}
	if logger == nil {
		logger = log.Logger.Named("article_service")
	}

	if err := db.AutoMigrate(&Article{}); err != nil {
		return nil, errors.Wrap(err, "auto migrate articles table")
	}

	return &Service{db: db, logger: logger}, nil
}

func isStaff(actor models.Actor) bool {
	return !actor.IsAnonymous() &&
		actor.HasRole(models.RoleAdministrator, models.RoleJournalist)
}

func canModify(actor models.Actor, a *Article) bool {
	return !actor.IsAnonymous() && (actor.IsAdmin() || a.AuthorID == actor.ID)
}

// render fills HTML and a default summary from Content
func (a *Article) render() {
	a.HTML = RenderMarkdown(a.Content)
	if strings.TrimSpace(a.Summary) == "" {
		a.Summary = Summarize(a.HTML, summaryLength)
	}
}

func (a *Article) validate() error {
	a.Title = strings.TrimSpace(a.Title)
	a.Category = strings.TrimSpace(a.Category)
	switch {
	case a.Title == "":
		return errors.Wrap(ErrInvalidInput, "title is required")
	case strings.TrimSpace(a.Content) == "":
		return errors.Wrap(ErrInvalidInput, "content is required")
	case a.Category == "":
		return errors.Wrap(ErrInvalidInput, "category is required")
	}

	return nil
}

// Create publishes a new article, administrators and journalists only
func (s *Service) Create(ctx context.Context, actor models.Actor, in CreateInput) (*Article, error) {
	if !isStaff(actor) {
		return nil, errors.Wrapf(ErrForbidden, "actor %d cannot write articles", actor.ID)
	}

	a := &Article{
		Title:     in.Title,
		Content:   in.Content,
		Summary:   in.Summary,
		Category:  in.Category,
		Images:    in.Images,
		Published: true,
		AuthorID:  actor.ID,
	}
	if in.Published != nil {
		a.Published = *in.Published
	}
	if a.Images == nil {
		a.Images = []string{}
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	a.render()

	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, errors.Wrap(err, "create article")
	}

	s.logger.Info("article created",
		zap.Int64("article_id", a.ID),
		zap.Int64("author", actor.ID),
		zap.Bool("published", a.Published))
	return a, nil
}

// List returns articles newest first, unpublished ones only for staff
func (s *Service) List(ctx context.Context, actor models.Actor, opt ListOptions) ([]Article, int64, error) {
	opt.normalize()

	q := s.db.WithContext(ctx).Model(&Article{})
	if !isStaff(actor) {
		q = q.Where("published = ?", true)
	}
	if c := strings.TrimSpace(opt.Category); c != "" {
		q = q.Where("category = ?", c)
	}
	if kw := strings.ToLower(strings.TrimSpace(opt.Query)); kw != "" {
		like := "%" + kw + "%"
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(content) LIKE ?)", like, like)
	}

	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count articles")
	}

	articles := make([]Article, 0, opt.PageSize)
	if err := q.Order("created_at DESC").Order("id DESC").
		Offset((opt.Page - 1) * opt.PageSize).
		Limit(opt.PageSize).
		Find(&articles).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list articles")
	}

	return articles, total, nil
}

func (s *Service) load(ctx context.Context, id int64) (*Article, error) {
	a := new(Article)
	if err := s.db.WithContext(ctx).First(a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(ErrNotFound, "article %d", id)
		}
		return nil, errors.Wrapf(err, "get article %d", id)
	}

	return a, nil
}

// Get reads an article and increments its view counter
func (s *Service) Get(ctx context.Context, actor models.Actor, id int64) (*Article, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.Published && !isStaff(actor) {
		return nil, errors.Wrapf(ErrNotFound, "article %d", id)
	}

	if err = s.db.WithContext(ctx).Model(a).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error; err != nil {
		return nil, errors.Wrapf(err, "increase views of article %d", id)
	}
	a.Views++

	return a, nil
}

// Update modifies an article, allowed to its author and administrators
func (s *Service) Update(ctx context.Context, actor models.Actor, id int64, in UpdateInput) (*Article, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canModify(actor, a) {
		return nil, errors.Wrapf(ErrForbidden, "actor %d cannot modify article %d", actor.ID, id)
	}

	if in.Title != nil {
		a.Title = *in.Title
	}
	if in.Content != nil {
		a.Content = *in.Content
	}
	if in.Category != nil {
		a.Category = *in.Category
	}
	if in.Images != nil {
		a.Images = *in.Images
	}
	if in.Published != nil {
		a.Published = *in.Published
	}
	if in.Summary != nil {
		a.Summary = *in.Summary
	} else if in.Content != nil {
		a.Summary = ""
	}
	if err = a.validate(); err != nil {
		return nil, err
	}
	a.render()

	if err = s.db.WithContext(ctx).Model(a).Select(
		"title", "content", "html", "summary", "category", "images", "published", "updated_at",
	).Updates(a).Error; err != nil {
		return nil, errors.Wrapf(err, "update article %d", id)
	}

	s.logger.Info("article updated", zap.Int64("article_id", id), zap.Int64("actor", actor.ID))
	return a, nil
}

// Delete removes an article, allowed to its author and administrators
func (s *Service) Delete(ctx context.Context, actor models.Actor, id int64) error {
	a, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !canModify(actor, a) {
		return errors.Wrapf(ErrForbidden, "actor %d cannot delete article %d", actor.ID, id)
	}

	if err = s.db.WithContext(ctx).Delete(a).Error; err != nil {
		return errors.Wrapf(err, "delete article %d", id)
	}

	s.logger.Info("article deleted", zap.Int64("article_id", id), zap.Int64("actor", actor.ID))
	return nil
}

// ArticleExists reports whether the article exists, published or not
func (s *Service) ArticleExists(ctx context.Context, id int64) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Article{}).
		Where("id = ?", id).
		Count(&n).Error; err != nil {
		return false, errors.Wrapf(err, "check article %d", id)
	}

	return n > 0, nil
}
