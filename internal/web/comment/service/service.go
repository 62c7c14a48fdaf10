// Package service is the comment thread API used by the HTTP handlers.
package service

import (
	"context"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/google/uuid"

	"github.com/Laisky/laisky-newsroom/internal/library/models"
	"github.com/Laisky/laisky-newsroom/internal/web/comment/model"
	"github.com/Laisky/laisky-newsroom/internal/web/comment/policy"
	"github.com/Laisky/laisky-newsroom/library/log"
)

// Store persistence required by the comment service
type Store interface {
	Create(ctx context.Context, articleID, authorID int64, content string, parentID *uuid.UUID) (*model.Comment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Comment, error)
	GetThread(ctx context.Context, articleID int64) ([]*model.ThreadNode, error)
	Update(ctx context.Context, id uuid.UUID, content string) (*model.Comment, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	CountVisible(ctx context.Context, articleID int64) (int64, error)
}

// Service comment service
type Service struct {
	store  Store
	logger logSDK.Logger
}

// New create comment service
func New(store Store, logger logSDK.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("comment store is required")
	}
	if logger == nil {
		logger = log.Logger.Named("comment_service")
	}

	return &Service{store: store, logger: logger}, nil
}

// CreateComment posts a new comment, a reply when parentID is set
func (s *Service) CreateComment(ctx context.Context,
	articleID, authorID int64,
	content string,
	parentID *uuid.UUID,
) (*model.Comment, error) {
	if err := policy.Authorize(models.Actor{ID: authorID}, nil, policy.ActionCreate); err != nil {
		return nil, err
	}

	cmt, err := s.store.Create(ctx, articleID, authorID, content, parentID)
	if err != nil {
		return nil, errors.Wrapf(err, "create comment on article %d", articleID)
	}

	s.logger.Info("new comment created",
		zap.Int64("article_id", articleID),
		zap.String("comment_id", cmt.ID.String()),
		zap.Int64("author", authorID))
	return cmt, nil
}

// GetThread returns the visible comment forest of an article
func (s *Service) GetThread(ctx context.Context, articleID int64) ([]*model.ThreadNode, error) {
	thread, err := s.store.GetThread(ctx, articleID)
	if err != nil {
		return nil, errors.Wrapf(err, "get thread of article %d", articleID)
	}

	return thread, nil
}

// GetComment returns a single comment, hidden ones included
func (s *Service) GetComment(ctx context.Context, id uuid.UUID) (*model.Comment, error) {
	return s.store.GetByID(ctx, id)
}

// CountComments counts visible comments of an article
func (s *Service) CountComments(ctx context.Context, articleID int64) (int64, error) {
	return s.store.CountVisible(ctx, articleID)
}

// EditComment replaces the content of a comment, only its author may do it
func (s *Service) EditComment(ctx context.Context,
	id uuid.UUID,
	actor models.Actor,
	content string,
) (*model.Comment, error) {
	cmt, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = policy.Authorize(actor, cmt, policy.ActionEdit); err != nil {
		return nil, err
	}

	updated, err := s.store.Update(ctx, id, content)
	if err != nil {
		return nil, errors.Wrapf(err, "edit comment %s", id)
	}

	s.logger.Info("comment edited",
		zap.String("comment_id", id.String()),
		zap.Int64("actor", actor.ID))
	return updated, nil
}

// DeleteComment hides a comment, allowed to its author and administrators
func (s *Service) DeleteComment(ctx context.Context, id uuid.UUID, actor models.Actor) error {
	cmt, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err = policy.Authorize(actor, cmt, policy.ActionDelete); err != nil {
		return err
	}

	if err = s.store.SoftDelete(ctx, id); err != nil {
		return errors.Wrapf(err, "delete comment %s", id)
	}

	s.logger.Info("comment deleted",
		zap.String("comment_id", id.String()),
		zap.Int64("actor", actor.ID),
		zap.String("role", string(actor.Role)))
	return nil
}
