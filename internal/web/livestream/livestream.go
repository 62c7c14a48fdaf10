// Package livestream keeps the pointer to the currently featured live stream.
package livestream

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/redis/go-redis/v9"

	"github.com/Laisky/laisky-newsroom/internal/library/models"
	rdb "github.com/Laisky/laisky-newsroom/library/db/redis"
	"github.com/Laisky/laisky-newsroom/library/log"
)

var (
	// ErrForbidden only administrators manage the live stream
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput payload did not pass validation
	ErrInvalidInput = errors.New("invalid input")
)

// Stream the featured live stream
type Stream struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	UpdatedBy   int64     `json:"updated_by"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Input payload of Set
type Input struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	// Active defaults to true
	Active *bool `json:"active"`
}

// Service stores one stream under a fixed redis key without ttl
type Service struct {
	rdb    *redis.Client
	logger logSDK.Logger
	clock  func() time.Time
}

// NewService create live stream service
func NewService(client *redis.Client, logger logSDK.Logger) (*Service, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if logger == nil {
		logger = log.Logger.Named("livestream_service")
	}

	return &Service{rdb: client, logger: logger, clock: gutils.Clock.GetUTCNow}, nil
}

// Get returns the current stream, nil if none is set
func (s *Service) Get(ctx context.Context) (*Stream, error) {
	raw, err := s.rdb.Get(ctx, rdb.KeyLiveStream).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get live stream")
	}

	st := new(Stream)
	if err = json.Unmarshal(raw, st); err != nil {
		return nil, errors.Wrap(err, "unmarshal live stream")
	}

	return st, nil
}

// Set replaces the current stream, administrator only
func (s *Service) Set(ctx context.Context, actor models.Actor, in Input) (*Stream, error) {
	if actor.IsAnonymous() || !actor.IsAdmin() {
		return nil, errors.Wrapf(ErrForbidden, "actor %d cannot set live stream", actor.ID)
	}

	st := &Stream{
		URL:         strings.TrimSpace(in.URL),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Active:      true,
		UpdatedBy:   actor.ID,
		UpdatedAt:   s.clock(),
	}
	if in.Active != nil {
		st.Active = *in.Active
	}
	if u, err := url.ParseRequestURI(st.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.Wrapf(ErrInvalidInput, "url %q", st.URL)
	}
	if st.Title == "" {
		return nil, errors.Wrap(ErrInvalidInput, "title is required")
	}

	payload, err := json.Marshal(st)
	if err != nil {
		return nil, errors.Wrap(err, "marshal live stream")
	}
	if err = s.rdb.Set(ctx, rdb.KeyLiveStream, payload, 0).Err(); err != nil {
		return nil, errors.Wrap(err, "save live stream")
	}

	s.logger.Info("live stream updated",
		zap.String("url", st.URL),
		zap.Bool("active", st.Active),
		zap.Int64("actor", actor.ID))
	return st, nil
}

// Clear removes the current stream, administrator only
func (s *Service) Clear(ctx context.Context, actor models.Actor) error {
	if actor.IsAnonymous() || !actor.IsAdmin() {
		return errors.Wrapf(ErrForbidden, "actor %d cannot clear live stream", actor.ID)
	}

	if err := s.rdb.Del(ctx, rdb.KeyLiveStream).Err(); err != nil {
		return errors.Wrap(err, "delete live stream")
	}

	s.logger.Info("live stream cleared", zap.Int64("actor", actor.ID))
	return nil
}
