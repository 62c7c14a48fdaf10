package dao

import (
	"context"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"gorm.io/gorm"
)

// postgresIndexes are partial indexes gorm tags cannot express
var postgresIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_comments_article_visible ON comments (article_id, created_at) WHERE visible`,
	`CREATE INDEX IF NOT EXISTS idx_comments_parent_replies ON comments (parent_id) WHERE parent_id IS NOT NULL`,
}

// EnsureIndexes creates the PostgreSQL specific comment indexes.
// Other dialects are skipped.
func EnsureIndexes(ctx context.Context, db *gorm.DB, logger logSDK.Logger) error {
	if db == nil {
		return errors.New("gorm db is required")
	}
	if db.Dialector.Name() != "postgres" {
		logger.Debug("skip comment indexes for non-postgres database",
			zap.String("dialect", db.Dialector.Name()))
		return nil
	}

	for _, stmt := range postgresIndexes {
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return errors.Wrapf(err, "exec %q", stmt)
		}
	}

	logger.Info("comment indexes ensured", zap.Int("n", len(postgresIndexes)))
	return nil
}
