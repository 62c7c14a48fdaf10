// Package config loads service settings into the shared go-config store.
package config

import (
	"path/filepath"

	gconfig "github.com/Laisky/go-config/v2"
	"github.com/Laisky/zap"

	"github.com/Laisky/laisky-newsroom/library/log"
)

// defaults fills keys that are absent from the settings file
var defaults = map[string]any{
	"settings.db.postgres.port":            5432,
	"settings.db.redis.addr":               "localhost:6379",
	"settings.db.redis.db":                 0,
	"settings.s3.prefix":                   "uploads",
	"settings.s3.max_file_bytes":           10 << 20,
	"settings.web.cors_domains":            []string{"localhost"},
	"settings.comments.max_content_length": 5000,
	"settings.auth.token_ttl_hours":        24,
	"settings.web.request_timeout_seconds": 10,
	"settings.admin.name":                  "Administrator",
}

// LoadFromFile loads settings from cfgPath and applies defaults.
func LoadFromFile(cfgPath string) {
	gconfig.Shared.Set("cfg_dir", filepath.Dir(cfgPath))
	if err := gconfig.Shared.LoadFromFile(cfgPath); err != nil {
		log.Logger.Panic("load configuration",
			zap.Error(err),
			zap.String("config", cfgPath))
	}

	SetDefaults()
	log.Logger.Info("load configuration",
		zap.String("config", cfgPath))
}

// SetDefaults sets every default whose key is not configured yet.
func SetDefaults() {
	for key, val := range defaults {
		if gconfig.Shared.Get(key) == nil {
			gconfig.Shared.Set(key, val)
		}
	}
}
