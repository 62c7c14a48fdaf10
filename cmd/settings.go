package cmd

import (
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"

	"github.com/Laisky/laisky-newsroom/internal/web/upload"
	"github.com/Laisky/laisky-newsroom/library/db/postgres"
)

// sharedConfigGetter reads from the loaded go-config store
func sharedConfigGetter() configGetter {
	return func(key string) any {
		return gconfig.Shared.Get(key)
	}
}

func buildPostgresDialInfo(get configGetter) postgres.DialInfo {
	return postgres.DialInfo{
		Addr:   stringValue(get, "settings.db.postgres.addr"),
		DBName: stringValue(get, "settings.db.postgres.db"),
		User:   stringValue(get, "settings.db.postgres.user"),
		Pwd:    stringValue(get, "settings.db.postgres.pwd"),
		Port:   intValue(get, "settings.db.postgres.port", 5432),
	}
}

func buildRedisOptions(get configGetter) *redis.Options {
	return &redis.Options{
		Addr:     stringValue(get, "settings.db.redis.addr"),
		Password: stringValue(get, "settings.db.redis.pwd"),
		DB:       intValue(get, "settings.db.redis.db", 0),
	}
}

func buildUploadSettings(get configGetter) upload.Settings {
	return upload.Settings{
		Bucket:       stringValue(get, "settings.s3.bucket"),
		Prefix:       stringValue(get, "settings.s3.prefix"),
		PublicURL:    stringValue(get, "settings.s3.public_url"),
		MaxFileBytes: int64(intValue(get, "settings.s3.max_file_bytes", upload.DefaultMaxFileBytes)),
	}
}

// newMinioClient connects to the S3 compatible endpoint configured under settings.s3
func newMinioClient(get configGetter) (*minio.Client, error) {
	endpoint := stringValue(get, "settings.s3.endpoint")
	if endpoint == "" {
		return nil, errors.New("settings.s3.endpoint is empty")
	}

	secure, _ := parseStrictBool(get("settings.s3.secure"))
	cli, err := minio.New(endpoint, &minio.Options{
		Creds: credentials.NewStaticV4(
			stringValue(get, "settings.s3.access_key"),
			stringValue(get, "settings.s3.secret_key"),
			"",
		),
		Secure: secure,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "new minio client for %s", endpoint)
	}

	return cli, nil
}

func requestTimeout(get configGetter) time.Duration {
	return time.Duration(intValue(get, "settings.web.request_timeout_seconds", 10)) * time.Second
}

func tokenTTL(get configGetter) time.Duration {
	return time.Duration(intValue(get, "settings.auth.token_ttl_hours", 24)) * time.Hour
}

// corsDomains accepts a yaml list or a comma separated string
func corsDomains(get configGetter) []string {
	var raw []string
	switch v := get("settings.web.cors_domains").(type) {
	case []string:
		raw = v
	case []any:
		for _, item := range v {
			if s, err := parseStrictString(item); err == nil {
				raw = append(raw, s)
			}
		}
	case string:
		raw = strings.Split(v, ",")
	}

	domains := make([]string, 0, len(raw))
	for _, d := range raw {
		if d = strings.TrimSpace(d); d != "" {
			domains = append(domains, d)
		}
	}

	return domains
}

func stringValue(get configGetter, key string) string {
	v, err := parseStrictString(get(key))
	if err != nil {
		return ""
	}

	return strings.TrimSpace(v)
}

func intValue(get configGetter, key string, fallback int) int {
	raw := get(key)
	if raw == nil {
		return fallback
	}

	v, err := parseStrictInt(raw)
	if err != nil {
		return fallback
	}

	return v
}
