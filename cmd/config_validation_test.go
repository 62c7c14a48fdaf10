package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func validConfig() map[string]any {
	return map[string]any{
		"settings": map[string]any{
			"secret": "this-secret-is-long-enough",
			"db": map[string]any{
				"postgres": map[string]any{
					"addr": "localhost",
					"db":   "newsroom",
					"user": "newsroom",
					"pwd":  "pwd",
					"port": 5432,
				},
				"redis": map[string]any{"addr": "localhost:6379", "db": 0},
			},
			"s3": map[string]any{
				"endpoint":       "s3.laisky.com",
				"bucket":         "newsroom",
				"secure":         true,
				"public_url":     "https://cdn.laisky.com",
				"max_file_bytes": 1024,
			},
			"web": map[string]any{
				"cors_domains":            []any{"laisky.com", "newsroom.example"},
				"request_timeout_seconds": 10,
			},
			"comments": map[string]any{"max_content_length": 5000},
			"auth":     map[string]any{"token_ttl_hours": 24},
		},
	}
}

// TestValidateStartupConfigWithGetterValidConfig verifies valid explicit configuration passes validation.
func TestValidateStartupConfigWithGetterValidConfig(t *testing.T) {
	err := validateStartupConfigWithGetter(newMapConfigGetter(validConfig()))
	require.NoError(t, err)
}

// TestValidateStartupConfigWithGetterEmpty verifies required keys are reported on empty configuration.
func TestValidateStartupConfigWithGetterEmpty(t *testing.T) {
	err := validateStartupConfigWithGetter(newMapConfigGetter(map[string]any{}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "settings.secret is required")
	require.Contains(t, err.Error(), "settings.db.postgres.addr is required")
	require.Contains(t, err.Error(), "settings.db.postgres.db is required")
	require.Contains(t, err.Error(), "settings.db.postgres.user is required")
}

func TestValidateStartupConfigWithGetterNilGetter(t *testing.T) {
	require.Error(t, validateStartupConfigWithGetter(nil))
}

func TestValidateStartupConfigWithGetterInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(settings map[string]any)
		wantErr string
	}{
		{
			name: "short secret",
			mutate: func(settings map[string]any) {
				settings["secret"] = "short"
			},
			wantErr: "settings.secret must be at least 16 characters",
		},
		{
			name: "invalid boolean",
			mutate: func(settings map[string]any) {
				settings["s3"].(map[string]any)["secure"] = "maybe"
			},
			wantErr: "settings.s3.secure must be a boolean",
		},
		{
			name: "endpoint with scheme",
			mutate: func(settings map[string]any) {
				settings["s3"].(map[string]any)["endpoint"] = "https://s3.laisky.com"
			},
			wantErr: "settings.s3.endpoint must be host[:port] without scheme",
		},
		{
			name: "relative public url",
			mutate: func(settings map[string]any) {
				settings["s3"].(map[string]any)["public_url"] = "cdn/files"
			},
			wantErr: "settings.s3.public_url must be a valid absolute URL",
		},
		{
			name: "zero comment length",
			mutate: func(settings map[string]any) {
				settings["comments"].(map[string]any)["max_content_length"] = 0
			},
			wantErr: "settings.comments.max_content_length must be >= 1",
		},
		{
			name: "fractional token ttl",
			mutate: func(settings map[string]any) {
				settings["auth"].(map[string]any)["token_ttl_hours"] = 1.5
			},
			wantErr: "settings.auth.token_ttl_hours must be an integer",
		},
		{
			name: "cors domain with scheme",
			mutate: func(settings map[string]any) {
				settings["web"].(map[string]any)["cors_domains"] = []any{"https://laisky.com"}
			},
			wantErr: `settings.web.cors_domains contains invalid domain "https://laisky.com"`,
		},
		{
			name: "cors domains wrong type",
			mutate: func(settings map[string]any) {
				settings["web"].(map[string]any)["cors_domains"] = 3
			},
			wantErr: "settings.web.cors_domains must be a list of domains",
		},
		{
			name: "admin without password",
			mutate: func(settings map[string]any) {
				settings["admin"] = map[string]any{"email": "admin@laisky.com"}
			},
			wantErr: "settings.admin.password is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg["settings"].(map[string]any))

			err := validateStartupConfigWithGetter(newMapConfigGetter(cfg))
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// newMapConfigGetter builds a dotted-path getter for nested map-based test configuration.
// It accepts a nested map and returns a getter function compatible with validateStartupConfigWithGetter.
func newMapConfigGetter(root map[string]any) configGetter {
	return func(key string) any {
		if key == "" {
			return nil
		}

		parts := strings.Split(key, ".")
		var current any = root
		for _, part := range parts {
			nextMap, ok := current.(map[string]any)
			if !ok {
				return nil
			}

			next, exists := nextMap[part]
			if !exists {
				return nil
			}
			current = next
		}

		return current
	}
}
