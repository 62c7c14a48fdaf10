package cmd

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	errors "github.com/Laisky/errors/v2"
)

const minSecretLength = 16

// configGetter retrieves raw configuration values by dotted key path.
type configGetter func(key string) any

// validateStartupConfig validates startup configuration from the shared config source.
// It returns an error when any configured value is malformed or violates constraints.
func validateStartupConfig() error {
	return validateStartupConfigWithGetter(sharedConfigGetter())
}

// validateStartupConfigWithGetter validates startup configuration via a key-value getter.
// It accepts a value getter and returns nil when all configured values are valid.
func validateStartupConfigWithGetter(get configGetter) error {
	if get == nil {
		return errors.New("config getter is nil")
	}

	validationErrs := make([]string, 0)

	validateAuthConfig(get, &validationErrs)
	validatePostgresConfig(get, &validationErrs)
	validateRedisConfig(get, &validationErrs)
	validateS3Config(get, &validationErrs)
	validateWebConfig(get, &validationErrs)
	validateCommentsConfig(get, &validationErrs)
	validateAdminConfig(get, &validationErrs)

	if len(validationErrs) == 0 {
		return nil
	}

	return errors.Errorf("invalid configuration:\n - %s", strings.Join(validationErrs, "\n - "))
}

// validateAuthConfig validates the token signing secret and token lifetime.
func validateAuthConfig(get configGetter, errs *[]string) {
	secret, err := parseStrictString(get("settings.secret"))
	switch {
	case err != nil || strings.TrimSpace(secret) == "":
		appendValidationError(errs, "settings.secret is required")
	case len(secret) < minSecretLength:
		appendValidationError(errs, "settings.secret must be at least %d characters", minSecretLength)
	}

	validateOptionalIntMin(get, "settings.auth.token_ttl_hours", 1, errs)
}

// validatePostgresConfig validates the primary database connection settings.
func validatePostgresConfig(get configGetter, errs *[]string) {
	validateRequiredString(get, "settings.db.postgres.addr", errs)
	validateRequiredString(get, "settings.db.postgres.db", errs)
	validateRequiredString(get, "settings.db.postgres.user", errs)
	validateOptionalIntMin(get, "settings.db.postgres.port", 1, errs)
}

// validateRedisConfig validates redis-related startup configuration values.
func validateRedisConfig(get configGetter, errs *[]string) {
	validateOptionalStringNonEmpty(get, "settings.db.redis.addr", errs)
	validateOptionalIntMin(get, "settings.db.redis.db", 0, errs)
}

// validateS3Config validates the upload object store settings.
func validateS3Config(get configGetter, errs *[]string) {
	validateOptionalStringNonEmpty(get, "settings.s3.endpoint", errs)
	validateOptionalStringNonEmpty(get, "settings.s3.bucket", errs)
	validateOptionalBool(get, "settings.s3.secure", errs)
	validateOptionalURL(get, "settings.s3.public_url", errs)
	validateOptionalInt64Min(get, "settings.s3.max_file_bytes", 1, errs)

	if raw := get("settings.s3.endpoint"); raw != nil {
		endpoint, _ := parseStrictString(raw)
		if strings.Contains(endpoint, "://") {
			appendValidationError(errs, "settings.s3.endpoint must be host[:port] without scheme")
		}
	}
}

// validateWebConfig validates CORS domains and request timeouts.
func validateWebConfig(get configGetter, errs *[]string) {
	validateOptionalIntMin(get, "settings.web.request_timeout_seconds", 1, errs)

	raw := get("settings.web.cors_domains")
	if raw == nil {
		return
	}

	switch raw.(type) {
	case []string, []any, string:
	default:
		appendValidationError(errs, "settings.web.cors_domains must be a list of domains")
		return
	}

	for _, domain := range corsDomains(get) {
		if !isValidHost(domain) {
			appendValidationError(errs, "settings.web.cors_domains contains invalid domain %q", domain)
		}
	}
}

// validateCommentsConfig validates comment body limits.
func validateCommentsConfig(get configGetter, errs *[]string) {
	validateOptionalIntMin(get, "settings.comments.max_content_length", 1, errs)
}

// validateAdminConfig validates the optional administrator bootstrap account.
func validateAdminConfig(get configGetter, errs *[]string) {
	if get("settings.admin.email") == nil {
		return
	}

	validateRequiredString(get, "settings.admin.email", errs)
	validateRequiredString(get, "settings.admin.password", errs)
}

// validateRequiredString validates that key is configured as a non-empty string.
func validateRequiredString(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		appendValidationError(errs, "%s is required", key)
		return
	}

	value, parseErr := parseStrictString(raw)
	if parseErr != nil || strings.TrimSpace(value) == "" {
		appendValidationError(errs, "%s must be a non-empty string", key)
	}
}

// validateOptionalBool validates an optionally configured boolean key.
// It accepts a getter, the key, and an error collector pointer and appends validation errors.
func validateOptionalBool(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	if _, ok := parseStrictBool(raw); !ok {
		appendValidationError(errs, "%s must be a boolean", key)
	}
}

// validateOptionalIntMin validates an optionally configured integer key with a minimum constraint.
// It accepts a getter, the key, a minimum value, and an error collector pointer and appends validation errors.
func validateOptionalIntMin(get configGetter, key string, min int, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictInt(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be an integer", key)
		return
	}

	if value < min {
		appendValidationError(errs, "%s must be >= %d", key, min)
	}
}

// validateOptionalInt64Min validates an optionally configured int64 key with a minimum constraint.
func validateOptionalInt64Min(get configGetter, key string, min int64, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictInt64(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be an integer", key)
		return
	}

	if value < min {
		appendValidationError(errs, "%s must be >= %d", key, min)
	}
}

// validateOptionalURL validates an optionally configured absolute URL key.
// It accepts a getter, the key, and an error collector pointer and appends validation errors.
func validateOptionalURL(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictString(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be a string URL", key)
		return
	}

	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		// empty public url means objects are served through the api
		return
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		appendValidationError(errs, "%s must be a valid absolute URL", key)
	}
}

// validateOptionalStringNonEmpty validates an optionally configured non-empty string key.
func validateOptionalStringNonEmpty(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictString(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be a string", key)
		return
	}

	if strings.TrimSpace(value) == "" {
		appendValidationError(errs, "%s must not be empty", key)
	}
}

// parseStrictBool parses a value as boolean using strict conversion rules.
// It accepts a raw value and returns the parsed boolean and whether parsing succeeded.
func parseStrictBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case int:
		return v != 0, true
	case int64:
		return v != 0, true
	case float64:
		if math.Trunc(v) != v {
			return false, false
		}
		return int64(v) != 0, true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return false, false
		}
		switch strings.ToLower(trimmed) {
		case "true", "1", "yes":
			return true, true
		case "false", "0", "no":
			return false, true
		default:
			return false, false
		}
	default:
		return false, false
	}
}

// parseStrictInt parses a value as a strict integer.
// It accepts a raw value and returns the parsed int and an error when parsing fails.
func parseStrictInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		if math.Trunc(v) != v {
			return 0, errors.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, errors.New("empty integer string")
		}
		parsed, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, errors.Wrap(err, "atoi")
		}
		return parsed, nil
	default:
		return 0, errors.Errorf("unsupported int type %T", value)
	}
}

// parseStrictInt64 parses a value as a strict int64.
func parseStrictInt64(value any) (int64, error) {
	parsed, err := parseStrictInt(value)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return int64(parsed), nil
}

// parseStrictString parses a value as a strict string.
// It accepts a raw value and returns the parsed string and an error when parsing fails.
func parseStrictString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", errors.Errorf("unsupported string type %T", value)
	}
}

// isValidHost validates a host string without scheme or path components.
// It accepts a host string and returns true when the host is syntactically acceptable.
func isValidHost(host string) bool {
	trimmed := strings.TrimSpace(host)
	if trimmed == "" {
		return false
	}
	if strings.Contains(trimmed, "://") || strings.Contains(trimmed, "/") {
		return false
	}
	return true
}

// appendValidationError appends a formatted validation error to the collector.
// It accepts an error slice pointer, a format string, and format arguments, and has no return value.
func appendValidationError(errs *[]string, format string, args ...any) {
	if errs == nil {
		return
	}
	*errs = append(*errs, fmt.Sprintf(format, args...))
}
