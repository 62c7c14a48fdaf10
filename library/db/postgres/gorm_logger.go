package postgres

import (
	"context"
	"fmt"
	"unicode/utf8"

	gormLogger "gorm.io/gorm/logger"
)

const (
	defaultMaxLoggedParamLength = 256
	defaultPreviewLength        = 32
)

// truncatingParamsLogger filters oversized SQL parameters before GORM prints SQL logs.
type truncatingParamsLogger struct {
	gormLogger.Interface
	maxLoggedParamLength int
	previewLength        int
}

// ParamsFilter truncates oversized parameter values to keep SQL logs concise.
func (l *truncatingParamsLogger) ParamsFilter(_ context.Context, sql string, params ...any) (string, []any) {
	if len(params) == 0 {
		return sql, params
	}

	return sql, sanitizeLoggedSQLParams(l.maxLoggedParamLength, l.previewLength, params...)
}

// newTruncatingParamsLogger wraps a GORM logger with parameter truncation.
func newTruncatingParamsLogger(base gormLogger.Interface) gormLogger.Interface {
	return &truncatingParamsLogger{
		Interface:            base,
		maxLoggedParamLength: defaultMaxLoggedParamLength,
		previewLength:        defaultPreviewLength,
	}
}

func sanitizeLoggedSQLParams(maxLen, previewLen int, params ...any) []any {
	filtered := make([]any, len(params))
	for idx, param := range params {
		filtered[idx] = sanitizeLoggedSQLParam(param, maxLen, previewLen)
	}

	return filtered
}

// sanitizeLoggedSQLParam converts oversized parameter values into compact log-safe summaries.
//
// Comment and article bodies are the usual offenders.
func sanitizeLoggedSQLParam(param any, maxLoggedParamLength, previewLength int) any {
	switch value := param.(type) {
	case string:
		if len(value) > maxLoggedParamLength {
			return fmt.Sprintf("%s...<string:len=%d,truncated>", runePrefix(value, previewLength), len(value))
		}
		return value
	case []byte:
		if len(value) > maxLoggedParamLength {
			return fmt.Sprintf("<bytes:len=%d,truncated>", len(value))
		}
		return value
	default:
		return param
	}
}

// runePrefix returns at most n runes of raw without splitting a multibyte character.
func runePrefix(raw string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(raw) <= n {
		return raw
	}

	return string([]rune(raw)[:n])
}
