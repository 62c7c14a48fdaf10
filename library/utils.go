// Package library contains helper functions
package library

import "strings"

const bearerPrefix = "bearer "

// StripBearerPrefix removes any number of leading "Bearer " prefixes
// (case-insensitive) and surrounding spaces from an Authorization header value.
func StripBearerPrefix(header string) string {
	token := strings.TrimSpace(header)
	for len(token) >= len(bearerPrefix) &&
		strings.EqualFold(token[:len(bearerPrefix)], bearerPrefix) {
		token = strings.TrimSpace(token[len(bearerPrefix):])
	}

	return token
}
