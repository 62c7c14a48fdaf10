package article

import "github.com/Laisky/errors/v2"

var (
	// ErrNotFound article does not exist or is not visible to the actor
	ErrNotFound = errors.New("article not found")
	// ErrForbidden actor may not modify the article
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput payload did not pass validation
	ErrInvalidInput = errors.New("invalid input")
)
