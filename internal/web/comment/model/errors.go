package model

import "github.com/Laisky/errors/v2"

var (
	// ErrNotFound indicates the target article, comment or parent comment does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the actor is not allowed to perform the mutation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput indicates the request payload did not pass validation.
	ErrInvalidInput = errors.New("invalid input")
)
