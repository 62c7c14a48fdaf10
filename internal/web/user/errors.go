package user

import "github.com/Laisky/errors/v2"

var (
	// ErrNotFound user does not exist
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken another account already uses the email
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials email or password is wrong
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactive the account has been deactivated
	ErrInactive = errors.New("user is deactivated")
	// ErrForbidden actor may not manage users
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput payload did not pass validation
	ErrInvalidInput = errors.New("invalid input")
)
