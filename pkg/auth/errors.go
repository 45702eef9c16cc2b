package auth

import "errors"

var (
	ErrUnauthenticated    = errors.New("auth: unauthenticated")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrEmailAlreadyExists = errors.New("auth: email already registered")
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrAccountInactive    = errors.New("auth: account is inactive")
)
