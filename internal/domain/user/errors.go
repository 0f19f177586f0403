package user

import "errors"

var (
	ErrUnauthorized            = errors.New("unauthorized")
	ErrUnknownRole             = errors.New("unknown role")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)
