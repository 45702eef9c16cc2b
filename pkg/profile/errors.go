package profile

import "errors"

var (
	ErrTemplateNotFound = errors.New("template not found")
	// ErrNotOwner is returned when a user addresses a template that belongs
	// to someone else.
	ErrNotOwner = errors.New("template belongs to another user")
)
