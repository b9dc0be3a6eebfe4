package storage

import "errors"

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUserExists    = errors.New("user already exists")
	ErrCodeNotFound  = errors.New("code not found")
	ErrTokenNotFound = errors.New("token not found")
	ErrEventNotFound = errors.New("event not found")
)
