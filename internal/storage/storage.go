package storage

import "errors"

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUserExists    = errors.New("user already exists")
	ErrTokenNotFound = errors.New("access token not found")
	ErrBookNotFound  = errors.New("book not found")
	ErrResetNotFound = errors.New("password reset not found")
)
