package domain

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrServerNotFound    = errors.New("server not found")
	ErrTokenNotFound     = errors.New("token not found")
	ErrVoteTokenNotFound = errors.New("vote token not found")
	ErrCodeMismatch      = errors.New("verification code mismatch")
)
