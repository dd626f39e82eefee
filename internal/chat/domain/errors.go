package domain

import "errors"

var (
	ErrSessionNotFound = errors.New("chat session not found")
	ErrEmptyMessage    = errors.New("message is empty")
)
