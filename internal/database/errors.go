package database

import "errors"

var (
	// ErrUserNotFound операция адресует telegram_id без записи
	ErrUserNotFound = errors.New("user not found")
)
