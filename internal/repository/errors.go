package repository

import "errors"

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("url already exists")
	ErrDatabase  = errors.New("database error")
)
