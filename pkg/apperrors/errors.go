package apperrors

import "errors"

var (
	ErrInvalidTableName      = errors.New("invalid table name")
	ErrTableNotFound         = errors.New("table not found")
	ErrEmptyStatement        = errors.New("empty SQL statement")
	ErrStatementNotAllowed   = errors.New("statement type not allowed")
	ErrNoGenerator           = errors.New("no SQL generator registered")
	ErrRegenerationExhausted = errors.New("regeneration attempts exhausted")
)
