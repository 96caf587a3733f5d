package table

import "errors"

var (
	// ErrMissingIDColumn is returned when an input table has neither a TIC
	// nor an ID column.
	ErrMissingIDColumn = errors.New("table: input has no TIC or ID column")
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("table: missing column")
)
