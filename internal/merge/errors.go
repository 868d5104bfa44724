package merge

import "errors"

// Sentinel kinds for merge errors.
var (
	ErrNoInputs  = errors.New("no input files to merge")
	ErrBadExport = errors.New("unsupported export schema")
)
