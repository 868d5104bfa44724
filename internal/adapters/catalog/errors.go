package catalog

import "errors"

// Sentinel kinds for catalog and registry errors.
var (
	ErrNoCatalog       = errors.New("logo catalog file not found")
	ErrBadCatalog      = errors.New("logo catalog has an unsupported shape")
	ErrUnknownContest  = errors.New("unknown contest")
	ErrNoActiveContest = errors.New("no active contest configured")
)
