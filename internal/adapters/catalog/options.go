package catalog

import "github.com/okian/logoduel/pkg/logger"

// CatalogOption applies a configuration option to the FileCatalog.
type CatalogOption func(*FileCatalog)

// WithLogger sets a custom logger for the catalog.
func WithLogger(log logger.Logger) CatalogOption {
	return func(c *FileCatalog) {
		if log != nil {
			c.log = log
		}
	}
}
