package marketplace

import (
	"github.com/kailas-cloud/marketplace/internal/db"
	"github.com/kailas-cloud/marketplace/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound           = domain.ErrNotFound
	ErrUnsupportedVariant = domain.ErrUnsupportedVariant
	ErrInvalidRequest     = domain.ErrInvalidRequest
	ErrUnauthorized       = domain.ErrUnauthorized
	ErrForbidden          = domain.ErrForbidden
	ErrUnavailable        = db.ErrUnavailable
)
