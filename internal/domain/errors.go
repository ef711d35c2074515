package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrUnsupportedVariant signals a project variant that cannot become a marketplace entry.
	ErrUnsupportedVariant = errors.New("unsupported project variant")
	// ErrInvalidRequest signals malformed search criteria, paging or predicate usage.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnauthorized signals an unknown or malformed caller credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden signals a known caller without the access level an operation needs.
	ErrForbidden = errors.New("forbidden")
)
