// Package page holds paging input and paged output for searches.
package page

import (
	"fmt"
	"strings"
)

// Paging limits.
const (
	DefaultSize = 20
	MaxSize     = 1000
)

// Direction is a sort direction.
type Direction string

// Sort directions.
const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Sort orders results by a single property.
type Sort struct {
	Property  string
	Direction Direction
}

// ParseSort parses "property" or "property,asc|desc".
func ParseSort(s string) (*Sort, error) {
	if s == "" {
		return nil, nil
	}
	prop, dir, _ := strings.Cut(s, ",")
	prop = strings.TrimSpace(prop)
	if prop == "" {
		return nil, fmt.Errorf("sort property is required")
	}
	d := Asc
	switch strings.ToUpper(strings.TrimSpace(dir)) {
	case "", "ASC":
	case "DESC":
		d = Desc
	default:
		return nil, fmt.Errorf("invalid sort direction %q", dir)
	}
	return &Sort{Property: prop, Direction: d}, nil
}

// Pageable is a page request: 0-based page number, size and an optional sort.
type Pageable struct {
	number int
	size   int
	sort   *Sort
}

// NewPageable validates paging parameters. Size 0 means DefaultSize.
func NewPageable(number, size int, sort *Sort) (Pageable, error) {
	if number < 0 {
		return Pageable{}, fmt.Errorf("page number must not be negative")
	}
	if size == 0 {
		size = DefaultSize
	}
	if size < 0 || size > MaxSize {
		return Pageable{}, fmt.Errorf("page size must be between 1 and %d", MaxSize)
	}
	return Pageable{number: number, size: size, sort: sort}, nil
}

// Of creates a pageable without validation.
func Of(number, size int) Pageable {
	return Pageable{number: number, size: size}
}

// Number returns the 0-based page number.
func (p Pageable) Number() int { return p.number }

// Size returns the page size.
func (p Pageable) Size() int { return p.size }

// Offset returns the index of the first item on the page.
func (p Pageable) Offset() int { return p.number * p.size }

// Sort returns the sort order, nil when unsorted.
func (p Pageable) Sort() *Sort { return p.sort }

// Page is one page of results plus the total number of matches.
type Page[T any] struct {
	items    []T
	total    int
	pageable Pageable
}

// New creates a page.
func New[T any](items []T, total int, pageable Pageable) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{items: items, total: total, pageable: pageable}
}

// Empty creates a page with no items and total 0.
func Empty[T any](pageable Pageable) Page[T] {
	return New[T](nil, 0, pageable)
}

// Items returns the page items.
func (p Page[T]) Items() []T { return p.items }

// Total returns the total number of matches across all pages.
func (p Page[T]) Total() int { return p.total }

// Pageable returns the page request this page answers.
func (p Page[T]) Pageable() Pageable { return p.pageable }

// TotalPages returns the number of pages for the total.
func (p Page[T]) TotalPages() int {
	if p.pageable.size <= 0 {
		return 0
	}
	return (p.total + p.pageable.size - 1) / p.pageable.size
}
