package project

import (
	"fmt"
	"time"
)

// Variant discriminates the concrete project kind.
type Variant string

const (
	// Generic is the base project kind; it matches every variant in searches.
	Generic Variant = "GENERIC"
	// Code is a code project (processors and algorithms).
	Code Variant = "CODE_PROJECT"
	// Data is a data project (datasets).
	Data Variant = "DATA_PROJECT"
)

// IsValid checks that the variant is known.
func (v Variant) IsValid() bool {
	switch v {
	case Generic, Code, Data:
		return true
	}
	return false
}

// ParseVariant parses a variant name.
func ParseVariant(s string) (Variant, error) {
	v := Variant(s)
	if !v.IsValid() {
		return "", fmt.Errorf("unknown project variant %q", s)
	}
	return v, nil
}

// Visibility is the project visibility scope.
type Visibility string

const (
	// Public projects are visible to every caller.
	Public Visibility = "PUBLIC"
	// Private projects are visible to callers with access on the project.
	Private Visibility = "PRIVATE"
)

// IsValid checks that the visibility is known.
func (v Visibility) IsValid() bool { return v == Public || v == Private }

// ParseVisibility parses a visibility name.
func ParseVisibility(s string) (Visibility, error) {
	v := Visibility(s)
	if !v.IsValid() {
		return "", fmt.Errorf("unknown visibility scope %q", s)
	}
	return v, nil
}

// ProcessorType is the kind of data processor a code project provides.
type ProcessorType string

// Processor types.
const (
	Algorithm     ProcessorType = "ALGORITHM"
	Operation     ProcessorType = "OPERATION"
	Visualization ProcessorType = "VISUALIZATION"
)

// IsValid checks that the processor type is known.
func (t ProcessorType) IsValid() bool {
	switch t {
	case Algorithm, Operation, Visualization:
		return true
	}
	return false
}

// ParseProcessorType parses a processor type name.
func ParseProcessorType(s string) (ProcessorType, error) {
	t := ProcessorType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown processor type %q", s)
	}
	return t, nil
}

// Version is a processor version. FinishedAt is nil until publishing finished.
type Version struct {
	ModelType  string
	MLCategory string
	FinishedAt *time.Time
}

// Published reports whether the version finished publishing.
func (v *Version) Published() bool { return v != nil && v.FinishedAt != nil }

// Processor is the data processor attached to a code project.
type Processor struct {
	Type    ProcessorType
	Version *Version
}
