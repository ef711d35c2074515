package tag

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// MaxNameLength is the maximum tag name length.
const MaxNameLength = 128

// Tag is a searchable tag from the controlled vocabulary (immutable value object).
type Tag struct {
	id      string
	name    string
	public  bool
	ownerID string
}

// New validates and creates a Tag. ID must be a UUID, name 1-128 chars without commas.
func New(id, name string, public bool, ownerID string) (Tag, error) {
	if err := uuid.Validate(id); err != nil {
		return Tag{}, fmt.Errorf("tag ID must be a UUID: %w", err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Tag{}, fmt.Errorf("tag name is required")
	}
	if len(name) > MaxNameLength {
		return Tag{}, fmt.Errorf("tag name too long (max %d)", MaxNameLength)
	}
	// ',' is the index tag separator.
	if strings.Contains(name, ",") {
		return Tag{}, fmt.Errorf("tag name must not contain ','")
	}
	return Tag{id: id, name: name, public: public, ownerID: ownerID}, nil
}

// Reconstruct creates a Tag without validation (storage hydration).
func Reconstruct(id, name string, public bool, ownerID string) Tag {
	return Tag{id: id, name: name, public: public, ownerID: ownerID}
}

// ID returns the tag identifier.
func (t Tag) ID() string { return t.id }

// Name returns the tag name as stored.
func (t Tag) Name() string { return t.name }

// Public reports whether the tag is visible to everyone.
func (t Tag) Public() bool { return t.public }

// OwnerID returns the owning person id, empty for system tags.
func (t Tag) OwnerID() string { return t.ownerID }

// HasName compares the tag name case-insensitively.
func (t Tag) HasName(name string) bool { return strings.EqualFold(t.name, name) }
