package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Validation errors for Category and Tag.
var (
	ErrEmptyCategoryID   = errors.New("category ID cannot be empty")
	ErrEmptyCategoryName = errors.New("category name cannot be empty")
	ErrEmptyTagID        = errors.New("tag ID cannot be empty")
	ErrEmptyTagName      = errors.New("tag name cannot be empty")
)

// Category groups tasks for filtering and reporting. Names are unique.
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewCategory creates an active category with the default accent color.
func NewCategory(name, description string) (*Category, error) {
	now := time.Now().UTC()
	cat := &Category{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Color:       "#007cba",
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := cat.Validate(); err != nil {
		return nil, err
	}

	return cat, nil
}

// Validate checks if the Category has valid data.
func (c *Category) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCategoryID
	}
	if c.Name == "" {
		return ErrEmptyCategoryName
	}
	return nil
}

// Tag is a free-form label attached to tasks. Names are unique. Instances
// generated from a template carry the template's tags.
type Tag struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTag creates a tag with the default accent color.
func NewTag(name string) (*Tag, error) {
	tag := &Tag{
		ID:        uuid.New(),
		Name:      name,
		Color:     "#007cba",
		CreatedAt: time.Now().UTC(),
	}

	if err := tag.Validate(); err != nil {
		return nil, err
	}

	return tag, nil
}

// Validate checks if the Tag has valid data.
func (t *Tag) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTagID
	}
	if t.Name == "" {
		return ErrEmptyTagName
	}
	return nil
}
