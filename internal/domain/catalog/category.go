package catalog

import (
	"strings"

	"github.com/storefront/backend/internal/domain/shared"
)

// MaxCategoryDepth is the maximum depth of the category tree
const MaxCategoryDepth = 2

// Category represents a product category. Categories without a parent are top-level.
type Category struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	ParentID       *int64  `json:"parent_id,omitempty"`
	SubcategoryIDs []int64 `json:"subcategory_ids,omitempty"`
	SortOrder      int     `json:"-"`
}

// NewCategory creates a top-level category
func NewCategory(id int64, name string) (*Category, error) {
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}
	return &Category{ID: id, Name: strings.TrimSpace(name)}, nil
}

// NewChildCategory creates a category under parent and registers it as a subcategory
func NewChildCategory(id int64, name string, parent *Category) (*Category, error) {
	if parent == nil {
		return nil, shared.NewDomainError("INVALID_PARENT", "Parent category is required")
	}
	if parent.ParentID != nil {
		return nil, shared.NewDomainError("MAX_DEPTH_EXCEEDED", "Category tree is limited to two levels")
	}
	if id == parent.ID {
		return nil, shared.NewDomainError("INVALID_PARENT", "Category cannot be its own parent")
	}
	c, err := NewCategory(id, name)
	if err != nil {
		return nil, err
	}
	parentID := parent.ID
	c.ParentID = &parentID
	parent.SubcategoryIDs = append(parent.SubcategoryIDs, id)
	return c, nil
}

// IsTopLevel returns true if the category has no parent
func (c *Category) IsTopLevel() bool {
	return c.ParentID == nil
}

// HasSubcategories returns true if child ids are declared
func (c *Category) HasSubcategories() bool {
	return len(c.SubcategoryIDs) > 0
}

func validateCategoryName(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot exceed 100 characters")
	}
	return nil
}
