package models

import (
	"time"

	"github.com/google/uuid"
)

// ConvertedCategoryName is the category name that marks a lead as converted.
const ConvertedCategoryName = "Converted"

// DefaultCategoryNames are created for every new organisation.
var DefaultCategoryNames = []string{"New", "Contacted", ConvertedCategoryName, "Unconverted"}

// Category is a pipeline stage. Names are unique within an organisation.
type Category struct {
	CategoryID uuid.UUID // UUIDv7
	OrgID      uuid.UUID
	Name       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
