package api

import (
	"github.com/starford/kiln/internal/build"
	"github.com/starford/kiln/internal/docservice"
	"github.com/starford/kiln/internal/models"
)

// DocumentDetail is the full document response type (aliased from the domain layer).
type DocumentDetail = docservice.DocumentDetail

// DocumentListResponse wraps paginated document listings.
type DocumentListResponse struct {
	Documents []models.Document `json:"documents" validate:"required"`
	Total     int               `json:"total" example:"42" validate:"required"`
}

// GroupListResponse wraps the collections or taxonomies of the last build.
type GroupListResponse struct {
	Groups []models.Group `json:"groups" validate:"required"`
}

// GroupResponse is one collection or taxonomy with a page of its members.
type GroupResponse struct {
	Kind      string            `json:"kind" example:"collection" validate:"required"`
	Name      string            `json:"name" example:"go" validate:"required"`
	Documents []models.Document `json:"documents" validate:"required"`
	Total     int               `json:"total" example:"3" validate:"required"`
}

// BuildResponse is the report of a build triggered through the API.
type BuildResponse = build.Report
