package models

import (
	"time"
)

// ImageMetadata represents an image record in the metadata store.
// Width and Height are a cached copy of the source dimensions and may
// drift from reality when the source file is replaced; the crop pipeline
// corrects them when a selection fails geometry validation.
type ImageMetadata struct {
	ID         int64                `json:"id" redis:"id"`
	Name       string               `json:"name" redis:"name"`
	Credit     string               `json:"credit,omitempty" redis:"credit"`
	Width      int                  `json:"width" redis:"width"`
	Height     int                  `json:"height" redis:"height"`
	Selections map[string]Selection `json:"selections" redis:"selections"`
	CreatedAt  time.Time            `json:"created_at" redis:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at" redis:"updated_at"`
}

// NewImageMetadata creates a new ImageMetadata with current timestamp
func NewImageMetadata(id int64, name string, width, height int) *ImageMetadata {
	now := time.Now()
	return &ImageMetadata{
		ID:         id,
		Name:       name,
		Width:      width,
		Height:     height,
		Selections: map[string]Selection{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IDPath returns the canonical sharded path segment for this image.
func (im *ImageMetadata) IDPath() string {
	return IDPath(im.ID)
}

// SelectionFor returns the stored selection for a ratio token, if any.
func (im *ImageMetadata) SelectionFor(ratioSlug string) (Selection, bool) {
	sel, ok := im.Selections[ratioSlug]
	return sel, ok
}

// SetSelection stores a selection for a ratio token.
func (im *ImageMetadata) SetSelection(ratioSlug string, sel Selection) {
	if im.Selections == nil {
		im.Selections = map[string]Selection{}
	}
	im.Selections[ratioSlug] = sel
	im.UpdatedAt = time.Now()
}

// SetDimensions overwrites the cached source dimensions.
func (im *ImageMetadata) SetDimensions(width, height int) {
	im.Width = width
	im.Height = height
	im.UpdatedAt = time.Now()
}

// Validate validates the ImageMetadata
func (im *ImageMetadata) Validate() error {
	if im.ID <= 0 {
		return ValidationError{Field: "id", Message: "ID must be a positive integer"}
	}
	if im.Name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if im.Width <= 0 || im.Height <= 0 {
		return ValidationError{Field: "dimensions", Message: "width and height must be positive"}
	}
	for slug, sel := range im.Selections {
		if _, err := ParseRatio(slug); err != nil {
			return ValidationError{Field: "selections", Message: "invalid ratio token: " + slug}
		}
		if !sel.WellFormed() {
			return ValidationError{Field: "selections", Message: "malformed selection for ratio " + slug}
		}
	}
	return nil
}

// Output format helpers

// ContentTypeForExtension maps an output extension to its MIME type.
// Only jpg and png renders are served.
func ContentTypeForExtension(ext string) (string, error) {
	switch ext {
	case "jpg":
		return "image/jpeg", nil
	case "png":
		return "image/png", nil
	default:
		return "", UnsupportedFormatError{Extension: ext}
	}
}

// API payloads

// UploadResponse represents the response after successful image upload
type UploadResponse struct {
	ID      int64  `json:"id"`
	Path    string `json:"path"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Message string `json:"message"`
}

// DetailResponse represents the image detail endpoint payload
type DetailResponse struct {
	ID         int64                `json:"id"`
	Name       string               `json:"name"`
	Credit     string               `json:"credit,omitempty"`
	Width      int                  `json:"width"`
	Height     int                  `json:"height"`
	Selections map[string]Selection `json:"selections"`
	CreatedAt  time.Time            `json:"created_at"`
}

// ToDetailResponse converts ImageMetadata to DetailResponse
func (im *ImageMetadata) ToDetailResponse() DetailResponse {
	selections := im.Selections
	if selections == nil {
		selections = map[string]Selection{}
	}
	return DetailResponse{
		ID:         im.ID,
		Name:       im.Name,
		Credit:     im.Credit,
		Width:      im.Width,
		Height:     im.Height,
		Selections: selections,
		CreatedAt:  im.CreatedAt,
	}
}

// UpdateDetailRequest represents a PATCH payload for image details
type UpdateDetailRequest struct {
	Name   *string `json:"name"`
	Credit *string `json:"credit"`
}

// SelectionRequest represents a selection update payload
type SelectionRequest struct {
	X0 *int `json:"x0" binding:"required"`
	Y0 *int `json:"y0" binding:"required"`
	X1 *int `json:"x1" binding:"required"`
	Y1 *int `json:"y1" binding:"required"`
}

// SearchResponse represents the search endpoint payload
type SearchResponse struct {
	Results []DetailResponse `json:"results"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Services  map[string]string `json:"services"`
	Timestamp time.Time         `json:"timestamp"`
}
