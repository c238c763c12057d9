// Package layout manages prescription page layouts: per-doctor coordinate
// maps that position consultation fields on pre-printed stationery.
package layout

import (
	"time"

	"github.com/google/uuid"
)

// FieldPlacement positions one named field on the page. Coordinates are in
// millimeters from the top-left corner.
type FieldPlacement struct {
	Field     string  `json:"field"`
	XMM       float64 `json:"x_mm"`
	YMM       float64 `json:"y_mm"`
	FontSize  float64 `json:"font_size,omitempty"`
	Bold      bool    `json:"bold,omitempty"`
	MaxWidth  float64 `json:"max_width_mm,omitempty"`
	MaxHeight float64 `json:"max_height_mm,omitempty"`
}

// Layout is a doctor's prescription sheet definition. At most one layout per
// doctor is active at a time; the active one drives coordinate rendering.
type Layout struct {
	ID           uuid.UUID        `json:"id"`
	DoctorEmail  string           `json:"-"`
	Name         string           `json:"name"`
	PageWidthMM  float64          `json:"page_width_mm"`
	PageHeightMM float64          `json:"page_height_mm"`
	Fields       []FieldPlacement `json:"fields"`
	// BackgroundImageURL, when set, is drawn full-page under the placed
	// fields (a scan of the doctor's stationery).
	BackgroundImageURL string    `json:"background_image_url,omitempty"`
	Active             bool      `json:"active"`
	CreatedAt          time.Time `json:"created_at"`
}

// Default page dimensions (A5 portrait), used when a layout is saved without
// explicit page size.
const (
	DefaultPageWidthMM  = 148.0
	DefaultPageHeightMM = 210.0
)
