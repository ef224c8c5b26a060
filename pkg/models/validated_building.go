package models

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rooftag-io/rooftag-engine/pkg/apperrors"
)

// Validation method values for ValidatedBuilding.ValidationMethod.
// The field is free-form (bounded length) so new methods can appear
// without a migration, but these are the ones the engine itself writes.
const (
	ValidationMethodLLM       = "llm"
	ValidationMethodManual    = "manual"
	ValidationMethodPixelPick = "pixel-pick"
)

// Maximum lengths for the bounded string fields of ValidatedBuilding.
// They mirror the column widths in the validated_buildings table.
const (
	MaxOsmTypeLen           = 16
	MaxColorDescriptionLen  = 100
	MaxValidationMethodLen  = 50
	MaxPickedPixelLen       = 50
	MaxBuildingTypeLen      = 100
	MaxValidatedByLen       = 100
	MaxNotesLen             = 500
	MaxPreviousRoofColorLen = 50
)

// coordPrecision is the number of fractional digits kept for latitude and
// longitude. Seven digits is ~1cm at the equator, ample for building-level
// resolution, and matches the NUMERIC(10,7) columns.
const coordPrecision = 7

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// HexColor is a validated #RRGGBB color string.
type HexColor string

// ParseHexColor validates s against the #RRGGBB pattern.
func ParseHexColor(s string) (HexColor, error) {
	if !hexColorPattern.MatchString(s) {
		return "", fmt.Errorf("%w: roof color %q does not match #RRGGBB", apperrors.ErrConstraintViolation, s)
	}
	return HexColor(s), nil
}

// String returns the raw color string.
func (c HexColor) String() string {
	return string(c)
}

// RoundCoord normalizes a decimal-degree coordinate to the stored precision.
func RoundCoord(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(coordPrecision).Float64()
	return f
}

// ValidatedBuilding is the durable record of a human-confirmed roof color.
// OsmID is the natural key and must be unique across all records; ID is the
// store-assigned surrogate key.
type ValidatedBuilding struct {
	ID                int64     `json:"id"`
	OsmID             int64     `json:"osm_id"`
	OsmType           string    `json:"osm_type"`
	Latitude          float64   `json:"latitude"`
	Longitude         float64   `json:"longitude"`
	RoofColorHex      HexColor  `json:"roof_color_hex"`
	ColorDescription  string    `json:"color_description,omitempty"`
	ValidationMethod  string    `json:"validation_method"`
	PickedPixel       string    `json:"picked_pixel_coordinates,omitempty"`
	BuildingType      string    `json:"building_type,omitempty"`
	ValidatedBy       string    `json:"validated_by"`
	Notes             string    `json:"notes,omitempty"`
	PreviousRoofColor string    `json:"previous_roof_color,omitempty"`
	UploadedToOsm     bool      `json:"uploaded_to_osm"`
	ValidatedAt       time.Time `json:"validated_at"`
}

// NewValidatedBuildingParams carries the inputs for NewValidatedBuilding.
type NewValidatedBuildingParams struct {
	OsmID             int64
	OsmType           string
	Latitude          float64
	Longitude         float64
	RoofColorHex      string
	ColorDescription  string
	ValidationMethod  string
	PickedPixel       string
	BuildingType      string
	ValidatedBy       string
	Notes             string
	PreviousRoofColor string
}

// NewValidatedBuilding constructs a record with all field invariants checked
// and coordinates normalized to the stored precision. Construction is the
// only sanctioned way to build a record outside of the repository scan path,
// so invariant breaches surface before any insert is attempted.
func NewValidatedBuilding(p NewValidatedBuildingParams) (*ValidatedBuilding, error) {
	hex, err := ParseHexColor(p.RoofColorHex)
	if err != nil {
		return nil, err
	}

	b := &ValidatedBuilding{
		OsmID:             p.OsmID,
		OsmType:           p.OsmType,
		Latitude:          RoundCoord(p.Latitude),
		Longitude:         RoundCoord(p.Longitude),
		RoofColorHex:      hex,
		ColorDescription:  p.ColorDescription,
		ValidationMethod:  p.ValidationMethod,
		PickedPixel:       p.PickedPixel,
		BuildingType:      p.BuildingType,
		ValidatedBy:       p.ValidatedBy,
		Notes:             p.Notes,
		PreviousRoofColor: p.PreviousRoofColor,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks every field invariant. All failures wrap
// apperrors.ErrConstraintViolation; nothing is truncated or coerced.
func (b *ValidatedBuilding) Validate() error {
	if b.OsmID < 0 {
		return fmt.Errorf("%w: osm_id must be non-negative, got %d", apperrors.ErrConstraintViolation, b.OsmID)
	}
	if _, err := ParseHexColor(string(b.RoofColorHex)); err != nil {
		return err
	}
	if b.ValidationMethod == "" {
		return fmt.Errorf("%w: validation_method is required", apperrors.ErrConstraintViolation)
	}
	if b.ValidatedBy == "" {
		return fmt.Errorf("%w: validated_by is required", apperrors.ErrConstraintViolation)
	}
	if b.PickedPixel != "" && b.ValidationMethod != ValidationMethodPixelPick {
		return fmt.Errorf("%w: picked_pixel_coordinates set but validation_method is %q",
			apperrors.ErrConstraintViolation, b.ValidationMethod)
	}
	for _, f := range []struct {
		name  string
		value string
		max   int
	}{
		{"osm_type", b.OsmType, MaxOsmTypeLen},
		{"color_description", b.ColorDescription, MaxColorDescriptionLen},
		{"validation_method", b.ValidationMethod, MaxValidationMethodLen},
		{"picked_pixel_coordinates", b.PickedPixel, MaxPickedPixelLen},
		{"building_type", b.BuildingType, MaxBuildingTypeLen},
		{"validated_by", b.ValidatedBy, MaxValidatedByLen},
		{"notes", b.Notes, MaxNotesLen},
		{"previous_roof_color", b.PreviousRoofColor, MaxPreviousRoofColorLen},
	} {
		if len(f.value) > f.max {
			return fmt.Errorf("%w: %s exceeds %d characters (%d)",
				apperrors.ErrConstraintViolation, f.name, f.max, len(f.value))
		}
	}
	return nil
}
