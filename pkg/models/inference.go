// Package models contains domain types for rooftag-engine.
package models

import (
	"fmt"

	"github.com/rooftag-io/rooftag-engine/pkg/apperrors"
)

// ImageQuality describes how much of the building's imagery was captured.
type ImageQuality string

const (
	QualityFull    ImageQuality = "full"
	QualityPartial ImageQuality = "partial"
)

// IsValid returns true if the quality is one of the permitted values.
func (q ImageQuality) IsValid() bool {
	return q == QualityFull || q == QualityPartial
}

// InferenceMethod records where a color suggestion came from.
type InferenceMethod string

const (
	MethodLLM        InferenceMethod = "llm"
	MethodLocalModel InferenceMethod = "local_model"
	MethodFallback   InferenceMethod = "fallback"
)

// IsValid returns true if the method is a known provenance value.
func (m InferenceMethod) IsValid() bool {
	switch m {
	case MethodLLM, MethodLocalModel, MethodFallback:
		return true
	default:
		return false
	}
}

// DefaultPalette returns the standard set of roof color labels a provider
// may choose from. Callers get a fresh copy and may append to it.
func DefaultPalette() []string {
	return []string{
		"black", "dark gray", "light gray", "red", "brown",
		"tan", "green", "blue", "white", "other",
	}
}

// Location is a point in decimal degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BoundingBox is a rectangle in the same coordinate space as Location:
// X is longitude, Y is latitude.
type BoundingBox struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// Contains reports whether the point lies within the box (inclusive).
func (b BoundingBox) Contains(loc Location) bool {
	return loc.Lon >= b.MinX && loc.Lon <= b.MaxX &&
		loc.Lat >= b.MinY && loc.Lat <= b.MaxY
}

// ImageSummary carries the image evidence sent alongside an inference request.
// Thumbnail and FullImage are base64-encoded; either may be absent.
type ImageSummary struct {
	Thumbnail      string       `json:"thumbnail,omitempty"`
	FullImage      string       `json:"fullImage,omitempty"`
	DominantColors []string     `json:"dominantColors"`
	Quality        ImageQuality `json:"quality"`
}

// InferenceRequest is the provider-agnostic input for one roof-color
// inference call.
type InferenceRequest struct {
	BuildingID       int64        `json:"buildingId"`
	Location         Location     `json:"location"`
	BoundingBox      BoundingBox  `json:"boundingBox"`
	ExistingColorTag string       `json:"existingColorTag,omitempty"`
	SizeRatio        float64      `json:"sizeRatio"`
	ImageSummary     ImageSummary `json:"imageSummary"`
	AllowedColors    []string     `json:"allowedColors"`
}

// Validate checks the request invariants. All failures wrap
// apperrors.ErrInvalidRequest with a reason identifying the violated field.
func (r *InferenceRequest) Validate() error {
	if r.BuildingID < 0 {
		return fmt.Errorf("%w: buildingId must be non-negative, got %d", apperrors.ErrInvalidRequest, r.BuildingID)
	}
	if r.BoundingBox.MinX > r.BoundingBox.MaxX {
		return fmt.Errorf("%w: boundingBox minX %v greater than maxX %v", apperrors.ErrInvalidRequest, r.BoundingBox.MinX, r.BoundingBox.MaxX)
	}
	if r.BoundingBox.MinY > r.BoundingBox.MaxY {
		return fmt.Errorf("%w: boundingBox minY %v greater than maxY %v", apperrors.ErrInvalidRequest, r.BoundingBox.MinY, r.BoundingBox.MaxY)
	}
	if r.SizeRatio <= 0 {
		return fmt.Errorf("%w: sizeRatio must be positive, got %v", apperrors.ErrInvalidRequest, r.SizeRatio)
	}
	if len(r.AllowedColors) == 0 {
		return fmt.Errorf("%w: allowedColors must not be empty", apperrors.ErrInvalidRequest)
	}
	if !r.ImageSummary.Quality.IsValid() {
		return fmt.Errorf("%w: imageSummary quality must be %q or %q, got %q",
			apperrors.ErrInvalidRequest, QualityFull, QualityPartial, r.ImageSummary.Quality)
	}
	return nil
}

// ReSuggestionRequest asks for a second opinion after a human rejected the
// first suggestion. PreviousColor is the rejected color and must be a member
// of the palette that produced it.
type ReSuggestionRequest struct {
	BuildingID    int64        `json:"buildingId"`
	PreviousColor string       `json:"previousColor"`
	Location      Location     `json:"location"`
	ImageSummary  ImageSummary `json:"imageSummary"`
	AllowedColors []string     `json:"allowedColors"`
}

// Validate checks the re-suggestion invariants.
func (r *ReSuggestionRequest) Validate() error {
	if r.BuildingID < 0 {
		return fmt.Errorf("%w: buildingId must be non-negative, got %d", apperrors.ErrInvalidRequest, r.BuildingID)
	}
	if len(r.AllowedColors) == 0 {
		return fmt.Errorf("%w: allowedColors must not be empty", apperrors.ErrInvalidRequest)
	}
	if !containsColor(r.AllowedColors, r.PreviousColor) {
		return fmt.Errorf("%w: previousColor %q is not in allowedColors", apperrors.ErrInvalidRequest, r.PreviousColor)
	}
	if !r.ImageSummary.Quality.IsValid() {
		return fmt.Errorf("%w: imageSummary quality must be %q or %q, got %q",
			apperrors.ErrInvalidRequest, QualityFull, QualityPartial, r.ImageSummary.Quality)
	}
	return nil
}

// InferenceResponse is the provider-agnostic output of one inference call.
type InferenceResponse struct {
	Color       string          `json:"color"`
	Confidence  float64         `json:"confidence"`
	Explanation string          `json:"explanation,omitempty"`
	Method      InferenceMethod `json:"method"`
}

// Validate checks the response against the palette of the request that
// produced it. Pass nil allowedColors to skip the palette membership check.
func (r *InferenceResponse) Validate(allowedColors []string) error {
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v outside [0, 1]", apperrors.ErrInvalidResponse, r.Confidence)
	}
	if !r.Method.IsValid() {
		return fmt.Errorf("%w: unknown method %q", apperrors.ErrInvalidResponse, r.Method)
	}
	if allowedColors != nil && !containsColor(allowedColors, r.Color) {
		return fmt.Errorf("%w: color %q is not in the request palette", apperrors.ErrInvalidResponse, r.Color)
	}
	return nil
}

func containsColor(colors []string, c string) bool {
	for _, v := range colors {
		if v == c {
			return true
		}
	}
	return false
}
