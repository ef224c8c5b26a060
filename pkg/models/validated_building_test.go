package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/rooftag-io/rooftag-engine/pkg/apperrors"
)

func validParams() NewValidatedBuildingParams {
	return NewValidatedBuildingParams{
		OsmID:            123456789,
		OsmType:          "way",
		Latitude:         46.05691234567,
		Longitude:        14.50581234567,
		RoofColorHex:     "#AA3322",
		ColorDescription: "red",
		ValidationMethod: ValidationMethodLLM,
		ValidatedBy:      "mapper@example.org",
	}
}

func TestNewValidatedBuilding_OK(t *testing.T) {
	b, err := NewValidatedBuilding(validParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.RoofColorHex != "#AA3322" {
		t.Errorf("unexpected hex color %q", b.RoofColorHex)
	}
	if b.UploadedToOsm {
		t.Error("new record must not be marked uploaded")
	}
}

func TestNewValidatedBuilding_RoundsCoordinates(t *testing.T) {
	b, err := NewValidatedBuilding(validParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Latitude != 46.0569123 {
		t.Errorf("latitude not rounded to 7 digits: %v", b.Latitude)
	}
	if b.Longitude != 14.5058123 {
		t.Errorf("longitude not rounded to 7 digits: %v", b.Longitude)
	}
}

func TestNewValidatedBuilding_BadHexColor(t *testing.T) {
	for _, hex := range []string{"red", "#FFF", "#GGHHII", "AA3322", "#AA33221"} {
		p := validParams()
		p.RoofColorHex = hex
		if _, err := NewValidatedBuilding(p); !errors.Is(err, apperrors.ErrConstraintViolation) {
			t.Errorf("hex %q: expected ErrConstraintViolation, got %v", hex, err)
		}
	}
}

func TestNewValidatedBuilding_BoundedFields(t *testing.T) {
	p := validParams()
	p.Notes = strings.Repeat("x", MaxNotesLen+1)
	_, err := NewValidatedBuilding(p)
	if !errors.Is(err, apperrors.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}
	if !strings.Contains(err.Error(), "notes") {
		t.Errorf("error should name the offending field, got %q", err.Error())
	}

	p = validParams()
	p.OsmType = strings.Repeat("w", MaxOsmTypeLen+1)
	if _, err := NewValidatedBuilding(p); !errors.Is(err, apperrors.ErrConstraintViolation) {
		t.Errorf("over-length osm_type: expected ErrConstraintViolation, got %v", err)
	}

	// At the boundary is fine.
	p = validParams()
	p.Notes = strings.Repeat("x", MaxNotesLen)
	if _, err := NewValidatedBuilding(p); err != nil {
		t.Errorf("notes at max length should pass, got %v", err)
	}
}

func TestNewValidatedBuilding_PickedPixelRequiresPixelPick(t *testing.T) {
	p := validParams()
	p.PickedPixel = "512,384"
	if _, err := NewValidatedBuilding(p); !errors.Is(err, apperrors.ErrConstraintViolation) {
		t.Errorf("picked pixel with llm method: expected ErrConstraintViolation, got %v", err)
	}

	p.ValidationMethod = ValidationMethodPixelPick
	if _, err := NewValidatedBuilding(p); err != nil {
		t.Errorf("picked pixel with pixel-pick method should pass, got %v", err)
	}
}

func TestNewValidatedBuilding_RequiredFields(t *testing.T) {
	p := validParams()
	p.ValidatedBy = ""
	if _, err := NewValidatedBuilding(p); !errors.Is(err, apperrors.ErrConstraintViolation) {
		t.Errorf("missing validated_by: expected ErrConstraintViolation, got %v", err)
	}

	p = validParams()
	p.ValidationMethod = ""
	if _, err := NewValidatedBuilding(p); !errors.Is(err, apperrors.ErrConstraintViolation) {
		t.Errorf("missing validation_method: expected ErrConstraintViolation, got %v", err)
	}

	p = validParams()
	p.OsmID = -5
	if _, err := NewValidatedBuilding(p); !errors.Is(err, apperrors.ErrConstraintViolation) {
		t.Errorf("negative osm_id: expected ErrConstraintViolation, got %v", err)
	}
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#ffAA00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.String() != "#ffAA00" {
		t.Errorf("unexpected color %q", c)
	}
}

func TestRoundCoord(t *testing.T) {
	if got := RoundCoord(46.12345674999); got != 46.1234567 {
		t.Errorf("expected 46.1234567, got %v", got)
	}
	if got := RoundCoord(-14.505812399); got != -14.5058124 {
		t.Errorf("expected -14.5058124, got %v", got)
	}
	// Already at precision: unchanged.
	if got := RoundCoord(46.05); got != 46.05 {
		t.Errorf("expected 46.05, got %v", got)
	}
}
