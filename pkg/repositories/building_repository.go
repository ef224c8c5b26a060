// Package repositories provides data access for validated building records.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rooftag-io/rooftag-engine/pkg/apperrors"
	"github.com/rooftag-io/rooftag-engine/pkg/database"
	"github.com/rooftag-io/rooftag-engine/pkg/geo"
	"github.com/rooftag-io/rooftag-engine/pkg/models"
)

// Postgres error codes surfaced as domain errors.
const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
	pgStringTooLong   = "22001"
)

// BuildingRepository provides data access for validated building records.
type BuildingRepository interface {
	// Create persists a new record. The record's field invariants are
	// checked first; uniqueness of osm_id is enforced by the database so
	// concurrent inserts race safely. On success the record is updated in
	// place with the generated id and server-assigned defaults.
	Create(ctx context.Context, building *models.ValidatedBuilding) error

	// GetByOsmID returns the record for an OSM building id, or
	// apperrors.ErrNotFound.
	GetByOsmID(ctx context.Context, osmID int64) (*models.ValidatedBuilding, error)

	// FindByLocation returns all records inside the bounding box, in no
	// particular order.
	FindByLocation(ctx context.Context, box models.BoundingBox) ([]*models.ValidatedBuilding, error)

	// FindPendingUpload returns records not yet uploaded, oldest first.
	FindPendingUpload(ctx context.Context) ([]*models.ValidatedBuilding, error)

	// MarkUploaded flags a record as uploaded. Idempotent: marking an
	// already-uploaded record succeeds without effect.
	MarkUploaded(ctx context.Context, id int64) error
}

type buildingRepository struct {
	db *database.DB
}

// NewBuildingRepository creates a new BuildingRepository.
func NewBuildingRepository(db *database.DB) BuildingRepository {
	return &buildingRepository{db: db}
}

var _ BuildingRepository = (*buildingRepository)(nil)

const buildingColumns = `
	id, osm_id, osm_type, latitude, longitude,
	roof_color_hex, color_description, validation_method,
	picked_pixel, building_type, validated_by, notes,
	previous_roof_color, uploaded_to_osm, validated_at`

func (r *buildingRepository) Create(ctx context.Context, building *models.ValidatedBuilding) error {
	if err := building.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO validated_buildings (
			osm_id, osm_type, latitude, longitude, s2_cell_id,
			roof_color_hex, color_description, validation_method,
			picked_pixel, building_type, validated_by, notes,
			previous_roof_color
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, uploaded_to_osm, validated_at`

	err := r.db.QueryRow(ctx, query,
		building.OsmID,
		building.OsmType,
		building.Latitude,
		building.Longitude,
		geo.CellID(building.Latitude, building.Longitude),
		string(building.RoofColorHex),
		building.ColorDescription,
		building.ValidationMethod,
		nullString(building.PickedPixel),
		nullString(building.BuildingType),
		building.ValidatedBy,
		nullString(building.Notes),
		nullString(building.PreviousRoofColor),
	).Scan(&building.ID, &building.UploadedToOsm, &building.ValidatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return fmt.Errorf("%w: osm_id %d already validated", apperrors.ErrDuplicateKey, building.OsmID)
			case pgCheckViolation, pgStringTooLong:
				return fmt.Errorf("%w: %s", apperrors.ErrConstraintViolation, pgErr.Message)
			}
		}
		return fmt.Errorf("failed to create validated building: %w", err)
	}

	return nil
}

func (r *buildingRepository) GetByOsmID(ctx context.Context, osmID int64) (*models.ValidatedBuilding, error) {
	query := `SELECT` + buildingColumns + `
		FROM validated_buildings
		WHERE osm_id = $1`

	building, err := scanBuilding(r.db.QueryRow(ctx, query, osmID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: osm_id %d", apperrors.ErrNotFound, osmID)
		}
		return nil, err
	}
	return building, nil
}

func (r *buildingRepository) FindByLocation(ctx context.Context, box models.BoundingBox) ([]*models.ValidatedBuilding, error) {
	ranges := geo.CoverBoundingBox(box.MinX, box.MinY, box.MaxX, box.MaxY)

	// Narrow the scan to the S2 covering first, then apply the exact
	// coordinate filter (the covering over-approximates).
	var sb strings.Builder
	sb.WriteString(`SELECT` + buildingColumns + `
		FROM validated_buildings
		WHERE longitude >= $1 AND longitude <= $2
		  AND latitude >= $3 AND latitude <= $4`)

	args := []any{box.MinX, box.MaxX, box.MinY, box.MaxY}
	if len(ranges) > 0 {
		sb.WriteString(" AND (")
		for i, cr := range ranges {
			if i > 0 {
				sb.WriteString(" OR ")
			}
			fmt.Fprintf(&sb, "s2_cell_id BETWEEN $%d AND $%d", len(args)+1, len(args)+2)
			args = append(args, cr.Min, cr.Max)
		}
		sb.WriteString(")")
	}

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query buildings by location: %w", err)
	}
	defer rows.Close()

	return collectBuildings(rows)
}

func (r *buildingRepository) FindPendingUpload(ctx context.Context) ([]*models.ValidatedBuilding, error) {
	query := `SELECT` + buildingColumns + `
		FROM validated_buildings
		WHERE uploaded_to_osm = FALSE
		ORDER BY validated_at ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending uploads: %w", err)
	}
	defer rows.Close()

	return collectBuildings(rows)
}

func (r *buildingRepository) MarkUploaded(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx,
		`UPDATE validated_buildings SET uploaded_to_osm = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark building uploaded: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: building id %d", apperrors.ErrNotFound, id)
	}
	return nil
}

func collectBuildings(rows pgx.Rows) ([]*models.ValidatedBuilding, error) {
	var buildings []*models.ValidatedBuilding
	for rows.Next() {
		building, err := scanBuilding(rows)
		if err != nil {
			return nil, err
		}
		buildings = append(buildings, building)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating buildings: %w", err)
	}
	return buildings, nil
}

func scanBuilding(row pgx.Row) (*models.ValidatedBuilding, error) {
	var b models.ValidatedBuilding
	var hexColor string
	var pickedPixel, buildingType, notes, previousColor *string

	err := row.Scan(
		&b.ID,
		&b.OsmID,
		&b.OsmType,
		&b.Latitude,
		&b.Longitude,
		&hexColor,
		&b.ColorDescription,
		&b.ValidationMethod,
		&pickedPixel,
		&buildingType,
		&b.ValidatedBy,
		&notes,
		&previousColor,
		&b.UploadedToOsm,
		&b.ValidatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan validated building: %w", err)
	}

	b.RoofColorHex = models.HexColor(hexColor)
	if pickedPixel != nil {
		b.PickedPixel = *pickedPixel
	}
	if buildingType != nil {
		b.BuildingType = *buildingType
	}
	if notes != nil {
		b.Notes = *notes
	}
	if previousColor != nil {
		b.PreviousRoofColor = *previousColor
	}

	return &b, nil
}

// nullString returns nil if the string is empty, otherwise the string pointer.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
