// Package geo provides S2 cell helpers for spatial indexing of building
// records. Leaf cell ids are persisted as BIGINT alongside each record;
// bounding-box queries are narrowed to a small set of cell-id ranges before
// the exact coordinate filter is applied.
package geo

import (
	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

const coveringMaxCells = 8

// CellID returns the leaf S2 cell id for a point, cast to int64 for storage.
// The cast preserves ordering within a face, which is all the range queries
// rely on.
func CellID(lat, lon float64) int64 {
	return int64(s2.CellIDFromLatLng(s2.LatLngFromDegrees(lat, lon)))
}

// CellRange is an inclusive range of leaf cell ids.
type CellRange struct {
	Min int64
	Max int64
}

// Contains reports whether the cell id falls within the range.
func (r CellRange) Contains(id int64) bool {
	return id >= r.Min && id <= r.Max
}

// CoverBoundingBox computes cell-id ranges covering the rectangle spanned by
// the given corners (X is longitude, Y is latitude). Every point inside the
// rectangle has a leaf cell id inside at least one returned range; points
// outside may also match, so callers must still apply the exact filter.
func CoverBoundingBox(minLon, minLat, maxLon, maxLat float64) []CellRange {
	lo := s2.LatLngFromDegrees(minLat, minLon)
	hi := s2.LatLngFromDegrees(maxLat, maxLon)

	rect := s2.Rect{
		Lat: r1.Interval{Lo: lo.Lat.Radians(), Hi: hi.Lat.Radians()},
		Lng: s1.Interval{Lo: lo.Lng.Radians(), Hi: hi.Lng.Radians()},
	}

	coverer := &s2.RegionCoverer{MaxLevel: 30, MaxCells: coveringMaxCells}
	covering := coverer.Covering(rect)

	ranges := make([]CellRange, 0, len(covering))
	for _, cell := range covering {
		ranges = append(ranges, CellRange{
			Min: int64(cell.RangeMin()),
			Max: int64(cell.RangeMax()),
		})
	}
	return ranges
}
