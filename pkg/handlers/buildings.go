package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/rooftag-io/rooftag-engine/pkg/apperrors"
	"github.com/rooftag-io/rooftag-engine/pkg/auth"
	"github.com/rooftag-io/rooftag-engine/pkg/models"
	"github.com/rooftag-io/rooftag-engine/pkg/services"
)

// BuildingHandler handles roof color suggestion and validation requests.
type BuildingHandler struct {
	suggestions services.SuggestionService
	validations services.ValidationService
	logger      *zap.Logger
}

// NewBuildingHandler creates a new building handler.
func NewBuildingHandler(suggestions services.SuggestionService, validations services.ValidationService, logger *zap.Logger) *BuildingHandler {
	return &BuildingHandler{
		suggestions: suggestions,
		validations: validations,
		logger:      logger,
	}
}

// Protect wraps a handler with the auth middleware when one is configured.
type Protect func(http.HandlerFunc) http.HandlerFunc

// RegisterRoutes registers the building handler's routes on the given mux.
// protect guards the mutating endpoints; pass nil to leave them open.
func (h *BuildingHandler) RegisterRoutes(mux *http.ServeMux, protect Protect) {
	if protect == nil {
		protect = func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	mux.HandleFunc("POST /api/suggest", protect(h.Suggest))
	mux.HandleFunc("POST /api/resuggest", protect(h.Resuggest))
	mux.HandleFunc("POST /api/validate", protect(h.Validate))
	mux.HandleFunc("GET /api/buildings", h.FindInArea)
	mux.HandleFunc("GET /api/buildings/{osm_id}", h.GetBuilding)
	mux.HandleFunc("GET /api/pending-uploads", h.PendingUploads)
}

// Suggest handles POST /api/suggest
func (h *BuildingHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req models.InferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_body", "Request body is not valid JSON")
		return
	}

	resp, err := h.suggestions.Suggest(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// Resuggest handles POST /api/resuggest
func (h *BuildingHandler) Resuggest(w http.ResponseWriter, r *http.Request) {
	var req models.ReSuggestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_body", "Request body is not valid JSON")
		return
	}

	resp, err := h.suggestions.Resuggest(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

type validateRequest struct {
	OsmID             int64   `json:"osm_id"`
	OsmType           string  `json:"osm_type"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	RoofColorHex      string  `json:"roof_color_hex"`
	ColorDescription  string  `json:"color_description"`
	ValidationMethod  string  `json:"validation_method"`
	PickedPixel       string  `json:"picked_pixel"`
	BuildingType      string  `json:"building_type"`
	ValidatedBy       string  `json:"validated_by"`
	Notes             string  `json:"notes"`
	PreviousRoofColor string  `json:"previous_roof_color"`
}

// Validate handles POST /api/validate
func (h *BuildingHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_body", "Request body is not valid JSON")
		return
	}

	// Authenticated requests stamp the validator identity from the token.
	if req.ValidatedBy == "" {
		if subject, err := auth.SubjectFromContext(r.Context()); err == nil {
			req.ValidatedBy = subject
		}
	}

	building, err := h.validations.RecordValidation(r.Context(), models.NewValidatedBuildingParams{
		OsmID:             req.OsmID,
		OsmType:           req.OsmType,
		Latitude:          req.Latitude,
		Longitude:         req.Longitude,
		RoofColorHex:      req.RoofColorHex,
		ColorDescription:  req.ColorDescription,
		ValidationMethod:  req.ValidationMethod,
		PickedPixel:       req.PickedPixel,
		BuildingType:      req.BuildingType,
		ValidatedBy:       req.ValidatedBy,
		Notes:             req.Notes,
		PreviousRoofColor: req.PreviousRoofColor,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateKey) && building != nil {
			// Conflict responses carry the existing record so clients can
			// show what is already stored.
			h.writeJSON(w, http.StatusConflict, map[string]interface{}{
				"error":    "duplicate_osm_id",
				"message":  "A validated record already exists for this building",
				"existing": building,
			})
			return
		}
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, building)
}

// GetBuilding handles GET /api/buildings/{osm_id}
func (h *BuildingHandler) GetBuilding(w http.ResponseWriter, r *http.Request) {
	osmID, err := strconv.ParseInt(r.PathValue("osm_id"), 10, 64)
	if err != nil || osmID < 0 {
		h.writeError(w, http.StatusBadRequest, "invalid_osm_id", "OSM id must be a non-negative integer")
		return
	}

	building, err := h.validations.GetBuilding(r.Context(), osmID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, building)
}

// FindInArea handles GET /api/buildings?min_lon=&min_lat=&max_lon=&max_lat=
func (h *BuildingHandler) FindInArea(w http.ResponseWriter, r *http.Request) {
	box, ok := h.parseBoundingBox(w, r)
	if !ok {
		return
	}

	buildings, err := h.validations.FindInArea(r.Context(), box)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if buildings == nil {
		buildings = make([]*models.ValidatedBuilding, 0)
	}
	h.writeJSON(w, http.StatusOK, buildings)
}

// PendingUploads handles GET /api/pending-uploads
func (h *BuildingHandler) PendingUploads(w http.ResponseWriter, r *http.Request) {
	buildings, err := h.validations.PendingUploads(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if buildings == nil {
		buildings = make([]*models.ValidatedBuilding, 0)
	}
	h.writeJSON(w, http.StatusOK, buildings)
}

func (h *BuildingHandler) parseBoundingBox(w http.ResponseWriter, r *http.Request) (models.BoundingBox, bool) {
	var box models.BoundingBox
	fields := []struct {
		name string
		dst  *float64
	}{
		{"min_lon", &box.MinX},
		{"min_lat", &box.MinY},
		{"max_lon", &box.MaxX},
		{"max_lat", &box.MaxY},
	}

	for _, f := range fields {
		raw := r.URL.Query().Get(f.name)
		if raw == "" {
			h.writeError(w, http.StatusBadRequest, "missing_parameter", "Query parameter "+f.name+" is required")
			return box, false
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid_parameter", "Query parameter "+f.name+" must be a number")
			return box, false
		}
		*f.dst = v
	}

	return box, true
}

// writeServiceError maps service errors onto HTTP statuses.
func (h *BuildingHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidRequest):
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, apperrors.ErrConstraintViolation):
		h.writeError(w, http.StatusUnprocessableEntity, "constraint_violation", err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "not_found", "No validated record for this building")
	case errors.Is(err, apperrors.ErrDuplicateKey):
		h.writeError(w, http.StatusConflict, "duplicate_osm_id", err.Error())
	case errors.Is(err, apperrors.ErrInvalidResponse):
		h.logger.Warn("Provider returned an invalid suggestion", zap.Error(err))
		h.writeError(w, http.StatusBadGateway, "invalid_provider_response", err.Error())
	default:
		h.logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

func (h *BuildingHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := respondError(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}

func (h *BuildingHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	if err := respond(w, status, data); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
