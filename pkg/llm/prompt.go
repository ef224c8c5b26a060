package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rooftag-io/rooftag-engine/pkg/jsonutil"
	"github.com/rooftag-io/rooftag-engine/pkg/models"
)

const systemPrompt = `You are an assistant that identifies building roof colors from aerial imagery for a geodata project. Answer with a single JSON object of the form {"color": "<label>", "confidence": <0.0-1.0>, "explanation": "<short rationale>"}. The color MUST be one of the allowed labels given in the request. Do not include any other text.`

// buildSuggestPrompt renders the user prompt for a first suggestion.
func buildSuggestPrompt(req *models.InferenceRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Identify the roof color of building %d at latitude %.7f, longitude %.7f.\n",
		req.BuildingID, req.Location.Lat, req.Location.Lon)
	fmt.Fprintf(&b, "The building occupies roughly %.0f%% of the image.\n", req.SizeRatio*100)
	if req.ImageSummary.Quality == models.QualityPartial {
		b.WriteString("Only part of the building is visible in the image.\n")
	}
	if len(req.ImageSummary.DominantColors) > 0 {
		fmt.Fprintf(&b, "Dominant colors in the building area: %s.\n",
			strings.Join(req.ImageSummary.DominantColors, ", "))
	}
	if req.ExistingColorTag != "" {
		fmt.Fprintf(&b, "The building is currently tagged %q; reassess it from the imagery.\n",
			req.ExistingColorTag)
	}
	fmt.Fprintf(&b, "Allowed labels: %s.", strings.Join(req.AllowedColors, ", "))
	return b.String()
}

// buildResuggestPrompt renders the user prompt for a second opinion after a
// human rejected the previous suggestion.
func buildResuggestPrompt(req *models.ReSuggestionRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Identify the roof color of building %d at latitude %.7f, longitude %.7f.\n",
		req.BuildingID, req.Location.Lat, req.Location.Lon)
	fmt.Fprintf(&b, "A previous suggestion of %q was rejected by a human reviewer; pick a different label unless the imagery clearly contradicts the reviewer.\n",
		req.PreviousColor)
	if len(req.ImageSummary.DominantColors) > 0 {
		fmt.Fprintf(&b, "Dominant colors in the building area: %s.\n",
			strings.Join(req.ImageSummary.DominantColors, ", "))
	}
	fmt.Fprintf(&b, "Allowed labels: %s.", strings.Join(req.AllowedColors, ", "))
	return b.String()
}

// suggestionPayload is the JSON shape providers are instructed to return.
// Fields stay raw because models occasionally quote numbers or emit bare
// values; jsonutil normalizes them.
type suggestionPayload struct {
	Color       json.RawMessage `json:"color"`
	Confidence  json.RawMessage `json:"confidence"`
	Explanation json.RawMessage `json:"explanation"`
}

// parseSuggestion extracts the structured suggestion from raw model output.
func parseSuggestion(content string) (*models.InferenceResponse, error) {
	jsonStr, err := ExtractJSON(content)
	if err != nil {
		return nil, fmt.Errorf("extract suggestion JSON: %w", err)
	}

	var payload suggestionPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return nil, fmt.Errorf("decode suggestion: %w", err)
	}

	color := jsonutil.FlexibleStringValue(payload.Color)
	if color == "" {
		return nil, fmt.Errorf("suggestion has no color")
	}

	return &models.InferenceResponse{
		Color:       color,
		Confidence:  jsonutil.FlexibleFloatValue(payload.Confidence),
		Explanation: jsonutil.FlexibleStringValue(payload.Explanation),
		Method:      models.MethodLLM,
	}, nil
}
