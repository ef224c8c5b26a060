// Package osm provides a client for pushing validated roof color tags to an
// OpenStreetMap tag submission endpoint.
package osm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/rooftag-io/rooftag-engine/pkg/models"
)

// DefaultTimeout is the maximum time to wait for upload responses.
const DefaultTimeout = 30 * time.Second

// Client submits roof color tags over HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new upload client. token is optional and sent as a
// bearer credential when present.
func NewClient(baseURL, token string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: logger.Named("osm"),
	}
}

// tagSubmission is the wire format for one roof color tag.
type tagSubmission struct {
	OsmID     int64  `json:"osm_id"`
	OsmType   string `json:"osm_type"`
	RoofColor string `json:"roof:colour"`
}

// UploadColorTag submits the building's validated roof color.
// Server errors and transport failures are retryable; client errors are
// permanent and surface immediately.
func (c *Client) UploadColorTag(ctx context.Context, building *models.ValidatedBuilding) error {
	endpoint, err := buildURL(c.baseURL, "api", "roof-tags")
	if err != nil {
		return fmt.Errorf("failed to build URL: %w", err)
	}

	payload, err := json.Marshal(tagSubmission{
		OsmID:     building.OsmID,
		OsmType:   building.OsmType,
		RoofColor: string(building.RoofColorHex),
	})
	if err != nil {
		return fmt.Errorf("failed to encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("Uploading roof color tag",
		zap.Int64("osm_id", building.OsmID),
		zap.String("roof_color", string(building.RoofColorHex)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &uploadError{message: "upload request failed", cause: err, retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	uerr := &uploadError{
		message:    fmt.Sprintf("upload returned status %d: %s", resp.StatusCode, string(body)),
		statusCode: resp.StatusCode,
		retryable:  resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
	}

	c.logger.Warn("Upload rejected",
		zap.Int64("osm_id", building.OsmID),
		zap.Int("status", resp.StatusCode),
		zap.Bool("retryable", uerr.retryable))
	return uerr
}

// uploadError carries retryability alongside the failure detail.
type uploadError struct {
	message    string
	statusCode int
	retryable  bool
	cause      error
}

func (e *uploadError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *uploadError) Unwrap() error { return e.cause }

// IsRetryable implements the retry.RetryableError interface.
func (e *uploadError) IsRetryable() bool { return e.retryable }

// buildURL constructs a URL by parsing the base and joining path segments.
func buildURL(baseURL string, pathSegments ...string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	segments := append([]string{u.Path}, pathSegments...)
	u.Path = path.Join(segments...)

	return u.String(), nil
}
