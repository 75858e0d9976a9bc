package fingerprint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/kozaktomas/attendance-tracker/internal/facematch"
)

const defaultEmbeddingURL = "http://localhost:8000"

// ErrEncoding is returned for a detected face that did not yield a usable descriptor.
var ErrEncoding = errors.New("face encoding failed")

// Analyzer detects faces in an image and encodes each of them.
type Analyzer interface {
	Analyze(ctx context.Context, imageData []byte) ([]DetectedFace, error)
}

// DetectedFace is one face found in an image, in source image pixel coordinates.
// Err is set (wrapping ErrEncoding) when the region was found but not encoded;
// Descriptor is nil in that case.
type DetectedFace struct {
	Index      int
	Region     image.Rectangle
	Descriptor facematch.Descriptor
	DetScore   float64
	Err        error
}

// FaceDetection represents a single detected face
type FaceDetection struct {
	FaceIndex int       `json:"face_index"`
	Dim       int       `json:"dim"`
	Embedding []float64 `json:"embedding"`
	BBox      []float64 `json:"bbox"` // [x1, y1, x2, y2]
	DetScore  float64   `json:"det_score"`
}

// FaceResponse represents the response from the face embedding endpoint
type FaceResponse struct {
	FacesCount int             `json:"faces_count"`
	Faces      []FaceDetection `json:"faces"`
	Model      string          `json:"model"`
}

// FaceClient talks to the embedding server's face endpoint.
type FaceClient struct {
	baseURL string
	maxSize int
	client  *http.Client
}

// NewFaceClient creates a new face client. Images larger than maxSize
// (in either dimension) are downscaled before upload; 0 disables resizing.
func NewFaceClient(baseURL string, maxSize int) *FaceClient {
	if baseURL == "" {
		baseURL = defaultEmbeddingURL
	}
	return &FaceClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		maxSize: maxSize,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// postMultipartImage constructs a multipart form with the image data and posts it to the given endpoint.
func (c *FaceClient) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="image.jpg"`)
	h.Set("Content-Type", detectMIMEType(imageData))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// detectMIMEType detects the MIME type from image data
func detectMIMEType(data []byte) string {
	if len(data) < 8 {
		return "application/octet-stream"
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	// GIF: 47 49 46 38
	if data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x38 {
		return "image/gif"
	}
	// WebP: 52 49 46 46 ... 57 45 42 50
	if len(data) >= 12 && data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 &&
		data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50 {
		return "image/webp"
	}
	return "application/octet-stream"
}

// ComputeFaceEmbeddings detects faces and computes their embeddings
func (c *FaceClient) ComputeFaceEmbeddings(ctx context.Context, imageData []byte) (*FaceResponse, error) {
	body, err := c.postMultipartImage(ctx, "/embed/face", imageData)
	if err != nil {
		return nil, err
	}

	var faceResp FaceResponse
	if err := json.Unmarshal(body, &faceResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &faceResp, nil
}

// Analyze downscales the image if needed, detects and encodes its faces,
// and maps bounding boxes back to source pixel coordinates.
// Faces are returned in detection order.
func (c *FaceClient) Analyze(ctx context.Context, imageData []byte) ([]DetectedFace, error) {
	prepared, scale, err := PrepareImage(imageData, c.maxSize)
	if err != nil {
		return nil, err
	}

	resp, err := c.ComputeFaceEmbeddings(ctx, prepared)
	if err != nil {
		return nil, err
	}

	faces := make([]DetectedFace, len(resp.Faces))
	for i, f := range resp.Faces {
		faces[i] = DetectedFace{
			Index:    i,
			Region:   scaleBBox(f.BBox, scale),
			DetScore: f.DetScore,
		}
		if err := validateDetection(f); err != nil {
			faces[i].Err = err
			continue
		}
		faces[i].Descriptor = facematch.Descriptor(f.Embedding)
	}

	return faces, nil
}

func validateDetection(f FaceDetection) error {
	if len(f.Embedding) == 0 {
		return fmt.Errorf("%w: empty embedding", ErrEncoding)
	}
	if f.Dim != 0 && f.Dim != len(f.Embedding) {
		return fmt.Errorf("%w: declared %d dimensions, got %d", ErrEncoding, f.Dim, len(f.Embedding))
	}
	return nil
}

// scaleBBox converts a [x1, y1, x2, y2] box from uploaded image pixels to source pixels.
func scaleBBox(bbox []float64, scale float64) image.Rectangle {
	if len(bbox) != 4 {
		return image.Rectangle{}
	}
	return image.Rect(
		int(math.Round(bbox[0]*scale)),
		int(math.Round(bbox[1]*scale)),
		int(math.Round(bbox[2]*scale)),
		int(math.Round(bbox[3]*scale)),
	)
}
