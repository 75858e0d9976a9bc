package fingerprint

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrInvalidImage is returned when image data cannot be decoded.
var ErrInvalidImage = errors.New("invalid image")

// DecodeImage decodes JPEG, PNG, GIF, BMP, TIFF or WebP data.
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	return img, nil
}

// fitWithin returns dimensions that fit within maxSize keeping the aspect ratio.
func fitWithin(width, height, maxSize int) (int, int) {
	if maxSize <= 0 || (width <= maxSize && height <= maxSize) {
		return width, height
	}
	if width > height {
		return maxSize, max(1, int(float64(height)*float64(maxSize)/float64(width)))
	}
	return max(1, int(float64(width)*float64(maxSize)/float64(height))), maxSize
}

// PrepareImage validates image data and downscales it to fit within maxSize.
// Returns the data to upload and the factor that maps uploaded pixel
// coordinates back to the source image (1 when no resize was needed).
// Resized images are re-encoded as JPEG.
func PrepareImage(data []byte, maxSize int) ([]byte, float64, error) {
	img, err := DecodeImage(data)
	if err != nil {
		return nil, 0, err
	}

	bounds := img.Bounds()
	newWidth, newHeight := fitWithin(bounds.Dx(), bounds.Dy(), maxSize)
	if newWidth == bounds.Dx() && newHeight == bounds.Dy() {
		return data, 1, nil
	}

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 90}); err != nil {
		return nil, 0, fmt.Errorf("failed to encode resized image: %w", err)
	}

	return buf.Bytes(), float64(bounds.Dx()) / float64(newWidth), nil
}
