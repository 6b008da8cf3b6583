package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// Preview is an image returned inline to a client.
type Preview struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
	Path        string `json:"path,omitempty"`
}

// CropLabel cuts the rectangle (x1,y1)-(x2,y2) out of a package photo, for
// example to isolate the printed label before scanning. A scale other than
// 1 resizes the crop with Lanczos resampling; small print often recognizes
// better at 2x.
func CropLabel(img image.Image, x1, y1, x2, y2 int, scale float64) (image.Image, error) {
	bounds := img.Bounds()

	if x1 < bounds.Min.X || y1 < bounds.Min.Y || x2 > bounds.Max.X || y2 > bounds.Max.Y {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			x1, y1, x2, y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}
	if scale < 0 {
		return nil, fmt.Errorf("invalid scale %v", scale)
	}

	cropped := imaging.Crop(img, image.Rect(x1, y1, x2, y2))

	if scale != 1.0 && scale > 0 {
		w := int(float64(cropped.Bounds().Dx()) * scale)
		h := int(float64(cropped.Bounds().Dy()) * scale)
		if w < 1 || h < 1 {
			return nil, fmt.Errorf("scale %v leaves an empty image", scale)
		}
		cropped = imaging.Resize(cropped, w, h, imaging.Lanczos)
	}
	return cropped, nil
}

// EncodePreview returns img as a base64 PNG preview.
func EncodePreview(img image.Image) (*Preview, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	return &Preview{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// SaveImage writes img to path, choosing the encoder from the extension
// (.png, .jpg, .gif, .bmp, .tif). The returned Preview carries the path
// instead of inline data.
func SaveImage(img image.Image, path string) (*Preview, error) {
	if _, err := imaging.FormatFromFilename(path); err != nil {
		return nil, fmt.Errorf("unsupported output format %q", strings.ToLower(filepath.Ext(path)))
	}
	if err := imaging.Save(img, path); err != nil {
		return nil, fmt.Errorf("failed to save image: %w", err)
	}
	return &Preview{
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		Path:   path,
	}, nil
}
