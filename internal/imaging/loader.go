package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/heic"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrEmptyImage is returned for images with no pixels.
var ErrEmptyImage = errors.New("image has zero width or height")

// ErrNoData is returned when there are no bytes to decode.
var ErrNoData = errors.New("no image data")

// Decode decodes raw upload bytes into an image.
//
// Parameters:
//   - data: The encoded image bytes.
//   - format: The declared MIME type or extension ("image/png", "jpg", ".heic").
//     It is only a hint; HEIC content is also recognized by its file signature.
//
// Returns the decoded image and the detected format name ("png", "jpeg",
// "gif", "bmp", "tiff", "webp" or "heic").
//
// Standard formats are decoded with EXIF auto-orientation so that photos taken
// in portrait mode reach the recognizer upright.
func Decode(data []byte, format string) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrNoData
	}

	if isHEIC(data) || isHEICFormat(format) {
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, "", fmt.Errorf("failed to decode HEIC image: %w", err)
		}
		if img.Bounds().Empty() {
			return nil, "", ErrEmptyImage
		}
		return img, "heic", nil
	}

	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("unsupported image format %q: %w", format, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, "", ErrEmptyImage
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, name, nil
}

// ExtensionFor returns a file extension for a declared format, used to name
// raw upload artifacts. Unknown formats get ".img"; the recognizer sniffs
// content rather than trusting the name.
func ExtensionFor(format string) string {
	f := normalizeFormat(format)
	switch f {
	case "png":
		return ".png"
	case "jpg", "jpeg", "pjpeg":
		return ".jpg"
	case "gif":
		return ".gif"
	case "bmp", "x-ms-bmp":
		return ".bmp"
	case "tif", "tiff":
		return ".tiff"
	case "webp":
		return ".webp"
	case "heic", "heif":
		return ".heic"
	}
	return ".img"
}

// normalizeFormat strips MIME prefixes and dots: "image/JPEG" -> "jpeg", ".png" -> "png".
func normalizeFormat(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	if i := strings.LastIndex(f, "/"); i >= 0 {
		f = f[i+1:]
	}
	return strings.TrimPrefix(f, ".")
}

func isHEICFormat(format string) bool {
	switch normalizeFormat(format) {
	case "heic", "heif", "heic-sequence", "heif-sequence":
		return true
	}
	return false
}

// isHEIC checks the ISO BMFF "ftyp" box for a HEIF brand.
func isHEIC(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "hevc", "hevx", "heim", "heis", "mif1", "msf1":
		return true
	}
	return false
}
