package imaging

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// DefaultContrast is the contrast change applied after greyscale conversion.
// 1.0 doubles the distance of every tone from mid-grey, which pushes printed
// text and package background apart.
const DefaultContrast = 1.0

// EnhancementError reports a failed preprocessing step.
//
// Op names the stage that failed: "decode", "process" or "encode".
type EnhancementError struct {
	Op  string
	Err error
}

func (e *EnhancementError) Error() string {
	return fmt.Sprintf("image enhancement failed (%s): %v", e.Op, e.Err)
}

func (e *EnhancementError) Unwrap() error {
	return e.Err
}

// Enhancer converts images to high-contrast greyscale before recognition.
type Enhancer struct {
	// Contrast is the bild contrast change, in (-1, +inf). 0 leaves contrast unchanged.
	Contrast float64

	// MaxDimension is the largest allowed width or height. Bigger images are
	// fitted down (aspect ratio preserved) before processing. 0 disables it.
	MaxDimension int
}

// NewEnhancer creates an Enhancer with the given settings.
func NewEnhancer(contrast float64, maxDimension int) *Enhancer {
	return &Enhancer{Contrast: contrast, MaxDimension: maxDimension}
}

// Enhance returns a greyscale, contrast-boosted copy of img.
//
// The input is never modified. Processing order:
//
//  1. Downscale with Lanczos resampling if the longest side exceeds MaxDimension
//  2. Greyscale conversion (luminance weighting)
//  3. Contrast adjustment by e.Contrast
//
// A panic raised by the image libraries on malformed input is converted into
// an *EnhancementError so the caller can fall back to the original image.
func (e *Enhancer) Enhance(img image.Image) (out image.Image, err error) {
	if img == nil {
		return nil, &EnhancementError{Op: "process", Err: fmt.Errorf("nil image")}
	}
	if img.Bounds().Empty() {
		return nil, &EnhancementError{Op: "process", Err: ErrEmptyImage}
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &EnhancementError{Op: "process", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	src := img
	if e.MaxDimension > 0 {
		b := img.Bounds()
		if b.Dx() > e.MaxDimension || b.Dy() > e.MaxDimension {
			src = imaging.Fit(img, e.MaxDimension, e.MaxDimension, imaging.Lanczos)
		}
	}

	gray := effect.Grayscale(src)
	return adjust.Contrast(gray, e.Contrast), nil
}

// EnhanceBytes decodes data and enhances the result. Decode failures are
// reported as *EnhancementError with Op "decode".
func (e *Enhancer) EnhanceBytes(data []byte, format string) (image.Image, error) {
	img, _, err := Decode(data, format)
	if err != nil {
		return nil, &EnhancementError{Op: "decode", Err: err}
	}
	return e.Enhance(img)
}
