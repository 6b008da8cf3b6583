package ocr

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// DefaultLanguage is used when a caller does not name a language.
const DefaultLanguage = "eng"

// Engine turns an image file into recognized text.
type Engine interface {
	Recognize(imagePath string, language string) (*Recognition, error)
}

// Recognition is the output of one recognition pass.
type Recognition struct {
	// Text is all recognized text with the engine's original line breaks.
	Text string `json:"text"`

	// Confidence is the mean word confidence (0.0 to 1.0), or 0 when unknown.
	Confidence float64 `json:"confidence"`

	// Words is the number of non-empty words the confidence was averaged over.
	Words int `json:"words"`
}

// RecognitionError means the engine could not produce text for an image.
type RecognitionError struct {
	// Message is a human-readable reason, suitable for showing to the uploader.
	Message string
	Err     error
}

func (e *RecognitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *RecognitionError) Unwrap() error {
	return e.Err
}

// Tesseract is an Engine backed by the local Tesseract installation.
//
// A fresh gosseract client is created for each call, so a single Tesseract
// value can serve concurrent scans.
type Tesseract struct {
	// TessdataPrefix overrides the tessdata directory when non-empty.
	TessdataPrefix string
}

// NewTesseract creates a Tesseract engine using the system tessdata location.
func NewTesseract() *Tesseract {
	return &Tesseract{}
}

// Recognize performs OCR on an entire image file.
//
// Parameters:
//   - imagePath: Path to the image file. Supports whatever the local
//     Leptonica build reads (PNG, JPEG, TIFF, BMP, GIF; WebP when enabled).
//   - language: Tesseract language code. Empty means DefaultLanguage.
//
// Returns:
//   - *Recognition: the text and mean word confidence.
//   - error: *RecognitionError if the image cannot be processed at all.
//
// # Word-Level Confidence
//
// Word boxes are read at RIL_WORD level after the text. If that fails (some
// Tesseract builds do not expose it) the text is still returned.
func (t *Tesseract) Recognize(imagePath string, language string) (*Recognition, error) {
	if language == "" {
		language = DefaultLanguage
	}

	client := gosseract.NewClient()
	defer client.Close()

	if t.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.TessdataPrefix); err != nil {
			return nil, &RecognitionError{Message: "failed to set tessdata path", Err: err}
		}
	}

	if err := client.SetLanguage(strings.Split(language, "+")...); err != nil {
		return nil, &RecognitionError{Message: "failed to set language", Err: err}
	}

	if err := client.SetImage(imagePath); err != nil {
		return nil, &RecognitionError{Message: "failed to set image", Err: err}
	}

	text, err := client.Text()
	if err != nil {
		return nil, &RecognitionError{Message: "OCR failed", Err: err}
	}

	result := &Recognition{Text: text}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return result, nil
	}

	total := 0.0
	for _, box := range boxes {
		if strings.TrimSpace(box.Word) == "" {
			continue
		}
		total += float64(box.Confidence)
		result.Words++
	}
	if result.Words > 0 {
		result.Confidence = total / float64(result.Words) / 100.0
	}

	return result, nil
}

// Info contains information about the OCR subsystem.
type Info struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
	Backend   string `json:"backend"`
}

// GetInfo reports whether Tesseract can be initialized and its version.
func GetInfo() (info Info) {
	info.Backend = "gosseract"

	defer func() {
		if r := recover(); r != nil {
			info.Available = false
			info.Error = fmt.Sprintf("tesseract unavailable: %v", r)
		}
	}()

	client := gosseract.NewClient()
	defer client.Close()

	info.Version = client.Version()
	info.Available = info.Version != ""
	if !info.Available {
		info.Error = "tesseract did not report a version"
	}
	return info
}
