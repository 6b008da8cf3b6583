package scan

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/medscan/internal/extract"
	"github.com/ironsheep/medscan/internal/imaging"
	"github.com/ironsheep/medscan/internal/logger"
	"github.com/ironsheep/medscan/internal/ocr"
)

// Artifact name prefixes inside the temp directory.
const (
	rawPrefix      = "scan-raw"
	enhancedPrefix = "scan-enhanced"
)

// Input is one uploaded package photo.
type Input struct {
	// Data is the encoded image as uploaded.
	Data []byte

	// Format is the declared MIME type or extension. May be empty.
	Format string

	// Language is the recognizer language code. Empty means the pipeline default.
	Language string
}

// Result is the outcome of a successful scan.
type Result struct {
	RecognizedText extract.RecognizedText `json:"recognizedText"`
	Fields         extract.Fields         `json:"fields"`

	// RawText is the recognizer output before line splitting.
	RawText string `json:"rawText"`

	// Confidence is the recognizer's mean word confidence. Informational only.
	Confidence float64 `json:"confidence"`

	// Enhanced reports whether the enhanced image was recognized (false means
	// the raw upload was used).
	Enhanced bool `json:"enhanced"`

	// States lists the states the scan passed through, ending in StateDone.
	States []State `json:"states"`

	// Trace names the strategy that produced each field.
	Trace extract.Trace `json:"trace,omitempty"`
}

// Pipeline runs preprocess, recognize and extract for one image at a time.
//
// A Pipeline holds only configuration and may be shared by concurrent
// callers. Each Scan works on its own uniquely named artifacts.
type Pipeline struct {
	// Enhancer preprocesses the image. Nil disables preprocessing.
	Enhancer *imaging.Enhancer

	Engine    ocr.Engine
	Extractor *extract.Extractor

	// TempDir holds transient artifacts. Empty means os.TempDir().
	TempDir string

	// Language is used when Input.Language is empty. Empty means ocr.DefaultLanguage.
	Language string
}

// NewPipeline creates a pipeline. A nil extractor gets the default vocabulary.
func NewPipeline(enhancer *imaging.Enhancer, engine ocr.Engine, extractor *extract.Extractor, tempDir string) *Pipeline {
	if extractor == nil {
		extractor = extract.NewDefault()
	}
	return &Pipeline{
		Enhancer:  enhancer,
		Engine:    engine,
		Extractor: extractor,
		TempDir:   tempDir,
	}
}

// Scan recognizes the text on a package photo and extracts its fields.
//
// Enhancement failures are logged and the raw upload is recognized instead.
// The only error returned is *ocr.RecognitionError. All artifacts created
// during the scan are removed before Scan returns, including when the
// engine panics (the panic is re-raised after cleanup).
func (p *Pipeline) Scan(in Input) (*Result, error) {
	run := &scanRun{states: []State{StatePreprocessing}}
	defer run.release()

	log := logger.WithFields(logrus.Fields{
		"format": in.Format,
		"bytes":  len(in.Data),
	})

	if len(in.Data) == 0 {
		return nil, run.fail(&ocr.RecognitionError{Message: "no image data", Err: imaging.ErrNoData})
	}

	raw, err := imaging.WriteArtifact(p.TempDir, rawPrefix, imaging.ExtensionFor(in.Format), in.Data)
	if err != nil {
		return nil, run.fail(&ocr.RecognitionError{Message: "failed to stage image", Err: err})
	}
	run.track(raw)

	target := raw.Path
	enhanced := false
	if p.Enhancer != nil {
		art, err := p.preprocess(in)
		if err != nil {
			log.WithError(err).Warn("enhancement failed, recognizing original image")
		} else {
			run.track(art)
			target = art.Path
			enhanced = true
		}
	}

	run.enter(StateRecognizing)
	rec, err := p.Engine.Recognize(target, p.language(in.Language))
	if err != nil {
		var recErr *ocr.RecognitionError
		if !errors.As(err, &recErr) {
			err = &ocr.RecognitionError{Message: "recognition failed", Err: err}
		}
		log.WithError(err).Warn("recognition failed")
		run.enter(StateFailed)
		return nil, err
	}
	if rec == nil {
		rec = &ocr.Recognition{}
	}

	run.enter(StateExtracting)
	lines := extract.SplitLines(rec.Text)
	fields, trace := p.Extractor.Explain(lines)

	run.enter(StateDone)
	log.WithFields(logrus.Fields{
		"enhanced":   enhanced,
		"lines":      len(lines),
		"confidence": rec.Confidence,
	}).Debug("scan complete")

	return &Result{
		RecognizedText: lines,
		Fields:         fields,
		RawText:        rec.Text,
		Confidence:     rec.Confidence,
		Enhanced:       enhanced,
		States:         run.states,
		Trace:          trace,
	}, nil
}

// preprocess decodes and enhances the upload and stages the result as a PNG
// artifact. Every failure is an *imaging.EnhancementError.
func (p *Pipeline) preprocess(in Input) (*imaging.Artifact, error) {
	img, format, err := imaging.Decode(in.Data, in.Format)
	if err != nil {
		return nil, &imaging.EnhancementError{Op: "decode", Err: err}
	}

	out, err := p.Enhancer.Enhance(img)
	if err != nil {
		return nil, err
	}

	if logger.Logger.IsLevelEnabled(logrus.DebugLevel) {
		before := imaging.MeasureContrast(img)
		after := imaging.MeasureContrast(out)
		logger.WithFields(logrus.Fields{
			"format":        format,
			"spread_before": fmt.Sprintf("%.1f", before.Spread),
			"spread_after":  fmt.Sprintf("%.1f", after.Spread),
		}).Debug("image enhanced")
	}

	art, err := imaging.EncodeArtifact(p.TempDir, enhancedPrefix, out)
	if err != nil {
		return nil, &imaging.EnhancementError{Op: "encode", Err: err}
	}
	return art, nil
}

func (p *Pipeline) language(requested string) string {
	switch {
	case requested != "":
		return requested
	case p.Language != "":
		return p.Language
	default:
		return ocr.DefaultLanguage
	}
}

// scanRun is the per-call bookkeeping: state history and owned artifacts.
type scanRun struct {
	states    []State
	artifacts []*imaging.Artifact
}

func (r *scanRun) enter(s State) {
	r.states = append(r.states, s)
}

func (r *scanRun) track(a *imaging.Artifact) {
	r.artifacts = append(r.artifacts, a)
}

// fail records a failure before any recognition happened. The recognizer
// has nothing to work on, so the run passes through Recognizing into Failed.
func (r *scanRun) fail(err *ocr.RecognitionError) error {
	r.enter(StateRecognizing)
	r.enter(StateFailed)
	logger.WithError(err).Warn("scan failed")
	return err
}

func (r *scanRun) release() {
	for _, a := range r.artifacts {
		if err := a.Release(); err != nil {
			logger.WithError(err).Warn("failed to release artifact")
		}
	}
}
