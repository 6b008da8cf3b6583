// Package ocr turns an image file into text with Tesseract (gosseract/v2).
//
// The scan pipeline depends only on Engine. Tesseract is the production
// implementation; tests substitute fakes. The engine is opaque: a file path
// and a language code go in, one text blob and a mean word confidence come
// out.
//
// Tesseract and its language data must be installed on the host, e.g.
// tesseract-ocr, libtesseract-dev and tesseract-ocr-eng on Debian. The
// default language is "eng"; any Tesseract code or combination ("eng+fra")
// may be requested per call.
//
// Every failure that leaves the caller without text is a *RecognitionError.
// The package does not retry. Confidence is informational; when word boxes
// cannot be read the text is still returned with zero confidence.
package ocr
