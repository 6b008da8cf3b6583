// Package imaging prepares package photographs for text recognition.
//
// The package covers five concerns of the scan preprocessing step:
//
//   - Decoding: uploaded bytes plus a declared format are decoded into an
//     image.Image. PNG, JPEG, GIF, BMP, TIFF and WebP go through the standard
//     image registry (with EXIF auto-orientation); HEIC/HEIF phone photos are
//     decoded with a pure Go decoder.
//   - Enhancement: greyscale conversion followed by a fixed contrast boost,
//     optionally after fitting oversized photos down to a maximum dimension.
//   - Measurement: lightness statistics (CIE L*) used to report how much the
//     enhancement separated text from background.
//   - Label crops: a region of the photo cut out and optionally rescaled,
//     for re-scanning a single printed block.
//   - Transient artifacts: uniquely named temporary files that live for a
//     single scan and are released exactly once.
//
// # Error Handling
//
// Every enhancement failure is reported as *EnhancementError. Callers are
// expected to treat it as recoverable and fall back to the original image.
//
// # Thread Safety
//
// Enhancer holds only immutable settings and can be shared by concurrent
// scans. Artifacts are owned by the scan that created them; Release is safe
// to call more than once.
package imaging
