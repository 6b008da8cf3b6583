// Package scan orchestrates one medicine package scan.
//
// A scan stages the upload as a transient file, tries to enhance it, runs the
// recognizer on the enhanced image (or the raw upload if enhancement failed),
// splits the text into lines and extracts the medicine fields.
//
// Only recognition failure is fatal. Transient files are released on every
// exit path.
package scan
