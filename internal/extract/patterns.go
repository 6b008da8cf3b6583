package extract

import "regexp"

const monthPattern = `(?:JAN|FEB|MAR|APR|MAY|JUN|JUL|AUG|SEPT|SEP|OCT|NOV|DEC)`

// expiryPattern captures the date token that follows an expiry label.
// Unlabelled dates (manufacturing dates, dosage ranges) are ignored.
// Date forms, tried in this order:
//
//	DD/MM/YYYY  MM/YYYY  MM/YY  DD MMM YYYY  MMM YYYY
//
// Separators for the numeric forms are '/', '-' or '.'. The date must not run
// on into further digits.
var expiryPattern = regexp.MustCompile(`(?i)(?:EXP|Expiry|Use Before|Best By|EXF|Exp\.)\s*[:.]?\s*(` +
	`\d{2}[-./]\d{2}[-./]\d{4}` +
	`|\d{2}[-./]\d{4}` +
	`|\d{2}[-./]\d{2}` +
	`|\d{2}\s` + monthPattern + `\s\d{4}` +
	`|` + monthPattern + `\s\d{4}` +
	`)(?:$|\D)`)

// batchPattern captures an upper-case alphanumeric token after a batch label.
// The label is case-insensitive; "Batch No" and "Lot No" are accepted too.
var batchPattern = regexp.MustCompile(`\b(?i:B\.\s?No\.?|Batch(?:\s*No\.?)?|Lot(?:\s*No\.?)?)\s*[:.]?\s*([A-Z0-9]+)`)

// strengthPattern captures a number followed by a dose unit, e.g. "500mg", "2.5 ml", "1%".
var strengthPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?\s*(?:mg|ml|g|%))`)

var digitsOnly = regexp.MustCompile(`^\d+$`)
