// Package records stores donated medicines and their review status in BoltDB.
//
// A scan creates a pending record holding the recognized text and extracted
// fields. The donor then saves the confirmed details, and a reviewer moves
// the record to approved, rejected or available.
package records
