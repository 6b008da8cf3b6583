package records

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ironsheep/medscan/internal/extract"
)

// AnonymousDonor is used when a donation carries no donor.
const AnonymousDonor = "Anonymous"

var (
	// ErrNotFound is returned when no record has the requested ID.
	ErrNotFound = errors.New("medicine record not found")

	// ErrInvalidStatus is returned for a status outside the review workflow.
	ErrInvalidStatus = errors.New("invalid medicine status")
)

// Status is the review state of a donated medicine.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusAvailable Status = "available"
)

// ParseStatus validates a status name. Matching ignores case and surrounding space.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	switch status {
	case StatusPending, StatusApproved, StatusRejected, StatusAvailable:
		return status, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Record is one donated medicine, from scan through review.
type Record struct {
	ID        string `json:"id"`
	DonorID   string `json:"donorId"`
	DonorName string `json:"donorName"`
	Image     string `json:"image,omitempty"`

	RawOCRText string  `json:"rawOcrText,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`

	Name         string `json:"name"`
	Strength     string `json:"strength"`
	Expiry       string `json:"expiry"`
	BatchNo      string `json:"batchNo"`
	Quantity     string `json:"quantity,omitempty"`
	Category     string `json:"category,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`

	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewPending builds the record stored right after a scan: the raw text and
// the extracted fields, waiting for the donor to confirm them.
func NewPending(donorID, rawText string, fields extract.Fields, confidence float64) *Record {
	return &Record{
		DonorID:    donorID,
		RawOCRText: rawText,
		Confidence: confidence,
		Name:       fields.Name,
		Strength:   fields.Strength,
		Expiry:     fields.Expiry,
		BatchNo:    fields.BatchNo,
		Status:     StatusPending,
	}
}

// Fields returns the extracted-field view of the record.
func (r *Record) Fields() extract.Fields {
	return extract.Fields{
		Name:     r.Name,
		Expiry:   r.Expiry,
		BatchNo:  r.BatchNo,
		Strength: r.Strength,
	}
}

// applyDefaults fills the donor and status defaults and checks the status.
func (r *Record) applyDefaults() error {
	if strings.TrimSpace(r.DonorID) == "" {
		r.DonorID = AnonymousDonor
	}
	if strings.TrimSpace(r.DonorName) == "" {
		r.DonorName = AnonymousDonor
	}
	if r.Status == "" {
		r.Status = StatusPending
		return nil
	}
	status, err := ParseStatus(string(r.Status))
	if err != nil {
		return err
	}
	r.Status = status
	return nil
}
