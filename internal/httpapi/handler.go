package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/medscan/internal/extract"
	"github.com/ironsheep/medscan/internal/logger"
	"github.com/ironsheep/medscan/internal/records"
	"github.com/ironsheep/medscan/internal/scan"
)

// DefaultMaxUploadBytes bounds a request body, multipart overhead included.
const DefaultMaxUploadBytes = 20 << 20

// Version is reported by /health. Set by main.
var Version = "0.1.0"

// Options tunes the HTTP handler.
type Options struct {
	// MaxUploadBytes limits request bodies. 0 means DefaultMaxUploadBytes.
	MaxUploadBytes int64
}

// ScanResponse is the body of a successful scan.
type ScanResponse struct {
	Success    bool           `json:"success"`
	OCRText    string         `json:"ocrText"`
	Fields     extract.Fields `json:"fields"`
	MedicineID string         `json:"medicineId,omitempty"`
	Enhanced   bool           `json:"enhanced"`
	Confidence float64        `json:"confidence"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type verifyRequest struct {
	Status string `json:"status" binding:"required"`
}

type api struct {
	pipeline *scan.Pipeline
	store    *records.Store
}

// NewHandler builds the HTTP API around a scan pipeline. store may be nil,
// in which case scans are not persisted and the review routes return 503.
func NewHandler(pipeline *scan.Pipeline, store *records.Store, opts Options) http.Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	a := &api{pipeline: pipeline, store: store}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		requestLogger(),
		requestSizeLimiter(opts.MaxUploadBytes),
	)

	r.GET("/health", healthCheck)

	medicine := r.Group("/api/medicine")
	medicine.POST("/scan", a.scanMedicine)
	medicine.POST("/save", a.requireStore, a.saveMedicine)
	medicine.PUT("/verify/:id", a.requireStore, a.verifyMedicine)
	medicine.GET("/all", a.requireStore, a.listMedicines)

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// scanMedicine handles a multipart upload with the photo in field "image".
func (a *api) scanMedicine(c *gin.Context) {
	header, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Upload exceeds %d bytes", tooLarge.Limit), err)
			return
		}
		respondError(c, http.StatusBadRequest, "No image uploaded", err)
		return
	}

	f, err := header.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "No image uploaded", err)
		return
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		respondError(c, http.StatusBadRequest, "failed to read upload", err)
		return
	}

	format := header.Header.Get("Content-Type")
	if format == "" || format == "application/octet-stream" {
		format = filepath.Ext(header.Filename)
	}

	result, err := a.pipeline.Scan(scan.Input{
		Data:     data,
		Format:   format,
		Language: c.PostForm("language"),
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "OCR failed: "+err.Error(), err)
		return
	}

	resp := ScanResponse{
		Success:    true,
		OCRText:    result.RawText,
		Fields:     result.Fields,
		Enhanced:   result.Enhanced,
		Confidence: result.Confidence,
	}

	if a.store != nil {
		pending := records.NewPending(c.PostForm("donorId"), result.RawText, result.Fields, result.Confidence)
		pending.Image = header.Filename
		rec, err := a.store.Save(pending)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to save scan.", err)
			return
		}
		resp.MedicineID = rec.ID
	}

	logger.WithFields(logrus.Fields{
		"medicine_id": resp.MedicineID,
		"name":        result.Fields.Name,
		"enhanced":    result.Enhanced,
	}).Info("medicine scanned")

	c.JSON(http.StatusOK, resp)
}

func (a *api) saveMedicine(c *gin.Context) {
	var rec records.Record
	if err := c.ShouldBindJSON(&rec); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request format", err)
		return
	}

	saved, err := a.store.Save(&rec)
	if err != nil {
		respondError(c, statusFor(err), messageFor(err, "Failed to save donation."), err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Donation saved successfully!",
		"medicine": saved,
	})
}

func (a *api) verifyMedicine(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "status is required", err)
		return
	}

	rec, err := a.store.Verify(c.Param("id"), req.Status)
	if err != nil {
		respondError(c, statusFor(err), messageFor(err, "Verification failed"), err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"medicine": rec,
	})
}

func (a *api) listMedicines(c *gin.Context) {
	recs, err := a.store.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch donations.", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"donations": recs,
	})
}

func (a *api) requireStore(c *gin.Context) {
	if a.store == nil {
		respondError(c, http.StatusServiceUnavailable, "record store not configured", nil)
		return
	}
	c.Next()
}

// statusFor maps record store errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, records.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, records.ErrInvalidStatus):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// messageFor shows client errors verbatim and hides internal ones behind fallback.
func messageFor(err error, fallback string) string {
	if statusFor(err) == http.StatusInternalServerError {
		return fallback
	}
	return err.Error()
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":             c.Request.Method,
			"path":               c.Request.URL.Path,
			"status":             c.Writer.Status(),
			"ip":                 c.ClientIP(),
			"processing_time_ms": time.Since(start).Milliseconds(),
		}).Debug("request handled")
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	entry := logger.WithFields(logrus.Fields{
		"status_code": code,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
	})
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn(message)

	c.AbortWithStatusJSON(code, ErrorResponse{Success: false, Error: message})
}
