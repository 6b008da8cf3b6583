package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/ironsheep/medscan/internal/extract"
	"github.com/ironsheep/medscan/internal/imaging"
	"github.com/ironsheep/medscan/internal/logger"
	"github.com/ironsheep/medscan/internal/ocr"
	"github.com/ironsheep/medscan/internal/records"
	"github.com/ironsheep/medscan/internal/scan"
)

// errNoStore is returned by the review tools when no record store is configured.
var errNoStore = errors.New("record store not configured (start with --db)")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "medicine_scan", "image_enhance").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return failure(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		logger.WithField("tool", params.Name).WithError(err).Warn("tool failed")
		return failure(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}

	return reply(req.ID, map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": mustMarshalJSON(result)},
		},
	})
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Calls the scan pipeline, extractor, enhancer or record store
//  4. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Scanning
	case "medicine_scan":
		return s.handleMedicineScan(args)
	case "medicine_extract_fields":
		return s.handleMedicineExtractFields(args)

	// Preprocessing
	case "image_enhance":
		return s.handleImageEnhance(args)
	case "image_crop":
		return s.handleImageCrop(args)
	case "image_contrast":
		return s.handleImageContrast(args)

	// Review workflow
	case "medicine_save":
		return s.handleMedicineSave(args)
	case "medicine_verify":
		return s.handleMedicineVerify(args)
	case "medicine_list":
		return s.handleMedicineList(args)

	// Engine
	case "ocr_info":
		return ocr.GetInfo(), nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// readImageFile reads an image and returns its bytes with the extension as format hint.
func readImageFile(path string) ([]byte, string, error) {
	if path == "" {
		return nil, "", fmt.Errorf("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	return data, filepath.Ext(path), nil
}

// === Scanning Handlers ===

type medicineScanArgs struct {
	Path     string `json:"path"`
	Language string `json:"language"`
	DonorID  string `json:"donor_id"`
	Save     bool   `json:"save"`
}

type medicineScanResult struct {
	*scan.Result
	MedicineID string `json:"medicine_id,omitempty"`
}

func (s *Server) handleMedicineScan(args json.RawMessage) (interface{}, error) {
	var a medicineScanArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Save && s.store == nil {
		return nil, errNoStore
	}

	data, format, err := readImageFile(a.Path)
	if err != nil {
		return nil, err
	}

	result, err := s.pipeline.Scan(scan.Input{Data: data, Format: format, Language: a.Language})
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	out := &medicineScanResult{Result: result}
	if a.Save {
		rec, err := s.store.Save(records.NewPending(a.DonorID, result.RawText, result.Fields, result.Confidence))
		if err != nil {
			return nil, fmt.Errorf("failed to save pending record: %w", err)
		}
		out.MedicineID = rec.ID
	}
	return out, nil
}

type medicineExtractArgs struct {
	Text string `json:"text"`
}

type medicineExtractResult struct {
	Lines  extract.RecognizedText `json:"lines"`
	Fields extract.Fields         `json:"fields"`
	Trace  extract.Trace          `json:"trace"`
}

func (s *Server) handleMedicineExtractFields(args json.RawMessage) (interface{}, error) {
	var a medicineExtractArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	lines := extract.SplitLines(a.Text)
	fields, trace := s.extractor.Explain(lines)
	return &medicineExtractResult{Lines: lines, Fields: fields, Trace: trace}, nil
}

// === Preprocessing Handlers ===

type imageEnhanceArgs struct {
	Path       string `json:"path"`
	OutputPath string `json:"output_path"`
}

type imageEnhanceResult struct {
	Format string                `json:"format"`
	Before imaging.ContrastStats `json:"before"`
	After  imaging.ContrastStats `json:"after"`
	Image  *imaging.Preview      `json:"image"`
}

func (s *Server) handleImageEnhance(args json.RawMessage) (interface{}, error) {
	var a imageEnhanceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	data, hint, err := readImageFile(a.Path)
	if err != nil {
		return nil, err
	}
	img, format, err := imaging.Decode(data, hint)
	if err != nil {
		return nil, &imaging.EnhancementError{Op: "decode", Err: err}
	}
	out, err := s.enhancer.Enhance(img)
	if err != nil {
		return nil, err
	}

	preview, err := writeOrPreview(out, a.OutputPath)
	if err != nil {
		return nil, err
	}
	return &imageEnhanceResult{
		Format: format,
		Before: imaging.MeasureContrast(img),
		After:  imaging.MeasureContrast(out),
		Image:  preview,
	}, nil
}

type imageCropArgs struct {
	Path       string  `json:"path"`
	X1         int     `json:"x1"`
	Y1         int     `json:"y1"`
	X2         int     `json:"x2"`
	Y2         int     `json:"y2"`
	Scale      float64 `json:"scale"`
	OutputPath string  `json:"output_path"`
}

func (s *Server) handleImageCrop(args json.RawMessage) (interface{}, error) {
	var a imageCropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}

	data, hint, err := readImageFile(a.Path)
	if err != nil {
		return nil, err
	}
	img, _, err := imaging.Decode(data, hint)
	if err != nil {
		return nil, err
	}
	cropped, err := imaging.CropLabel(img, a.X1, a.Y1, a.X2, a.Y2, a.Scale)
	if err != nil {
		return nil, err
	}
	return writeOrPreview(cropped, a.OutputPath)
}

type imageContrastArgs struct {
	Path string `json:"path"`
}

type imageContrastResult struct {
	Width    int                   `json:"width"`
	Height   int                   `json:"height"`
	Format   string                `json:"format"`
	Contrast imaging.ContrastStats `json:"contrast"`
}

func (s *Server) handleImageContrast(args json.RawMessage) (interface{}, error) {
	var a imageContrastArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	data, hint, err := readImageFile(a.Path)
	if err != nil {
		return nil, err
	}
	img, format, err := imaging.Decode(data, hint)
	if err != nil {
		return nil, err
	}
	return &imageContrastResult{
		Width:    img.Bounds().Dx(),
		Height:   img.Bounds().Dy(),
		Format:   format,
		Contrast: imaging.MeasureContrast(img),
	}, nil
}

// === Review Workflow Handlers ===

type medicineSaveArgs struct {
	Record records.Record `json:"record"`
}

func (s *Server) handleMedicineSave(args json.RawMessage) (interface{}, error) {
	if s.store == nil {
		return nil, errNoStore
	}
	var a medicineSaveArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return s.store.Save(&a.Record)
}

type medicineVerifyArgs struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (s *Server) handleMedicineVerify(args json.RawMessage) (interface{}, error) {
	if s.store == nil {
		return nil, errNoStore
	}
	var a medicineVerifyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return s.store.Verify(a.ID, a.Status)
}

type medicineListResult struct {
	Count     int               `json:"count"`
	Medicines []*records.Record `json:"medicines"`
}

func (s *Server) handleMedicineList(_ json.RawMessage) (interface{}, error) {
	if s.store == nil {
		return nil, errNoStore
	}
	recs, err := s.store.List()
	if err != nil {
		return nil, err
	}
	return &medicineListResult{Count: len(recs), Medicines: recs}, nil
}

// writeOrPreview saves img when outputPath is set, otherwise returns it inline.
func writeOrPreview(img image.Image, outputPath string) (*imaging.Preview, error) {
	if outputPath != "" {
		return imaging.SaveImage(img, outputPath)
	}
	return imaging.EncodePreview(img)
}
