package server

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/medscan/internal/ocr"
	"github.com/ironsheep/medscan/internal/scan"
)

const panadolText = "PANADOL EXTRA\n500mg\nEXP: 12/2026\nB.No: A45X"

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	// a dark band so contrast statistics have something to measure
	for y := height / 3; y < height/2; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{30, 30, 40, 255})
		}
	}

	tmpFile, err := os.CreateTemp(t.TempDir(), "handler-test-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer tmpFile.Close()

	if err := png.Encode(tmpFile, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}

	return tmpFile.Name()
}

// callTool runs a tools/call request and returns the decoded tool output,
// or the JSON-RPC error.
func callTool(t *testing.T, s *Server, name string, args interface{}) (map[string]interface{}, *MCPError) {
	t.Helper()

	params, err := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}

	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: params})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	if len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content: %v", content)
	}

	var out map[string]interface{}
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), &out); err != nil {
		t.Fatalf("tool output is not JSON: %v", err)
	}
	return out, nil
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t, &stubEngine{})
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: json.RawMessage(`[1,2]`)})

	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("expected -32602, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := newTestServer(t, &stubEngine{})
	_, mcpErr := callTool(t, s, "image_detect_circles", map[string]interface{}{})

	if mcpErr == nil || mcpErr.Code != -32000 {
		t.Fatalf("expected -32000, got %+v", mcpErr)
	}
	if !strings.Contains(mcpErr.Data.(string), "unknown tool") {
		t.Errorf("Data: got %v", mcpErr.Data)
	}
}

func TestMedicineScan(t *testing.T) {
	s := newTestServer(t, &stubEngine{text: panadolText})
	imgPath := createTestImageFile(t, 60, 40, color.White)

	out, mcpErr := callTool(t, s, "medicine_scan", map[string]interface{}{"path": imgPath})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %+v", mcpErr)
	}

	fields := out["fields"].(map[string]interface{})
	if fields["name"] != "Panadol" || fields["expiry"] != "12/2026" ||
		fields["batchNo"] != "A45X" || fields["strength"] != "500mg" {
		t.Errorf("fields: got %v", fields)
	}
	if out["enhanced"] != true {
		t.Errorf("enhanced: got %v", out["enhanced"])
	}
	if _, saved := out["medicine_id"]; saved {
		t.Error("medicine_id should be absent without save")
	}
	states := out["states"].([]interface{})
	if states[len(states)-1] != "done" {
		t.Errorf("states: got %v", states)
	}
}

func TestMedicineScan_SavePending(t *testing.T) {
	s := newTestServer(t, &stubEngine{text: panadolText})
	imgPath := createTestImageFile(t, 60, 40, color.White)

	out, mcpErr := callTool(t, s, "medicine_scan", map[string]interface{}{
		"path":     imgPath,
		"donor_id": "donor-3",
		"save":     true,
	})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %+v", mcpErr)
	}

	id, _ := out["medicine_id"].(string)
	if id == "" {
		t.Fatal("medicine_id should be set when saving")
	}

	rec, err := s.store.Get(id)
	if err != nil {
		t.Fatalf("pending record not stored: %v", err)
	}
	if rec.Status != "pending" || rec.DonorID != "donor-3" || rec.Name != "Panadol" {
		t.Errorf("record: got %+v", rec)
	}
	if rec.RawOCRText != panadolText {
		t.Errorf("RawOCRText: got %q", rec.RawOCRText)
	}
}

func TestMedicineScan_RecognitionFailure(t *testing.T) {
	engine := &stubEngine{err: &ocr.RecognitionError{Message: "engine unavailable"}}
	s := newTestServer(t, engine)
	imgPath := createTestImageFile(t, 20, 20, color.White)

	_, mcpErr := callTool(t, s, "medicine_scan", map[string]interface{}{"path": imgPath})
	if mcpErr == nil {
		t.Fatal("expected an error")
	}
	if data := mcpErr.Data.(string); !strings.HasPrefix(data, "OCR failed: ") {
		t.Errorf("Data: got %q", data)
	}
}

func TestMedicineScan_Errors(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"missing path", map[string]interface{}{}, "path is required"},
		{"missing file", map[string]interface{}{"path": "/nonexistent/photo.jpg"}, "failed to read image"},
	}

	s := newTestServer(t, &stubEngine{text: panadolText})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mcpErr := callTool(t, s, "medicine_scan", tt.args)
			if mcpErr == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(mcpErr.Data.(string), tt.want) {
				t.Errorf("Data: got %v, want %q", mcpErr.Data, tt.want)
			}
		})
	}
}

func TestMedicineScan_SaveWithoutStore(t *testing.T) {
	s := New(scan.NewPipeline(nil, &stubEngine{text: panadolText}, nil, t.TempDir()), nil)
	imgPath := createTestImageFile(t, 20, 20, color.White)

	_, mcpErr := callTool(t, s, "medicine_scan", map[string]interface{}{"path": imgPath, "save": true})
	if mcpErr == nil || !strings.Contains(mcpErr.Data.(string), "record store not configured") {
		t.Errorf("expected store error, got %+v", mcpErr)
	}
}

func TestMedicineExtractFields(t *testing.T) {
	s := newTestServer(t, &stubEngine{})

	out, mcpErr := callTool(t, s, "medicine_extract_fields", map[string]interface{}{
		"text": "Best By 03/2027\r\nCofex Syrup\n\n120 ml",
	})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %+v", mcpErr)
	}

	fields := out["fields"].(map[string]interface{})
	if fields["name"] != "Cofex Syrup" || fields["expiry"] != "03/2027" || fields["strength"] != "120 ml" {
		t.Errorf("fields: got %v", fields)
	}
	if lines := out["lines"].([]interface{}); len(lines) != 3 {
		t.Errorf("lines: got %v", lines)
	}
	trace := out["trace"].(map[string]interface{})
	if trace["name"] != "nameFromFilteredLines" {
		t.Errorf("trace: got %v", trace)
	}
}

func TestImageEnhance(t *testing.T) {
	s := newTestServer(t, &stubEngine{})
	imgPath := createTestImageFile(t, 60, 40, color.RGBA{200, 180, 160, 255})

	out, mcpErr := callTool(t, s, "image_enhance", map[string]interface{}{"path": imgPath})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %+v", mcpErr)
	}

	if out["format"] != "png" {
		t.Errorf("format: got %v", out["format"])
	}
	before := out["before"].(map[string]interface{})
	after := out["after"].(map[string]interface{})
	if after["spread"].(float64) < before["spread"].(float64) {
		t.Errorf("contrast should not shrink: before %v, after %v", before["spread"], after["spread"])
	}
	img := out["image"].(map[string]interface{})
	if img["image_base64"] == "" || img["width"] != float64(60) {
		t.Errorf("image: got width %v", img["width"])
	}
}

func TestImageEnhance_OutputPath(t *testing.T) {
	s := newTestServer(t, &stubEngine{})
	imgPath := createTestImageFile(t, 30, 30, color.White)
	outPath := filepath.Join(t.TempDir(), "enhanced.png")

	out, mcpErr := callTool(t, s, "image_enhance", map[string]interface{}{"path": imgPath, "output_path": outPath})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %+v", mcpErr)
	}
	if out["image"].(map[string]interface{})["path"] != outPath {
		t.Errorf("image: got %v", out["image"])
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("output not written: %v", err)
	}
}

func TestImageEnhance_NotAnImage(t *testing.T) {
	s := newTestServer(t, &stubEngine{})
	path := filepath.Join(t.TempDir(), "notes.png")
	if err := os.WriteFile(path, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, mcpErr := callTool(t, s, "image_enhance", map[string]interface{}{"path": path})
	if mcpErr == nil || !strings.Contains(mcpErr.Data.(string), "image enhancement failed (decode)") {
		t.Errorf("expected decode failure, got %+v", mcpErr)
	}
}

func TestImageCrop(t *testing.T) {
	s := newTestServer(t, &stubEngine{})
	imgPath := createTestImageFile(t, 100, 80, color.White)

	out, mcpErr := callTool(t, s, "image_crop", map[string]interface{}{
		"path": imgPath, "x1": 10, "y1": 10, "x2": 60, "y2": 30, "scale": 2.0,
	})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %+v", mcpErr)
	}
	if out["width"] != float64(100) || out["height"] != float64(40) {
		t.Errorf("dimensions: got %vx%v, want 100x40", out["width"], out["height"])
	}

	_, mcpErr = callTool(t, s, "image_crop", map[string]interface{}{
		"path": imgPath, "x1": 0, "y1": 0, "x2": 500, "y2": 30,
	})
	if mcpErr == nil {
		t.Error("out-of-bounds crop should fail")
	}
}

func TestImageContrast(t *testing.T) {
	s := newTestServer(t, &stubEngine{})
	imgPath := createTestImageFile(t, 50, 30, color.White)

	out, mcpErr := callTool(t, s, "image_contrast", map[string]interface{}{"path": imgPath})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %+v", mcpErr)
	}
	if out["width"] != float64(50) || out["height"] != float64(30) {
		t.Errorf("dimensions: got %vx%v", out["width"], out["height"])
	}
	contrast := out["contrast"].(map[string]interface{})
	if contrast["samples"].(float64) <= 0 {
		t.Errorf("samples: got %v", contrast["samples"])
	}
}

func TestReviewWorkflow(t *testing.T) {
	s := newTestServer(t, &stubEngine{})

	saved, mcpErr := callTool(t, s, "medicine_save", map[string]interface{}{
		"record": map[string]interface{}{"name": "Brufen", "strength": "400mg", "quantity": "1 box"},
	})
	if mcpErr != nil {
		t.Fatalf("medicine_save failed: %+v", mcpErr)
	}
	id := saved["id"].(string)
	if saved["status"] != "pending" || saved["donorId"] != "Anonymous" {
		t.Errorf("saved: got %v", saved)
	}

	verified, mcpErr := callTool(t, s, "medicine_verify", map[string]interface{}{"id": id, "status": "approved"})
	if mcpErr != nil {
		t.Fatalf("medicine_verify failed: %+v", mcpErr)
	}
	if verified["status"] != "approved" {
		t.Errorf("status: got %v", verified["status"])
	}

	_, mcpErr = callTool(t, s, "medicine_verify", map[string]interface{}{"id": id, "status": "misplaced"})
	if mcpErr == nil || !strings.Contains(mcpErr.Data.(string), "invalid medicine status") {
		t.Errorf("expected status error, got %+v", mcpErr)
	}

	list, mcpErr := callTool(t, s, "medicine_list", nil)
	if mcpErr != nil {
		t.Fatalf("medicine_list failed: %+v", mcpErr)
	}
	if list["count"] != float64(1) {
		t.Errorf("count: got %v", list["count"])
	}
}

func TestReviewTools_WithoutStore(t *testing.T) {
	s := New(scan.NewPipeline(nil, &stubEngine{}, nil, t.TempDir()), nil)

	for _, name := range []string{"medicine_save", "medicine_verify", "medicine_list"} {
		t.Run(name, func(t *testing.T) {
			_, mcpErr := callTool(t, s, name, map[string]interface{}{})
			if mcpErr == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestOCRInfo(t *testing.T) {
	s := newTestServer(t, &stubEngine{})

	out, mcpErr := callTool(t, s, "ocr_info", nil)
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %+v", mcpErr)
	}
	if out["backend"] != "gosseract" {
		t.Errorf("backend: got %v", out["backend"])
	}
}

func TestMustMarshalJSON(t *testing.T) {
	if got := mustMarshalJSON(map[string]int{"a": 1}); !strings.Contains(got, `"a": 1`) {
		t.Errorf("got %s", got)
	}
	// channels cannot be marshaled
	if got := mustMarshalJSON(make(chan int)); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
