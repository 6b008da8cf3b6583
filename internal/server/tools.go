package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func outputPathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Optional file to write the result to (.png, .jpg, .gif, .bmp, .tif). When omitted the image is returned as base64 PNG.",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Scanning
		{
			Name:        "medicine_scan",
			Description: "Scan a photo of a medicine package: enhance it, recognize the printed text and extract name, expiry date, batch number and strength. Optionally store the result as a pending donation.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code, e.g. eng or eng+urd. Default eng",
					},
					"donor_id": map[string]interface{}{
						"type":        "string",
						"description": "Donor to record on the pending donation. Default Anonymous",
					},
					"save": map[string]interface{}{
						"type":        "boolean",
						"description": "Store the scan as a pending donation and return its medicine_id",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "medicine_extract_fields",
			Description: "Extract medicine fields from already recognized text, one package line per text line. Reports which heuristic produced each field.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Recognized package text with line breaks",
					},
				},
				"required": []string{"text"},
			},
		},

		// Preprocessing
		{
			Name:        "image_enhance",
			Description: "Apply the scan preprocessing (greyscale and contrast boost) to an image and report lightness statistics before and after.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":        pathProperty(),
					"output_path": outputPathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_crop",
			Description: "Crop the label region out of a package photo, optionally scaling it up so small print recognizes better.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x1": map[string]interface{}{
						"type":        "integer",
						"description": "Left edge X coordinate (0-based)",
					},
					"y1": map[string]interface{}{
						"type":        "integer",
						"description": "Top edge Y coordinate (0-based)",
					},
					"x2": map[string]interface{}{
						"type":        "integer",
						"description": "Right edge X coordinate (exclusive)",
					},
					"y2": map[string]interface{}{
						"type":        "integer",
						"description": "Bottom edge Y coordinate (exclusive)",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
					"output_path": outputPathProperty(),
				},
				"required": []string{"path", "x1", "y1", "x2", "y2"},
			},
		},
		{
			Name:        "image_contrast",
			Description: "Measure the perceptual lightness distribution (CIE L*) of an image to judge whether print will separate from the background.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Review workflow
		{
			Name:        "medicine_save",
			Description: "Save confirmed donation details. Without an id a new donation is created; with an id the existing one is replaced.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"record": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"id":           map[string]interface{}{"type": "string"},
							"donorId":      map[string]interface{}{"type": "string"},
							"donorName":    map[string]interface{}{"type": "string"},
							"name":         map[string]interface{}{"type": "string"},
							"strength":     map[string]interface{}{"type": "string"},
							"expiry":       map[string]interface{}{"type": "string"},
							"batchNo":      map[string]interface{}{"type": "string"},
							"quantity":     map[string]interface{}{"type": "string"},
							"category":     map[string]interface{}{"type": "string"},
							"manufacturer": map[string]interface{}{"type": "string"},
							"status":       statusProperty(),
						},
					},
				},
				"required": []string{"record"},
			},
		},
		{
			Name:        "medicine_verify",
			Description: "Set the review status of a donation.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Donation ID",
					},
					"status": statusProperty(),
				},
				"required": []string{"id", "status"},
			},
		},
		{
			Name:        "medicine_list",
			Description: "List all donations, newest first.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Engine
		{
			Name:        "ocr_info",
			Description: "Report whether the Tesseract engine is available and its version.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

func statusProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{"pending", "approved", "rejected", "available"},
		"description": "Review status",
	}
}

func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return reply(req.ID, map[string]interface{}{"tools": GetToolDefinitions()})
}
