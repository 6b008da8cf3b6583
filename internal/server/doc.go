// Package server exposes medicine scanning to MCP clients over stdio.
//
// Each line on stdin is a JSON-RPC 2.0 message; each reply is one line on
// stdout. Logs go to stderr so they never interleave with replies. The
// server answers initialize, ping, tools/list and tools/call, and stays
// silent on notifications/initialized.
//
// Tools fall into four groups:
//
//	medicine_scan, medicine_extract_fields     photo or text to fields
//	image_enhance, image_crop, image_contrast  preprocessing previews
//	medicine_save, medicine_verify, medicine_list  donation review (needs a store)
//	ocr_info                                   recognizer availability
//
// A tool that fails replies with code -32000 and the Go error text in the
// error data. Recognition failures read "OCR failed: <reason>". An image the
// enhancer could not process is not a failure; the scan falls back to the
// original photo and reports enhanced=false.
package server
