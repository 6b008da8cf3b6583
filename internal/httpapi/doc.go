// Package httpapi serves the scan pipeline and the donation review workflow over HTTP.
//
// Routes:
//
//	GET  /health
//	POST /api/medicine/scan        multipart: image, donorId, language
//	POST /api/medicine/save        JSON record
//	PUT  /api/medicine/verify/:id  {"status": "approved"}
//	GET  /api/medicine/all         newest first
//
// Every failure answers {"success": false, "error": "..."}. A scan whose
// recognition fails answers 500 with "OCR failed: <reason>".
package httpapi
