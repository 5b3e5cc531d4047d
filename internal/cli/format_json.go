package cli

import (
	"encoding/json"
	"io"

	"github.com/leeovery/sndedup/internal/engine"
)

// JSONFormatter formats output as indented JSON.
type JSONFormatter struct{}

// jsonSummary is the JSON representation of a completed run.
type jsonSummary struct {
	Status string `json:"status"`
	engine.Summary
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// FormatSummary renders the run as a JSON object.
func (f *JSONFormatter) FormatSummary(w io.Writer, s engine.Summary) error {
	return jsonWrite(w, jsonSummary{Status: "ok", Summary: s, ElapsedSeconds: seconds(s)})
}

// FormatNotice renders msg as {"status": "cancelled", "message": msg}.
func (f *JSONFormatter) FormatNotice(w io.Writer, msg string) error {
	obj := struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}{Status: "cancelled", Message: msg}
	return jsonWrite(w, obj)
}

// jsonWrite encodes v as 2-space indented JSON and writes to w.
func jsonWrite(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
