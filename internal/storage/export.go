package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/isingsim/internal/measurement"
)

type ExportData struct {
	RunMetadata
	Points []measurement.Point `json:"points"`
}

// ExportJSON writes metadata and per-step points as one indented document.
func ExportJSON(w io.Writer, meta *RunMetadata, points []measurement.Point) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{RunMetadata: *meta, Points: points})
}
