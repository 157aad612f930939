package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

type ExportData struct {
	RunMetadata
	Times  []float64   `json:"times"`
	States [][]float64 `json:"states"`
}

// ExportJSON writes metadata and the full trajectory as one JSON document.
func ExportJSON(w io.Writer, meta RunMetadata, result *dynamo.Result) error {
	data := ExportData{
		RunMetadata: meta,
		Times:       result.Times,
		States:      make([][]float64, len(result.States)),
	}
	for i, s := range result.States {
		data.States[i] = s
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
