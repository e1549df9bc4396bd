package storage

import (
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/san-kum/odelab/internal/dynamo"
)

// ExportData is the self-contained JSON form of a stored trajectory.
type ExportData struct {
	RunMetadata
	Time   []float64            `json:"time"`
	Series map[string][]float64 `json:"series"`
}

func NewExportData(meta *RunMetadata, result *dynamo.Result) *ExportData {
	data := &ExportData{
		RunMetadata: *meta,
		Time:        result.Time,
		Series:      make(map[string][]float64, result.Dim()),
	}
	for j, series := range result.Series {
		name := "x" + strconv.Itoa(j)
		if j < len(meta.Vars) {
			name = meta.Vars[j]
		}
		data.Series[name] = series
	}
	return data
}

func WriteJSON(w io.Writer, meta *RunMetadata, result *dynamo.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewExportData(meta, result))
}

func ExportJSON(path string, meta *RunMetadata, result *dynamo.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, meta, result)
}
