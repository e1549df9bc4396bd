package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/odelab/internal/analysis"
	"github.com/san-kum/odelab/internal/dynamo"
)

const (
	metadataFile     = "metadata.json"
	seriesFile       = "series.csv"
	bifurcationFile  = "bifurcation.csv"
	KindRun          = "run"
	KindSweep        = "sweep"
	DefaultDirectory = "data"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

// SweepInfo records the swept range of a bifurcation run.
type SweepInfo struct {
	Param     string  `json:"param"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Steps     int     `json:"steps"`
	Observe   string  `json:"observe"`
	Transient float64 `json:"transient"`
	Points    int     `json:"points"`
}

type RunMetadata struct {
	ID         string                      `json:"id"`
	Kind       string                      `json:"kind"`
	System     string                      `json:"system"`
	Integrator string                      `json:"integrator"`
	Timestamp  time.Time                   `json:"timestamp"`
	Vars       []string                    `json:"vars"`
	Params     map[string]float64          `json:"params"`
	Initial    []float64                   `json:"initial"`
	TStart     float64                     `json:"t_start"`
	TEnd       float64                     `json:"t_end"`
	Step       float64                     `json:"step"`
	Transient  float64                     `json:"transient"`
	Samples    int                         `json:"samples,omitempty"`
	Summary    map[string]analysis.Summary `json:"summary,omitempty"`
	Metrics    map[string]float64          `json:"metrics,omitempty"`
	Sweep      *SweepInfo                  `json:"sweep,omitempty"`
}

// Save writes a trajectory and its metadata under a fresh run ID.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	if len(meta.Vars) != result.Dim() {
		return "", fmt.Errorf("storage: %d variable names for %d series", len(meta.Vars), result.Dim())
	}
	meta.Kind = KindRun
	meta.Samples = result.Len()

	runDir, err := s.create(&meta)
	if err != nil {
		return "", err
	}

	header := append([]string{"time"}, meta.Vars...)
	err = writeCSV(filepath.Join(runDir, seriesFile), header, result.Len(), func(i int) []string {
		row := make([]string, 0, result.Dim()+1)
		row = append(row, formatFloat(result.Time[i]))
		for _, series := range result.Series {
			row = append(row, formatFloat(series[i]))
		}
		return row
	})
	if err != nil {
		return "", err
	}
	return meta.ID, nil
}

// SaveSweep writes bifurcation points and their metadata under a fresh run ID.
func (s *Store) SaveSweep(meta RunMetadata, points []analysis.BifurcationPoint) (string, error) {
	if meta.Sweep == nil {
		return "", fmt.Errorf("storage: sweep metadata missing")
	}
	meta.Kind = KindSweep
	meta.Sweep.Points = len(points)

	runDir, err := s.create(&meta)
	if err != nil {
		return "", err
	}

	err = writeCSV(filepath.Join(runDir, bifurcationFile), []string{"param", "value"}, len(points), func(i int) []string {
		return []string{formatFloat(points[i].Param), formatFloat(points[i].Value)}
	})
	if err != nil {
		return "", err
	}
	return meta.ID, nil
}

func (s *Store) create(meta *RunMetadata) (string, error) {
	meta.ID = uuid.NewString()
	meta.Timestamp = time.Now()

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}
	return runDir, nil
}

// List returns every stored run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	path, err := s.path(runID, metadataFile)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadResult reads a stored trajectory back into a Result.
func (s *Store) LoadResult(runID string) (*dynamo.Result, error) {
	path, err := s.path(runID, seriesFile)
	if err != nil {
		return nil, err
	}
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("storage: %s has no header", seriesFile)
	}

	dim := len(records[0]) - 1
	result := dynamo.NewResult(dim, len(records)-1)
	row := make(dynamo.State, dim)
	for i, record := range records[1:] {
		if len(record) != dim+1 {
			return nil, fmt.Errorf("storage: row %d has %d fields, want %d", i+1, len(record), dim+1)
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("storage: row %d: %w", i+1, err)
		}
		for j := range row {
			if row[j], err = strconv.ParseFloat(record[j+1], 64); err != nil {
				return nil, fmt.Errorf("storage: row %d: %w", i+1, err)
			}
		}
		result.Append(t, row)
	}
	return result, nil
}

func (s *Store) LoadSweep(runID string) ([]analysis.BifurcationPoint, error) {
	path, err := s.path(runID, bifurcationFile)
	if err != nil {
		return nil, err
	}
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []analysis.BifurcationPoint{}, nil
	}

	points := make([]analysis.BifurcationPoint, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != 2 {
			return nil, fmt.Errorf("storage: row %d has %d fields, want 2", i+1, len(record))
		}
		p, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("storage: row %d: %w", i+1, err)
		}
		v, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("storage: row %d: %w", i+1, err)
		}
		points = append(points, analysis.BifurcationPoint{Param: p, Value: v})
	}
	return points, nil
}

func (s *Store) path(runID, file string) (string, error) {
	if runID == "" || filepath.Base(runID) != runID || runID == "." || runID == ".." {
		return "", fmt.Errorf("storage: invalid run id %q", runID)
	}
	return filepath.Join(s.baseDir, runID, file), nil
}

func writeCSV(path string, header []string, rows int, row func(int) []string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < rows; i++ {
		if err := w.Write(row(i)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

// formatFloat keeps full precision so stored runs reload bit-for-bit.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
