package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/odelab/internal/analysis"
	"github.com/san-kum/odelab/internal/dynamo"
)

func sampleResult() *dynamo.Result {
	r := dynamo.NewResult(2, 3)
	r.Append(0, dynamo.State{1.0, 0.0})
	r.Append(0.01, dynamo.State{0.99995, -0.0099998})
	r.Append(0.02, dynamo.State{0.1 + 0.2, -1e-300})
	return r
}

func sampleMeta() RunMetadata {
	return RunMetadata{
		System:     "harmonic",
		Integrator: "rk4",
		Vars:       []string{"x", "v"},
		Params:     map[string]float64{"omega": 1},
		Initial:    []float64{1, 0},
		TEnd:       0.02,
		Step:       0.01,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	result := sampleResult()
	runID, err := st.Save(sampleMeta(), result)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.System != "harmonic" || meta.Kind != KindRun {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Samples != 3 {
		t.Errorf("expected 3 samples, got %d", meta.Samples)
	}
	if meta.Params["omega"] != 1 {
		t.Errorf("expected omega 1, got %v", meta.Params["omega"])
	}

	loaded, err := st.LoadResult(runID)
	if err != nil {
		t.Fatalf("load result failed: %v", err)
	}
	if loaded.Len() != result.Len() || loaded.Dim() != result.Dim() {
		t.Fatalf("got %dx%d, want %dx%d", loaded.Dim(), loaded.Len(), result.Dim(), result.Len())
	}
	for j := range result.Series {
		for i := range result.Series[j] {
			if loaded.Series[j][i] != result.Series[j][i] {
				t.Errorf("series %d sample %d: got %v, want %v", j, i, loaded.Series[j][i], result.Series[j][i])
			}
		}
	}
}

func TestStoreRejectsVarMismatch(t *testing.T) {
	st := New(t.TempDir())
	meta := sampleMeta()
	meta.Vars = []string{"x"}
	if _, err := st.Save(meta, sampleResult()); err == nil {
		t.Error("expected error for mismatched variable names")
	}
}

func TestStoreSweep(t *testing.T) {
	st := New(t.TempDir())
	points := []analysis.BifurcationPoint{
		{Param: 2.5, Value: 3.1},
		{Param: 3.0, Value: 3.9},
		{Param: 3.0, Value: 4.2},
	}

	meta := sampleMeta()
	if _, err := st.SaveSweep(meta, points); err == nil {
		t.Error("expected error without sweep info")
	}

	meta.Sweep = &SweepInfo{Param: "c", Min: 2.5, Max: 3.0, Steps: 1, Observe: "x"}
	runID, err := st.SaveSweep(meta, points)
	if err != nil {
		t.Fatalf("save sweep failed: %v", err)
	}

	loaded, err := st.LoadSweep(runID)
	if err != nil {
		t.Fatalf("load sweep failed: %v", err)
	}
	if len(loaded) != len(points) {
		t.Fatalf("expected %d points, got %d", len(points), len(loaded))
	}
	for i := range points {
		if loaded[i] != points[i] {
			t.Errorf("point %d: got %v, want %v", i, loaded[i], points[i])
		}
	}

	got, err := st.Load(runID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != KindSweep || got.Sweep.Points != 3 {
		t.Errorf("unexpected sweep metadata %+v", got.Sweep)
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	first, err := st.Save(sampleMeta(), sampleResult())
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	second, err := st.Save(sampleMeta(), sampleResult())
	if err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second || runs[1].ID != first {
		t.Errorf("expected newest first, got %s then %s", runs[0].ID, runs[1].ID)
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runID, err := st.Save(sampleMeta(), sampleResult())
	if err != nil {
		t.Fatal(err)
	}

	runDir := filepath.Join(tmpDir, runID)
	if _, err := os.Stat(filepath.Join(runDir, "metadata.json")); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}
	data, err := os.ReadFile(filepath.Join(runDir, "series.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if header := strings.SplitN(string(data), "\n", 2)[0]; header != "time,x,v" {
		t.Errorf("got header %q, want %q", header, "time,x,v")
	}
}

func TestStoreInvalidID(t *testing.T) {
	st := New(t.TempDir())
	for _, id := range []string{"", "..", "../etc", "a/b"} {
		if _, err := st.Load(id); err == nil {
			t.Errorf("expected error for id %q", id)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	meta := sampleMeta()
	meta.ID = "abc"

	var buf bytes.Buffer
	if err := WriteJSON(&buf, &meta, sampleResult()); err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		ID     string               `json:"id"`
		System string               `json:"system"`
		Time   []float64            `json:"time"`
		Series map[string][]float64 `json:"series"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.ID != "abc" || decoded.System != "harmonic" {
		t.Errorf("metadata not embedded: %+v", decoded)
	}
	if len(decoded.Time) != 3 || len(decoded.Series["v"]) != 3 {
		t.Errorf("series not exported: %+v", decoded)
	}
}
