package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/reactorsim/internal/config"
	"github.com/san-kum/reactorsim/internal/dynamo"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
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

type RunMetadata struct {
	ID        string             `json:"id"`
	Model     string             `json:"model"`
	Method    string             `json:"method"`
	Timestamp time.Time          `json:"timestamp"`
	TStart    float64            `json:"t_start"`
	TEnd      float64            `json:"t_end"`
	RTol      float64            `json:"rtol"`
	ATol      float64            `json:"atol"`
	Samples   int                `json:"samples"`
	Status    string             `json:"status"`
	Failure   string             `json:"failure,omitempty"`
	Labels    []string           `json:"labels"`
	Stats     dynamo.Stats       `json:"stats"`
	Metrics   map[string]float64 `json:"metrics"`
	Config    *config.Config     `json:"config,omitempty"`
}

// Run is what a caller hands to Save: the configuration, the (possibly
// partial) result and the run error, if any.
type Run struct {
	Config *config.Config
	Labels []string
	Result *dynamo.Result
	Err    error
}

// NewRunID returns <model>_<unix>_<8 hex chars>.
func NewRunID(model string, now time.Time) string {
	return fmt.Sprintf("%s_%d_%s", model, now.Unix(), uuid.NewString()[:8])
}

func (s *Store) Save(run Run) (string, error) {
	if run.Config == nil || run.Result == nil {
		return "", errors.New("save run: config and result are required")
	}
	now := time.Now()
	runID := NewRunID(run.Config.Model, now)
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := NewMetadata(runID, now, run)

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeStates(filepath.Join(runDir, "states.csv"), meta.Labels, run.Result); err != nil {
		return "", err
	}
	return runID, nil
}

// NewMetadata summarizes a run. Non-finite metrics are dropped since JSON
// cannot encode them.
func NewMetadata(id string, now time.Time, run Run) RunMetadata {
	cfg := run.Config
	meta := RunMetadata{
		ID:        id,
		Model:     cfg.Model,
		Method:    cfg.Method,
		Timestamp: now,
		TStart:    cfg.TStart,
		TEnd:      cfg.TEnd,
		RTol:      cfg.Solver.RTol,
		ATol:      cfg.Solver.ATol,
		Samples:   run.Result.Len(),
		Status:    StatusOK,
		Labels:    run.Labels,
		Stats:     run.Result.Stats,
		Metrics:   make(map[string]float64, len(run.Result.Metrics)),
		Config:    cfg,
	}
	if run.Err != nil {
		meta.Status = StatusFailed
		meta.Failure = run.Err.Error()
	}
	for k, v := range run.Result.Metrics {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			meta.Metrics[k] = v
		}
	}
	if len(meta.Labels) == 0 && run.Result.Len() > 0 {
		for i := range run.Result.States[0] {
			meta.Labels = append(meta.Labels, fmt.Sprintf("x%d", i))
		}
	}
	return meta
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeStates(path string, labels []string, result *dynamo.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := WriteCSV(w, labels, result); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// WriteCSV writes a header (time plus labels) and one row per sample.
func WriteCSV(w *csv.Writer, labels []string, result *dynamo.Result) error {
	header := append([]string{"time"}, labels...)
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range result.States {
		row := []string{strconv.FormatFloat(result.Times[i], 'g', -1, 64)}
		for _, val := range result.States[i] {
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// List returns every stored run, oldest first.
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
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode %s: %w", metaPath, err)
	}

	return &meta, nil
}

func (s *Store) LoadStates(runID string) ([][]float64, []float64, error) {
	csvPath := filepath.Join(s.baseDir, runID, "states.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) < 2 {
		return [][]float64{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	states := make([][]float64, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) == 0 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("states.csv line %d: %w", i+1, err)
		}
		times = append(times, t)

		state := make([]float64, 0, len(record)-1)
		for j := 1; j < len(record); j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("states.csv line %d: %w", i+1, err)
			}
			state = append(state, val)
		}
		states = append(states, state)
	}

	return states, times, nil
}

// LoadResult rebuilds the stored trajectory together with its metadata.
func (s *Store) LoadResult(runID string) (*RunMetadata, *dynamo.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	states, times, err := s.LoadStates(runID)
	if err != nil {
		return nil, nil, err
	}

	res := &dynamo.Result{
		Times:   times,
		States:  make([]dynamo.State, len(states)),
		Metrics: meta.Metrics,
		Stats:   meta.Stats,
	}
	for i, st := range states {
		res.States[i] = st
	}
	return meta, res, nil
}
