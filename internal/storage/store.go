package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/bucketsim/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
)

var ErrNotFound = errors.New("storage: run not found")

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

type RunMetadata struct {
	ID        string             `json:"id"`
	Scenario  string             `json:"scenario"`
	Timestamp time.Time          `json:"timestamp"`
	Solver    string             `json:"solver"`
	Policy    string             `json:"policy"`
	Inflow    string             `json:"inflow"`
	Params    map[string]float64 `json:"params"`
	Success   bool               `json:"success"`
	Status    int                `json:"status"`
	Message   string             `json:"message"`
	NFev      int                `json:"nfev"`
	NJev      int                `json:"njev"`
	NLU       int                `json:"nlu"`
	Samples   int                `json:"samples"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes meta and the samples of tr under a fresh run directory and
// returns the run ID. Solver outcome fields in meta are taken from tr.
func (s *Store) Save(meta RunMetadata, tr *dynamo.Trajectory) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}

	now := time.Now()
	runID, runDir, err := s.allocate(meta.Scenario, now)
	if err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Solver = tr.Solver
	meta.Success = tr.Success
	meta.Status = int(tr.Status)
	meta.Message = tr.Message
	meta.NFev, meta.NJev, meta.NLU = tr.NFev, tr.NJev, tr.NLU
	meta.Samples = tr.Len()

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeStates(filepath.Join(runDir, statesFile), tr); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) allocate(scenario string, now time.Time) (string, string, error) {
	if scenario == "" {
		scenario = "run"
	}
	base := fmt.Sprintf("%s_%s", scenario, now.Format("20060102-150405"))
	for i := 0; ; i++ {
		id := base
		if i > 0 {
			id = fmt.Sprintf("%s-%d", base, i)
		}
		dir := filepath.Join(s.baseDir, id)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return id, dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", "", err
		}
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

func writeStates(path string, tr *dynamo.Trajectory) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"time"}
	if tr.Len() > 0 {
		if len(tr.States[0]) == 1 {
			header = append(header, "h")
		} else {
			for i := range tr.States[0] {
				header = append(header, fmt.Sprintf("x%d", i))
			}
		}
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i, t := range tr.Times {
		row := []string{strconv.FormatFloat(t, 'g', -1, 64)}
		for _, v := range tr.States[i] {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// List returns the stored runs, oldest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
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
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadTrajectory rebuilds the stored trajectory of runID, including the
// solver outcome recorded in its metadata.
func (s *Store) LoadTrajectory(runID string) (*dynamo.Trajectory, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	tr := &dynamo.Trajectory{
		Success: meta.Success,
		Status:  dynamo.Status(meta.Status),
		Message: meta.Message,
		NFev:    meta.NFev,
		NJev:    meta.NJev,
		NLU:     meta.NLU,
		Solver:  meta.Solver,
	}
	for line, record := range records {
		if line == 0 || len(record) == 0 {
			continue
		}
		row, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("run %s line %d: %w", runID, line+1, err)
		}
		tr.Times = append(tr.Times, row[0])
		tr.States = append(tr.States, dynamo.State(row[1:]))
	}
	return tr, nil
}

func parseRow(record []string) ([]float64, error) {
	row := make([]float64, len(record))
	for i, field := range record {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}

type ExportData struct {
	RunMetadata
	Times  []float64   `json:"times"`
	States [][]float64 `json:"states"`
}

// ExportJSON writes the metadata and samples of runID to w.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	tr, err := s.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		RunMetadata: *meta,
		Times:       tr.Times,
		States:      make([][]float64, len(tr.States)),
	}
	for i, x := range tr.States {
		data.States[i] = x
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
