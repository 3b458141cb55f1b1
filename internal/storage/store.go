package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/ghdsim/internal/tensor"
	"gopkg.in/yaml.v3"
)

const (
	metadataFile   = "metadata.json"
	densityFile    = "density.csv"
	correlatorFile = "correlator.csv"
	fillingFile    = "filling.csv"
	configFile     = "config.yaml"
)

// ErrMalformed indicates a stored file that does not match the run metadata.
var ErrMalformed = errors.New("storage: malformed run data")

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

type GridInfo struct {
	NX        int       `json:"nx"`
	NR        int       `json:"nr"`
	Species   int       `json:"species"`
	Positions []float64 `json:"positions"`
}

type RunMetadata struct {
	ID              string             `json:"id"`
	Model           string             `json:"model"`
	Preset          string             `json:"preset,omitempty"`
	Timestamp       time.Time          `json:"timestamp"`
	Dt              float64            `json:"dt"`
	Duration        float64            `json:"duration"`
	Departure       string             `json:"departure"`
	Grid            GridInfo           `json:"grid"`
	Steps           int                `json:"steps"`
	Unconverged     int                `json:"unconverged"`
	CorrelatorOrder int                `json:"correlator_order,omitempty"`
	Metrics         map[string]float64 `json:"metrics"`
}

// Profiles is a time series of per-position values.
type Profiles struct {
	Times  []float64
	Values [][]float64
}

// Run bundles everything written for a single propagation.
type Run struct {
	Meta       RunMetadata
	Density    Profiles
	Correlator *Profiles
	Fillings   []*tensor.Field
	// Config, when set, is written as YAML so the run can be rebuilt later.
	Config any
}

// Save writes the run into a fresh directory and returns its id.
func (s *Store) Save(run *Run) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", run.Meta.Model, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := run.Meta
	meta.ID = runID
	meta.Timestamp = now
	if meta.Metrics == nil {
		meta.Metrics = map[string]float64{}
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	if err := writeProfiles(filepath.Join(runDir, densityFile), run.Density); err != nil {
		return "", err
	}
	if run.Correlator != nil {
		if err := writeProfiles(filepath.Join(runDir, correlatorFile), *run.Correlator); err != nil {
			return "", err
		}
	}
	if run.Config != nil {
		data, err := yaml.Marshal(run.Config)
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(filepath.Join(runDir, configFile), data, 0644); err != nil {
			return "", err
		}
	}
	if len(run.Fillings) > 0 {
		if err := writeFillings(filepath.Join(runDir, fillingFile), run.Density.Times, run.Fillings); err != nil {
			return "", err
		}
	}
	return runID, nil
}

// List returns the metadata of every readable run, newest first.
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
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadConfig decodes the stored run configuration into out.
func (s *Store) LoadConfig(runID string, out any) error {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, configFile))
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

// LoadProfiles reads density.csv, or correlator.csv when correlator is set.
func (s *Store) LoadProfiles(runID string, correlator bool) (*Profiles, error) {
	name := densityFile
	if correlator {
		name = correlatorFile
	}
	records, err := readCSV(filepath.Join(s.baseDir, runID, name))
	if err != nil {
		return nil, err
	}

	p := &Profiles{Times: []float64{}, Values: [][]float64{}}
	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) == 0 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrMalformed, name, i+1, err)
		}
		row := make([]float64, 0, len(record)-1)
		for j := 1; j < len(record); j++ {
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s line %d: %v", ErrMalformed, name, i+1, err)
			}
			row = append(row, v)
		}
		p.Times = append(p.Times, t)
		p.Values = append(p.Values, row)
	}
	return p, nil
}

// LoadFillings restores the stored filling snapshots using the grid shape
// recorded in the metadata.
func (s *Store) LoadFillings(runID string) ([]float64, []*tensor.Field, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	records, err := readCSV(filepath.Join(s.baseDir, runID, fillingFile))
	if err != nil {
		return nil, nil, err
	}

	nr, ns, nx := meta.Grid.NR, meta.Grid.Species, meta.Grid.NX
	times := make([]float64, 0)
	fields := make([]*tensor.Field, 0)
	var current *tensor.Field
	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) != 3+nr {
			return nil, nil, fmt.Errorf("%w: %s line %d has %d columns, want %d", ErrMalformed, fillingFile, i+1, len(record), 3+nr)
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s line %d: %v", ErrMalformed, fillingFile, i+1, err)
		}
		sp, err1 := strconv.Atoi(record[1])
		x, err2 := strconv.Atoi(record[2])
		if err := errors.Join(err1, err2); err != nil || sp >= ns || x >= nx || sp < 0 || x < 0 {
			return nil, nil, fmt.Errorf("%w: %s line %d: bad index", ErrMalformed, fillingFile, i+1)
		}
		if current == nil || len(times) == 0 || times[len(times)-1] != t {
			current = tensor.NewField(nr, ns, nx)
			fields = append(fields, current)
			times = append(times, t)
		}
		for r := 0; r < nr; r++ {
			v, err := strconv.ParseFloat(record[3+r], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: %s line %d: %v", ErrMalformed, fillingFile, i+1, err)
			}
			current.Set(r, sp, x, v)
		}
	}
	return times, fields, nil
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

func writeProfiles(path string, p Profiles) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if len(p.Values) > 0 {
		header := []string{"time"}
		for i := range p.Values[0] {
			header = append(header, fmt.Sprintf("x%d", i))
		}
		if err := w.Write(header); err != nil {
			return err
		}
	}
	for i, values := range p.Values {
		row := []string{formatFloat(p.Times[i])}
		for _, v := range values {
			row = append(row, formatFloat(v))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeFillings(path string, times []float64, fields []*tensor.Field) error {
	if len(times) != len(fields) {
		return fmt.Errorf("%w: %d snapshot times for %d fillings", ErrMalformed, len(times), len(fields))
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	nr, ns, nx := fields[0].Dims()
	header := []string{"time", "species", "x"}
	for r := 0; r < nr; r++ {
		header = append(header, fmt.Sprintf("r%d", r))
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for i, field := range fields {
		for s := 0; s < ns; s++ {
			for x := 0; x < nx; x++ {
				row := []string{formatFloat(times[i]), strconv.Itoa(s), strconv.Itoa(x)}
				for r := 0; r < nr; r++ {
					row = append(row, formatFloat(field.At(r, s, x)))
				}
				if err := w.Write(row); err != nil {
					return err
				}
			}
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

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
