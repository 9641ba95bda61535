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

	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/sim"
)

const (
	metadataFile  = "metadata.json"
	statsFile     = "stats.csv"
	positionsFile = "positions.csv"
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

// Run is everything saved for one simulation run.
type Run struct {
	Meta      RunMetadata
	Stats     []sim.StepStats
	Positions []attr.Float3
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      uint64             `json:"seed"`
	Dt        float64            `json:"dt"`
	Steps     int                `json:"steps"`
	BlockSize int                `json:"block_size"`
	Workers   int                `json:"workers"`
	Kinds     []string           `json:"kinds"`
	Particles int                `json:"particles"`
	Metrics   map[string]float64 `json:"metrics"`
}

// StatRow is one line of a saved stats.csv.
type StatRow struct {
	Step      int
	Time      float64
	Particles int
	Emitted   int
	Killed    int
	Blocks    int
	StepMs    float64
}

var statsHeader = []string{"step", "time", "particles", "emitted", "killed", "blocks", "step_ms"}

func (s *Store) Save(run *Run) (string, error) {
	meta := run.Meta
	if meta.Name == "" {
		meta.Name = "run"
	}
	meta.Timestamp = time.Now()
	meta.ID = fmt.Sprintf("%s_%d", meta.Name, meta.Timestamp.UnixNano())
	meta.Particles = len(run.Positions)

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, statsFile), statsHeader, len(run.Stats), func(i int) []string {
		st := run.Stats[i]
		blocks := 0
		for _, k := range st.Kinds {
			blocks += k.Blocks
		}
		return []string{
			strconv.Itoa(st.Step),
			strconv.FormatFloat(float64(st.Start+st.Duration), 'f', 6, 64),
			strconv.Itoa(st.Particles()),
			strconv.Itoa(st.Emitted),
			strconv.Itoa(st.Killed),
			strconv.Itoa(blocks),
			strconv.FormatFloat(float64(st.Elapsed.Microseconds())/1000, 'f', 3, 64),
		}
	}); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, positionsFile), []string{"x", "y", "z"}, len(run.Positions), func(i int) []string {
		p := run.Positions[i]
		return []string{formatFloat32(p.X), formatFloat32(p.Y), formatFloat32(p.Z)}
	}); err != nil {
		return "", err
	}
	return meta.ID, nil
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

func writeCSV(path string, header []string, n int, row func(int) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat32(v float32) string { return strconv.FormatFloat(float64(v), 'f', 5, 32) }

// List returns saved runs, newest first.
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

func (s *Store) LoadStats(runID string) ([]StatRow, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, statsFile))
	if err != nil {
		return nil, err
	}

	rows := make([]StatRow, 0, len(records))
	for _, rec := range records {
		if len(rec) < len(statsHeader) {
			continue
		}
		var row StatRow
		var perr error
		parseInt := func(s string) int {
			v, err := strconv.Atoi(s)
			if err != nil && perr == nil {
				perr = err
			}
			return v
		}
		parseFloat := func(s string) float64 {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil && perr == nil {
				perr = err
			}
			return v
		}
		row.Step = parseInt(rec[0])
		row.Time = parseFloat(rec[1])
		row.Particles = parseInt(rec[2])
		row.Emitted = parseInt(rec[3])
		row.Killed = parseInt(rec[4])
		row.Blocks = parseInt(rec[5])
		row.StepMs = parseFloat(rec[6])
		if perr != nil {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Store) LoadPositions(runID string) ([]attr.Float3, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, positionsFile))
	if err != nil {
		return nil, err
	}

	out := make([]attr.Float3, 0, len(records))
	for _, rec := range records {
		if len(rec) < 3 {
			continue
		}
		var v [3]float32
		ok := true
		for i := range v {
			f, err := strconv.ParseFloat(rec[i], 32)
			if err != nil {
				ok = false
				break
			}
			v[i] = float32(f)
		}
		if ok {
			out = append(out, attr.Float3{X: v[0], Y: v[1], Z: v[2]})
		}
	}
	return out, nil
}

// readCSV returns the records after the header.
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return [][]string{}, nil
	}
	return records[1:], nil
}
