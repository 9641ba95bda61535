package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	Name      string             `json:"name"`
	Seed      uint64             `json:"seed"`
	Dt        float64            `json:"dt"`
	Steps     int                `json:"steps"`
	Particles []int              `json:"particles"`
	Emitted   []int              `json:"emitted"`
	Killed    []int              `json:"killed"`
	Kinds     map[string][]int   `json:"kinds"`
	Positions [][3]float32       `json:"positions"`
	Metrics   map[string]float64 `json:"metrics"`
}

func newExportData(run *Run) ExportData {
	data := ExportData{
		Name:      run.Meta.Name,
		Seed:      run.Meta.Seed,
		Dt:        run.Meta.Dt,
		Steps:     len(run.Stats),
		Particles: make([]int, len(run.Stats)),
		Emitted:   make([]int, len(run.Stats)),
		Killed:    make([]int, len(run.Stats)),
		Kinds:     make(map[string][]int),
		Positions: make([][3]float32, len(run.Positions)),
		Metrics:   run.Meta.Metrics,
	}
	for i, st := range run.Stats {
		data.Particles[i] = st.Particles()
		data.Emitted[i] = st.Emitted
		data.Killed[i] = st.Killed
		for _, k := range st.Kinds {
			series := data.Kinds[k.Kind]
			if series == nil {
				series = make([]int, len(run.Stats))
				data.Kinds[k.Kind] = series
			}
			series[i] = k.Particles
		}
	}
	for i, p := range run.Positions {
		data.Positions[i] = [3]float32{p.X, p.Y, p.Z}
	}
	return data
}

// WriteJSON encodes run to w.
func WriteJSON(w io.Writer, run *Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newExportData(run))
}

func ExportJSON(path string, run *Run) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, run)
}
