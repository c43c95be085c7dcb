package storage

import (
	"encoding/json"
	"os"

	"github.com/evolab/evodyn/internal/evo"
)

type ExportData struct {
	Model      string             `json:"model"`
	Integrator string             `json:"integrator,omitempty"`
	Dt         float64            `json:"dt"`
	Steps      int                `json:"steps"`
	Times      []float64          `json:"times"`
	States     [][]float64        `json:"states"`
	Metrics    map[string]float64 `json:"metrics"`
}

// ExportJSON writes a whole run as a single self-contained JSON document,
// the format downstream analysis notebooks consume.
func ExportJSON(path, model, integrator string, dt float64, result *evo.Result) error {
	data := ExportData{
		Model:      model,
		Integrator: integrator,
		Dt:         dt,
		Steps:      result.Steps,
		Times:      result.Times,
		States:     make([][]float64, len(result.States)),
		Metrics:    result.Metrics,
	}

	for i, s := range result.States {
		data.States[i] = s
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
