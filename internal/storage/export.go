package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	Meta       RunMetadata `json:"metadata"`
	Times      []float64   `json:"times"`
	Density    [][]float64 `json:"density"`
	Correlator [][]float64 `json:"correlator,omitempty"`
}

// ExportJSON writes a run's metadata and profiles as a single JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	density, err := s.LoadProfiles(runID, false)
	if err != nil {
		return err
	}
	data := ExportData{
		Meta:    *meta,
		Times:   density.Times,
		Density: density.Values,
	}
	if meta.CorrelatorOrder > 0 {
		corr, err := s.LoadProfiles(runID, true)
		if err != nil {
			return err
		}
		data.Correlator = corr.Values
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
