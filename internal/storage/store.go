// Package storage keeps collected step responses on disk so they can be
// listed, plotted and exported later: one directory per run holding
// metadata.json and samples.csv.
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
	ID         string             `json:"id"`
	Motor      string             `json:"motor"`
	Timestamp  time.Time          `json:"timestamp"`
	Source     string             `json:"source"` // "sim" or "serial"
	Kp         float64            `json:"kp"`
	PeriodMs   int                `json:"period_ms"`
	Setpoint   int64              `json:"setpoint"`
	DataPoints int                `json:"data_points"`
	Metrics    map[string]float64 `json:"metrics"`
}

func (s *Store) Save(meta RunMetadata, times, positions []int64) (string, error) {
	if len(times) != len(positions) {
		return "", fmt.Errorf("storage: %d times but %d positions", len(times), len(positions))
	}

	runID := fmt.Sprintf("%s_%d", meta.Motor, time.Now().Unix())
	meta.ID = runID
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}

	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "samples.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write([]string{"time_ms", "position"}); err != nil {
		return "", err
	}
	for i := range times {
		row := []string{
			strconv.FormatInt(times[i], 10),
			strconv.FormatInt(positions[i], 10),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

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
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadSamples(runID string) (times, positions []int64, err error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "samples.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	for i := 1; i < len(records); i++ {
		if len(records[i]) < 2 {
			continue
		}
		tm, err := strconv.ParseInt(records[i][0], 10, 64)
		if err != nil {
			continue
		}
		pos, err := strconv.ParseInt(records[i][1], 10, 64)
		if err != nil {
			continue
		}
		times = append(times, tm)
		positions = append(positions, pos)
	}
	return times, positions, nil
}

// SamplesPath returns the on-disk CSV for a run, for export commands.
func (s *Store) SamplesPath(runID string) string {
	return filepath.Join(s.baseDir, runID, "samples.csv")
}
