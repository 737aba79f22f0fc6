package round

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// ResultsStore appends settled rounds to <dataDir>/round_results.json as an audit trail.
// Nothing in the engine reads it back: each session starts with empty history.
type ResultsStore struct {
	mu      sync.Mutex
	dataDir string
}

func NewResultsStore(dataDir string) *ResultsStore {
	if dataDir == "" {
		dataDir = "data"
	}
	return &ResultsStore{dataDir: dataDir}
}

func (rs *ResultsStore) path() string {
	return filepath.Join(rs.dataDir, "round_results.json")
}

func (rs *ResultsStore) ensureDir() error {
	return os.MkdirAll(rs.dataDir, 0755)
}

// Record implements Recorder.
func (rs *ResultsStore) Record(_ context.Context, s Settlement) error {
	return rs.Append(&s)
}

// Append adds a settlement to the JSON array on disk.
func (rs *ResultsStore) Append(s *Settlement) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if err := rs.ensureDir(); err != nil {
		return err
	}
	path := rs.path()
	var list []*Settlement
	data, err := os.ReadFile(path)
	if err == nil {
		_ = json.Unmarshal(data, &list)
	}
	if list == nil {
		list = []*Settlement{}
	}
	list = append(list, s)
	data, err = json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// GetByRoundID returns the settlement for roundID, or nil if it was never recorded.
func (rs *ResultsStore) GetByRoundID(roundID string) (*Settlement, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	data, err := os.ReadFile(rs.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var list []*Settlement
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].RoundID == roundID {
			return list[i], nil
		}
	}
	return nil, nil
}
