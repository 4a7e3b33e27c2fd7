package mirror

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"orcamento/internal/core"
)

// Snapshot is the best-effort local copy of server state.
type Snapshot struct {
	Expenses []core.Expense    `json:"expenses"`
	Budgets  []core.BudgetGoal `json:"budgets"`

	// Fetched records when each view last came from the server.
	Fetched map[string]time.Time `json:"fetched"`
}

func newSnapshot() *Snapshot {
	return &Snapshot{
		Expenses: []core.Expense{},
		Budgets:  []core.BudgetGoal{},
		Fetched:  map[string]time.Time{},
	}
}

// Local persists a Snapshot as a JSON file.
type Local struct {
	mu   sync.Mutex
	path string
}

func NewLocal(path string) *Local {
	return &Local{path: path}
}

// Path is the snapshot file location.
func (l *Local) Path() string {
	return l.path
}

// Load reads the snapshot. A missing file is an empty snapshot.
func (l *Local) Load() (*Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := newSnapshot()
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", l.path, err)
	}
	if s.Expenses == nil {
		s.Expenses = []core.Expense{}
	}
	if s.Budgets == nil {
		s.Budgets = []core.BudgetGoal{}
	}
	if s.Fetched == nil {
		s.Fetched = map[string]time.Time{}
	}
	return s, nil
}

// Save writes the snapshot atomically through a temp file and rename.
func (l *Local) Save(s *Snapshot) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
