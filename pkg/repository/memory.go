package repository

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/startzen/pkg/model"
)

// Memory is an in-process Repository. When a file path is set, records are also written to
// that file as JSON and loaded back on creation.
type Memory struct {
	mu      sync.RWMutex
	records map[model.RecordID]*model.PitchRecord
	path    string
	now     func() time.Time
}

type MemoryOption func(*Memory)

// WithFile persists records to path
func WithFile(path string) MemoryOption {
	return func(m *Memory) {
		m.path = path
	}
}

// WithClock replaces the time source used for CreatedAt
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

func NewMemory(opts ...MemoryOption) (*Memory, error) {
	m := &Memory{
		records: make(map[model.RecordID]*model.PitchRecord),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.path != "" {
		if err := m.load(); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Memory) load() error {
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return goerr.Wrap(err, "failed to read record file", goerr.V("path", m.path))
	}
	if len(data) == 0 {
		return nil
	}

	var records []*model.PitchRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return goerr.Wrap(err, "failed to parse record file", goerr.V("path", m.path))
	}
	for _, r := range records {
		m.records[r.ID] = r
	}
	return nil
}

// flush must be called with mu held
func (m *Memory) flush() error {
	if m.path == "" {
		return nil
	}

	records := make([]*model.PitchRecord, 0, len(m.records))
	for _, r := range m.records {
		records = append(records, r)
	}
	sortNewestFirst(records)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to marshal records")
	}
	if err := os.WriteFile(m.path, data, 0600); err != nil {
		return goerr.Wrap(err, "failed to write record file", goerr.V("path", m.path))
	}
	return nil
}

func (m *Memory) CreateRecord(ctx context.Context, record *model.PitchRecord) (*model.PitchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *record
	if stored.ID == "" {
		stored.ID = model.NewRecordID()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = m.now()
	}
	if _, exists := m.records[stored.ID]; exists {
		return nil, goerr.New("pitch record already exists", goerr.V("record_id", stored.ID))
	}

	m.records[stored.ID] = &stored
	if err := m.flush(); err != nil {
		delete(m.records, stored.ID)
		return nil, err
	}

	out := stored
	return &out, nil
}

func (m *Memory) GetRecord(ctx context.Context, id model.RecordID) (*model.PitchRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.records[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrRecordNotFound, "pitch record not found", goerr.V("record_id", id))
	}
	out := *r
	return &out, nil
}

func (m *Memory) ListRecords(ctx context.Context, userID model.UserID, limit int) ([]*model.PitchRecord, error) {
	if limit <= 0 {
		limit = model.HistoryLimit
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var records []*model.PitchRecord
	for _, r := range m.records {
		if r.UserID != userID {
			continue
		}
		out := *r
		records = append(records, &out)
	}

	sortNewestFirst(records)
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func sortNewestFirst(records []*model.PitchRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID > records[j].ID
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}
