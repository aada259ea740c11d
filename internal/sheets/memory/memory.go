package memory

import (
	"context"
	"fmt"
	"sync"

	"etiket/internal/core"
	ports "etiket/internal/sheets"
)

type row struct {
	eventID string
	entry   core.HistoryEntry
}

// Mirror keeps mirrored labels in process memory.
type Mirror struct {
	mu   sync.Mutex
	rows []row
}

var _ ports.LabelMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{}
}

// AppendLabel stores the entry and returns a synthetic row reference.
func (m *Mirror) AppendLabel(_ context.Context, eventID string, e core.HistoryEntry) (string, error) {
	if e.LabelIdentifier == "" {
		return "", fmt.Errorf("append label: empty identifier")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, row{eventID: eventID, entry: e})
	return fmt.Sprintf("mem:%d", len(m.rows)), nil
}

func (m *Mirror) HasEvent(_ context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.eventID == eventID {
			return true, nil
		}
	}
	return false, nil
}

func (m *Mirror) ListLabels(_ context.Context) ([]core.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.HistoryEntry, len(m.rows))
	for i, r := range m.rows {
		out[i] = r.entry
	}
	return out, nil
}
