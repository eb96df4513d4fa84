// Package store provides DataSource implementations that need no database.
package store

import (
	"context"
	"sync"

	"github.com/warp/quota-tracker/generic"
)

// =============================================================================
// MEMORY SOURCE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	events []generic.EventRecord
	quotas []generic.QuotaRow

	// Fail, when set, is returned by both fetches.
	Fail error

	eventFetches int
	quotaFetches int
}

var _ generic.DataSource = (*Memory)(nil)

func NewMemory(events []generic.EventRecord, quotas []generic.QuotaRow) *Memory {
	return &Memory{
		events: append([]generic.EventRecord(nil), events...),
		quotas: append([]generic.QuotaRow(nil), quotas...),
	}
}

// FetchEvents returns a copy so callers cannot alter the fixture.
func (m *Memory) FetchEvents(_ context.Context) ([]generic.EventRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventFetches++
	if m.Fail != nil {
		return nil, &generic.FetchError{Source: "memory", Table: "events", Err: m.Fail}
	}
	return append([]generic.EventRecord(nil), m.events...), nil
}

func (m *Memory) FetchQuotas(_ context.Context) ([]generic.QuotaRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotaFetches++
	if m.Fail != nil {
		return nil, &generic.FetchError{Source: "memory", Table: "quotas", Err: m.Fail}
	}
	return append([]generic.QuotaRow(nil), m.quotas...), nil
}

func (m *Memory) SetEvents(events []generic.EventRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append([]generic.EventRecord(nil), events...)
}

func (m *Memory) SetQuotas(quotas []generic.QuotaRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotas = append([]generic.QuotaRow(nil), quotas...)
}

// Fetches reports how many times each table was read.
func (m *Memory) Fetches() (events, quotas int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.eventFetches, m.quotaFetches
}
