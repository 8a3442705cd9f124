// Package Drafts stores the answers of open checklists between requests.
package Drafts

import (
	"context"
	"sync"
	"time"

	"ShiftAudit/Checklist"

	"github.com/google/uuid"
)

type memoryDraft struct {
	entries map[uuid.UUID]Checklist.Entry
	touched time.Time
}

// Memory keeps drafts in process. Drafts untouched for longer than the TTL
// are dropped on the next access, and Save sweeps all expired drafts at
// most once per TTL.
type Memory struct {
	mu        sync.Mutex
	ttl       time.Duration
	drafts    map[uuid.UUID]*memoryDraft
	locks     map[uuid.UUID]struct{}
	now       func() time.Time
	lastSweep time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:    ttl,
		drafts: make(map[uuid.UUID]*memoryDraft),
		locks:  make(map[uuid.UUID]struct{}),
		now:    time.Now,
	}
}

func (m *Memory) live(sessionID uuid.UUID) *memoryDraft {
	d, ok := m.drafts[sessionID]
	if !ok {
		return nil
	}
	if m.ttl > 0 && m.now().Sub(d.touched) > m.ttl {
		delete(m.drafts, sessionID)
		return nil
	}
	return d
}

// sweep drops every expired draft. Callers hold mu.
func (m *Memory) sweep() {
	if m.ttl <= 0 {
		return
	}
	now := m.now()
	if now.Sub(m.lastSweep) < m.ttl {
		return
	}
	m.lastSweep = now
	for id, d := range m.drafts {
		if now.Sub(d.touched) > m.ttl {
			delete(m.drafts, id)
		}
	}
}

func (m *Memory) Load(_ context.Context, sessionID uuid.UUID) (map[uuid.UUID]Checklist.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[uuid.UUID]Checklist.Entry)
	if d := m.live(sessionID); d != nil {
		for id, e := range d.entries {
			out[id] = e
		}
	}
	return out, nil
}

func (m *Memory) Save(_ context.Context, sessionID, questionID uuid.UUID, e Checklist.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep()
	d := m.live(sessionID)
	if d == nil {
		d = &memoryDraft{entries: make(map[uuid.UUID]Checklist.Entry)}
		m.drafts[sessionID] = d
	}
	d.entries[questionID] = e
	d.touched = m.now()
	return nil
}

func (m *Memory) Delete(_ context.Context, sessionID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, sessionID)
	return nil
}

func (m *Memory) AcquireSubmitLock(_ context.Context, sessionID uuid.UUID) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, held := m.locks[sessionID]; held {
		return nil, Checklist.ErrSubmissionInFlight
	}
	m.locks[sessionID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.locks, sessionID)
			m.mu.Unlock()
		})
	}, nil
}
