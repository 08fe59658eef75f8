package state

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrStateNotFound = errors.New("conversation state not found")

// Store persists ConversationState between function invocations of one call.
type Store interface {
	Load(ctx context.Context, sessionID string) (*ConversationState, error)
	Save(ctx context.Context, st *ConversationState) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore keeps sessions in-process. Each call session owns its state
// exclusively; the lock only guards the map against concurrent calls.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*ConversationState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*ConversationState, 16),
	}
}

func (m *MemoryStore) Load(_ context.Context, sessionID string) (*ConversationState, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrStateNotFound
	}
	// A failed turn must leave the stored state untouched, so callers get a
	// copy, never the stored pointer.
	return st.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, st *ConversationState) error {
	if st == nil {
		return ErrNilState
	}
	if st.SessionID == "" {
		return ErrEmptySessionID
	}
	dup := st.Clone()
	if dup.UpdatedAt.IsZero() {
		dup.UpdatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[dup.SessionID] = dup
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}
