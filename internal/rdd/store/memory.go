package store

import (
	"context"
	"sort"
	"sync"

	"kycportal/internal/rdd/models"
	id "kycportal/pkg/domain"
	"kycportal/pkg/platform/sentinel"
)

// InMemory is a map-backed thread store for tests and local development.
type InMemory struct {
	mu       sync.RWMutex
	threads  map[id.ThreadID]*models.Thread
	messages map[id.ThreadID][]*models.Message
}

func NewInMemory() *InMemory {
	return &InMemory{
		threads:  make(map[id.ThreadID]*models.Thread),
		messages: make(map[id.ThreadID][]*models.Message),
	}
}

func (s *InMemory) CreateThread(_ context.Context, t *models.Thread) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.threads[t.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *t
	s.threads[t.ID] = &cp
	return nil
}

func (s *InMemory) UpdateThread(_ context.Context, t *models.Thread) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.threads[t.ID]; !exists {
		return sentinel.ErrNotFound
	}
	cp := *t
	s.threads[t.ID] = &cp
	return nil
}

func (s *InMemory) FindThread(_ context.Context, threadID id.ThreadID) (*models.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.threads[threadID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// ListThreads returns all threads, most recent activity first.
func (s *InMemory) ListThreads(_ context.Context) ([]*models.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	threads := make([]*models.Thread, 0, len(s.threads))
	for _, t := range s.threads {
		cp := *t
		threads = append(threads, &cp)
	}
	sort.Slice(threads, func(i, j int) bool {
		return threads[i].LastMessageAt.After(threads[j].LastMessageAt)
	})
	return threads, nil
}

// ListThreadsByCreator returns the caller's own threads, most recent first.
func (s *InMemory) ListThreadsByCreator(_ context.Context, creator id.UserID) ([]*models.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var threads []*models.Thread
	for _, t := range s.threads {
		if t.CreatedBy == creator {
			cp := *t
			threads = append(threads, &cp)
		}
	}
	sort.Slice(threads, func(i, j int) bool {
		return threads[i].LastMessageAt.After(threads[j].LastMessageAt)
	})
	return threads, nil
}

func (s *InMemory) AppendMessage(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.threads[m.ThreadID]; !exists {
		return sentinel.ErrNotFound
	}
	cp := *m
	s.messages[m.ThreadID] = append(s.messages[m.ThreadID], &cp)
	return nil
}

// ListMessages returns a thread's messages in posting order.
func (s *InMemory) ListMessages(_ context.Context, threadID id.ThreadID) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.threads[threadID]; !exists {
		return nil, sentinel.ErrNotFound
	}
	msgs := s.messages[threadID]
	out := make([]*models.Message, 0, len(msgs))
	for _, m := range msgs {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}
