// Package memory provides in-process implementations of the domain
// repositories. They back the server when DATABASE_URL is empty and serve as
// test doubles for the application layer.
package memory

import (
	"context"
	"sync"

	"github.com/nexus-academicus/1board/internal/domain/shared"
	"github.com/nexus-academicus/1board/internal/domain/student"
)

// StudentStore is a student.Repository guarded by a single mutex. Values are
// cloned on the way in and out so callers never share memory with the store.
type StudentStore struct {
	mu       sync.RWMutex
	students map[shared.Identity]*student.Student
	order    []shared.Identity
}

// NewStudentStore creates an empty store.
func NewStudentStore() *StudentStore {
	return &StudentStore{students: make(map[shared.Identity]*student.Student)}
}

// Create implements student.Repository.
func (s *StudentStore) Create(ctx context.Context, st *student.Student) error {
	if err := ctx.Err(); err != nil {
		return shared.Unavailable("student", "Create", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.students[st.Identity]; ok {
		return shared.ErrStudentAlreadyExists
	}
	s.students[st.Identity] = st.Clone()
	s.order = append(s.order, st.Identity)
	return nil
}

// GetByIdentity implements student.Repository.
func (s *StudentStore) GetByIdentity(ctx context.Context, id shared.Identity) (*student.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, shared.Unavailable("student", "GetByIdentity", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.students[id]
	if !ok {
		return nil, shared.ErrStudentNotFound
	}
	return st.Clone(), nil
}

// ListAll implements student.Repository. Students come back in creation order.
func (s *StudentStore) ListAll(ctx context.Context) ([]*student.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, shared.Unavailable("student", "ListAll", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*student.Student, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.students[id].Clone())
	}
	return out, nil
}

// Mutate implements student.Repository. fn runs on a copy under the write
// lock; the copy replaces the stored record only when fn succeeds.
func (s *StudentStore) Mutate(ctx context.Context, id shared.Identity, fn student.MutateFunc) (*student.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, shared.Unavailable("student", "Mutate", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.students[id]
	if !ok {
		return nil, shared.ErrStudentNotFound
	}

	draft := cur.Clone()
	if err := fn(draft); err != nil {
		return nil, err
	}
	s.students[id] = draft
	return draft.Clone(), nil
}

var _ student.Repository = (*StudentStore)(nil)
