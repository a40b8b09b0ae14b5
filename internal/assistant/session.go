package assistant

import (
	"context"
	"sync"

	"github.com/spherical-ai/spherical/libs/faq-engine/internal/reference"
)

// Session holds one user's category selection across questions.
type Session struct {
	service *Service

	mu     sync.RWMutex
	filter reference.CategoryFilter
}

// NewSession starts a session with the All category selected.
func (s *Service) NewSession() *Session {
	return &Session{service: s}
}

// SelectCategory changes the selection. Unknown categories are rejected and
// leave the selection unchanged.
func (s *Session) SelectCategory(category string) error {
	filter, err := s.service.table.NewFilter(category)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.filter = filter
	s.mu.Unlock()
	return nil
}

// Category returns the selected category.
func (s *Session) Category() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter.Value()
}

// Ask answers query within the selected category.
func (s *Session) Ask(ctx context.Context, query string) (*Response, error) {
	return s.service.Ask(ctx, Request{Query: query, Category: s.Category()})
}
