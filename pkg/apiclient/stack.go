package apiclient

import (
	"context"
	"sort"
	"sync"
)

// Stack maintains the onion-model middleware chain; higher priority sits
// further out.
type Stack struct {
	mu          sync.RWMutex
	middlewares []Middleware
}

// NewStack creates an empty middleware stack.
func NewStack() *Stack {
	return &Stack{middlewares: make([]Middleware, 0)}
}

// Use registers a middleware and keeps the chain ordered by priority.
func (s *Stack) Use(mw Middleware) {
	if mw == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.middlewares = append(s.middlewares, mw)
	s.sortLocked()
}

// Remove drops a middleware by name, reporting whether it existed.
func (s *Stack) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, mw := range s.middlewares {
		if mw.Name() == name {
			s.middlewares = append(s.middlewares[:i], s.middlewares[i+1:]...)
			return true
		}
	}
	return false
}

// List returns the middlewares in execution order (outermost first).
func (s *Stack) List() []Middleware {
	result := s.snapshot()
	reverse(result)
	return result
}

// Execute builds the round-trip chain and runs it.
func (s *Stack) Execute(ctx context.Context, req *Request, finalHandler RoundTripFunc) (*Response, error) {
	if finalHandler == nil {
		return nil, ErrMissingNext
	}

	middlewares := s.snapshot()
	handler := finalHandler
	for i := 0; i < len(middlewares); i++ {
		mw := middlewares[i]
		next := handler
		handler = func(ctx context.Context, req *Request) (*Response, error) {
			return mw.RoundTrip(ctx, req, next)
		}
	}

	return handler(ctx, req)
}

func (s *Stack) snapshot() []Middleware {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cloned := make([]Middleware, len(s.middlewares))
	copy(cloned, s.middlewares)
	return cloned
}

func (s *Stack) sortLocked() {
	sort.SliceStable(s.middlewares, func(i, j int) bool {
		return s.middlewares[i].Priority() < s.middlewares[j].Priority()
	})
}

func reverse[T any](items []T) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}
