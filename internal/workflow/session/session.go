// Package session keeps one agent loop per conversation.
package session

import (
	"log/slog"
	"sync"

	"github.com/Cyclone1070/lumen/internal/workflow/loop"
)

// Factory builds the agent loop for a conversation.
type Factory func(conversationID string) *loop.Loop

// Registry maps conversation ids to their agent loops. It is safe for
// concurrent use.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*loop.Loop
	factory  Factory
	logger   *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(factory Factory, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		sessions: make(map[string]*loop.Loop),
		factory:  factory,
		logger:   logger.With("component", "sessions"),
	}
}

// Create starts a fresh session for id. An existing session is cancelled
// and replaced.
func (r *Registry) Create(id string) *loop.Loop {
	l := r.factory(id)

	r.mu.Lock()
	prev := r.sessions[id]
	r.sessions[id] = l
	r.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}
	r.logger.Debug("session created", "conversation", id)
	return l
}

// GetOrCreate returns the session for id, creating it when absent.
func (r *Registry) GetOrCreate(id string) *loop.Loop {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.sessions[id]; ok {
		return l
	}
	l := r.factory(id)
	r.sessions[id] = l
	r.logger.Debug("session created", "conversation", id)
	return l
}

// Get returns the session for id.
func (r *Registry) Get(id string) (*loop.Loop, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.sessions[id]
	return l, ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Dispose cancels any in-flight run for id and removes the session.
func (r *Registry) Dispose(id string) {
	r.mu.Lock()
	l, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return
	}
	l.Cancel()
	r.logger.Debug("session disposed", "conversation", id)
}

// DisposeAll cancels and removes every session.
func (r *Registry) DisposeAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*loop.Loop)
	r.mu.Unlock()

	for _, l := range sessions {
		l.Cancel()
	}
}
