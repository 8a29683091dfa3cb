// Package session keeps grading schemas in memory while an instructor edits
// them. Each session owns one schema and serializes every operation on it.
package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"classledger/backend/internal/grading"
	"classledger/backend/internal/shared"
)

// ErrSessionNotFound is returned for an unknown, closed or expired session
var ErrSessionNotFound = errors.New("grading session not found")

// Session is one open grading edit
type Session struct {
	ID        string
	SectionID string
	OpenedAt  time.Time

	mu       sync.Mutex
	schema   *grading.Schema
	roster   []shared.Student
	lastUsed time.Time
}

// Do runs fn with exclusive access to the schema and roster. fn must not
// keep either past its return.
func (s *Session) Do(fn func(schema *grading.Schema, roster []shared.Student) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.schema, s.roster)
}

// Registry tracks open sessions and drops those idle longer than the timeout
type Registry struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	idleTimeout time.Duration
	now         func() time.Time
}

// NewRegistry creates a Registry. A zero idleTimeout never expires sessions.
func NewRegistry(idleTimeout time.Duration) *Registry {
	return &Registry{
		sessions:    make(map[string]*Session),
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// Open registers a new session over schema
func (r *Registry) Open(schema *grading.Schema, roster []shared.Student) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	s := &Session{
		ID:        uuid.New().String(),
		SectionID: schema.SectionID,
		OpenedAt:  now,
		schema:    schema,
		roster:    append([]shared.Student(nil), roster...),
		lastUsed:  now,
	}
	r.sessions[s.ID] = s
	log.Printf("INFO: [Session] opened %s for section %s", s.ID, s.SectionID)
	return s
}

// Get returns a live session and marks it used
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := r.now()
	if r.expired(s, now) {
		delete(r.sessions, id)
		log.Printf("INFO: [Session] %s expired", id)
		return nil, ErrSessionNotFound
	}
	s.lastUsed = now
	return s, nil
}

// Close discards a session. Unsaved edits are lost.
func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	log.Printf("INFO: [Session] closed %s", id)
	return true
}

// Len is the number of registered sessions, expired ones included until swept
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops every expired session and returns how many were dropped
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	dropped := 0
	for id, s := range r.sessions {
		if r.expired(s, now) {
			delete(r.sessions, id)
			dropped++
		}
	}
	if dropped > 0 {
		log.Printf("INFO: [Session] swept %d idle sessions", dropped)
	}
	return dropped
}

// RunJanitor sweeps every interval until ctx is done
func (r *Registry) RunJanitor(ctx context.Context, interval time.Duration) {
	if r.idleTimeout <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

func (r *Registry) expired(s *Session, now time.Time) bool {
	return r.idleTimeout > 0 && now.Sub(s.lastUsed) > r.idleTimeout
}
