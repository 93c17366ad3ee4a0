package server

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/audiotrainer/internal/audiometry"
	"github.com/abhisek/audiotrainer/internal/casegen"
	"github.com/abhisek/audiotrainer/internal/session"
)

var errSessionNotFound = errors.New("session not found")

// entry serializes access to one session. Session values are immutable, so
// readers copy under the lock and work without it.
type entry struct {
	mu      sync.Mutex
	sess    session.Session
	c       *casegen.Case
	started time.Time
}

func (e *entry) get() session.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess
}

// update applies fn and stores its result.
func (e *entry) update(fn func(session.Session) session.Session) session.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sess = fn(e.sess)
	return e.sess
}

func (e *entry) commit(st audiometry.Stimulus, at time.Time) (session.Session, session.CommitResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var res session.CommitResult
	e.sess, res = e.sess.Commit(st, at)
	return e.sess, res
}

type registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry
}

func newRegistry() *registry {
	return &registry{sessions: make(map[string]*entry)}
}

func (r *registry) add(e *entry) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.sessions[id] = e
	r.mu.Unlock()
	return id
}

func (r *registry) get(id string) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, errSessionNotFound
	}
	return e, nil
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
