package session

import (
	"log"
	"sync"

	"FindIt/internal/core/identity"
	"FindIt/internal/core/lifecycle"
	"FindIt/internal/core/state"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultCacheSize bounds the number of live client sessions
	DefaultCacheSize = 1000

	reportFormKey = "report"
)

// Session is one browser's identity, application state and open forms
type Session struct {
	Auth  *identity.Observer
	State *state.Store
	forms map[string]*lifecycle.Form
	ID    string
	mu    sync.Mutex
}

// ReportForm returns the create form
func (s *Session) ReportForm() *lifecycle.Form {
	return s.form(reportFormKey)
}

// EditForm returns the edit form for postID
func (s *Session) EditForm(postID string) *lifecycle.Form {
	return s.form("edit:" + postID)
}

// DeleteForm returns the delete confirmation form for postID
func (s *Session) DeleteForm(postID string) *lifecycle.Form {
	return s.form("delete:" + postID)
}

func (s *Session) form(key string) *lifecycle.Form {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.forms[key]
	if !ok {
		f = lifecycle.NewForm()
		s.forms[key] = f
	}
	return f
}

// Identity returns the signed-in identity, or nil
func (s *Session) Identity() *identity.Identity {
	id, _ := s.Auth.Current()
	return id
}

// Registry keeps live sessions in a bounded LRU keyed by session ID
type Registry struct {
	cache  *lru.Cache[string, *Session]
	lister state.PostLister
}

// NewRegistry creates a registry holding at most size sessions
func NewRegistry(size int, lister state.PostLister) (*Registry, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.NewWithEvict[string, *Session](size, func(id string, s *Session) {
		log.Printf("[SESSION] Evicted session %s", shortID(id))
	})
	if err != nil {
		return nil, err
	}
	return &Registry{cache: cache, lister: lister}, nil
}

// Get returns a live session
func (r *Registry) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	return r.cache.Get(id)
}

// Create starts a session with a fresh random ID and unresolved identity
func (r *Registry) Create() *Session {
	return r.Restore(uuid.NewString())
}

// Restore rebuilds a session under an existing ID, for a cookie whose session was evicted
func (r *Registry) Restore(id string) *Session {
	s := &Session{
		ID:    id,
		Auth:  identity.NewObserver(),
		State: state.NewStore(r.lister),
		forms: make(map[string]*lifecycle.Form),
	}
	r.cache.Add(id, s)
	return s
}

// Remove ends a session
func (r *Registry) Remove(id string) {
	r.cache.Remove(id)
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	return r.cache.Len()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
