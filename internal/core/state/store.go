package state

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"FindIt/internal/core/posts"
)

// Snapshot is one immutable value of a client session's application state.
// Posts is shared between snapshots and must not be mutated.
type Snapshot struct {
	Posts             []*posts.Post  `json:"posts"`
	ReportType        posts.ItemType `json:"reportType"`
	IsLogoutModalOpen bool           `json:"isLogoutModalOpen"`
	IsReportModalOpen bool           `json:"isReportModalOpen"`
	Loading           bool           `json:"loading"`
}

// PostLister is the read side of posts.Service the store depends on
type PostLister interface {
	ListPosts(ctx context.Context) ([]*posts.Post, error)
}

// Store is the application state of one client session.
// Readers see a consistent Snapshot; each transition swaps in a new one.
type Store struct {
	lister  PostLister
	current atomic.Pointer[Snapshot]
	mu      sync.Mutex
}

// NewStore creates a store with no posts, both modals closed and reportType lost
func NewStore(lister PostLister) *Store {
	s := &Store{lister: lister}
	s.current.Store(&Snapshot{
		Posts:      []*posts.Post{},
		ReportType: posts.TypeLost,
	})
	return s
}

// Snapshot returns the current state value
func (s *Store) Snapshot() Snapshot {
	return *s.current.Load()
}

func (s *Store) update(fn func(next *Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := *s.current.Load()
	fn(&next)
	s.current.Store(&next)
}

// FetchPosts loads the full feed. On failure the previous posts are kept and
// the error is logged; loading is cleared either way. Overlapping fetches are
// not coordinated and the last one to resolve wins.
func (s *Store) FetchPosts(ctx context.Context) {
	s.update(func(next *Snapshot) { next.Loading = true })

	list, err := s.lister.ListPosts(ctx)
	if err != nil {
		log.Printf("[STATE] Failed to fetch posts: %v", err)
		s.update(func(next *Snapshot) { next.Loading = false })
		return
	}

	if list == nil {
		list = []*posts.Post{}
	}
	s.update(func(next *Snapshot) {
		next.Posts = list
		next.Loading = false
	})
}

// RefreshPosts re-fetches the feed after a create, edit or delete
func (s *Store) RefreshPosts(ctx context.Context) {
	s.FetchPosts(ctx)
}

func (s *Store) OpenLogoutModal() {
	s.update(func(next *Snapshot) { next.IsLogoutModalOpen = true })
}

func (s *Store) CloseLogoutModal() {
	s.update(func(next *Snapshot) { next.IsLogoutModalOpen = false })
}

// OpenReportModal opens the report form preset to t. t is not validated.
func (s *Store) OpenReportModal(t posts.ItemType) {
	s.update(func(next *Snapshot) {
		next.IsReportModalOpen = true
		next.ReportType = t
	})
}

func (s *Store) CloseReportModal() {
	s.update(func(next *Snapshot) { next.IsReportModalOpen = false })
}
