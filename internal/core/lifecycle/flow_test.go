package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"FindIt/internal/core/identity"
	"FindIt/internal/core/images"
	"FindIt/internal/core/posts"
	"FindIt/internal/core/state"
	"FindIt/internal/core/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memUsers is an in-memory users.UserRepository
type memUsers struct {
	mu       sync.Mutex
	profiles map[string]*users.User
}

func (m *memUsers) Create(ctx context.Context, user *users.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[user.UID]; ok {
		return users.ErrUserExists
	}
	stored := *user
	m.profiles[user.UID] = &stored
	return nil
}

func (m *memUsers) GetByUID(ctx context.Context, uid string) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.profiles[uid]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

// memPosts is an in-memory posts.Repository whose counters live in memUsers.
// failIncrements makes that many increments fail; incrementDelay slows each one.
type memPosts struct {
	mu             sync.Mutex
	posts          map[string]*posts.Post
	users          *memUsers
	clock          time.Time
	seq            int
	failIncrements atomic.Int32
	incrementDelay time.Duration
}

func newMemPosts(u *memUsers) *memPosts {
	return &memPosts{
		posts: make(map[string]*posts.Post),
		users: u,
		clock: time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC),
	}
}

func (m *memPosts) Create(ctx context.Context, post *posts.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.clock = m.clock.Add(time.Minute)
	post.ID = fmt.Sprintf("post-%d", m.seq)
	post.CreatedAt = m.clock
	stored := *post
	m.posts[post.ID] = &stored
	return nil
}

func (m *memPosts) GetByID(ctx context.Context, id string) (*posts.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, posts.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (m *memPosts) List(ctx context.Context) ([]*posts.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*posts.Post, 0, len(m.posts))
	for _, p := range m.posts {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memPosts) Update(ctx context.Context, id string, patch posts.PostPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return posts.ErrNotFound
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Contact != nil {
		p.Contact = *patch.Contact
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}
	now := m.clock.Add(time.Second)
	p.UpdatedAt = &now
	return nil
}

func (m *memPosts) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.posts, id)
	return nil
}

func (m *memPosts) IncrementUserCount(ctx context.Context, uid string, t posts.ItemType) error {
	if m.failIncrements.Add(-1) >= 0 {
		return errors.New("document store unavailable")
	}
	time.Sleep(m.incrementDelay)

	m.users.mu.Lock()
	defer m.users.mu.Unlock()
	u, ok := m.users.profiles[uid]
	if !ok {
		return posts.ErrUserNotFound
	}
	if t == posts.TypeFound {
		u.FoundItemCount++
	} else {
		u.LostItemCount++
	}
	return nil
}

// stubUploader hands back a Cloudinary-shaped URL for every upload
type stubUploader struct{}

func (stubUploader) Upload(ctx context.Context, file images.File) (*images.Upload, error) {
	return &images.Upload{
		URL:      "https://res.cloudinary.com/demo/image/upload/v1/findit-posts/" + file.Name,
		PublicID: "findit-posts/" + file.Name,
	}, nil
}

func (stubUploader) Discard(ctx context.Context, upload *images.Upload) error {
	return nil
}

type app struct {
	repo  *memPosts
	users users.UserService
	ctrl  *Controller
	feed  *state.Store
	ada   *identity.Identity
}

func newApp(t *testing.T) *app {
	t.Helper()
	ctx := context.Background()

	profiles := &memUsers{profiles: make(map[string]*users.User)}
	repo := newMemPosts(profiles)
	postService := posts.NewPostService(repo)
	userService := users.NewUserService(profiles, postService)

	a := &app{
		repo:  repo,
		users: userService,
		ctrl:  NewController(postService, stubUploader{}, userService),
		feed:  state.NewStore(postService),
		ada:   &identity.Identity{UID: "u1", Email: "ada@campus.edu"},
	}

	_, err := userService.Register(ctx, users.RegisterRequest{
		UID: "u1", Email: "ada@campus.edu", Name: "Ada", StudentID: "S-100",
	})
	require.NoError(t, err)

	// An older post by someone else
	_, err = postService.CreatePost(ctx, posts.NewPost{
		Type: posts.TypeFound, Title: "Umbrella", Description: "Black, by the library",
		ImageURL: "https://res.cloudinary.com/demo/image/upload/v1/findit-posts/umbrella.jpg", CreatorUID: "u2",
	})
	require.NoError(t, err)
	return a
}

func (a *app) reportWallet(t *testing.T) string {
	t.Helper()
	id, err := a.ctrl.Create(context.Background(), NewForm(), a.ada, CreateInput{
		Image:       &images.File{Name: "wallet.jpg", Data: []byte("jpeg-bytes")},
		Type:        posts.TypeLost,
		Title:       "Blue Wallet",
		Description: "Left in lecture hall B",
	}, a.feed)
	require.NoError(t, err)
	return id
}

func feedIDs(s *state.Store) []string {
	list := s.Snapshot().Posts
	ids := make([]string, len(list))
	for i, p := range list {
		ids[i] = p.ID
	}
	return ids
}

func TestFlow_CreateShowsFirstAndCounts(t *testing.T) {
	ctx := context.Background()
	a := newApp(t)

	before, err := a.users.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, before.LostItemCount)

	id := a.reportWallet(t)

	snap := a.feed.Snapshot()
	require.Len(t, snap.Posts, 2)
	assert.Equal(t, id, snap.Posts[0].ID)
	assert.Equal(t, "Blue Wallet", snap.Posts[0].Title)
	assert.Equal(t, "ada@campus.edu", snap.Posts[0].Contact)
	assert.False(t, snap.IsReportModalOpen)
	assert.False(t, snap.Loading)

	after, err := a.users.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, after.LostItemCount)
	assert.Equal(t, 0, after.FoundItemCount)
}

func TestFlow_DeleteLeavesCountersAlone(t *testing.T) {
	ctx := context.Background()
	a := newApp(t)
	id := a.reportWallet(t)

	require.NoError(t, a.ctrl.Delete(ctx, NewForm(), a.ada, id, true, a.feed))

	assert.NotContains(t, feedIDs(a.feed), id)
	profile, err := a.users.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, profile.LostItemCount)
}

func TestFlow_RefreshIsStable(t *testing.T) {
	ctx := context.Background()
	a := newApp(t)
	a.reportWallet(t)

	a.feed.RefreshPosts(ctx)
	first := a.feed.Snapshot().Posts
	a.feed.RefreshPosts(ctx)
	second := a.feed.Snapshot().Posts

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"post-2", "post-1"}, feedIDs(a.feed))
}

func TestFlow_DeferredIncrementAppliedOnceUnderConcurrentReads(t *testing.T) {
	ctx := context.Background()
	a := newApp(t)
	a.repo.failIncrements.Store(1)
	a.repo.incrementDelay = 50 * time.Millisecond

	a.reportWallet(t)
	require.Equal(t, []users.PendingIncrement{{Type: posts.TypeLost, Count: 1}}, a.users.PendingIncrements("u1"))

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.users.GetProfile(ctx, "u1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	profile, err := a.users.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, profile.LostItemCount)
	assert.Empty(t, a.users.PendingIncrements("u1"))
}
