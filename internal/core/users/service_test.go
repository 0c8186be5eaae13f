package users

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"FindIt/internal/core/posts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUID(ctx context.Context, uid string) (*User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

// MockIncrementer is a mock implementation of Incrementer
type MockIncrementer struct {
	mock.Mock
}

func (m *MockIncrementer) IncrementUserCount(ctx context.Context, uid string, t posts.ItemType) error {
	args := m.Called(ctx, uid, t)
	return args.Error(0)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("writes profile with zero counters", func(t *testing.T) {
		repo := new(MockUserRepository)
		service := NewUserService(repo, nil)

		repo.On("Create", ctx, mock.MatchedBy(func(u *User) bool {
			return u.UID == "u1" && u.Name == "Ada" && u.StudentID == "S-100" &&
				u.Email == "ada@campus.edu" && u.LostItemCount == 0 && u.FoundItemCount == 0
		})).Return(nil)

		user, err := service.Register(ctx, RegisterRequest{
			UID: "u1", Email: " ada@campus.edu ", Name: "Ada", StudentID: "S-100",
		})
		require.NoError(t, err)
		assert.Equal(t, "ada@campus.edu", user.Email)
		repo.AssertExpectations(t)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		repo := new(MockUserRepository)
		service := NewUserService(repo, nil)

		_, err := service.Register(ctx, RegisterRequest{UID: "u1", Email: "ada@campus.edu", Name: "Ada"})
		require.Error(t, err)
		assert.True(t, IsInvalidField(err))

		_, err = service.Register(ctx, RegisterRequest{UID: "u1", Email: "not-an-email", Name: "Ada", StudentID: "S"})
		assert.True(t, IsInvalidField(err))

		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("duplicate profile passes through", func(t *testing.T) {
		repo := new(MockUserRepository)
		service := NewUserService(repo, nil)

		repo.On("Create", ctx, mock.Anything).Return(ErrUserExists)

		_, err := service.Register(ctx, RegisterRequest{
			UID: "u1", Email: "ada@campus.edu", Name: "Ada", StudentID: "S-100",
		})
		assert.ErrorIs(t, err, ErrUserExists)
	})
}

func TestGetProfile_FlushesDeferredIncrements(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	inc := new(MockIncrementer)
	service := NewUserService(repo, inc)

	service.DeferIncrement("u1", posts.TypeLost)
	service.DeferIncrement("u1", posts.TypeLost)
	service.DeferIncrement("u1", posts.TypeFound)

	inc.On("IncrementUserCount", ctx, "u1", posts.TypeLost).Return(nil).Twice()
	inc.On("IncrementUserCount", ctx, "u1", posts.TypeFound).Return(nil).Once()
	repo.On("GetByUID", ctx, "u1").Return(&User{UID: "u1", LostItemCount: 2, FoundItemCount: 1}, nil)

	user, err := service.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, user.Count(posts.TypeLost))
	assert.Empty(t, service.PendingIncrements("u1"))
	inc.AssertExpectations(t)
}

func TestGetProfile_FailedFlushKeepsPending(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	inc := new(MockIncrementer)
	service := NewUserService(repo, inc)

	service.DeferIncrement("u1", posts.TypeFound)

	inc.On("IncrementUserCount", ctx, "u1", posts.TypeFound).Return(errors.New("unavailable"))
	repo.On("GetByUID", ctx, "u1").Return(&User{UID: "u1"}, nil)

	_, err := service.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []PendingIncrement{{Type: posts.TypeFound, Count: 1}}, service.PendingIncrements("u1"))
}

// slowIncrementer counts applied bumps and takes a while to apply each one
type slowIncrementer struct {
	delay   time.Duration
	applied atomic.Int32
}

func (s *slowIncrementer) IncrementUserCount(ctx context.Context, uid string, t posts.ItemType) error {
	time.Sleep(s.delay)
	s.applied.Add(1)
	return nil
}

func TestGetProfile_ConcurrentFlushAppliesOnce(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	inc := &slowIncrementer{delay: 50 * time.Millisecond}
	service := NewUserService(repo, inc)

	repo.On("GetByUID", ctx, "u1").Return(&User{UID: "u1"}, nil)
	service.DeferIncrement("u1", posts.TypeLost)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.GetProfile(ctx, "u1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), inc.applied.Load())
	assert.Empty(t, service.PendingIncrements("u1"))
}

func TestGetProfile_FailureRequeuesRemainder(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	inc := new(MockIncrementer)
	service := NewUserService(repo, inc)

	service.DeferIncrement("u1", posts.TypeLost)
	service.DeferIncrement("u1", posts.TypeLost)
	service.DeferIncrement("u1", posts.TypeFound)

	inc.On("IncrementUserCount", ctx, "u1", posts.TypeLost).Return(nil).Once()
	inc.On("IncrementUserCount", ctx, "u1", posts.TypeLost).Return(errors.New("unavailable")).Once()
	repo.On("GetByUID", ctx, "u1").Return(&User{UID: "u1", LostItemCount: 1}, nil)

	_, err := service.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []PendingIncrement{
		{Type: posts.TypeLost, Count: 1},
		{Type: posts.TypeFound, Count: 1},
	}, service.PendingIncrements("u1"))
	inc.AssertNotCalled(t, "IncrementUserCount", ctx, "u1", posts.TypeFound)
}

func TestValidateProfileFields(t *testing.T) {
	tests := []struct {
		name      string
		fullName  string
		studentID string
		email     string
		field     string
	}{
		{"valid", "Ada", "S-100", "ada@campus.edu", ""},
		{"blank name", "  ", "S-100", "ada@campus.edu", "name"},
		{"blank student id", "Ada", "", "ada@campus.edu", "studentId"},
		{"bad email", "Ada", "S-100", "ada", "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProfileFields(tt.fullName, tt.studentID, tt.email)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var fieldErr *InvalidFieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tt.field, fieldErr.Field)
		})
	}
}

func TestGetProfile_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	service := NewUserService(repo, nil)

	repo.On("GetByUID", ctx, "ghost").Return(nil, ErrUserNotFound)

	_, err := service.GetProfile(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeferIncrement_IgnoresInvalid(t *testing.T) {
	service := NewUserService(new(MockUserRepository), nil)

	service.DeferIncrement("", posts.TypeLost)
	service.DeferIncrement("u1", "other")

	assert.Empty(t, service.PendingIncrements("u1"))
	assert.Empty(t, service.PendingIncrements(""))
}
