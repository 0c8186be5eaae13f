package users

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"sync"

	"FindIt/internal/core/posts"
)

type userService struct {
	userRepo    UserRepository
	incrementer Incrementer

	mu      sync.Mutex
	pending map[string]map[posts.ItemType]int
}

// NewUserService creates a new user service.
// incrementer may be nil, in which case deferred increments are held until one is provided.
func NewUserService(userRepo UserRepository, incrementer Incrementer) UserService {
	return &userService{
		userRepo:    userRepo,
		incrementer: incrementer,
		pending:     make(map[string]map[posts.ItemType]int),
	}
}

// Register writes the profile for a newly created identity
func (s *userService) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	req.UID = strings.TrimSpace(req.UID)
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.StudentID = strings.TrimSpace(req.StudentID)

	if err := validateRegisterRequest(req); err != nil {
		return nil, err
	}

	user := &User{
		UID:       req.UID,
		Name:      req.Name,
		StudentID: req.StudentID,
		Email:     req.Email,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user profile: %w", err)
	}

	log.Printf("[USER-REGISTER] Created profile for %s", user.UID)
	return user, nil
}

// GetProfile reads the profile after applying any deferred increments
func (s *userService) GetProfile(ctx context.Context, uid string) (*User, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, &InvalidFieldError{Field: "uid", Reason: "required"}
	}

	s.flush(ctx, uid)

	user, err := s.userRepo.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}
	return user, nil
}

// DeferIncrement queues a counter bump for uid
func (s *userService) DeferIncrement(uid string, t posts.ItemType) {
	if uid == "" || !t.Valid() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byType, ok := s.pending[uid]
	if !ok {
		byType = make(map[posts.ItemType]int)
		s.pending[uid] = byType
	}
	byType[t]++
	log.Printf("[USER-COUNTER] Deferred %s increment for %s (pending=%d)", t, uid, byType[t])
}

// PendingIncrements returns the queued bumps for uid, lost before found
func (s *userService) PendingIncrements(uid string) []PendingIncrement {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PendingIncrement, 0, len(s.pending[uid]))
	for t, n := range s.pending[uid] {
		out = append(out, PendingIncrement{Type: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type > out[j].Type })
	return out
}

// flush applies queued bumps one at a time. Bumps are claimed under the
// lock so concurrent flushes never apply the same one twice. Whatever is
// left after a failure goes back on the queue.
func (s *userService) flush(ctx context.Context, uid string) {
	if s.incrementer == nil {
		return
	}

	claimed := s.take(uid)
	for i, p := range claimed {
		for n := 0; n < p.Count; n++ {
			if err := s.incrementer.IncrementUserCount(ctx, uid, p.Type); err != nil {
				slog.Warn("deferred counter increment failed",
					"uid", uid, "type", p.Type, "error", err)
				rest := append([]PendingIncrement{{Type: p.Type, Count: p.Count - n}}, claimed[i+1:]...)
				s.restore(uid, rest)
				return
			}
		}
	}
}

func (s *userService) take(uid string) []PendingIncrement {
	s.mu.Lock()
	defer s.mu.Unlock()

	byType := s.pending[uid]
	delete(s.pending, uid)

	out := make([]PendingIncrement, 0, len(byType))
	for t, n := range byType {
		out = append(out, PendingIncrement{Type: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type > out[j].Type })
	return out
}

func (s *userService) restore(uid string, items []PendingIncrement) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byType, ok := s.pending[uid]
	if !ok {
		byType = make(map[posts.ItemType]int)
		s.pending[uid] = byType
	}
	for _, p := range items {
		byType[p.Type] += p.Count
	}
}

// ValidateProfileFields checks the fields a new profile needs before any
// account is created for it
func ValidateProfileFields(name, studentID, email string) error {
	if strings.TrimSpace(name) == "" {
		return &InvalidFieldError{Field: "name", Reason: "required"}
	}
	if strings.TrimSpace(studentID) == "" {
		return &InvalidFieldError{Field: "studentId", Reason: "required"}
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		return &InvalidFieldError{Field: "email", Reason: "not a valid address"}
	}
	return nil
}

func validateRegisterRequest(req RegisterRequest) error {
	if req.UID == "" {
		return &InvalidFieldError{Field: "uid", Reason: "required"}
	}
	return ValidateProfileFields(req.Name, req.StudentID, req.Email)
}
