package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"FindIt/internal/api/middleware"
	"FindIt/internal/core/identity"
	"FindIt/internal/core/posts"
	"FindIt/internal/core/session"
	"FindIt/internal/core/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProvider is a mock implementation of identity.Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) SignIn(ctx context.Context, email, password string) (*identity.Result, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Result), args.Error(1)
}

func (m *MockProvider) SignUp(ctx context.Context, email, password string) (*identity.Result, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Result), args.Error(1)
}

func (m *MockProvider) SendPasswordReset(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockProvider) Refresh(ctx context.Context, refreshToken string) (*identity.Result, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Result), args.Error(1)
}

// MockUserService is a mock implementation of users.UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, req users.RegisterRequest) (*users.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func (m *MockUserService) GetProfile(ctx context.Context, uid string) (*users.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func (m *MockUserService) DeferIncrement(uid string, t posts.ItemType) {
	m.Called(uid, t)
}

func (m *MockUserService) PendingIncrements(uid string) []users.PendingIncrement {
	args := m.Called(uid)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]users.PendingIncrement)
}

// fakeBinder publishes identities without a cookie store
type fakeBinder struct {
	err error
}

func (f *fakeBinder) SignIn(w http.ResponseWriter, r *http.Request, s *session.Session, result *identity.Result) error {
	if f.err != nil {
		return f.err
	}
	id := result.Identity
	s.Auth.Set(&id)
	return nil
}

func (f *fakeBinder) SignOut(w http.ResponseWriter, r *http.Request, s *session.Session) error {
	s.Auth.Clear()
	return nil
}

type webHarness struct {
	handlers *Handlers
	provider *MockProvider
	users    *MockUserService
	binder   *fakeBinder
	session  *session.Session
}

func newWebHarness(t *testing.T) *webHarness {
	t.Helper()
	templates, err := NewTemplates()
	require.NoError(t, err)
	registry, err := session.NewRegistry(10, nil)
	require.NoError(t, err)

	h := &webHarness{
		provider: new(MockProvider),
		users:    new(MockUserService),
		binder:   &fakeBinder{},
		session:  registry.Create(),
	}
	h.session.Auth.Clear()
	h.handlers = NewHandlers(templates, h.provider, h.binder, h.users)
	return h
}

func (h *webHarness) post(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req.WithContext(middleware.SetTestSession(req.Context(), h.session))
}

func signInResult(uid string) *identity.Result {
	return &identity.Result{
		Identity: identity.Identity{UID: uid, Email: uid + "@campus.edu"},
		Tokens:   identity.Tokens{IDToken: "id", RefreshToken: "ref"},
	}
}

func TestLoginSubmit_Success(t *testing.T) {
	h := newWebHarness(t)
	h.provider.On("SignIn", mock.Anything, "ada@campus.edu", "secret").Return(signInResult("u1"), nil)

	w := httptest.NewRecorder()
	h.handlers.LoginSubmitHandler(w, h.post("/login", url.Values{"email": {" ada@campus.edu "}, "password": {"secret"}}))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	require.NotNil(t, h.session.Identity())
	assert.Equal(t, "u1", h.session.Identity().UID)
}

func TestLoginSubmit_BadCredentials(t *testing.T) {
	h := newWebHarness(t)
	h.provider.On("SignIn", mock.Anything, "ada@campus.edu", "wrong").
		Return(nil, &identity.AuthError{Code: identity.CodeInvalidCredentials, StatusCode: 400})

	w := httptest.NewRecorder()
	h.handlers.LoginSubmitHandler(w, h.post("/login", url.Values{"email": {"ada@campus.edu"}, "password": {"wrong"}}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), MsgLoginFailed)
	assert.Nil(t, h.session.Identity())
}

func TestPasswordReset(t *testing.T) {
	t.Run("no email", func(t *testing.T) {
		h := newWebHarness(t)
		w := httptest.NewRecorder()
		h.handlers.PasswordResetHandler(w, h.post("/password-reset", url.Values{"email": {"  "}}))
		assert.Contains(t, w.Body.String(), MsgResetNoEmail)
		h.provider.AssertNotCalled(t, "SendPasswordReset", mock.Anything, mock.Anything)
	})

	t.Run("sent", func(t *testing.T) {
		h := newWebHarness(t)
		h.provider.On("SendPasswordReset", mock.Anything, "ada@campus.edu").Return(nil)
		w := httptest.NewRecorder()
		h.handlers.PasswordResetHandler(w, h.post("/password-reset", url.Values{"email": {"ada@campus.edu"}}))
		assert.Contains(t, w.Body.String(), MsgResetSent)
	})

	t.Run("failed", func(t *testing.T) {
		h := newWebHarness(t)
		h.provider.On("SendPasswordReset", mock.Anything, "nobody@campus.edu").
			Return(&identity.AuthError{Code: identity.CodeEmailNotFound})
		w := httptest.NewRecorder()
		h.handlers.PasswordResetHandler(w, h.post("/password-reset", url.Values{"email": {"nobody@campus.edu"}}))
		assert.Contains(t, w.Body.String(), MsgResetFailed)
	})
}

func TestRegisterSubmit_WritesProfileAndSignsIn(t *testing.T) {
	h := newWebHarness(t)
	h.provider.On("SignUp", mock.Anything, "u9@campus.edu", "pw123456").Return(signInResult("u9"), nil)
	h.users.On("Register", mock.Anything, users.RegisterRequest{
		UID: "u9", Email: "u9@campus.edu", Name: "Grace", StudentID: "S999",
	}).Return(&users.User{UID: "u9"}, nil)

	w := httptest.NewRecorder()
	h.handlers.RegisterSubmitHandler(w, h.post("/register", url.Values{
		"name": {"Grace"}, "studentId": {"S999"}, "email": {"u9@campus.edu"}, "password": {"pw123456"},
	}))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "u9", h.session.Identity().UID)
	h.users.AssertExpectations(t)
}

func TestRegisterSubmit_EmailInUse(t *testing.T) {
	h := newWebHarness(t)
	h.provider.On("SignUp", mock.Anything, "taken@campus.edu", "pw").
		Return(nil, &identity.AuthError{Code: identity.CodeEmailExists})

	w := httptest.NewRecorder()
	h.handlers.RegisterSubmitHandler(w, h.post("/register", url.Values{
		"name": {"Grace"}, "studentId": {"S999"}, "email": {"taken@campus.edu"}, "password": {"pw"},
	}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), MsgRegisterFailed)
	assert.Contains(t, w.Body.String(), "S999")
	h.users.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestRegisterSubmit_ProfileWriteFails(t *testing.T) {
	h := newWebHarness(t)
	h.provider.On("SignUp", mock.Anything, "u9@campus.edu", "pw").Return(signInResult("u9"), nil)
	h.users.On("Register", mock.Anything, mock.Anything).Return(nil, errors.New("store down"))

	w := httptest.NewRecorder()
	h.handlers.RegisterSubmitHandler(w, h.post("/register", url.Values{
		"name": {"Grace"}, "studentId": {"S1"}, "email": {"u9@campus.edu"}, "password": {"pw"},
	}))

	assert.Contains(t, w.Body.String(), MsgRegisterFailed)
	assert.Nil(t, h.session.Identity())
}

func TestRegisterSubmit_MissingFieldsSkipSignUp(t *testing.T) {
	cases := map[string]url.Values{
		"blank name":       {"name": {"  "}, "studentId": {"S999"}, "email": {"u9@campus.edu"}, "password": {"pw"}},
		"blank student id": {"name": {"Grace"}, "studentId": {""}, "email": {"u9@campus.edu"}, "password": {"pw"}},
		"bad email":        {"name": {"Grace"}, "studentId": {"S999"}, "email": {"grace"}, "password": {"pw"}},
	}

	for name, form := range cases {
		t.Run(name, func(t *testing.T) {
			h := newWebHarness(t)

			w := httptest.NewRecorder()
			h.handlers.RegisterSubmitHandler(w, h.post("/register", form))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), MsgRegisterFailed)
			h.provider.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything, mock.Anything)
			h.users.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
		})
	}
}

func TestLogout(t *testing.T) {
	h := newWebHarness(t)
	h.session.Auth.Set(&identity.Identity{UID: "u1"})

	w := httptest.NewRecorder()
	h.handlers.LogoutHandler(w, h.post("/logout", nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Nil(t, h.session.Identity())
}

func TestLoginPage_SignedInRedirects(t *testing.T) {
	h := newWebHarness(t)
	h.session.Auth.Set(&identity.Identity{UID: "u1"})

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req = req.WithContext(middleware.SetTestSession(req.Context(), h.session))
	w := httptest.NewRecorder()
	h.handlers.LoginPageHandler(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestProfileHandler(t *testing.T) {
	h := newWebHarness(t)
	actor := &identity.Identity{UID: "u1"}
	h.users.On("GetProfile", mock.Anything, "u1").Return(&users.User{UID: "u1", Name: "Ada", FoundItemCount: 4}, nil)
	h.users.On("PendingIncrements", "u1").Return(nil)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req = req.WithContext(middleware.SetTestIdentity(req.Context(), actor))
	w := httptest.NewRecorder()
	h.handlers.ProfileHandler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<strong>4</strong> Items Found")
}
