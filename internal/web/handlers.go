package web

import (
	"log"
	"log/slog"
	"net/http"
	"strings"

	"FindIt/internal/api/middleware"
	"FindIt/internal/core/identity"
	"FindIt/internal/core/lifecycle"
	"FindIt/internal/core/session"
	"FindIt/internal/core/state"
	"FindIt/internal/core/users"
)

// Page messages
const (
	MsgLoginFailed    = "Failed to log in. Please check your credentials."
	MsgRegisterFailed = "Failed to create an account. Email may already be in use."
	MsgResetNoEmail   = "Please enter your email address to reset your password."
	MsgResetSent      = "Password reset email sent! Please check your inbox."
	MsgResetFailed    = "Failed to send password reset email. Please check the email address."
)

// SessionBinder attaches sign-in results to the browser session.
// *middleware.SessionMiddleware satisfies it.
type SessionBinder interface {
	SignIn(w http.ResponseWriter, r *http.Request, s *session.Session, result *identity.Result) error
	SignOut(w http.ResponseWriter, r *http.Request, s *session.Session) error
}

// Handlers provides HTTP handlers for the FindIt pages.
type Handlers struct {
	templates   *Templates
	provider    identity.Provider
	sessions    SessionBinder
	userService users.UserService
}

// NewHandlers creates a new Handlers instance with the provided dependencies.
func NewHandlers(templates *Templates, provider identity.Provider, sessions SessionBinder, userService users.UserService) *Handlers {
	return &Handlers{
		templates:   templates,
		provider:    provider,
		sessions:    sessions,
		userService: userService,
	}
}

// LoginPageData holds data for the login template.
type LoginPageData struct {
	Title  string
	Email  string
	Error  string
	Notice string
}

// RegisterPageData holds data for the register template.
type RegisterPageData struct {
	Title     string
	Name      string
	StudentID string
	Email     string
	Error     string
}

// FeedPageData holds data for the feed template.
type FeedPageData struct {
	Identity   *identity.Identity
	Title      string
	State      state.Snapshot
	ReportForm lifecycle.FormStatus
}

// ProfilePageData holds data for the profile template.
type ProfilePageData struct {
	User    *users.User
	Title   string
	Pending []users.PendingIncrement
}

func (h *Handlers) render(w http.ResponseWriter, name string, data interface{}) {
	if err := h.templates.Render(w, name, data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// signedIn reports whether the request's session already has an identity
func signedIn(r *http.Request) bool {
	s := middleware.GetSession(r)
	return s != nil && s.Identity() != nil
}

// LoginPageHandler renders the login page
// GET /login
func (h *Handlers) LoginPageHandler(w http.ResponseWriter, r *http.Request) {
	if signedIn(r) {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.render(w, "login.html", LoginPageData{Title: "FindIt - Log In"})
}

// LoginSubmitHandler signs in with email and password
// POST /login
func (h *Handlers) LoginSubmitHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	data := LoginPageData{Title: "FindIt - Log In", Email: email}

	result, err := h.provider.SignIn(r.Context(), email, r.FormValue("password"))
	if err != nil {
		log.Printf("[AUTH_FAILURE] type=sign_in ip=%s error=%v", r.RemoteAddr, err)
		data.Error = MsgLoginFailed
		h.render(w, "login.html", data)
		return
	}

	if err := h.sessions.SignIn(w, r, middleware.GetSession(r), result); err != nil {
		log.Printf("[SESSION] Failed to bind sign-in for %s: %v", result.Identity.UID, err)
		data.Error = MsgLoginFailed
		h.render(w, "login.html", data)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// PasswordResetHandler sends a reset email for the address in the login form
// POST /password-reset
func (h *Handlers) PasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	data := LoginPageData{Title: "FindIt - Log In", Email: email}

	if email == "" {
		data.Error = MsgResetNoEmail
	} else if err := h.provider.SendPasswordReset(r.Context(), email); err != nil {
		log.Printf("[AUTH] Password reset failed: %v", err)
		data.Error = MsgResetFailed
	} else {
		data.Notice = MsgResetSent
	}

	h.render(w, "login.html", data)
}

// RegisterPageHandler renders the registration page
// GET /register
func (h *Handlers) RegisterPageHandler(w http.ResponseWriter, r *http.Request) {
	if signedIn(r) {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.render(w, "register.html", RegisterPageData{Title: "FindIt - Sign Up"})
}

// RegisterSubmitHandler creates the identity, writes the profile and signs in
// POST /register
func (h *Handlers) RegisterSubmitHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	data := RegisterPageData{
		Title:     "FindIt - Sign Up",
		Name:      strings.TrimSpace(r.FormValue("name")),
		StudentID: strings.TrimSpace(r.FormValue("studentId")),
		Email:     strings.TrimSpace(r.FormValue("email")),
	}

	if err := users.ValidateProfileFields(data.Name, data.StudentID, data.Email); err != nil {
		log.Printf("[USER-REGISTER] Rejected profile fields before sign-up: %v", err)
		data.Error = MsgRegisterFailed
		h.render(w, "register.html", data)
		return
	}

	result, err := h.provider.SignUp(r.Context(), data.Email, r.FormValue("password"))
	if err != nil {
		if identity.HasCode(err, identity.CodeEmailExists) {
			log.Printf("[USER-REGISTER] Sign-up rejected: email already registered")
		} else {
			log.Printf("[USER-REGISTER] Sign-up failed: %v", err)
		}
		data.Error = MsgRegisterFailed
		h.render(w, "register.html", data)
		return
	}

	// The identity exists from here on; a failed profile write leaves it without one
	if _, err := h.userService.Register(r.Context(), users.RegisterRequest{
		UID:       result.Identity.UID,
		Email:     result.Identity.Email,
		Name:      data.Name,
		StudentID: data.StudentID,
	}); err != nil {
		if users.IsInvalidField(err) {
			log.Printf("[USER-REGISTER] Rejected profile fields for %s: %v", result.Identity.UID, err)
		} else {
			log.Printf("[USER-REGISTER] Profile write failed for %s: %v", result.Identity.UID, err)
		}
		data.Error = MsgRegisterFailed
		h.render(w, "register.html", data)
		return
	}

	if err := h.sessions.SignIn(w, r, middleware.GetSession(r), result); err != nil {
		log.Printf("[SESSION] Failed to bind sign-in for %s: %v", result.Identity.UID, err)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// LogoutHandler signs out locally and returns to the login page
// POST /logout
func (h *Handlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if s := middleware.GetSession(r); s != nil {
		if err := h.sessions.SignOut(w, r, s); err != nil {
			slog.Warn("failed to clear session cookie on logout", "error", err)
		}
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// FeedHandler renders the item feed. Requires an identity.
// GET /
func (h *Handlers) FeedHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s := middleware.GetSession(r)
	s.State.FetchPosts(r.Context())

	h.render(w, "feed.html", FeedPageData{
		Title:      "FindIt",
		Identity:   middleware.GetIdentity(r),
		State:      s.State.Snapshot(),
		ReportForm: s.ReportForm().Status(),
	})
}

// ProfileHandler renders the profile card. Requires an identity.
// GET /profile
func (h *Handlers) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r)
	data := ProfilePageData{Title: "FindIt - Profile"}

	user, err := h.userService.GetProfile(r.Context(), actor.UID)
	if err != nil {
		slog.Warn("failed to load profile", "uid", actor.UID, "error", err)
	} else {
		data.User = user
		data.Pending = h.userService.PendingIncrements(actor.UID)
	}

	h.render(w, "profile.html", data)
}
