package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v1"
	"google.golang.org/api/option"
)

const (
	// DefaultAPIBase serves the accounts:* endpoints
	DefaultAPIBase = "https://identitytoolkit.googleapis.com"

	// DefaultTokenBase serves the refresh token exchange
	DefaultTokenBase = "https://securetoken.googleapis.com"
)

// ClientConfig configures the identity provider client.
// HTTPClient is only used for the secure token exchange.
type ClientConfig struct {
	HTTPClient *http.Client
	APIKey     string
	APIBase    string
	TokenBase  string
}

// Client signs users in through the Identity Toolkit API
type Client struct {
	accounts   *identitytoolkit.AccountsService
	httpClient *http.Client
	now        func() time.Time
	apiKey     string
	tokenBase  string
}

// NewClient creates a new auth provider client
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("auth API key is required")
	}

	apiBase := strings.TrimSuffix(cfg.APIBase, "/")
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	svc, err := identitytoolkit.NewService(ctx,
		option.WithAPIKey(cfg.APIKey),
		option.WithEndpoint(apiBase+"/"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity toolkit service: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 15 * time.Second,
		}
	}
	tokenBase := strings.TrimSuffix(cfg.TokenBase, "/")
	if tokenBase == "" {
		tokenBase = DefaultTokenBase
	}

	return &Client{
		accounts:   svc.Accounts,
		httpClient: httpClient,
		now:        time.Now,
		apiKey:     cfg.APIKey,
		tokenBase:  tokenBase,
	}, nil
}

func (c *Client) result(uid, email, displayName, idToken, refreshToken string, expiresIn int64) *Result {
	return &Result{
		Identity: Identity{
			UID:         uid,
			Email:       email,
			DisplayName: displayName,
		},
		Tokens: Tokens{
			IDToken:      idToken,
			RefreshToken: refreshToken,
			ExpiresAt:    expiry(c.now(), expiresIn),
		},
	}
}

// SignIn authenticates with email and password
func (c *Client) SignIn(ctx context.Context, email, password string) (*Result, error) {
	resp, err := c.accounts.SignInWithPassword(&identitytoolkit.GoogleCloudIdentitytoolkitV1SignInWithPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, toAuthError(err)
	}
	return c.result(resp.LocalId, resp.Email, resp.DisplayName, resp.IdToken, resp.RefreshToken, resp.ExpiresIn), nil
}

// SignUp creates a new email/password account and signs it in
func (c *Client) SignUp(ctx context.Context, email, password string) (*Result, error) {
	resp, err := c.accounts.SignUp(&identitytoolkit.GoogleCloudIdentitytoolkitV1SignUpRequest{
		Email:    email,
		Password: password,
	}).Context(ctx).Do()
	if err != nil {
		return nil, toAuthError(err)
	}

	log.Printf("[AUTH] Created account %s", resp.LocalId)
	return c.result(resp.LocalId, resp.Email, resp.DisplayName, resp.IdToken, resp.RefreshToken, resp.ExpiresIn), nil
}

// SendPasswordReset asks the provider to email a reset link
func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	_, err := c.accounts.SendOobCode(&identitytoolkit.GoogleCloudIdentitytoolkitV1GetOobCodeRequest{
		RequestType: "PASSWORD_RESET",
		Email:       email,
	}).Context(ctx).Do()
	if err != nil {
		return toAuthError(err)
	}
	return nil
}

// Refresh exchanges a refresh token at the secure token endpoint
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Result, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	endpoint := c.tokenBase + "/v1/token?key=" + url.QueryEscape(c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
		UserID       string `json:"user_id"`
	}
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}

	secs, _ := strconv.ParseInt(resp.ExpiresIn, 10, 64)
	return c.result(resp.UserID, "", "", resp.IDToken, resp.RefreshToken, secs), nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &AuthError{Code: "NETWORK_ERROR", Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Printf("Warning: failed to close auth response body: %v", closeErr)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &AuthError{Code: "NETWORK_ERROR", StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		var env struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(body, &env)
		return codedError(resp.StatusCode, env.Error.Message, nil)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode auth response: %w", err)
	}
	return nil
}

// toAuthError maps a generated-client failure onto AuthError.
// The provider puts "CODE : detail" in the error message.
func toAuthError(err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return codedError(gErr.Code, gErr.Message, err)
	}
	return &AuthError{Code: "NETWORK_ERROR", Err: err}
}

func codedError(status int, message string, cause error) *AuthError {
	if message == "" {
		return &AuthError{Code: "UNKNOWN", StatusCode: status, Err: cause}
	}
	code, detail, _ := strings.Cut(message, ":")
	return &AuthError{
		Code:       strings.TrimSpace(code),
		Detail:     strings.TrimSpace(detail),
		StatusCode: status,
		Err:        cause,
	}
}

func expiry(now time.Time, secs int64) time.Time {
	if secs <= 0 {
		return time.Time{}
	}
	return now.Add(time.Duration(secs) * time.Second)
}
