// Package session holds the signed-in user's identity on top of the API
// client: bootstrap from the refresh cookie, login, logout, registration and
// profile calls.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/planmarket/planmarket/internal/apiclient"
	"github.com/planmarket/planmarket/internal/logging"
)

const (
	RoleCustomer = "customer"
	RoleDesigner = "designer"
	RoleAdmin    = "admin"
)

var (
	ErrNotSignedIn  = errors.New("not signed in")
	ErrInvalidToken = errors.New("access token could not be decoded")
)

// User is the display-only projection of the access token claims.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Claims is the typed form of the access token payload, used when minting
// tokens. Decoding reads a MapClaims instead so numeric ids still decode.
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type EventType int

const (
	EventSignedIn EventType = iota
	EventSignedOut
	EventTokenRefreshed
)

type Event struct {
	Type EventType
	User *User
}

// Manager is the single writer of session state.
type Manager struct {
	client *apiclient.Client

	mu        sync.RWMutex
	user      *User
	listeners map[int]func(Event)
	nextID    int
}

func NewManager(client *apiclient.Client) *Manager {
	m := &Manager{
		client:    client,
		listeners: make(map[int]func(Event)),
	}
	client.OnTokenRefreshed(m.onTokenRefreshed)
	return m
}

// DecodeToken reads the claims of an access token without verifying its
// signature. The result is for display only.
func DecodeToken(token string) (*User, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	user := &User{
		ID:    claimString(claims, "user_id"),
		Email: claimString(claims, "email"),
		Role:  claimString(claims, "role"),
	}
	if user.ID == "" {
		user.ID = claimString(claims, "sub")
	}
	return user, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// CurrentUser returns the signed-in user, if any.
func (m *Manager) CurrentUser() (*User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil, false
	}
	u := *m.user
	return &u, true
}

// Subscribe registers fn for session events. The returned func unsubscribes.
func (m *Manager) Subscribe(fn func(Event)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

func (m *Manager) emit(ev Event) {
	m.mu.RLock()
	fns := make([]func(Event), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// setToken stores a token the backend issued. The claims are display-only,
// so an undecodable token is kept with an empty User.
func (m *Manager) setToken(token string) *User {
	m.client.SetToken(token)
	user := m.displayUser(token)
	m.mu.Lock()
	m.user = user
	m.mu.Unlock()
	return user
}

func (m *Manager) displayUser(token string) *User {
	user, err := DecodeToken(token)
	if err != nil {
		m.client.Logger().Sugar().Warnw("access token claims could not be decoded", "error", err)
		return &User{}
	}
	return user
}

func (m *Manager) onTokenRefreshed(token string) {
	user := m.displayUser(token)
	m.mu.Lock()
	m.user = user
	m.mu.Unlock()
	m.emit(Event{Type: EventTokenRefreshed, User: user})
}

// Bootstrap restores a session from the refresh cookie. A failed refresh
// leaves the session anonymous and is not an error.
func (m *Manager) Bootstrap(ctx context.Context) (*User, error) {
	logger := logging.NewLogger(ctx, m.client.Logger())

	token, err := m.client.Refresh(ctx)
	if err != nil {
		m.client.ClearToken()
		if apiclient.IsNetwork(err) {
			return nil, err
		}
		logger.LogInfof("bootstrap", "no session to restore: %v", err)
		return nil, nil
	}

	user := m.setToken(token)
	m.emit(Event{Type: EventSignedIn, User: user})
	return user, nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	apiclient.TokenResponse
	Message string `json:"message"`
}

// Login exchanges credentials for an access token. A 403 for an unverified
// email is returned as is; check it with apiclient.IsEmailUnverified.
func (m *Manager) Login(ctx context.Context, email, password string) (*User, error) {
	var resp loginResponse
	err := m.client.DoJSON(ctx, jsonRequest(http.MethodPost, "/login", LoginRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
	}), &resp)
	if err != nil {
		return nil, err
	}
	if resp.Value() == "" {
		return nil, apiclient.ErrNoToken
	}

	user := m.setToken(resp.Value())
	m.emit(Event{Type: EventSignedIn, User: user})
	return user, nil
}

// Logout clears local state first, then tells the backend. Server errors
// are logged and dropped.
func (m *Manager) Logout(ctx context.Context) {
	m.client.ClearToken()
	m.mu.Lock()
	m.user = nil
	m.mu.Unlock()
	m.emit(Event{Type: EventSignedOut})

	req := &apiclient.Request{Method: http.MethodPost, Path: "/auth/logout", SkipAuthRetry: true}
	if err := m.client.DoJSON(ctx, req, nil); err != nil {
		logging.NewLogger(ctx, m.client.Logger()).LogWarnf("logout", "server logout failed: %v", err)
	}
}

type Registration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`

	// Designer-only fields.
	CompanyName     string   `json:"company_name,omitempty"`
	LicenseNumber   string   `json:"license_number,omitempty"`
	Specializations []string `json:"specializations,omitempty"`
	YearsExperience int      `json:"years_experience,omitempty"`
	PortfolioURL    string   `json:"portfolio_url,omitempty"`
}

type RegistrationResult struct {
	Message string       `json:"message"`
	UserID  apiclient.ID `json:"user_id"`
}

func (m *Manager) RegisterCustomer(ctx context.Context, reg Registration) (*RegistrationResult, error) {
	return m.register(ctx, "/register/customer", reg)
}

func (m *Manager) RegisterDesigner(ctx context.Context, reg Registration) (*RegistrationResult, error) {
	if strings.TrimSpace(reg.CompanyName) == "" && strings.TrimSpace(reg.LicenseNumber) == "" {
		return nil, errors.New("designer registration needs a company name or license number")
	}
	return m.register(ctx, "/register/designer", reg)
}

func (m *Manager) register(ctx context.Context, path string, reg Registration) (*RegistrationResult, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	if reg.Email == "" || reg.Password == "" {
		return nil, errors.New("email and password are required")
	}
	var out RegistrationResult
	if err := m.client.DoJSON(ctx, jsonRequest(http.MethodPost, path, reg), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *Manager) ResendVerification(ctx context.Context, email string) error {
	return m.client.DoJSON(ctx, jsonRequest(http.MethodPost, "/auth/resend-verification", map[string]string{"email": email}), nil)
}

func (m *Manager) VerifyEmail(ctx context.Context, token string) error {
	return m.client.DoJSON(ctx, &apiclient.Request{Method: http.MethodGet, Path: "/auth/verify-email/" + url.PathEscape(token), SkipAuthRetry: true}, nil)
}

func (m *Manager) ForgotPassword(ctx context.Context, email string) error {
	return m.client.DoJSON(ctx, jsonRequest(http.MethodPost, "/auth/forgot-password", map[string]string{"email": email}), nil)
}

func (m *Manager) ResetPassword(ctx context.Context, token, newPassword string) error {
	return m.client.DoJSON(ctx, jsonRequest(http.MethodPost, "/auth/reset-password", map[string]string{
		"token":    token,
		"password": newPassword,
	}), nil)
}

// Profile is the richer record served by /me.
type Profile struct {
	ID          apiclient.ID `json:"id"`
	Email       string       `json:"email"`
	Role        string       `json:"role"`
	FirstName   string       `json:"first_name"`
	LastName    string       `json:"last_name"`
	Phone       string       `json:"phone,omitempty"`
	AvatarURL   string       `json:"avatar_url,omitempty"`
	CompanyName string       `json:"company_name,omitempty"`
	IsVerified  bool         `json:"is_verified"`
	IsActive    bool         `json:"is_active"`
	CreatedAt   string       `json:"created_at,omitempty"`
}

type ProfileUpdate struct {
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	CompanyName *string `json:"company_name,omitempty"`
}

func (m *Manager) Me(ctx context.Context) (*Profile, error) {
	if m.client.Token() == "" {
		return nil, ErrNotSignedIn
	}
	var p Profile
	if err := m.client.GetJSON(ctx, "/me", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (m *Manager) UpdateProfile(ctx context.Context, upd ProfileUpdate) (*Profile, error) {
	var p Profile
	if err := m.client.PutJSON(ctx, "/me", upd, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UploadAvatar sends one image as multipart field "avatar".
func (m *Manager) UploadAvatar(ctx context.Context, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("avatar", filename)
	if err != nil {
		return "", fmt.Errorf("create avatar part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("copy avatar: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	var out struct {
		AvatarURL string `json:"avatar_url"`
	}
	if err := m.client.PostMultipart(ctx, "/me/avatar", buf.Bytes(), mw.FormDataContentType(), &out); err != nil {
		return "", err
	}
	return out.AvatarURL, nil
}

func jsonRequest(method, path string, body any) *apiclient.Request {
	data, _ := json.Marshal(body)
	return &apiclient.Request{
		Method:        method,
		Path:          path,
		Body:          data,
		ContentType:   "application/json",
		SkipAuthRetry: true,
	}
}
