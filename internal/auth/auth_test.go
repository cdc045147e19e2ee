package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/minpen/minpen/internal/store"
)

type memUsers struct {
	byID map[string]store.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[string]store.User)}
}

func (m *memUsers) CreateUser(_ context.Context, p store.CreateUserParams) (store.User, error) {
	for _, u := range m.byID {
		if u.Email == p.Email {
			return store.User{}, store.ErrConflict
		}
	}
	u := store.User{ID: p.ID, Email: p.Email, Password: p.Password, DisplayName: p.DisplayName}
	m.byID[u.ID] = u
	return u, nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return store.User{}, store.ErrNotFound
}

func (m *memUsers) GetUserByID(_ context.Context, id string) (store.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

func newTestService() *Service {
	s := NewService(newMemUsers(), "test-secret")
	s.bcryptCost = bcrypt.MinCost
	return s
}

func TestRegisterLoginValidate(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	reg, err := s.Register(ctx, "ada@example.com", "password1", "Ada")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(reg.User.ID, "user_") {
		t.Errorf("user id = %q", reg.User.ID)
	}

	if _, err := s.Register(ctx, "ada@example.com", "password2", "Ada2"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate register err = %v", err)
	}

	login, err := s.Login(ctx, "ada@example.com", "password1")
	if err != nil {
		t.Fatal(err)
	}
	uid, err := s.ValidateToken(login.Token)
	if err != nil {
		t.Fatal(err)
	}
	if uid != reg.User.ID {
		t.Errorf("token subject = %q, want %q", uid, reg.User.ID)
	}

	if _, err := s.Login(ctx, "ada@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("bad password err = %v", err)
	}
	if _, err := s.Login(ctx, "nobody@example.com", "password1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v", err)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	s := newTestService()
	reg, err := s.Register(context.Background(), "b@example.com", "password1", "B")
	if err != nil {
		t.Fatal(err)
	}

	other := NewService(newMemUsers(), "other-secret")
	if _, err := other.ValidateToken(reg.Token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign secret err = %v", err)
	}

	s.now = func() time.Time { return time.Now().Add(tokenTTL + time.Hour) }
	if _, err := s.ValidateToken(reg.Token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token err = %v", err)
	}

	if _, err := s.ValidateToken("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage err = %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	s := newTestService()
	reg, err := s.Register(context.Background(), "c@example.com", "password1", "C")
	if err != nil {
		t.Fatal(err)
	}

	var seen string
	h := s.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"ok", "Bearer " + reg.Token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
	if seen != reg.User.ID {
		t.Errorf("context user = %q", seen)
	}
}

func TestTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws?token=q", nil)
	if got := TokenFromRequest(req); got != "q" {
		t.Errorf("query token = %q", got)
	}
	req.Header.Set("Authorization", "Bearer h")
	if got := TokenFromRequest(req); got != "h" {
		t.Errorf("header token = %q", got)
	}
}

func TestHandlers(t *testing.T) {
	s := newTestService()
	h := NewHandler(s)

	post := func(fn http.HandlerFunc, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		rec := httptest.NewRecorder()
		fn(rec, req)
		return rec
	}

	if rec := post(h.Register, `{"email":"d@example.com","password":"short","displayName":"D"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("short password status = %d", rec.Code)
	}
	rec := post(h.Register, `{"email":"d@example.com","password":"password1","displayName":"D"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", rec.Code, rec.Body)
	}
	if rec := post(h.Register, `{"email":"d@example.com","password":"password1","displayName":"D"}`); rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d", rec.Code)
	}
	if rec := post(h.Login, `{"email":"d@example.com","password":"bad-password"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login status = %d", rec.Code)
	}

	rec = post(h.Login, `{"email":"d@example.com","password":"password1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}
	var res AuthResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req = req.WithContext(WithUserID(req.Context(), res.User.ID))
	rec = httptest.NewRecorder()
	h.Me(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "d@example.com") {
		t.Errorf("me = %d %s", rec.Code, rec.Body)
	}
}

func TestCredentialValidation(t *testing.T) {
	tests := []struct {
		name     string
		c        credentials
		register bool
		wantErr  bool
	}{
		{"login ok", credentials{Email: "a@b.c", Password: "x"}, false, false},
		{"login missing password", credentials{Email: "a@b.c"}, false, true},
		{"register ok", credentials{Email: " a@b.c ", Password: "password1", DisplayName: "A"}, true, false},
		{"register no name", credentials{Email: "a@b.c", Password: "password1"}, true, true},
		{"register short password", credentials{Email: "a@b.c", Password: "short", DisplayName: "A"}, true, true},
		{"register bad email", credentials{Email: "not-an-email", Password: "password1", DisplayName: "A"}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.c.validate(tt.register)
			if (msg != "") != tt.wantErr {
				t.Errorf("validate = %q, wantErr %v", msg, tt.wantErr)
			}
		})
	}
}
