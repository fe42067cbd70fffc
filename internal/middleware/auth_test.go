package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"inkpress/internal/identity"
	"inkpress/internal/models"
)

// stubProvider resolves tokens from a fixed map and counts calls.
type stubProvider struct {
	tokens map[string]*identity.Identity
	err    error
	calls  int
}

func (p *stubProvider) Resolve(_ context.Context, token string) (*identity.Identity, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	id, ok := p.tokens[token]
	if !ok {
		return nil, identity.ErrUnauthenticated
	}
	return id, nil
}

// stubUsers maps auth ids to users.
type stubUsers struct {
	users map[string]*models.User
	err   error
}

func (s *stubUsers) FindByAuthID(_ context.Context, authID string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.users[authID], nil
}

// okHandler is a simple handler that records whether it was invoked.
func okHandler() (http.Handler, *bool) {
	var called bool
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	return h, &called
}

func newCaller(canPublish, isAdmin bool) *Caller {
	return &Caller{
		Identity: &identity.Identity{ID: "auth-" + uuid.NewString()},
		User:     &models.User{ID: uuid.New(), CanPublish: canPublish, IsAdmin: isAdmin},
	}
}

func withBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// ---------- CallerFromCtx ----------

func TestCallerFromCtx(t *testing.T) {
	t.Run("returns caller when present", func(t *testing.T) {
		c := newCaller(false, true)
		got := CallerFromCtx(WithCaller(context.Background(), c))
		if got != c {
			t.Fatalf("got %+v, want %+v", got, c)
		}
		if UserFromCtx(WithCaller(context.Background(), c)) != c.User {
			t.Error("UserFromCtx should return the caller's user")
		}
	})

	t.Run("returns nil when not present", func(t *testing.T) {
		if got := CallerFromCtx(context.Background()); got != nil {
			t.Errorf("expected nil caller, got %+v", got)
		}
		if got := UserFromCtx(context.Background()); got != nil {
			t.Errorf("expected nil user, got %+v", got)
		}
	})

	t.Run("returns nil for wrong type in context", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), CallerKey, "not-a-caller")
		if got := CallerFromCtx(ctx); got != nil {
			t.Errorf("expected nil for wrong type, got %+v", got)
		}
	})
}

// ---------- Authenticate ----------

func TestAuthenticate(t *testing.T) {
	id := &identity.Identity{ID: "auth-1", Email: "a@example.com"}
	user := &models.User{ID: uuid.New(), AuthID: "auth-1", IsAdmin: true}

	run := func(p *stubProvider, users *stubUsers, req *http.Request) (*Caller, *httptest.ResponseRecorder) {
		var got *Caller
		h := Authenticate(p, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = CallerFromCtx(r.Context())
			w.WriteHeader(http.StatusOK)
		}))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return got, rr
	}

	t.Run("no token stays anonymous without calling provider", func(t *testing.T) {
		p := &stubProvider{}
		c, rr := run(p, &stubUsers{}, httptest.NewRequest(http.MethodGet, "/", nil))
		if c != nil || rr.Code != http.StatusOK {
			t.Errorf("caller=%+v status=%d", c, rr.Code)
		}
		if p.calls != 0 {
			t.Errorf("provider calls: got %d, want 0", p.calls)
		}
	})

	t.Run("valid token loads identity and user", func(t *testing.T) {
		p := &stubProvider{tokens: map[string]*identity.Identity{"good": id}}
		users := &stubUsers{users: map[string]*models.User{"auth-1": user}}
		c, _ := run(p, users, withBearer(httptest.NewRequest(http.MethodGet, "/", nil), "good"))
		if c == nil || c.Identity != id || c.User != user {
			t.Fatalf("caller: got %+v", c)
		}
	})

	t.Run("identity without local user", func(t *testing.T) {
		p := &stubProvider{tokens: map[string]*identity.Identity{"good": id}}
		c, _ := run(p, &stubUsers{}, withBearer(httptest.NewRequest(http.MethodGet, "/", nil), "good"))
		if c == nil || c.User != nil {
			t.Fatalf("caller: got %+v, want identity only", c)
		}
	})

	t.Run("resolves on every request", func(t *testing.T) {
		p := &stubProvider{tokens: map[string]*identity.Identity{"good": id}}
		users := &stubUsers{users: map[string]*models.User{"auth-1": user}}
		for i := 0; i < 3; i++ {
			run(p, users, withBearer(httptest.NewRequest(http.MethodGet, "/", nil), "good"))
		}
		if p.calls != 3 {
			t.Errorf("provider calls: got %d, want 3", p.calls)
		}
	})

	t.Run("bad token stays anonymous", func(t *testing.T) {
		p := &stubProvider{}
		c, rr := run(p, &stubUsers{}, withBearer(httptest.NewRequest(http.MethodGet, "/", nil), "bad"))
		if c != nil || rr.Code != http.StatusOK {
			t.Errorf("caller=%+v status=%d", c, rr.Code)
		}
	})

	t.Run("user lookup failure is 500", func(t *testing.T) {
		p := &stubProvider{tokens: map[string]*identity.Identity{"good": id}}
		_, rr := run(p, &stubUsers{err: errors.New("db down")}, withBearer(httptest.NewRequest(http.MethodGet, "/", nil), "good"))
		if rr.Code != http.StatusInternalServerError {
			t.Errorf("status: got %d, want 500", rr.Code)
		}
	})
}

// ---------- Require* ----------

func TestRequireGates(t *testing.T) {
	tests := []struct {
		name   string
		gate   func(http.Handler) http.Handler
		caller *Caller
		want   int
	}{
		{"identity anonymous", RequireIdentity, nil, http.StatusUnauthorized},
		{"identity without user", RequireIdentity, &Caller{Identity: &identity.Identity{ID: "x"}}, http.StatusOK},
		{"user anonymous", RequireUser, nil, http.StatusUnauthorized},
		{"user not synced", RequireUser, &Caller{Identity: &identity.Identity{ID: "x"}}, http.StatusForbidden},
		{"user plain", RequireUser, newCaller(false, false), http.StatusOK},
		{"publisher plain user", RequirePublisher, newCaller(false, false), http.StatusForbidden},
		{"publisher can publish", RequirePublisher, newCaller(true, false), http.StatusOK},
		{"publisher admin", RequirePublisher, newCaller(false, true), http.StatusOK},
		{"admin anonymous", RequireAdmin, nil, http.StatusUnauthorized},
		{"admin publisher", RequireAdmin, newCaller(true, false), http.StatusForbidden},
		{"admin admin", RequireAdmin, newCaller(false, true), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, called := okHandler()
			req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
			if tt.caller != nil {
				req = req.WithContext(WithCaller(req.Context(), tt.caller))
			}
			rr := httptest.NewRecorder()
			tt.gate(next).ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Errorf("status: got %d, want %d", rr.Code, tt.want)
			}
			if *called != (tt.want == http.StatusOK) {
				t.Errorf("next called: got %v", *called)
			}
		})
	}
}

func TestRequireProviderUnavailable(t *testing.T) {
	p := &stubProvider{err: identity.ErrUnavailable}
	next, called := okHandler()
	h := Authenticate(p, &stubUsers{})(RequireAdmin(next))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, withBearer(httptest.NewRequest(http.MethodGet, "/", nil), "tok"))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want 503", rr.Code)
	}
	if *called {
		t.Error("next should not be called")
	}
}
