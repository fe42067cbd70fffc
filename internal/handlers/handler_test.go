// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Handlers are exercised through a chi router against in-memory fakes.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"inkpress/internal/identity"
	"inkpress/internal/middleware"
	"inkpress/internal/models"
	"inkpress/internal/store"
)

// serve routes req through a router that mounts h at method+pattern, so
// URL parameters resolve the way they do in production.
func serve(t *testing.T, method, pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Method(method, pattern, h)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// jsonRequest builds a request with a JSON body.
func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// asUser attaches a caller with the given local user to req.
func asUser(req *http.Request, u *models.User) *http.Request {
	c := &middleware.Caller{Identity: &identity.Identity{ID: "auth-" + u.ID.String(), Email: u.Email}}
	c.User = u
	return req.WithContext(middleware.WithCaller(req.Context(), c))
}

// asIdentity attaches a caller that has not synced a local user yet.
func asIdentity(req *http.Request, id *identity.Identity) *http.Request {
	return req.WithContext(middleware.WithCaller(req.Context(), &middleware.Caller{Identity: id}))
}

func testUser(canPublish, isAdmin bool) *models.User {
	return &models.User{
		ID:         uuid.New(),
		AuthID:     "auth-" + uuid.NewString(),
		Email:      "user@handler-test.local",
		Name:       "Test User",
		CanPublish: canPublish,
		IsAdmin:    isAdmin,
	}
}

// decodeBody decodes the JSON response body into v.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}

// errorBody returns the "error" field of a JSON error response.
func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decodeBody(t, rec, &body)
	return body["error"]
}

// --- fakes ---

// fakePosts is an in-memory PostStore.
type fakePosts struct {
	mu         sync.Mutex
	posts      map[uuid.UUID]*models.Post
	lastFilter models.PostFilter
	lastWasPub *bool
	err        error
}

func newFakePosts(posts ...*models.Post) *fakePosts {
	f := &fakePosts{posts: map[uuid.UUID]*models.Post{}}
	for _, p := range posts {
		f.posts[p.ID] = p
	}
	return f
}

func (f *fakePosts) Create(_ context.Context, d *models.PostDraft) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p := &models.Post{
		ID: uuid.New(), Title: d.Title, Slug: d.Slug, Content: d.Content,
		Excerpt: d.Excerpt, CoverImage: d.CoverImage, Published: d.Published,
		AuthorID: d.AuthorID, CreatedAt: time.Now(),
		Tags: []models.Tag{}, Categories: []models.Category{},
	}
	f.posts[p.ID] = p
	return p, nil
}

func (f *fakePosts) Update(_ context.Context, id uuid.UUID, d *models.PostDraft, wasPublished *bool) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastWasPub = wasPublished
	p, ok := f.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p.Title, p.Content, p.Published = d.Title, d.Content, d.Published
	return p, nil
}

func (f *fakePosts) TogglePublish(_ context.Context, id uuid.UUID, expected bool) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if p.Published != expected {
		return nil, store.ErrConflict
	}
	p.Published = !expected
	return p, nil
}

func (f *fakePosts) SoftDelete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.posts, id)
	return nil
}

func (f *fakePosts) FindByID(_ context.Context, id uuid.UUID, includeDrafts bool) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok || (!p.Published && !includeDrafts) {
		return nil, nil
	}
	return p, nil
}

func (f *fakePosts) List(_ context.Context, filter models.PostFilter) ([]models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	out := []models.Post{}
	for _, p := range f.posts {
		out = append(out, *p)
	}
	return out, nil
}

// fakeUsers is an in-memory user store for the admin and sync handlers.
type fakeUsers struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*models.User
	lastSync store.NewUser
	lastFlag models.UserFlags
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{users: map[uuid.UUID]*models.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) List(_ context.Context) ([]models.UserSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.UserSummary{}
	for _, u := range f.users {
		out = append(out, models.UserSummary{User: *u})
	}
	return out, nil
}

func (f *fakeUsers) UpdateFlags(_ context.Context, id uuid.UUID, flags models.UserFlags) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFlag = flags
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if flags.CanPublish != nil {
		u.CanPublish = *flags.CanPublish
	}
	if flags.IsAdmin != nil {
		u.IsAdmin = *flags.IsAdmin
	}
	return u, nil
}

func (f *fakeUsers) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUsers) Sync(_ context.Context, nu store.NewUser) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSync = nu
	for _, u := range f.users {
		if u.AuthID == nu.AuthID {
			u.Email = nu.Email
			return u, nil
		}
	}
	now := time.Now()
	u := &models.User{
		ID: uuid.New(), AuthID: nu.AuthID, Email: nu.Email, Name: nu.Name, Avatar: nu.Avatar,
		CanPublish: nu.CanPublish, IsAdmin: nu.IsAdmin, CreatedAt: now, UpdatedAt: now,
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id uuid.UUID, p models.ProfilePatch) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Bio != nil {
		u.Bio = p.Bio
	}
	if p.Avatar != nil {
		u.Avatar = p.Avatar
	}
	return u, nil
}

func boolPtr(b bool) *bool { return &b }
