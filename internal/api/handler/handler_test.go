package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"mjmgmt/internal/api"
	"mjmgmt/internal/api/handler"
	"mjmgmt/internal/app/service"
	"mjmgmt/internal/common"
	"mjmgmt/internal/common/security"
	"mjmgmt/internal/domain/model"
	"mjmgmt/internal/platform/storage"

	"github.com/stretchr/testify/require"
)

// In-memory fakes backing the full router under test.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return fmt.Errorf("user with this email already exists: %w", common.ErrConflict)
		}
	}
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, common.ErrNotFound
}

type fakeRevocationLedger struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (f *fakeRevocationLedger) Revoke(_ context.Context, token string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[token] = true
	return nil
}

func (f *fakeRevocationLedger) IsRevoked(_ context.Context, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revoked[token], nil
}

type fakeListingRepo struct {
	mu       sync.Mutex
	listings map[string]*model.Listing
}

func (f *fakeListingRepo) Create(_ context.Context, listing *model.Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *listing
	f.listings[listing.ID] = &clone
	return nil
}

func (f *fakeListingRepo) FindByID(_ context.Context, id string) (*model.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	listing, ok := f.listings[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	clone := *listing
	clone.Images = append([]string(nil), listing.Images...)
	return &clone, nil
}

func (f *fakeListingRepo) FindByUser(_ context.Context, userID string) ([]model.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Listing
	for _, listing := range f.listings {
		if listing.UserID == userID {
			out = append(out, *listing)
		}
	}
	return out, nil
}

func (f *fakeListingRepo) Update(_ context.Context, listing *model.Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.listings[listing.ID]; !ok {
		return common.ErrNotFound
	}
	clone := *listing
	f.listings[listing.ID] = &clone
	return nil
}

func (f *fakeListingRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.listings[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.listings, id)
	return nil
}

type apiFixture struct {
	router      http.Handler
	tokens      *security.TokenService
	users       *fakeUserRepo
	listings    *fakeListingRepo
	revocations *fakeRevocationLedger
	uploads     *storage.UploadStore
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	uploads, err := storage.NewUploadStore(t.TempDir())
	require.NoError(t, err)

	f := &apiFixture{
		tokens:      security.NewTokenService([]byte("test-secret"), 24*time.Hour),
		users:       &fakeUserRepo{users: map[string]*model.User{}},
		listings:    &fakeListingRepo{listings: map[string]*model.Listing{}},
		revocations: &fakeRevocationLedger{revoked: map[string]bool{}},
		uploads:     uploads,
	}

	authService := service.NewAuthService(f.users, f.revocations, f.tokens)
	listingService := service.NewListingService(f.listings, uploads)
	authHandler := handler.NewAuthHandler(authService, false)
	listingHandler := handler.NewListingHandler(listingService, uploads)

	f.router = api.NewRouter(
		authHandler,
		listingHandler,
		f.tokens,
		f.users,
		f.revocations,
		uploads.Dir(),
		[]string{"http://localhost:3000"},
	)
	return f
}

func (f *apiFixture) doJSON(t *testing.T, method, path string, payload interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) doMultipart(t *testing.T, method, path string, fields map[string]string, images []string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	for _, name := range images {
		part, err := writer.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake image bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// registerAndLogin provisions a user over the API and returns its session
// cookie.
func (f *apiFixture) registerAndLogin(t *testing.T, name, email string) *http.Cookie {
	t.Helper()
	rec := f.doJSON(t, http.MethodPost, "/auth/register", service.RegisterRequest{
		Name: name, Email: email, Pass: "Str0ngPass!",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.doJSON(t, http.MethodPost, "/auth/login", service.LoginRequest{
		Email: email, Pass: "Str0ngPass!",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == security.TokenCookieName {
			return cookie
		}
	}
	t.Fatal("login did not set a token cookie")
	return nil
}

func protectedRequest(cookie *http.Cookie) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/protected-route", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req, httptest.NewRecorder()
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[common.ErrorResponse](t, rec).Error
}
