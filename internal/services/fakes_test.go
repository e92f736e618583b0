package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/oauth"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type fakeAccountStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]models.Account
	creates  int
	saves    int
	saveErr  error
	touched  map[uuid.UUID]time.Time
	// onCreate runs once, before the next Create, outside the store lock.
	onCreate func(ctx context.Context, a *models.Account) error
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{
		accounts: make(map[uuid.UUID]models.Account),
		touched:  make(map[uuid.UUID]time.Time),
	}
}

func (f *fakeAccountStore) conflict(a *models.Account) error {
	for id, existing := range f.accounts {
		if id == a.ID {
			continue
		}
		if existing.Email == a.Email {
			return repository.ErrDuplicateEmail
		}
		if a.FederatedID != nil && existing.FederatedID != nil && *existing.FederatedID == *a.FederatedID {
			return repository.ErrDuplicateFederatedID
		}
	}
	return nil
}

func (f *fakeAccountStore) Create(ctx context.Context, a *models.Account) error {
	f.mu.Lock()
	hook := f.onCreate
	f.onCreate = nil
	f.mu.Unlock()
	if hook != nil {
		if err := hook(ctx, a); err != nil {
			return err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := a.BeforeSave(nil); err != nil {
		return err
	}
	if err := f.conflict(a); err != nil {
		return err
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	f.accounts[a.ID] = *a
	f.creates++
	return nil
}

func (f *fakeAccountStore) Save(_ context.Context, a *models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	if err := a.BeforeSave(nil); err != nil {
		return err
	}
	if err := f.conflict(a); err != nil {
		return err
	}
	a.UpdatedAt = time.Now()
	f.accounts[a.ID] = *a
	f.saves++
	return nil
}

func (f *fakeAccountStore) FindByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (f *fakeAccountStore) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = models.NormalizeEmail(email)
	for _, a := range f.accounts {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAccountStore) FindByFederatedID(_ context.Context, federatedID string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.FederatedID != nil && *a.FederatedID == federatedID {
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAccountStore) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := f.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (f *fakeAccountStore) TouchLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched[id] = at
	return nil
}

func (f *fakeAccountStore) List(_ context.Context, filter repository.ListFilter) ([]models.Account, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Account
	for _, a := range f.accounts {
		if filter.Search != "" && !strings.Contains(a.Email, strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, a)
	}
	total := int64(len(out))
	if filter.Offset >= len(out) {
		return nil, total, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, total, nil
}

func (f *fakeAccountStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.accounts)
}

type fakePictureStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleted   []string
	uploadErr error
	deleteErr error
}

func newFakePictureStore() *fakePictureStore {
	return &fakePictureStore{objects: make(map[string][]byte)}
}

func (f *fakePictureStore) Upload(_ context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ref := "https://cdn.test/" + key
	f.objects[ref] = data
	return ref, nil
}

func (f *fakePictureStore) Delete(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ref)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, ref)
	return nil
}

type fakeProvider struct {
	identity *oauth.Identity
	err      error
	codes    []string
}

func (f *fakeProvider) Name() string { return oauth.ProviderGoogle }

func (f *fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.test/auth?state=" + state
}

func (f *fakeProvider) Exchange(_ context.Context, code string) (*oauth.Identity, error) {
	f.codes = append(f.codes, code)
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

type fakeAppleVerifier struct {
	identity *oauth.Identity
	err      error
}

func (f *fakeAppleVerifier) Verify(_ context.Context, _, _ string) (*oauth.Identity, error) {
	return f.identity, f.err
}

type testEnv struct {
	accounts *fakeAccountStore
	pictures *fakePictureStore
	tokens   *TokenService
	svc      *AccountService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	accounts := newFakeAccountStore()
	pictures := newFakePictureStore()
	tokens := NewTokenService("test-secret", 7*24*time.Hour)
	svc := NewAccountService(accounts, NewPasswordHasher(bcrypt.MinCost), tokens, NewPictureService(pictures, 5<<20, 64))
	return &testEnv{accounts: accounts, pictures: pictures, tokens: tokens, svc: svc}
}

func pngUpload(t *testing.T, w, h int) *PictureUpload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return &PictureUpload{Body: &buf, Size: int64(buf.Len()), Filename: fmt.Sprintf("%dx%d.png", w, h)}
}

func ptr[T any](v T) *T { return &v }
