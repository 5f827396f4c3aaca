package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/revocations"
	usersrepo "github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- clock ---

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// --- users repository ---

type fakeUsersRepo struct {
	mu     sync.Mutex
	nextID models.UserID
	byID   map[models.UserID]*models.User

	getErr    error
	createErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{nextID: 1, byID: map[models.UserID]*models.User{}}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.byID {
		if existing.UserName == u.UserName {
			return nil, common.ErrAlreadyExists
		}
	}
	cp := *u
	cp.ID = f.nextID
	f.nextID++
	f.byID[cp.ID] = &cp
	return &cp, nil
}

func (f *fakeUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.UserName == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id models.UserID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

// put stores u under its own id.
func (f *fakeUsersRepo) put(u models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[u.ID] = &u
	if u.ID >= f.nextID {
		f.nextID = u.ID + 1
	}
}

type fakeRepoManager struct {
	users *fakeUsersRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.users }

// --- revocation store that never answers ---

type stuckStore struct{}

func (stuckStore) Put(ctx context.Context, _ models.UserID, _, _ string, _ time.Duration) error {
	<-ctx.Done()
	return ctx.Err()
}
func (stuckStore) Exists(ctx context.Context, _ models.UserID, _ string) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}
func (stuckStore) Remove(ctx context.Context, _ models.UserID, _ string) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}
func (stuckStore) Discard(ctx context.Context, _ models.UserID, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}
func (stuckStore) RemoveAll(ctx context.Context, _ models.UserID) (int, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

// --- fixture ---

type fixture struct {
	clock  *testClock
	codec  *auth.TokenCodec
	store  *revocations.MemoryRepository
	tokens *TokenService
	users  *fakeUsersRepo
	hasher *auth.PasswordHasher
	svc    *UserService
	db     *sql.DB
	mock   sqlmock.Sqlmock
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.StoreTimeout = 100 * time.Millisecond
	return cfg
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{clock: &testClock{t: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}}

	var err error
	f.codec, err = auth.NewTokenCodec([]byte("test-secret"), "HS256", f.clock.Now)
	require.NoError(t, err)

	f.store = revocations.NewMemoryRepository(f.clock.Now)
	f.tokens = NewTokenService(f.codec, f.store, testConfig(), logging.Nop())

	f.hasher, err = auth.NewPasswordHasher(auth.AlgorithmBcrypt, bcrypt.MinCost)
	require.NoError(t, err)

	f.users = newFakeUsersRepo()
	f.db, f.mock, err = sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.db.Close() })

	f.svc = NewUserService(f.db, &fakeRepoManager{users: f.users}, f.hasher, f.tokens, logging.Nop())
	return f
}

// addUser stores a user with the given password and level.
func (f *fixture) addUser(t *testing.T, id models.UserID, name, password string, level models.PermissionLevel) {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)
	f.users.put(models.User{ID: id, UserName: name, PasswordHash: hash, Permission: level})
}
