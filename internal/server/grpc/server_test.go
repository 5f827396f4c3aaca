package grpc

import (
	"context"
	"database/sql"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/revocations"
	usersrepo "github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type memUsers struct {
	mu   sync.Mutex
	byID map[models.UserID]models.User
}

func (m *memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var next models.UserID
	for id, existing := range m.byID {
		if existing.UserName == u.UserName {
			return nil, common.ErrAlreadyExists
		}
		next = max(next, id)
	}
	cp := *u
	cp.ID = next + 1
	m.byID[cp.ID] = cp
	return &cp, nil
}

func (m *memUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.UserName == username {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) GetByID(ctx context.Context, id models.UserID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

type memManager struct{ users *memUsers }

func (m memManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m memManager) Users(dbx.DBTX) usersrepo.Repository          { return m.users }

// startServer serves a fully wired AuthService over an in-memory listener.
func startServer(t *testing.T, users ...models.User) pb.AuthServiceClient {
	t.Helper()

	hasher, err := auth.NewPasswordHasher(auth.AlgorithmBcrypt, bcrypt.MinCost)
	require.NoError(t, err)
	codec, err := auth.NewTokenCodec([]byte("test-secret"), "HS256", time.Now)
	require.NoError(t, err)

	repo := &memUsers{byID: map[models.UserID]models.User{}}
	for _, u := range users {
		hash, err := hasher.Hash(u.PasswordHash)
		require.NoError(t, err)
		u.PasswordHash = hash
		repo.byID[u.ID] = u
	}

	cfg := &config.Config{}
	cfg.LoadDefaults()

	tokens := services.NewTokenService(codec, revocations.NewMemoryRepository(time.Now), cfg, logging.Nop())
	us := services.NewUserService(nil, memManager{users: repo}, hasher, tokens, logging.Nop())

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewGRPCServer("", logging.Nop(), us).Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		<-done
	})
	return pb.NewAuthServiceClient(conn)
}

func bearer(token string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, common.BearerPrefix+token)
}

func TestServer_RegisterThenLogin(t *testing.T) {
	client := startServer(t, models.User{ID: 1, UserName: "root", PasswordHash: "rootpw", Permission: models.SuperAdmin})
	ctx := context.Background()

	reg, err := client.Register(ctx, &pb.RegisterRequest{Username: "erin", Password: "erinpw"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), reg.GetUserId())

	_, err = client.Register(ctx, &pb.RegisterRequest{Username: "erin", Password: "other"})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = client.Register(ctx, &pb.RegisterRequest{Username: "frank"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	pair, err := client.Login(ctx, &pb.LoginRequest{Username: "erin", Password: "erinpw"})
	require.NoError(t, err)
	who, err := client.WhoAmI(bearer(pair.GetAccessToken()), &pb.WhoAmIRequest{})
	require.NoError(t, err)
	assert.Equal(t, "erin", who.GetUsername())
	assert.Equal(t, models.Standard.String(), who.GetPermission())
}

func TestServer_TokenLifecycle(t *testing.T) {
	client := startServer(t, models.User{ID: 7, UserName: "alice", PasswordHash: "s3cret", Permission: models.Standard})
	ctx := context.Background()

	_, err := client.Login(ctx, &pb.LoginRequest{Username: "alice", Password: "wrong"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = client.Login(ctx, &pb.LoginRequest{Username: "nobody", Password: "s3cret"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	pair, err := client.Login(ctx, &pb.LoginRequest{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", pair.TokenType)
	assert.Equal(t, int64(1800), pair.ExpiresIn)

	who, err := client.WhoAmI(bearer(pair.AccessToken), &pb.WhoAmIRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(7), who.UserId)
	assert.Equal(t, "alice", who.Username)
	assert.Equal(t, "standard", who.Permission)

	_, err = client.WhoAmI(bearer(pair.RefreshToken), &pb.WhoAmIRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err), "refresh token must not authorize calls")

	rotated, err := client.Refresh(ctx, &pb.RefreshRequest{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	_, err = client.Refresh(ctx, &pb.RefreshRequest{RefreshToken: pair.RefreshToken})
	assert.Equal(t, codes.Unauthenticated, status.Code(err), "rotated token is single use")

	_, err = client.Logout(ctx, &pb.LogoutRequest{RefreshToken: rotated.RefreshToken})
	require.NoError(t, err)
	_, err = client.Refresh(ctx, &pb.RefreshRequest{RefreshToken: rotated.RefreshToken})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestServer_LogoutAll(t *testing.T) {
	client := startServer(t,
		models.User{ID: 1, UserName: "root", PasswordHash: "rootpw", Permission: models.SuperAdmin},
		models.User{ID: 2, UserName: "bob", PasswordHash: "bobpw", Permission: models.Standard},
	)
	ctx := context.Background()

	_, err := client.LogoutAll(ctx, &pb.LogoutAllRequest{UserId: 2})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	bob1, err := client.Login(ctx, &pb.LoginRequest{Username: "bob", Password: "bobpw"})
	require.NoError(t, err)
	bob2, err := client.Login(ctx, &pb.LoginRequest{Username: "bob", Password: "bobpw"})
	require.NoError(t, err)
	root, err := client.Login(ctx, &pb.LoginRequest{Username: "root", Password: "rootpw"})
	require.NoError(t, err)

	_, err = client.LogoutAll(bearer(bob1.AccessToken), &pb.LogoutAllRequest{UserId: 1})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = client.LogoutAll(bearer(root.AccessToken), &pb.LogoutAllRequest{UserId: 99})
	assert.Equal(t, codes.NotFound, status.Code(err))

	resp, err := client.LogoutAll(bearer(root.AccessToken), &pb.LogoutAllRequest{UserId: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Revoked)

	for _, p := range []*pb.TokenPair{bob1, bob2} {
		_, err = client.Refresh(ctx, &pb.RefreshRequest{RefreshToken: p.RefreshToken})
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	}

	_, err = client.Refresh(ctx, &pb.RefreshRequest{RefreshToken: root.RefreshToken})
	require.NoError(t, err)
}

func TestServer_BannedUser(t *testing.T) {
	client := startServer(t, models.User{ID: 3, UserName: "mallory", PasswordHash: "pw", Permission: models.Banned})

	_, err := client.Login(context.Background(), &pb.LoginRequest{Username: "mallory", Password: "pw"})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestServer_Ping(t *testing.T) {
	client := startServer(t)

	resp, err := client.Ping(context.Background(), &pb.PingRequest{})
	require.NoError(t, err)
	assert.Equal(t, "OK", resp.Status)

	_, err = client.WhoAmI(context.Background(), &pb.WhoAmIRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	s := NewGRPCServer("127.0.0.1:0", logging.Nop(), &fakeUsers{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after context cancel")
	}
}

func TestRun_BadAddress(t *testing.T) {
	s := NewGRPCServer("127.0.0.1:99999", logging.Nop(), &fakeUsers{})
	err := s.Run(context.Background())
	assert.Error(t, err)
}
