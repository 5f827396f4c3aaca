package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/common"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// authenticatedMethods carry the access token.
var authenticatedMethods = map[string]struct{}{
	pb.AuthService_LogoutAll_FullMethodName: {},
	pb.AuthService_WhoAmI_FullMethodName:    {},
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.AuthServiceClient

	mu     sync.Mutex
	tokens Tokens
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, common.BearerPrefix+token)

	return metadata.NewOutgoingContext(ctx, md)
}

// accessTokenInterceptor attaches the access token to authenticated calls.
// When the server rejects it and a refresh token is held, the pair is
// rotated once and the call is retried with the new access token.
func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if _, ok := authenticatedMethods[method]; !ok {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	tokens := s.Tokens()
	err := invoker(withAccessToken(ctx, tokens.AccessToken), method, req, reply, cc, opts...)
	if status.Code(err) != codes.Unauthenticated || tokens.RefreshToken == "" {
		return err
	}

	if rerr := s.rotate(ctx, tokens.RefreshToken); rerr != nil {
		return err
	}

	return invoker(withAccessToken(ctx, s.Tokens().AccessToken), method, req, reply, cc, opts...)
}

func NewAuthClient(endpointURL string) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	conn, err := grpc.NewClient(s.endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor))
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewAuthServiceClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Tokens returns the pair currently held.
func (s *GRPCClient) Tokens() Tokens {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens
}

// SetTokens replaces the pair, e.g. with one loaded from disk.
func (s *GRPCClient) SetTokens(t Tokens) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = t
}

// Register creates an account and returns its user id. It does not log in.
func (s *GRPCClient) Register(ctx context.Context, username, password string) (int64, error) {
	resp, err := s.client.Register(ctx, &pb.RegisterRequest{Username: username, Password: password})
	if err != nil {
		return 0, s.mapError(err)
	}
	return resp.GetUserId(), nil
}

func (s *GRPCClient) Login(ctx context.Context, username, password string) error {
	resp, err := s.client.Login(ctx, &pb.LoginRequest{Username: username, Password: password})
	if err != nil {
		return s.mapError(err)
	}
	s.SetTokens(Tokens{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken})
	return nil
}

// Refresh rotates the held refresh token.
func (s *GRPCClient) Refresh(ctx context.Context) error {
	rt := s.Tokens().RefreshToken
	if rt == "" {
		return ErrNotLoggedIn
	}
	return s.mapError(s.rotate(ctx, rt))
}

func (s *GRPCClient) rotate(ctx context.Context, refreshToken string) error {
	resp, err := s.client.Refresh(ctx, &pb.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return err
	}
	s.SetTokens(Tokens{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken})
	return nil
}

// Logout revokes the held refresh token and forgets the pair.
func (s *GRPCClient) Logout(ctx context.Context) error {
	rt := s.Tokens().RefreshToken
	if rt == "" {
		return ErrNotLoggedIn
	}
	if _, err := s.client.Logout(ctx, &pb.LogoutRequest{RefreshToken: rt}); err != nil {
		return s.mapError(err)
	}
	s.SetTokens(Tokens{})
	return nil
}

// loggedIn reports whether any token is held. An empty access token with a
// refresh token left is recovered by the interceptor.
func (s *GRPCClient) loggedIn() bool {
	t := s.Tokens()
	return t.AccessToken != "" || t.RefreshToken != ""
}

// LogoutAll revokes every refresh token of userID; 0 means the caller.
func (s *GRPCClient) LogoutAll(ctx context.Context, userID int64) (int, error) {
	if !s.loggedIn() {
		return 0, ErrNotLoggedIn
	}
	resp, err := s.client.LogoutAll(ctx, &pb.LogoutAllRequest{UserId: userID})
	if err != nil {
		return 0, s.mapError(err)
	}
	return int(resp.GetRevoked()), nil
}

func (s *GRPCClient) WhoAmI(ctx context.Context) (*Identity, error) {
	if !s.loggedIn() {
		return nil, ErrNotLoggedIn
	}
	resp, err := s.client.WhoAmI(ctx, &pb.WhoAmIRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return &Identity{UserID: resp.UserId, Username: resp.Username, Permission: resp.Permission}, nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &pb.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated:
		return ErrUnauthorized
	case codes.PermissionDenied:
		return ErrPermissionDenied
	case codes.NotFound:
		return ErrNotFound
	case codes.AlreadyExists:
		return ErrAlreadyExists
	case codes.InvalidArgument:
		return ErrInvalidInput
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
