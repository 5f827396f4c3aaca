package grpc

import (
	"context"

	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Register creates a standard user. Elevated levels are granted only by the
// superadmin seed.
func (s *GRPCServer) Register(ctx context.Context, req *pb.RegisterRequest) (*pb.RegisterResponse, error) {
	u, err := s.users.Register(ctx, req.GetUsername(), req.GetPassword(), models.Standard)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &pb.RegisterResponse{UserId: int64(u.ID), Username: u.UserName}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *pb.LoginRequest) (*pb.TokenPair, error) {
	tokens, err := s.users.Login(ctx, req.GetUsername(), req.GetPassword())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return toPB(tokens), nil
}

func (s *GRPCServer) Refresh(ctx context.Context, req *pb.RefreshRequest) (*pb.TokenPair, error) {
	tokens, err := s.users.Refresh(ctx, req.GetRefreshToken())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return toPB(tokens), nil
}

func (s *GRPCServer) Logout(ctx context.Context, req *pb.LogoutRequest) (*pb.LogoutResponse, error) {
	if err := s.users.Logout(ctx, req.GetRefreshToken()); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &pb.LogoutResponse{}, nil
}

func (s *GRPCServer) LogoutAll(ctx context.Context, req *pb.LogoutAllRequest) (*pb.LogoutAllResponse, error) {
	actor, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	target := models.UserID(req.GetUserId())
	if target == 0 {
		target = actor.ID
	}

	n, err := s.users.LogoutAll(ctx, actor, target)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Logged out everywhere", "actor_id", actor.ID, "user_id", target, "revoked", n)
	return &pb.LogoutAllResponse{Revoked: int64(n)}, nil
}

func (s *GRPCServer) WhoAmI(ctx context.Context, req *pb.WhoAmIRequest) (*pb.WhoAmIResponse, error) {
	actor, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	resp := &pb.WhoAmIResponse{UserId: int64(actor.ID), Permission: actor.Level.String()}
	if u, err := s.users.GetUser(ctx, actor.ID); err == nil {
		resp.Username = u.UserName
	}
	return resp, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *pb.PingRequest) (*pb.PingResponse, error) {
	return &pb.PingResponse{Status: "OK"}, nil
}

func toPB(t *services.TokenPair) *pb.TokenPair {
	return &pb.TokenPair{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		ExpiresIn:    int64(t.ExpiresIn.Seconds()),
	}
}
