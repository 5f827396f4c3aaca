package proto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protobuf "google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

func TestServiceDescriptor(t *testing.T) {
	svc := File_gophauth_v1_auth_proto.Services().ByName("AuthService")
	require.NotNil(t, svc)
	assert.Equal(t, "gophauth.v1.AuthService", string(svc.FullName()))
	assert.Equal(t, AuthService_ServiceDesc.ServiceName, string(svc.FullName()))

	methods := svc.Methods()
	require.Equal(t, len(AuthService_ServiceDesc.Methods), methods.Len())
	for _, m := range AuthService_ServiceDesc.Methods {
		assert.NotNil(t, methods.ByName(protoreflect.Name(m.MethodName)), m.MethodName)
	}
}

func TestTokenPair_WireRoundTrip(t *testing.T) {
	in := &TokenPair{AccessToken: "a", RefreshToken: "r", TokenType: "bearer", ExpiresIn: 1800}

	b, err := protobuf.Marshal(in)
	require.NoError(t, err)

	out := &TokenPair{}
	require.NoError(t, protobuf.Unmarshal(b, out))
	assert.True(t, protobuf.Equal(in, out))
}

func TestGetters_NilSafe(t *testing.T) {
	var l *LoginRequest
	assert.Empty(t, l.GetUsername())
	assert.Empty(t, l.GetPassword())

	var r *RefreshRequest
	assert.Empty(t, r.GetRefreshToken())

	var a *LogoutAllRequest
	assert.Zero(t, a.GetUserId())
}
