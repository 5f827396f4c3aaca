// Package proto holds the generated messages and gRPC stubs of the
// gophauth.v1.AuthService contract defined in api/proto/gophauth/v1/auth.proto.
package proto

//go:generate protoc -I ../../api/proto --go_out=../.. --go_opt=module=github.com/dmitrijs2005/gophauth --go-grpc_out=../.. --go-grpc_opt=module=github.com/dmitrijs2005/gophauth gophauth/v1/auth.proto
