// Package client contains the client side of the gophauth AuthService.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface): Login,
//     Refresh, Logout, LogoutAll, WhoAmI and Ping.
//  2. A concrete gRPC implementation (see GRPCClient) that manages a
//     connection, attaches the access token as "authorization: Bearer ..."
//     via an interceptor, refreshes the token pair once when an
//     authenticated call is rejected, and maps gRPC status codes to
//     sentinel errors.
//
// # Error Handling
//
// Common conditions are exposed as sentinel errors that callers can match with
// errors.Is: ErrUnavailable, ErrUnauthorized, ErrPermissionDenied,
// ErrNotFound, ErrNotLoggedIn.
//
// GRPCClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation and timeouts.
package client
