// Package cli implements authctl, a one-shot command-line client for the
// gophauth AuthService.
//
// Each invocation runs a single command (login, refresh, logout, logout-all,
// whoami, ping). The token pair survives between invocations in a token file
// (see TokenStore); when the server rotates it during a command the new pair
// is written back. Passwords are read without echo via golang.org/x/term.
package cli
