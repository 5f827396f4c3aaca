package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

var (
	ErrUsage          = errors.New("usage error")
	ErrUnknownCommand = errors.New("unknown command")
)

const usage = `Usage: authctl [flags] <command> [args]

Commands:
  register [username]    create an account
  login [username]       log in and store the token pair
  refresh                rotate the stored refresh token
  logout                 revoke the stored refresh token
  logout-all [user_id]   revoke every refresh token of a user (default: yourself)
  whoami                 show the authenticated user
  ping                   check that the server is up
  help                   show this message`

type App struct {
	config *config.Config
	client client.Client
	store  *TokenStore
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := client.NewAuthClient(c.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}

	return &App{
		config: c,
		client: apiClient,
		store:  NewTokenStore(c.TokenFile),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}, nil
}

// Run executes a single command. Tokens are loaded from the token file
// before the command and written back if the command changed them.
func (a *App) Run(ctx context.Context, args []string) error {
	defer a.client.Close()

	if len(args) == 0 {
		fmt.Fprintln(a.out, usage)
		return ErrUsage
	}

	before, err := a.store.Load()
	if err != nil {
		return err
	}
	a.client.SetTokens(before)

	cmdErr := a.dispatch(ctx, args[0], args[1:])

	if after := a.client.Tokens(); after != before {
		if err := a.store.Save(after); err != nil {
			return errors.Join(cmdErr, err)
		}
	}
	return cmdErr
}

func (a *App) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "register":
		return a.register(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "refresh":
		return a.refresh(ctx)
	case "logout":
		return a.logout(ctx)
	case "logout-all":
		return a.logoutAll(ctx, args)
	case "whoami":
		return a.whoAmI(ctx)
	case "ping":
		return a.ping(ctx)
	case "help", "-h", "--help":
		fmt.Fprintln(a.out, usage)
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
}

// withTimeout bounds one server round trip. Prompts happen before it starts.
func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

// credentials takes the username from args or a prompt, then reads the password.
func (a *App) credentials(args []string) (string, []byte, error) {
	var userName string
	if len(args) > 0 {
		userName = args[0]
	} else {
		var err error
		if userName, err = GetSimpleText(a.reader, "Enter username", a.out); err != nil {
			return "", nil, err
		}
	}

	password, err := GetPassword(a.reader, a.out)
	if err != nil {
		return "", nil, err
	}
	return userName, password, nil
}

func (a *App) register(ctx context.Context, args []string) error {
	userName, password, err := a.credentials(args)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	id, err := a.client.Register(ctx, userName, string(password))
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	fmt.Fprintf(a.out, "Registered %s (id=%d)\n", userName, id)
	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	userName, password, err := a.credentials(args)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	if err := a.client.Login(ctx, userName, string(password)); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) refresh(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	if err := a.client.Refresh(ctx); err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			a.client.SetTokens(client.Tokens{})
		}
		return fmt.Errorf("refresh failed: %w", err)
	}
	fmt.Fprintln(a.out, "Tokens refreshed")
	return nil
}

func (a *App) logout(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	if err := a.client.Logout(ctx); err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			a.client.SetTokens(client.Tokens{})
		}
		return fmt.Errorf("logout failed: %w", err)
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) logoutAll(ctx context.Context, args []string) error {
	var userID int64
	if len(args) > 0 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("%w: invalid user id %q", ErrUsage, args[0])
		}
		userID = id
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	n, err := a.client.LogoutAll(ctx, userID)
	if err != nil {
		return fmt.Errorf("logout-all failed: %w", err)
	}
	if userID == 0 {
		a.client.SetTokens(client.Tokens{})
	}
	fmt.Fprintf(a.out, "Revoked %d refresh token(s)\n", n)
	return nil
}

func (a *App) whoAmI(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	id, err := a.client.WhoAmI(ctx)
	if err != nil {
		return fmt.Errorf("whoami failed: %w", err)
	}
	fmt.Fprintf(a.out, "id: %d\n", id.UserID)
	if id.Username != "" {
		fmt.Fprintf(a.out, "username: %s\n", id.Username)
	}
	fmt.Fprintf(a.out, "permission: %s\n", id.Permission)
	return nil
}

func (a *App) ping(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	if err := a.client.Ping(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	fmt.Fprintln(a.out, "OK")
	return nil
}
