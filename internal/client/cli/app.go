// Package cli implements the sharevault command-line client. Every command
// is a single request: files are sealed locally before upload and unsealed
// after download, so plaintext never leaves this process.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/api"
	"github.com/dmitrijs2005/sharevault/internal/client/client"
	"github.com/dmitrijs2005/sharevault/internal/client/config"
	"github.com/dmitrijs2005/sharevault/internal/client/vault"
)

// Client is the server API the commands use.
type Client interface {
	UploadFile(ctx context.Context, req *api.UploadFileRequest) (*api.FileMessage, error)
	ListFiles(ctx context.Context) ([]api.FileMessage, error)
	DownloadFile(ctx context.Context, fileID string) (*api.FileContentResponse, error)
	DeleteFile(ctx context.Context, fileID string) error
	CreateShare(ctx context.Context, req *api.CreateShareRequest) (*api.ShareMessage, error)
	UpdateShare(ctx context.Context, req *api.UpdateShareRequest) (*api.ShareMessage, error)
	SetShareDownload(ctx context.Context, shareID string, enabled bool) (*api.ShareMessage, error)
	RevokeShare(ctx context.Context, shareID string) error
	ListShares(ctx context.Context, fileID string) ([]api.ShareMessage, error)
	ListSharedWithMe(ctx context.Context) ([]api.ShareMessage, error)
	GetShare(ctx context.Context, shareID string) (*api.ShareInfoResponse, error)
	DownloadShare(ctx context.Context, shareID string) (*api.FileContentResponse, error)
}

var ErrUsage = errors.New("usage")

type command struct {
	usage string
	run   func(a *App, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"upload":   {"upload <path>", (*App).upload},
	"list":     {"list", (*App).list},
	"download": {"download <file-id> [-o path]", (*App).download},
	"delete":   {"delete <file-id>", (*App).delete},
	"share":    {"share <file-id> [-to user] [-max n] [-minutes m] [-disabled]", (*App).share},
	"update":   {"update <share-id> [-max n] [-minutes m] [-no-expiry]", (*App).update},
	"shares":   {"shares <file-id>", (*App).shares},
	"inbox":    {"inbox", (*App).inbox},
	"toggle":   {"toggle <share-id> on|off", (*App).toggle},
	"revoke":   {"revoke <share-id>", (*App).revoke},
	"info":     {"info <share-id>", (*App).info},
	"get":      {"get <share-id> [-o path]", (*App).get},
}

type App struct {
	client  Client
	vault   *vault.Vault
	out     io.Writer
	timeout time.Duration
}

func New(c Client, v *vault.Vault, out io.Writer, timeout time.Duration) *App {
	return &App{client: c, vault: v, out: out, timeout: timeout}
}

// NewApp connects to the server named in cfg and opens the client key.
func NewApp(ctx context.Context, cfg *config.Config, out io.Writer) (*App, func() error, error) {
	v, err := vault.OpenFile(ctx, cfg.KeyPath)
	if err != nil {
		return nil, nil, err
	}

	c, err := client.NewGRPCClient(cfg.ServerEndpointAddr, cfg.AccessToken)
	if err != nil {
		return nil, nil, err
	}

	return New(c, v, out, cfg.RequestTimeout), c.Close, nil
}

// Run executes the command named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" {
		a.help()
		return nil
	}

	cmd, ok := commands[args[0]]
	if !ok {
		a.help()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	if err := cmd.run(a, ctx, args[1:]); err != nil {
		if errors.Is(err, ErrUsage) {
			return fmt.Errorf("%w: %s", ErrUsage, cmd.usage)
		}
		return err
	}
	return nil
}

func (a *App) help() {
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)

	fmt.Fprintln(a.out, "Commands:")
	for _, n := range names {
		fmt.Fprintf(a.out, "  %s\n", commands[n].usage)
	}
}
