// Package cli is the interactive operator console for FileKeeper.
package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/client/api"
	"github.com/dmitrijs2005/filekeeper/internal/client/config"
)

type AuthAPI interface {
	Login(ctx context.Context, login string, password []byte) error
	Register(ctx context.Context, login string, password []byte) error
	Token() string
	SetToken(token string)
}

type FileAPI interface {
	Upload(ctx context.Context, filename string, data io.Reader) (*api.File, error)
	Sweep(ctx context.Context, retention time.Duration) (*api.SweepResult, error)
}

type AdminAPI interface {
	GetFile(ctx context.Context, id int64) (*api.File, error)
	ListFiles(ctx context.Context) ([]api.File, error)
	SweepOrphans(ctx context.Context, retention time.Duration) (*api.SweepResult, error)
}

type App struct {
	config   *config.Config
	auth     AuthAPI
	files    FileAPI
	admin    AdminAPI
	closer   io.Closer
	reader   *bufio.Reader
	out      io.Writer
	userName string
}

func NewApp(c *config.Config) (*App, error) {
	httpClient := api.NewHTTPClient(c.ServerHTTPAddr, c.RequestTimeout)

	grpcClient, err := api.NewGRPCClient(c.ServerGRPCAddr, httpClient.Token)
	if err != nil {
		return nil, err
	}

	return &App{
		config: c,
		auth:   httpClient,
		files:  httpClient,
		admin:  grpcClient,
		closer: grpcClient,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}, nil
}

func (a *App) Run(ctx context.Context) {
	if a.closer != nil {
		defer a.closer.Close()
	}
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.auth.Token() != ""
}

// withTimeout bounds one command by the configured request timeout.
func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config == nil || a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}
