package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/encodex/internal/config"
	"github.com/dmitrijs2005/encodex/internal/logging"
	"github.com/dmitrijs2005/encodex/internal/services"
	"github.com/dmitrijs2005/encodex/internal/session"
	"github.com/dmitrijs2005/encodex/internal/storage"
)

type App struct {
	config   *config.Config
	store    storage.Store
	svc      *services.Services
	sessions *session.Manager
	log      logging.Logger
	reader   *bufio.Reader
	out      io.Writer
}

// NewApp opens the configured storage backend and builds the services on
// top of it. The caller owns the returned App and must call Close.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	store, err := storage.Open(ctx, c.StorageOptions())
	if err != nil {
		log.Error(ctx, "error opening storage", "driver", c.StorageDriver, "error", err)
		return nil, err
	}

	svc := services.New(services.Deps{
		Store:  store,
		Logger: log,
		KDF:    c.KDFParams(),
	})

	log.Info(ctx, "storage ready", "driver", c.StorageDriver)
	return newApp(c, store, svc, log, bufio.NewReader(os.Stdin), os.Stdout), nil
}

func newApp(c *config.Config, store storage.Store, svc *services.Services, log logging.Logger, r *bufio.Reader, w io.Writer) *App {
	return &App{
		config:   c,
		store:    store,
		svc:      svc,
		sessions: session.NewManager(),
		log:      log,
		reader:   r,
		out:      w,
	}
}

// Run blocks in the REPL until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to EncodeX (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader)
}

// Close drops the session and releases the storage backend.
func (a *App) Close() error {
	a.sessions.Close()
	return a.store.Close()
}

func (a *App) isLoggedIn() bool {
	_, err := a.sessions.Current()
	return err == nil
}

func (a *App) status() string {
	s, err := a.sessions.Current()
	if err != nil {
		return "locked"
	}
	return s.Identity
}

func (a *App) current() (*session.Session, error) {
	return a.sessions.Current()
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}
