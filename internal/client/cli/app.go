// Package cli implements the interactive FitTrack client: the REPL standing
// in for the mobile screens, with the auth manager deciding which command
// set (auth, onboarding, main) is available at any moment.
package cli

import (
	"bufio"
	"context"
	"log/slog"
	"os"

	_ "modernc.org/sqlite"

	"github.com/adiwinata/fittrack/internal/client/api"
	"github.com/adiwinata/fittrack/internal/client/auth"
	"github.com/adiwinata/fittrack/internal/client/config"
	"github.com/adiwinata/fittrack/internal/client/models"
	"github.com/adiwinata/fittrack/internal/client/session"
	"github.com/adiwinata/fittrack/internal/logging"
)

// authManager is the slice of auth.Manager the screens need. The concrete
// manager satisfies it; tests provide a lightweight fake.
type authManager interface {
	Bootstrap(ctx context.Context)
	Login(ctx context.Context, username, password string) error
	Register(ctx context.Context, req api.RegisterRequest) error
	Logout(ctx context.Context)
	UpdateProfile(ctx context.Context, upd models.ProfileUpdate) error
	CompleteVerification()
	DismissError()
	State() auth.State
	Route() auth.Flow
}

// App wires the screens to the auth manager and the API client.
type App struct {
	config  *config.Config
	auth    authManager
	api     api.Client
	store   *session.SQLiteStore
	persist *session.Persister
	log     logging.Logger
	reader  *bufio.Reader
}

// NewApp opens the local database, builds the API client and the auth
// manager, and returns the ready-to-run application.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log := logging.NewText(os.Stderr, slog.LevelInfo)

	store, err := session.Open(ctx, c.DatabasePath)
	if err != nil {
		return nil, err
	}

	apiClient := api.NewHTTPClient(c.ServerBaseURL, c.RequestTimeout)
	persist := session.NewPersister(store, log)
	manager := auth.NewManager(apiClient, store, persist, log)

	return &App{
		config:  c,
		auth:    manager,
		api:     apiClient,
		store:   store,
		persist: persist,
		log:     log,
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

// Run bootstraps the session and enters the REPL. Resources are released
// when the loop exits.
func (a *App) Run(ctx context.Context) {
	defer a.shutdown(ctx)

	a.auth.Bootstrap(ctx)
	a.Root(ctx)
}

func (a *App) shutdown(ctx context.Context) {
	if a.persist != nil {
		if err := a.persist.Settle(ctx); err != nil {
			a.log.Warn(ctx, "persistence did not settle before shutdown", "error", err)
		}
		a.persist.Close()
	}
	if a.api != nil {
		_ = a.api.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}
