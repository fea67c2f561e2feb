package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/barterdesk/barterdesk/internal/client/api"
	"github.com/barterdesk/barterdesk/internal/client/config"
	"github.com/barterdesk/barterdesk/internal/client/services"
	"github.com/barterdesk/barterdesk/internal/client/session"
	"github.com/barterdesk/barterdesk/internal/client/storage"
	"github.com/barterdesk/barterdesk/internal/logging"
)

type App struct {
	config *config.Config
	store  *session.Store
	api    *api.Client
	log    logging.Logger
	db     *sql.DB
	reader *bufio.Reader
}

func NewApp(cfg *config.Config) (*App, error) {
	ctx := context.Background()
	log := logging.NewSlogLogger(slog.Default())

	db, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing local storage", "error", err)
		return nil, fmt.Errorf("init local storage: %w", err)
	}

	store := session.New(db, log)
	apiClient := api.NewClient(cfg.ServerEndpointAddr, cfg.RequestTimeout, store, log)

	return &App{
		config: cfg,
		store:  store,
		api:    apiClient,
		log:    log,
		db:     db,
		reader: bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.db.Close()
	a.Root(ctx)
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	return a.store.Record(ctx).Authenticated()
}

// newController builds a session controller wired to the app's API client
// and session store.
func (a *App) newController(mode services.Mode) *services.SessionController {
	return services.NewSessionController(mode, a.api, a.store, a.log)
}
