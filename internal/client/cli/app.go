package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dmitrijs2005/spendtrack/internal/client/api"
	"github.com/dmitrijs2005/spendtrack/internal/client/auth"
	"github.com/dmitrijs2005/spendtrack/internal/client/config"
	"github.com/dmitrijs2005/spendtrack/internal/client/models"
	"github.com/dmitrijs2005/spendtrack/internal/client/session"
	"github.com/dmitrijs2005/spendtrack/internal/client/storage"
	"github.com/dmitrijs2005/spendtrack/internal/filex"
	"github.com/dmitrijs2005/spendtrack/internal/logging"
	"github.com/dmitrijs2005/spendtrack/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"

	_ "modernc.org/sqlite"
)

// Mode reflects the last observed server reachability.
type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// Authenticator is the auth surface the CLI drives. *auth.Coordinator
// satisfies it; tests provide a stub.
type Authenticator interface {
	Restore(ctx context.Context) error
	Login(ctx context.Context, email, password string) (*models.UserProfile, error)
	Register(ctx context.Context, req api.RegisterRequest) error
	Logout(ctx context.Context)
	State() auth.State
	CurrentUser() *models.UserProfile
	SubscribeState(fn func(auth.State)) func()
	SubscribeInvalidation(fn func(api.InvalidationEvent)) func()
}

// ExpenseAPI is the resource surface the CLI dashboard needs.
type ExpenseAPI interface {
	GetExpenses(ctx context.Context) ([]models.Expense, error)
	AddExpense(ctx context.Context, e models.Expense) (int, error)
	DeleteExpense(ctx context.Context, id int) error
	GetPrediction(ctx context.Context) (*models.Prediction, error)
	Ping(ctx context.Context) error
}

type App struct {
	config   *config.Config
	coord    Authenticator
	expenses ExpenseAPI
	log      logging.Logger
	Mode     Mode
	reader   *bufio.Reader
}

// NewApp wires the full client stack: local session database (degrading to the
// in-memory tier when it cannot be opened), session store, request gateway and
// auth coordinator.
func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	m := metrics.New(prometheus.DefaultRegisterer)

	dsn := c.DatabaseDSN
	if dsn == "" {
		path, err := filex.DataFilePath("data", "spendtrack.db")
		if err != nil {
			log.Warn(ctx, "storage.datadir.unavailable", "error", err)
		} else {
			dsn = "file:" + path
		}
	}

	var primary storage.Tier
	db, err := storage.InitDatabase(ctx, dsn)
	if err != nil {
		// session persistence degrades to the ephemeral tier for this run
		log.Warn(ctx, "storage.primary.unavailable", "dsn", dsn, "error", err)
	} else {
		primary = storage.NewSQLiteTier(db)
	}

	backend := storage.NewDualTier(ctx, primary, storage.NewMemoryTier(), log, m)
	sessions := session.NewStore(backend, log, m)

	bus := auth.NewBroadcaster()
	gw := api.NewGateway(c.APIBaseURL, c.RequestTimeout, sessions, bus, bus, log, m)
	client := api.NewHTTPClient(gw)
	coord := auth.NewCoordinator(sessions, client, bus, log)

	return &App{
		config:   c,
		coord:    coord,
		expenses: client,
		log:      log,
		reader:   bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		printlnFn(fmt.Sprintf("Switched to %s mode", mode))
	}
}

// Run restores any persisted session and enters the REPL. It blocks until the
// user exits.
func (a *App) Run(ctx context.Context) {
	if closer, ok := a.coord.(interface{ Close() }); ok {
		defer closer.Close()
	}
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.coord.State() == auth.StateAuthenticated
}

// StartOnlineStatusWatcher periodically pings the server and flips Mode on
// reachability changes. It returns when ctx is cancelled.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := a.expenses.Ping(pingCtx)
			cancel()

			if err != nil {
				if a.Mode == ModeOnline {
					a.setMode(ModeOffline)
				}
			} else {
				if a.Mode != ModeOnline {
					a.setMode(ModeOnline)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}
