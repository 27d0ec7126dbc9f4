package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/spendtrack/internal/client/api"
	"github.com/dmitrijs2005/spendtrack/internal/client/auth"
)

func (a *App) getStatus() string {
	s := ""
	if user := a.coord.CurrentUser(); user != nil {
		s = user.Email + " "
	}
	if a.Mode != "" {
		s = s + string(a.Mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root restores any persisted session, announces the outcome, starts the
// connectivity watcher and runs the REPL until the user exits.
func (a *App) Root(ctx context.Context) {

	printlnFn("Welcome to SpendTrack CLI (type 'help' for commands)")

	unsubscribe := a.coord.SubscribeInvalidation(func(ev api.InvalidationEvent) {
		printlnFn(ev.Message)
	})
	defer unsubscribe()

	if err := a.coord.Restore(ctx); err != nil {
		if errors.Is(err, api.ErrUnavailable) {
			printlnFn("Server unavailable, previous session could not be verified")
			a.setMode(ModeOffline)
		} else {
			printlnFn("Session restore failed:", err.Error())
		}
	}

	if a.coord.State() == auth.StateAuthenticated {
		if user := a.coord.CurrentUser(); user != nil {
			printlnFn(fmt.Sprintf("Welcome back, %s!", user.FirstName))
		}
		a.setMode(ModeOnline)
		a.loadDashboard(ctx)
	} else {
		printlnFn("Please login or register")
	}

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}
