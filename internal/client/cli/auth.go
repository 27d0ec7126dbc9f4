package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/spendtrack/internal/client/api"
	"github.com/dmitrijs2005/spendtrack/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for account details and attempts to create a new account.
//
// On success it prints a confirmation and returns nil; the user logs in
// separately afterwards. The password byte slice is securely wiped before
// returning. Any I/O or service error is returned unchanged.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	firstName, err := getSimpleText(a.reader, "Enter first name", os.Stdout)
	if err != nil {
		return err
	}

	lastName, err := getSimpleText(a.reader, "Enter last name", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	req := api.RegisterRequest{Email: email, Password: string(password), FirstName: firstName, LastName: lastName}
	if err := a.coord.Register(ctx, req); err != nil {
		var statusErr *api.StatusError
		if errors.As(err, &statusErr) && statusErr.Reason != "" {
			printlnFn("Registration failed:", statusErr.Reason)
			return nil
		}
		return err
	}

	printlnFn("Registered! You can login now.")
	return nil
}

// Login prompts for credentials and authenticates via the coordinator.
//
// On success the session is already persisted and the post-auth dashboard is
// loaded. Wrong credentials and an unreachable server are reported to the
// user rather than returned; a concurrent attempt surfaces as a friendly
// message too. The password is securely wiped before returning.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	profile, err := a.coord.Login(ctx, email, string(password))
	if err != nil {
		switch {
		case errors.Is(err, api.ErrUnauthorized):
			printlnFn("Invalid credentials")
		case errors.Is(err, api.ErrUnavailable):
			printlnFn("Server unavailable, try again later")
			a.setMode(ModeOffline)
		case errors.Is(err, common.ErrOperationInProgress):
			printlnFn("Another sign-in is already in progress")
		default:
			return err
		}
		return nil
	}

	a.setMode(ModeOnline)
	printlnFn(fmt.Sprintf("Welcome, %s!", profile.FirstName))
	a.loadDashboard(ctx)
	return nil
}

// Logout clears the persisted session and transitions to signed-out.
func (a *App) Logout(ctx context.Context) error {
	a.coord.Logout(ctx)
	printlnFn("Logged out")
	return nil
}

// Whoami prints the authenticated user's profile, if any.
func (a *App) Whoami(ctx context.Context) error {
	user := a.coord.CurrentUser()
	if user == nil {
		printlnFn("Not logged in")
		return nil
	}
	printlnFn(fmt.Sprintf("%s %s <%s>", user.FirstName, user.LastName, user.Email))
	return nil
}
