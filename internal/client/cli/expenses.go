package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/dmitrijs2005/spendtrack/internal/client/api"
	"github.com/dmitrijs2005/spendtrack/internal/client/models"
)

// List prints the user's expenses, most recent first (server order).
func (a *App) List(ctx context.Context) error {
	expenses, err := a.expenses.GetExpenses(ctx)
	if err != nil {
		return a.reportResourceError(err)
	}

	if len(expenses) == 0 {
		printlnFn("No expenses yet")
		return nil
	}
	for _, e := range expenses {
		printlnFn(fmt.Sprintf("#%d  %s  %.2f  %s  %s", e.ID, e.Date, e.Amount, e.Category, e.Description))
	}
	return nil
}

// Add prompts for expense fields and creates the expense remotely.
func (a *App) Add(ctx context.Context) error {
	category, err := getSimpleText(a.reader, "Enter category", os.Stdout)
	if err != nil {
		return err
	}

	amountText, err := getSimpleText(a.reader, "Enter amount", os.Stdout)
	if err != nil {
		return err
	}
	amount, err := strconv.ParseFloat(amountText, 64)
	if err != nil {
		printlnFn("Amount must be a number")
		return nil
	}

	description, err := getSimpleText(a.reader, "Enter description", os.Stdout)
	if err != nil {
		return err
	}

	date, err := getSimpleText(a.reader, "Enter date (YYYY-MM-DD)", os.Stdout)
	if err != nil {
		return err
	}

	id, err := a.expenses.AddExpense(ctx, models.Expense{
		Category:    category,
		Amount:      amount,
		Description: description,
		Date:        date,
	})
	if err != nil {
		return a.reportResourceError(err)
	}

	printlnFn(fmt.Sprintf("Added expense #%d", id))
	return nil
}

// Delete removes the expense with the given id.
func (a *App) Delete(ctx context.Context, rawID string) error {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		printlnFn("Usage: delete <id>")
		return nil
	}

	if err := a.expenses.DeleteExpense(ctx, id); err != nil {
		return a.reportResourceError(err)
	}
	printlnFn(fmt.Sprintf("Deleted expense #%d", id))
	return nil
}

// Predict prints the server-side spending forecast.
func (a *App) Predict(ctx context.Context) error {
	p, err := a.expenses.GetPrediction(ctx)
	if err != nil {
		return a.reportResourceError(err)
	}

	printlnFn(fmt.Sprintf("Next month: %.2f (confidence: %s)", p.Prediction, p.Confidence))
	if p.Message != "" {
		printlnFn(p.Message)
	}
	return nil
}

// loadDashboard mirrors the post-auth data load: expenses plus prediction.
// A 401 here already funnelled through the gateway, so the session is gone
// and the forced sign-out announcement follows; nothing more to do locally.
func (a *App) loadDashboard(ctx context.Context) {
	if err := a.List(ctx); err != nil {
		a.log.Warn(ctx, "dashboard.expenses.failed", "error", err)
		return
	}
	if err := a.Predict(ctx); err != nil {
		a.log.Warn(ctx, "dashboard.prediction.failed", "error", err)
	}
}

// reportResourceError turns expected failures into user-facing messages and
// passes everything else through.
func (a *App) reportResourceError(err error) error {
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		// the invalidation subscriber already announced the sign-out
		return nil
	case errors.Is(err, api.ErrUnavailable):
		printlnFn("Server unavailable, try again later")
		a.setMode(ModeOffline)
		return nil
	}
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) && statusErr.Reason != "" {
		printlnFn("Request failed:", statusErr.Reason)
		return nil
	}
	return err
}
