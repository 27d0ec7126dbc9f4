// Package api contains the remote API surface of the client: the request
// gateway that every outbound call passes through, and the typed operations
// for auth and expense resources.
package api

import (
	"context"

	"github.com/dmitrijs2005/spendtrack/internal/client/models"
)

// RegisterRequest is the payload for account creation.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
}

// LoginResult is the typed outcome of a successful login: the opaque bearer
// credential plus the user profile, never accessed through loose maps.
type LoginResult struct {
	Credential models.Credential
	Profile    *models.UserProfile
}

// Client defines the remote operations used by the rest of the application.
//
// Contract:
//   - Register, Login: unauthenticated; no credential attached.
//   - VerifyToken: re-validates a restored credential; never authenticates.
//   - Resource calls are passed through the gateway unchanged and inherit
//     its credential-attachment and 401-handling behavior.
//
// All methods honor context cancellation. No retries at this layer.
type Client interface {
	Register(ctx context.Context, req RegisterRequest) error
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	VerifyToken(ctx context.Context) error
	Ping(ctx context.Context) error

	GetExpenses(ctx context.Context) ([]models.Expense, error)
	AddExpense(ctx context.Context, e models.Expense) (int, error)
	UpdateExpense(ctx context.Context, id int, e models.Expense) error
	DeleteExpense(ctx context.Context, id int) error
	GetPrediction(ctx context.Context) (*models.Prediction, error)
}
