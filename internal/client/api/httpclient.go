package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/spendtrack/internal/client/models"
)

// HTTPClient implements Client on top of the request gateway. It holds no
// state of its own: the credential lives in the session store and is
// attached per request by the gateway.
type HTTPClient struct {
	gw *Gateway
}

func NewHTTPClient(gw *Gateway) *HTTPClient {
	return &HTTPClient{gw: gw}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string              `json:"access_token"`
	User        *models.UserProfile `json:"user"`
}

func (c *HTTPClient) Register(ctx context.Context, req RegisterRequest) error {
	return c.gw.Do(ctx, http.MethodPost, "/register", req, nil)
}

// Login authenticates and returns the typed credential/profile pair. A
// response missing either field is rejected rather than half-applied.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var resp loginResponse
	if err := c.gw.Do(ctx, http.MethodPost, "/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}

	if resp.AccessToken == "" || resp.User == nil {
		return nil, fmt.Errorf("malformed login response: missing token or user")
	}

	return &LoginResult{Credential: models.Credential(resp.AccessToken), Profile: resp.User}, nil
}

// VerifyToken confirms a restored credential is still accepted by the
// server. 2xx means valid; a 401 surfaces as ErrUnauthorized.
func (c *HTTPClient) VerifyToken(ctx context.Context) error {
	return c.gw.Do(ctx, http.MethodGet, "/verify-token", nil, nil)
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.gw.Do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *HTTPClient) GetExpenses(ctx context.Context) ([]models.Expense, error) {
	var expenses []models.Expense
	if err := c.gw.Do(ctx, http.MethodGet, "/expenses", nil, &expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (c *HTTPClient) AddExpense(ctx context.Context, e models.Expense) (int, error) {
	var resp struct {
		ID int `json:"id"`
	}
	if err := c.gw.Do(ctx, http.MethodPost, "/expenses", e, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

func (c *HTTPClient) UpdateExpense(ctx context.Context, id int, e models.Expense) error {
	return c.gw.Do(ctx, http.MethodPut, fmt.Sprintf("/expenses/%d", id), e, nil)
}

func (c *HTTPClient) DeleteExpense(ctx context.Context, id int) error {
	return c.gw.Do(ctx, http.MethodDelete, fmt.Sprintf("/expenses/%d", id), nil, nil)
}

func (c *HTTPClient) GetPrediction(ctx context.Context) (*models.Prediction, error) {
	var p models.Prediction
	if err := c.gw.Do(ctx, http.MethodGet, "/predict", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
