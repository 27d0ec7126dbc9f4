package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/spendtrack/internal/client/models"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string, session SessionSource, pub InvalidationPublisher) *HTTPClient {
	t.Helper()
	gw, _ := newGateway(t, baseURL, session, pub)
	return NewHTTPClient(gw)
}

func TestLogin_ReturnsTypedResult(t *testing.T) {
	srv := newFakeAPI(t)
	c := newTestClient(t, srv.URL+"/api", &fakeSession{}, &fakePublisher{})

	res, err := c.Login(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)
	require.False(t, res.Credential.IsZero())
	require.Equal(t, "a@x.com", res.Profile.Email)
	require.Equal(t, "A", res.Profile.FirstName)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	srv := newFakeAPI(t)
	pub := &fakePublisher{}
	c := newTestClient(t, srv.URL+"/api", &fakeSession{}, pub)

	_, err := c.Login(context.Background(), "a@x.com", "wrong")
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Contains(t, err.Error(), "Invalid credentials")
}

func TestLogin_MalformedResponseRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token": "", "user": null}`))
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, &fakeSession{}, &fakePublisher{})

	_, err := c.Login(context.Background(), "a@x.com", "secret1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "malformed login response")
}

func TestVerifyToken_ValidAndInvalid(t *testing.T) {
	srv := newFakeAPI(t)

	valid := &fakeSession{cred: models.Credential(mintToken(t, 1))}
	c := newTestClient(t, srv.URL+"/api", valid, &fakePublisher{})
	require.NoError(t, c.VerifyToken(context.Background()))

	stale := &fakeSession{cred: "garbage"}
	pub := &fakePublisher{}
	c = newTestClient(t, srv.URL+"/api", stale, pub)
	err := c.VerifyToken(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Len(t, pub.all(), 1)
}

func TestRegister_Success(t *testing.T) {
	srv := newFakeAPI(t)
	c := newTestClient(t, srv.URL+"/api", &fakeSession{}, &fakePublisher{})

	err := c.Register(context.Background(), RegisterRequest{
		Email: "new@x.com", Password: "secret1", FirstName: "N",
	})
	require.NoError(t, err)
}

func TestGetExpenses_DecodesList(t *testing.T) {
	srv := newFakeAPI(t)
	fs := &fakeSession{cred: models.Credential(mintToken(t, 1))}
	c := newTestClient(t, srv.URL+"/api", fs, &fakePublisher{})

	expenses, err := c.GetExpenses(context.Background())
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	require.Equal(t, "Food", expenses[0].Category)
	require.InDelta(t, 12.5, expenses[0].Amount, 1e-9)
}

func TestAddExpense_ReturnsID(t *testing.T) {
	srv := newFakeAPI(t)
	fs := &fakeSession{cred: models.Credential(mintToken(t, 1))}
	c := newTestClient(t, srv.URL+"/api", fs, &fakePublisher{})

	id, err := c.AddExpense(context.Background(), models.Expense{Category: "Food", Amount: 9.99})
	require.NoError(t, err)
	require.Equal(t, 42, id)
}

func TestUpdateExpense(t *testing.T) {
	srv := newFakeAPI(t)
	fs := &fakeSession{cred: models.Credential(mintToken(t, 1))}
	c := newTestClient(t, srv.URL+"/api", fs, &fakePublisher{})

	err := c.UpdateExpense(context.Background(), 7, models.Expense{Category: "Food", Amount: 15})
	require.NoError(t, err)
}

func TestDeleteExpense_NotFound(t *testing.T) {
	srv := newFakeAPI(t)
	fs := &fakeSession{cred: models.Credential(mintToken(t, 1))}
	c := newTestClient(t, srv.URL+"/api", fs, &fakePublisher{})

	require.NoError(t, c.DeleteExpense(context.Background(), 7))

	err := c.DeleteExpense(context.Background(), 404)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusNotFound, statusErr.Status)
	require.Equal(t, "Expense not found", statusErr.Reason)
}

func TestGetPrediction_Decodes(t *testing.T) {
	srv := newFakeAPI(t)
	fs := &fakeSession{cred: models.Credential(mintToken(t, 1))}
	c := newTestClient(t, srv.URL+"/api", fs, &fakePublisher{})

	p, err := c.GetPrediction(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 350.5, p.Prediction, 1e-9)
	require.Equal(t, "high", p.Confidence)
}

func TestPing_HealthEndpoint(t *testing.T) {
	srv := newFakeAPI(t)
	c := newTestClient(t, srv.URL+"/api", &fakeSession{}, &fakePublisher{})

	require.NoError(t, c.Ping(context.Background()))
}
