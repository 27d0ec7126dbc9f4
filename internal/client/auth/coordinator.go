// Package auth owns the client's authentication status: a small state
// machine that restores persisted sessions on startup, serializes
// login/register/verify operations, and converges to signed-out whenever an
// invalidation signal arrives.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/spendtrack/internal/client/api"
	"github.com/dmitrijs2005/spendtrack/internal/client/models"
	"github.com/dmitrijs2005/spendtrack/internal/common"
	"github.com/dmitrijs2005/spendtrack/internal/logging"
)

// State is the coordinator's externally observable authentication status.
type State string

const (
	StateInitializing    State = "initializing"
	StateRestoring       State = "restoring"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
)

// ErrSuperseded is returned when an operation completed remotely but a newer
// transition (logout, invalidation) was applied while it was in flight, so
// its result was discarded.
var ErrSuperseded = errors.New("operation superseded by a newer transition")

// SessionStore is the session persistence surface the coordinator needs.
type SessionStore interface {
	SetSession(ctx context.Context, cred models.Credential, profile *models.UserProfile) bool
	GetSession(ctx context.Context) (*models.SessionRecord, bool)
	ClearSession(ctx context.Context)
	HasValidSession(ctx context.Context) bool
}

// AuthAPI is the subset of the remote client the coordinator drives.
type AuthAPI interface {
	Register(ctx context.Context, req api.RegisterRequest) error
	Login(ctx context.Context, email, password string) (*api.LoginResult, error)
	VerifyToken(ctx context.Context) error
}

// Coordinator serializes authentication operations and applies state
// transitions under a sequence-number guard: a transition whose sequence is
// lower than the last applied one is discarded, so completion order cannot
// override the most recent user-initiated action.
type Coordinator struct {
	sessions SessionStore
	client   AuthAPI
	bus      *Broadcaster
	log      logging.Logger

	mu         sync.Mutex
	state      State
	user       *models.UserProfile
	appliedSeq uint64

	opMu       sync.Mutex
	opInFlight bool
	cancelOp   context.CancelFunc

	subMu     sync.Mutex
	stateSubs map[int]func(State)
	nextSubID int

	unsubscribe func()
}

// NewCoordinator starts in StateInitializing and subscribes itself to the
// broadcaster so gateway-originated invalidations are applied.
func NewCoordinator(sessions SessionStore, client AuthAPI, bus *Broadcaster, log logging.Logger) *Coordinator {
	c := &Coordinator{
		sessions:  sessions,
		client:    client,
		bus:       bus,
		log:       log,
		state:     StateInitializing,
		stateSubs: make(map[int]func(State)),
	}
	c.unsubscribe = bus.Subscribe(c.onInvalidation)
	return c
}

// Close cancels any in-flight operation and detaches from the broadcaster.
// An abandoned verify or login can no longer apply a transition afterwards.
func (c *Coordinator) Close() {
	c.opMu.Lock()
	if c.cancelOp != nil {
		c.cancelOp()
	}
	c.opMu.Unlock()

	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

// State returns the current authentication status.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentUser returns the profile of the authenticated user, if any.
func (c *Coordinator) CurrentUser() *models.UserProfile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// SubscribeState registers fn for state-change notifications and returns its
// unsubscribe function. fn is called synchronously after a transition is
// applied, outside the coordinator's locks.
func (c *Coordinator) SubscribeState(fn func(State)) func() {
	c.subMu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.stateSubs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.stateSubs, id)
		c.subMu.Unlock()
	}
}

// SubscribeInvalidation registers fn for forced sign-out signals.
func (c *Coordinator) SubscribeInvalidation(fn func(api.InvalidationEvent)) func() {
	return c.bus.Subscribe(fn)
}

// Restore replays a persisted session at startup: no session means a direct
// transition to StateUnauthenticated; otherwise the coordinator enters
// StateRestoring, re-validates the credential remotely, and either promotes
// to StateAuthenticated or purges the stale session. No collaborator data
// load starts before verify resolves.
func (c *Coordinator) Restore(ctx context.Context) error {
	if !c.beginOp() {
		return common.ErrOperationInProgress
	}
	defer c.endOp()

	seq := c.bus.NextSeq()

	rec, ok := c.sessions.GetSession(ctx)
	if !ok || !rec.Valid() {
		c.apply(seq, StateUnauthenticated, nil)
		return nil
	}

	c.apply(seq, StateRestoring, nil)

	opCtx, cancel := context.WithCancel(ctx)
	c.setCancel(cancel)
	defer cancel()

	err := c.client.VerifyToken(opCtx)
	if err != nil {
		if opCtx.Err() != nil {
			// abandoned verify: the coordinator has moved on, apply nothing
			return opCtx.Err()
		}
		// stale credential or unreachable server: fail safe to signed-out
		c.sessions.ClearSession(ctx)
		c.apply(seq, StateUnauthenticated, nil)
		if errors.Is(err, api.ErrUnauthorized) {
			c.log.Info(ctx, "auth.restore.rejected", "credential_len", rec.Credential.Len())
			return nil
		}
		return err
	}

	c.apply(seq, StateAuthenticated, rec.Profile)
	return nil
}

// Login authenticates, persists the session, and only then makes
// StateAuthenticated observable. A concurrent login/verify/register is
// rejected with common.ErrOperationInProgress rather than queued.
func (c *Coordinator) Login(ctx context.Context, email, password string) (*models.UserProfile, error) {
	if !c.beginOp() {
		return nil, common.ErrOperationInProgress
	}
	defer c.endOp()

	seq := c.bus.NextSeq()

	opCtx, cancel := context.WithCancel(ctx)
	c.setCancel(cancel)
	defer cancel()

	res, err := c.client.Login(opCtx, email, password)
	if err != nil {
		if opCtx.Err() != nil {
			return nil, opCtx.Err()
		}
		if errors.Is(err, api.ErrUnauthorized) {
			// wrong credentials: any partial auth data is gone already
			// (the gateway cleared it), make the state explicit
			c.apply(seq, StateUnauthenticated, nil)
		}
		// network errors leave session state untouched
		return nil, err
	}

	c.mu.Lock()
	if seq < c.appliedSeq {
		c.mu.Unlock()
		c.log.Debug(ctx, "auth.login.discarded", "seq", seq, "applied_seq", c.appliedSeq)
		return nil, ErrSuperseded
	}

	// the session write completes before the transition becomes observable
	if !c.sessions.SetSession(ctx, res.Credential, res.Profile) {
		c.sessions.ClearSession(ctx)
		c.applyLocked(seq, StateUnauthenticated, nil)
		c.mu.Unlock()
		c.notifyState(StateUnauthenticated)
		return nil, fmt.Errorf("failed to persist session")
	}
	c.applyLocked(seq, StateAuthenticated, res.Profile)
	c.mu.Unlock()
	c.notifyState(StateAuthenticated)

	return res.Profile, nil
}

// Register creates an account. It does not change authentication state; the
// caller logs in afterwards, as the original flow does.
func (c *Coordinator) Register(ctx context.Context, req api.RegisterRequest) error {
	if !c.beginOp() {
		return common.ErrOperationInProgress
	}
	defer c.endOp()

	opCtx, cancel := context.WithCancel(ctx)
	c.setCancel(cancel)
	defer cancel()

	return c.client.Register(opCtx, req)
}

// Logout clears the session and transitions to StateUnauthenticated. It is
// user-initiated and therefore takes a fresh sequence number: a login still
// in flight will find itself superseded.
func (c *Coordinator) Logout(ctx context.Context) {
	seq := c.bus.NextSeq()
	c.sessions.ClearSession(ctx)
	c.apply(seq, StateUnauthenticated, nil)
}

// onInvalidation applies a gateway-originated forced sign-out. The event
// carries the sequence of the era its request was issued in; events from a
// superseded era are discarded.
func (c *Coordinator) onInvalidation(ev api.InvalidationEvent) {
	ctx := context.Background()

	c.mu.Lock()
	if ev.Seq < c.appliedSeq {
		applied := c.appliedSeq
		c.mu.Unlock()
		c.log.Debug(ctx, "auth.invalidation.discarded", "seq", ev.Seq, "applied_seq", applied, "url", ev.URL)
		return
	}
	c.applyLocked(ev.Seq, StateUnauthenticated, nil)
	c.mu.Unlock()

	// the gateway already cleared the session; repeating is a no-op
	c.sessions.ClearSession(ctx)
	c.notifyState(StateUnauthenticated)
}

// apply runs the sequence guard and notifies state subscribers on success.
func (c *Coordinator) apply(seq uint64, state State, user *models.UserProfile) bool {
	c.mu.Lock()
	if seq < c.appliedSeq {
		applied := c.appliedSeq
		c.mu.Unlock()
		c.log.Debug(context.Background(), "auth.transition.discarded", "seq", seq, "applied_seq", applied, "state", string(state))
		return false
	}
	c.applyLocked(seq, state, user)
	c.mu.Unlock()

	c.notifyState(state)
	return true
}

// applyLocked must be called with c.mu held and the guard already checked.
func (c *Coordinator) applyLocked(seq uint64, state State, user *models.UserProfile) {
	c.appliedSeq = seq
	c.state = state
	c.user = user
}

func (c *Coordinator) notifyState(state State) {
	c.subMu.Lock()
	fns := make([]func(State), 0, len(c.stateSubs))
	for _, fn := range c.stateSubs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

func (c *Coordinator) beginOp() bool {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.opInFlight {
		return false
	}
	c.opInFlight = true
	return true
}

func (c *Coordinator) endOp() {
	c.opMu.Lock()
	c.opInFlight = false
	c.cancelOp = nil
	c.opMu.Unlock()
}

func (c *Coordinator) setCancel(cancel context.CancelFunc) {
	c.opMu.Lock()
	c.cancelOp = cancel
	c.opMu.Unlock()
}
