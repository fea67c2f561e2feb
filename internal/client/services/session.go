package services

import (
	"context"
	"errors"
	"sync"

	"github.com/barterdesk/barterdesk/internal/client/api"
	"github.com/barterdesk/barterdesk/internal/client/session"
	"github.com/barterdesk/barterdesk/internal/client/token"
	"github.com/barterdesk/barterdesk/internal/logging"
)

// Mode selects which workflow a SessionController instance drives.
type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
)

func (m Mode) String() string {
	if m == ModeRegister {
		return "register"
	}
	return "login"
}

// Authenticator is the slice of the API client the controller needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, username, email, password string) (string, error)
}

// SessionWriter persists a complete session record atomically.
type SessionWriter interface {
	WriteAll(ctx context.Context, tok, username, email string) error
}

// SessionController drives one login or registration form instance.
//
// Lifecycle: Start → Validating → Loading → Success or Failed. Failed returns
// to Validating on the next field edit, or to Start via Reset. The controller
// guarantees at most one in-flight submission: Submit while Loading is a
// no-op, independent of whether the UI disables its button.
//
// One controller per form instance; construct with NewSessionController and
// Close when the form is torn down. A submission result arriving after Close
// is discarded and nothing is persisted.
type SessionController struct {
	mode  Mode
	auth  Authenticator
	store SessionWriter
	log   logging.Logger

	mu       sync.Mutex
	form     Form
	status   Status
	inFlight bool
	closed   bool
	subs     []chan Status
}

func NewSessionController(mode Mode, auth Authenticator, store SessionWriter, log logging.Logger) *SessionController {
	return &SessionController{
		mode:   mode,
		auth:   auth,
		store:  store,
		log:    log.With("component", "session_controller", "mode", mode.String()),
		status: Status{Kind: StatusStart},
	}
}

// SetUsername updates the username field and re-runs local validation.
func (c *SessionController) SetUsername(v string) { c.edit(func(f *Form) { f.Username = v }) }

// SetEmail updates the email field and re-runs local validation.
func (c *SessionController) SetEmail(v string) { c.edit(func(f *Form) { f.Email = v }) }

// SetPassword updates the password field and re-runs local validation.
func (c *SessionController) SetPassword(v string) { c.edit(func(f *Form) { f.Password = v }) }

// SetConfirmPassword updates the confirmation field and re-runs local validation.
func (c *SessionController) SetConfirmPassword(v string) {
	c.edit(func(f *Form) { f.ConfirmPassword = v })
}

// TogglePasswordVisibility flips the password field visibility.
func (c *SessionController) TogglePasswordVisibility() {
	c.edit(func(f *Form) { f.ShowPassword = !f.ShowPassword })
}

// ToggleConfirmPasswordVisibility flips the confirmation field visibility.
func (c *SessionController) ToggleConfirmPasswordVisibility() {
	c.edit(func(f *Form) { f.ShowConfirmPassword = !f.ShowConfirmPassword })
}

// edit applies a field change. Editing clears a Failed display back to
// Validating; otherwise the status is left alone.
func (c *SessionController) edit(apply func(*Form)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	apply(&c.form)

	if c.status.Kind == StatusFailed {
		c.setStatusLocked(Status{Kind: StatusValidating})
	}
}

// Form returns a copy of the current form state.
func (c *SessionController) Form() Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// SubmitEnabled reports whether the form passes local validation and no
// submission is in flight. The presentation layer binds its button to this.
func (c *SessionController) SubmitEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.inFlight && c.validateLocked() == nil
}

// Status returns the current status snapshot.
func (c *SessionController) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Observe returns a stream of status changes, starting with the current
// status. The channel closes when ctx is done or the controller is closed.
func (c *SessionController) Observe(ctx context.Context) <-chan Status {
	ch := make(chan Status, statusBuffer)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch
	}
	ch <- c.status
	c.subs = append(c.subs, ch)
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.unsubscribe(ch)
	}()

	return ch
}

// Reset returns a terminal form back to Start and clears all fields.
func (c *SessionController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.inFlight {
		return
	}
	c.form = Form{}
	c.setStatusLocked(Status{Kind: StatusStart})
}

// Close tears the controller down. An in-flight network call is not
// cancelled, but its result is discarded and no session state is written.
func (c *SessionController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for _, ch := range c.subs {
		close(ch)
	}
	c.subs = nil
}

// Submit validates the form and, if it passes, starts the (single) network
// submission. Local validation failures surface as Failed without any
// network traffic. A Submit while one is already in flight is ignored.
func (c *SessionController) Submit(ctx context.Context) {
	c.mu.Lock()
	if c.closed || c.inFlight {
		c.mu.Unlock()
		return
	}

	if err := c.validateLocked(); err != nil {
		c.setStatusLocked(Status{Kind: StatusFailed, Message: err.Error()})
		c.mu.Unlock()
		return
	}

	form := c.form
	c.inFlight = true
	c.setStatusLocked(Status{Kind: StatusLoading})
	c.mu.Unlock()

	go c.run(ctx, form)
}

func (c *SessionController) validateLocked() error {
	if c.mode == ModeRegister {
		return c.form.validateRegistration()
	}
	return c.form.validateLogin()
}

func (c *SessionController) run(ctx context.Context, form Form) {
	var (
		raw string
		err error
	)
	switch c.mode {
	case ModeRegister:
		raw, err = c.auth.Register(ctx, form.Username, form.Email, form.Password)
	default:
		raw, err = c.auth.Login(ctx, form.Email, form.Password)
	}

	outcome := c.settle(ctx, form, raw, err)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
	if c.closed {
		return
	}
	if outcome.Kind == StatusSuccess {
		c.form = Form{}
	}
	c.setStatusLocked(outcome)
}

// settle turns the raw submission result into a terminal status. The session
// record is persisted before Success becomes observable, so anyone reacting
// to Success is guaranteed to read the new record.
func (c *SessionController) settle(ctx context.Context, form Form, raw string, err error) Status {
	if err != nil {
		return Status{Kind: StatusFailed, Message: c.classify(ctx, err)}
	}

	if raw == "" {
		c.log.Warn(ctx, "success response carried no credential")
		return Status{Kind: StatusFailed, Message: msgNoCredential}
	}

	claims, derr := token.Decode(raw)
	if derr != nil {
		// never persist a partial session over a broken credential
		c.log.Error(ctx, "credential failed to decode", "error", derr)
		return Status{Kind: StatusFailed, Message: msgTokenIntegrity}
	}

	if c.isClosed() {
		// form was torn down mid-flight: discard, write nothing
		return Status{}
	}

	record := session.Record{Token: raw, Username: claims.Username, Email: form.Email}
	if werr := c.store.WriteAll(ctx, record.Token, record.Username, record.Email); werr != nil {
		// the credentials are valid but the device failed to remember them;
		// this is distinct from any server-side failure
		c.log.Error(ctx, "failed to persist session record", "error", werr)
		return Status{Kind: StatusFailed, Message: msgStorageFailure}
	}

	c.log.Info(ctx, "authenticated", "username", record.Username)
	return Status{Kind: StatusSuccess, Record: record}
}

// classify resolves a submission error into a user-facing message.
func (c *SessionController) classify(ctx context.Context, err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return rewriteServerMessage(apiErr.Message)
		}
		return statusCodeMessage(apiErr.StatusCode)
	}

	c.log.Warn(ctx, "submission failed without a response", "error", err)
	return msgNetworkFailure
}

func (c *SessionController) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *SessionController) setStatusLocked(st Status) {
	c.status = st
	for _, ch := range c.subs {
		select {
		case ch <- st:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
}

func (c *SessionController) unsubscribe(ch chan Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, sub := range c.subs {
		if sub == ch {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			close(ch)
			return
		}
	}
}

// statusBuffer bounds each status observer channel; slow observers coalesce
// to the latest status.
const statusBuffer = 8
