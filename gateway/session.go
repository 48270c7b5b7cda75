package gateway

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/luminal-ai/agui-gateway/auth"
	"github.com/luminal-ai/agui-gateway/protocol"
	"github.com/luminal-ai/agui-gateway/store"
)

// UpgradeURL is the sign-in hint attached to guest-gated errors.
const UpgradeURL = "/api/v1/auth/upgrade"

// CommandOutcome is the single result object a command execution returns.
type CommandOutcome struct {
	Success bool
	Message string
	Data    map[string]any
}

// FormOutcome is the single result object a form submission returns.
type FormOutcome struct {
	Success  bool
	Message  string
	Metadata map[string]any
}

// CommandExecutor runs one named command for a session.
type CommandExecutor interface {
	Execute(ctx context.Context, userID int64, isGuest bool, command string, parameters map[string]any) (*CommandOutcome, error)
}

// FormSubmitter processes one submitted form.
type FormSubmitter interface {
	Submit(ctx context.Context, userID int64, formID string, formData map[string]any) (*FormOutcome, error)
}

// UIEventSource builds the uiContext and taskList side events sent around
// chat and command handling. Either method may return (nil, nil) when the
// event is not applicable; nil events are skipped.
type UIEventSource interface {
	UIContext(ctx context.Context, userID int64, activeMode string, isGuest bool) (*protocol.UIContext, error)
	TaskList(ctx context.Context, userID int64, source string, force bool) (*protocol.TaskList, error)
}

// Deps are the collaborators a session loop needs. Adapter and Validator are
// required; the rest may be nil, in which case the corresponding envelope
// types report their handler-level error codes or skip the side effect.
type Deps struct {
	Validator auth.Validator
	Gate      *auth.Gate
	Quota     *auth.QuotaEnforcer
	Adapter   *Adapter
	Commands  CommandExecutor
	Forms     FormSubmitter
	Search    store.KBSearcher
	UIEvents  UIEventSource
	Turns     store.TurnRecorder
	Log       *slog.Logger
}

type sessionState int

const (
	stateAwaitingAuth sessionState = iota
	stateAuthenticated
	stateClosed
)

// SessionLoop owns one client connection: the auth handshake, then the
// strictly sequential envelope dispatch loop. One goroutine runs the whole
// loop; a second envelope is never processed before the current handler has
// drained its turn to a terminal event.
type SessionLoop struct {
	conn    Conn
	deps    Deps
	session *auth.Session
	state   sessionState
	log     *slog.Logger
}

func NewSessionLoop(conn Conn, deps Deps) *SessionLoop {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	return &SessionLoop{conn: conn, deps: deps, state: stateAwaitingAuth, log: log}
}

// Run drives the connection to completion. It always closes the socket
// before returning, with 1008 on auth failure and a best-effort
// INTERNAL_ERROR plus 1011 on anything unexpected.
func (l *SessionLoop) Run(ctx context.Context) {
	ConnectionsActive.Inc()
	defer ConnectionsActive.Dec()

	closeCode := websocket.CloseNormalClosure
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("ws: session panic", "panic", r)
			l.sendError("Internal server error", protocol.CodeInternalError)
			closeCode = websocket.CloseInternalServerErr
		}
		l.state = stateClosed
		if err := l.conn.Close(closeCode, ""); err != nil {
			l.log.Debug("ws: close failed", "error", err)
		}
	}()

	if !l.authenticate(ctx) {
		closeCode = websocket.ClosePolicyViolation
		return
	}

	for {
		data, err := l.conn.ReadMessage()
		if err != nil {
			l.log.Info("ws: disconnected", "error", err)
			return
		}
		l.dispatch(ctx, data)
	}
}

// authenticate runs the AWAITING_AUTH state: exactly one envelope, which
// must be auth, with a valid token and a passing password gate.
func (l *SessionLoop) authenticate(ctx context.Context) bool {
	data, err := l.conn.ReadMessage()
	if err != nil {
		l.log.Info("ws: disconnected before auth", "error", err)
		return false
	}

	env, err := protocol.Decode(data)
	if err != nil {
		l.sendError("Authentication required", protocol.CodeAuthRequired)
		return false
	}
	authEnv, ok := env.(*protocol.Auth)
	if !ok {
		l.sendError("Authentication required", protocol.CodeAuthRequired)
		return false
	}

	session, err := l.deps.Validator.Validate(ctx, authEnv.Token)
	if err != nil {
		l.log.Error("ws: token validation failed", "error", err)
		l.sendError("Invalid or expired token", protocol.CodeInvalidToken)
		return false
	}
	if session == nil {
		l.sendError("Invalid or expired token", protocol.CodeInvalidToken)
		return false
	}

	if l.deps.Gate != nil {
		switch l.deps.Gate.Verify(ctx, session.Token, authEnv.Password, session.UserID) {
		case auth.PasswordRequired:
			l.sendErrorHint("Password required", protocol.CodePasswordRequired,
				`Include "password" field in auth message`)
			return false
		case auth.PasswordIncorrect:
			l.sendErrorHint("Incorrect password", protocol.CodeIncorrectPassword,
				`Include "password" field in auth message with correct password`)
			return false
		}
	}

	l.session = session
	l.state = stateAuthenticated
	l.send(protocol.NewAuthSuccess(session.Mode(), session.UserID, session.Permissions, modeActiveMessage(session.Mode())))
	l.log.Info("ws: authenticated", "mode", session.Mode(), "user_id", session.UserID)
	return true
}

func modeActiveMessage(mode string) string {
	if mode == "" {
		return "Session active"
	}
	return strings.ToUpper(mode[:1]) + mode[1:] + " mode active"
}

// dispatch routes one authenticated envelope. Handler failures never tear
// down the connection; each handler converts its own failures to a typed
// error event.
func (l *SessionLoop) dispatch(ctx context.Context, data []byte) {
	env, err := protocol.Decode(data)
	if err != nil {
		l.log.Warn("ws: bad envelope", "error", err)
		l.sendError(err.Error(), protocol.CodeUnknownMessageType)
		return
	}
	EnvelopesTotal.WithLabelValues(env.Tag()).Inc()

	switch m := env.(type) {
	case *protocol.UserMessage:
		l.handleUserMessage(ctx, m)
	case *protocol.Command:
		l.handleCommand(ctx, m)
	case *protocol.FormSubmit:
		l.handleFormSubmit(ctx, m)
	case *protocol.SearchKB:
		l.handleSearch(ctx, m)
	case *protocol.Ping:
		l.send(protocol.NewPong())
	case *protocol.Auth:
		// Re-auth on an open session is not part of the protocol.
		l.sendError("Already authenticated", protocol.CodeUnknownMessageType)
	}
}

func (l *SessionLoop) send(ev protocol.Event) bool {
	if err := l.conn.WriteEvent(ev); err != nil {
		l.log.Debug("ws: write failed", "type", ev.Type(), "error", err)
		return false
	}
	EventsTotal.WithLabelValues(ev.Type()).Inc()
	return true
}

// emit is the adapter's event sink: counted like send but propagating the
// write error so the adapter stops driving a dead transport.
func (l *SessionLoop) emit(ev protocol.Event) error {
	if err := l.conn.WriteEvent(ev); err != nil {
		return err
	}
	EventsTotal.WithLabelValues(ev.Type()).Inc()
	return nil
}

func (l *SessionLoop) sendError(message, code string) bool {
	ErrorsTotal.WithLabelValues(code).Inc()
	return l.send(protocol.NewError(message, code))
}

func (l *SessionLoop) sendErrorHint(message, code, hint string) bool {
	ev := protocol.NewError(message, code)
	ev.Hint = hint
	ErrorsTotal.WithLabelValues(code).Inc()
	return l.send(ev)
}

func (l *SessionLoop) sendErrorUpgrade(message, code string) bool {
	ev := protocol.NewError(message, code)
	ev.UpgradeURL = UpgradeURL
	ErrorsTotal.WithLabelValues(code).Inc()
	return l.send(ev)
}

// sendUIContext and sendTaskList are best effort: a failing side-event
// source never fails the envelope that triggered it.
func (l *SessionLoop) sendUIContext(ctx context.Context, activeMode string) {
	if l.deps.UIEvents == nil {
		return
	}
	ev, err := l.deps.UIEvents.UIContext(ctx, l.session.UserID, activeMode, l.session.IsGuest())
	if err != nil {
		l.log.Warn("ws: uiContext build failed", "error", err)
		return
	}
	if ev != nil {
		l.send(ev)
	}
}

func (l *SessionLoop) sendTaskList(ctx context.Context, source string, force bool) {
	if l.deps.UIEvents == nil {
		return
	}
	ev, err := l.deps.UIEvents.TaskList(ctx, l.session.UserID, source, force)
	if err != nil {
		l.log.Warn("ws: taskList build failed", "error", err)
		return
	}
	if ev != nil {
		l.send(ev)
	}
}
