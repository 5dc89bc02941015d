// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dispatch runs a user message through the send pipeline.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/hueychat/internal/api"
	"github.com/jeranaias/hueychat/internal/logging"
	"github.com/jeranaias/hueychat/internal/model"
)

// DefaultTimeout bounds one remote call.
const DefaultTimeout = 30 * time.Second

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrValidation rejects a send before any side effect.
	ErrValidation = errors.New("message rejected")

	// ErrBusy rejects a send while another is in flight.
	ErrBusy = fmt.Errorf("%w: a message is already being sent", ErrValidation)

	// ErrEmptyMessage rejects blank text.
	ErrEmptyMessage = fmt.Errorf("%w: message is empty", ErrValidation)

	// ErrAuthRequired means the user must log in first.
	ErrAuthRequired = errors.New("login required")

	// ErrSessionExpired means the server rejected the bearer token.
	ErrSessionExpired = errors.New("session expired")

	// ErrRemote covers every other remote failure, timeouts included.
	ErrRemote = errors.New("remote request failed")

	// ErrNoConversation means no target conversation could be created.
	ErrNoConversation = errors.New("no conversation available")
)

// User-facing failure texts recorded in the transcript.
const (
	TextSessionExpired = "Your session has expired. Please log in again."
	TextLoginRequired  = "Please log in to use chat."
	TextRetryLater     = "Sorry, something went wrong. Please try again later."
)

// Markers looked for in remote error messages. The server speaks Chinese,
// so its own wording is matched as well. A 401 status is checked on the
// error itself rather than by text.
var (
	expiredMarkers       = []string{"unauthorized", "未授权"}
	loginRequiredMarkers = []string{"login required", "需要登录"}
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Store is the conversation store as seen by the pipeline.
type Store interface {
	// Create returns "" when no conversation can be created.
	Create(initialPrompt string) string
	Get(id string) (*model.Conversation, bool)
	Append(id string, role model.Role, content string) *model.Message
	AppendError(id, content string) *model.Message
}

// Identity reports the session and hands out the bearer token.
type Identity interface {
	IsAuthenticated() bool
	Token() string
}

// Remote performs the chat call.
type Remote interface {
	Send(ctx context.Context, token string, req api.SendRequest) (string, error)
}

// Surface is the view the pipeline drives.
type Surface interface {
	AppendTranscript(msg *model.Message)
	SetBusy(busy bool)
	FocusComposer()
}

// Notifier raises out-of-band notices.
type Notifier interface {
	AuthRequired()
	SessionExpired()
	Warning(title, detail string)
	Fatal(title, detail string)
}

// =============================================================================
// STATE / OUTCOME
// =============================================================================

// State is the pipeline's position in a send.
type State int32

const (
	StateIdle State = iota
	StateValidating
	StateAwaitingChat
	StateSending
	StateSucceeded
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateAwaitingChat:
		return "awaiting_chat"
	case StateSending:
		return "sending"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Status summarises how a send ended.
type Status int

const (
	// Rejected: validation failed, nothing happened.
	Rejected Status = iota
	// Aborted: stopped before the user message was stored.
	Aborted
	// Succeeded: reply stored.
	Succeeded
	// Failed: user message stored, error notice stored in place of a reply.
	Failed
)

// Outcome reports the result of Send.
type Outcome struct {
	Status         Status
	Err            error
	ConversationID string
	// Reply is the stored assistant message (or error notice on Failed).
	Reply *model.Message
}

// =============================================================================
// PIPELINE
// =============================================================================

// Options configures a Pipeline.
type Options struct {
	Timeout       time.Duration
	DefaultPrompt string

	// RefreshList re-projects the conversation list.
	RefreshList func()
	// RefreshAccount re-reads the credit indicator.
	RefreshAccount func()

	Logger *zap.Logger
}

// Pipeline sends one message at a time.
type Pipeline struct {
	store    Store
	identity Identity
	remote   Remote
	surface  Surface
	notifier Notifier
	opts     Options
	log      *zap.Logger

	inFlight atomic.Bool
	state    atomic.Int32
}

// New creates a pipeline. surface and notifier may be nil.
func New(store Store, identity Identity, remote Remote, surface Surface, notifier Notifier, opts Options) *Pipeline {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if surface == nil {
		surface = nopSurface{}
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Pipeline{
		store:    store,
		identity: identity,
		remote:   remote,
		surface:  surface,
		notifier: notifier,
		opts:     opts,
		log:      logging.OrNop(opts.Logger).Named("dispatch"),
	}
}

// State returns the current pipeline state.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Busy reports whether a send is in flight.
func (p *Pipeline) Busy() bool {
	return p.inFlight.Load()
}

func (p *Pipeline) setState(s State) {
	p.state.Store(int32(s))
}

// Send runs text through validate, ensure-conversation, auth gate,
// optimistic append, remote call and reconciliation.
func (p *Pipeline) Send(ctx context.Context, sess *Session, text string) Outcome {
	content := strings.TrimSpace(text)
	if content == "" {
		return Outcome{Status: Rejected, Err: ErrEmptyMessage}
	}
	if !p.inFlight.CompareAndSwap(false, true) {
		return Outcome{Status: Rejected, Err: ErrBusy}
	}
	defer func() {
		p.setState(StateIdle)
		p.inFlight.Store(false)
	}()
	p.setState(StateValidating)

	convID, ok := p.ensureConversation(sess)
	if !ok {
		p.notifier.Fatal("Cannot create chat", "Restart hueychat and try again.")
		return Outcome{Status: Aborted, Err: ErrNoConversation}
	}

	p.setState(StateAwaitingChat)
	if !p.identity.IsAuthenticated() {
		p.notifier.AuthRequired()
		return Outcome{Status: Aborted, Err: ErrAuthRequired, ConversationID: convID}
	}
	token := p.identity.Token()

	conv, ok := p.store.Get(convID)
	if !ok {
		p.notifier.Fatal("Cannot create chat", "Restart hueychat and try again.")
		return Outcome{Status: Aborted, Err: ErrNoConversation, ConversationID: convID}
	}

	p.surface.SetBusy(true)
	defer func() {
		p.surface.SetBusy(false)
		p.surface.FocusComposer()
	}()

	userMsg := p.store.Append(convID, model.RoleUser, content)
	if userMsg == nil {
		p.notifier.Fatal("Cannot create chat", "Restart hueychat and try again.")
		return Outcome{Status: Aborted, Err: ErrNoConversation, ConversationID: convID}
	}
	p.surface.AppendTranscript(userMsg)

	p.setState(StateSending)
	req := api.BuildSendRequest(content, conv.SystemPrompt, sess.Model())
	callCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	start := time.Now()
	reply, err := p.remote.Send(callCtx, token, req)
	cancel()

	if err == nil {
		p.setState(StateSucceeded)
		p.log.Debug("send succeeded",
			zap.String("conversation", convID),
			zap.Duration("duration", time.Since(start)),
		)
		replyMsg := p.store.Append(convID, model.RoleAssistant, reply)
		if replyMsg != nil {
			p.surface.AppendTranscript(replyMsg)
		}
		p.refreshList()
		p.refreshAccount()
		return Outcome{Status: Succeeded, ConversationID: convID, Reply: replyMsg}
	}

	p.setState(StateFailed)
	kind, notice := Classify(err)
	p.log.Warn("send failed",
		zap.String("conversation", convID),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err),
	)
	switch kind {
	case ErrSessionExpired:
		p.notifier.SessionExpired()
	case ErrAuthRequired:
		p.notifier.Warning("Login required", TextLoginRequired)
	}
	errMsg := p.store.AppendError(convID, notice)
	if errMsg != nil {
		p.surface.AppendTranscript(errMsg)
	}
	p.refreshList()
	return Outcome{
		Status:         Failed,
		Err:            fmt.Errorf("%w: %w", kind, err),
		ConversationID: convID,
		Reply:          errMsg,
	}
}

// ensureConversation returns the session's conversation, creating one with
// the default prompt when it is unset or gone.
func (p *Pipeline) ensureConversation(sess *Session) (string, bool) {
	id := sess.ConversationID()
	if id != "" {
		if _, ok := p.store.Get(id); ok {
			return id, true
		}
		p.log.Debug("current conversation vanished", zap.String("conversation", id))
	}

	id = p.store.Create(p.opts.DefaultPrompt)
	if id == "" {
		return "", false
	}
	sess.SetConversationID(id)
	p.refreshList()
	return id, true
}

func (p *Pipeline) refreshList() {
	if p.opts.RefreshList != nil {
		p.opts.RefreshList()
	}
}

func (p *Pipeline) refreshAccount() {
	if p.opts.RefreshAccount != nil {
		p.opts.RefreshAccount()
	}
}

// Classify maps a remote failure to its error kind and the notice recorded
// in the transcript.
func Classify(err error) (kind error, notice string) {
	var status interface{ Unauthorized() bool }
	if errors.As(err, &status) && status.Unauthorized() {
		return ErrSessionExpired, TextSessionExpired
	}
	msg := strings.ToLower(err.Error())
	for _, m := range expiredMarkers {
		if strings.Contains(msg, m) {
			return ErrSessionExpired, TextSessionExpired
		}
	}
	for _, m := range loginRequiredMarkers {
		if strings.Contains(msg, m) {
			return ErrAuthRequired, TextLoginRequired
		}
	}
	return ErrRemote, TextRetryLater
}

type nopSurface struct{}

func (nopSurface) AppendTranscript(*model.Message) {}
func (nopSurface) SetBusy(bool)                    {}
func (nopSurface) FocusComposer()                  {}

type nopNotifier struct{}

func (nopNotifier) AuthRequired()          {}
func (nopNotifier) SessionExpired()        {}
func (nopNotifier) Warning(string, string) {}
func (nopNotifier) Fatal(string, string)   {}
