// Package conversation owns the active message log and orchestrates
// turn-taking: optimistic user append, placeholder streaming fill,
// finalization and persistence. All collaborators observe its state through
// copies; mutation happens only here.
package conversation

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/omnichat/backend/internal/model/chat"
	"github.com/omnichat/backend/internal/storage"
)

var (
	// ErrTurnInFlight rejects a turn while a prior turn has not reached a
	// terminal state.
	ErrTurnInFlight = errors.New("a turn is already in flight")
	// ErrEmptyTurn rejects a turn with neither text nor attachment.
	ErrEmptyTurn = errors.New("turn has no content")
	// ErrSessionNotFound reports an unknown session id.
	ErrSessionNotFound = errors.New("session not found")
)

// errorReplyText is the single user-facing failure string. A failed turn is
// a legitimate, durable log entry; it is persisted as-is and never retried
// automatically.
const errorReplyText = "I encountered an error. Please try again."

const videoReplyText = "Here is your generated video."

// TurnEventType labels the updates a turn emits to its transport.
type TurnEventType string

const (
	TurnEventUser    TurnEventType = "user"
	TurnEventPartial TurnEventType = "partial"
	TurnEventFinal   TurnEventType = "final"
)

// TurnEvent is one observable update of an in-flight turn.
type TurnEvent struct {
	Type      TurnEventType `json:"type"`
	SessionID string        `json:"sessionId"`
	Message   chat.Message  `json:"message"`
}

// State is a read-only snapshot of the controller for the presentation
// boundary.
type State struct {
	SessionID         string         `json:"sessionId"`
	Mode              chat.Mode      `json:"mode"`
	Messages          []chat.Message `json:"messages"`
	Loading           bool           `json:"loading"`
	PendingAttachment bool           `json:"pendingAttachment"`
}

// turnTag ties an in-flight turn to the session and placeholder it was
// created for. Late results are applied only while the tag still matches;
// otherwise they are discarded silently. Without this guard a stale turn
// would corrupt whichever session is active when it resolves.
type turnTag struct {
	sessionID     string
	placeholderID string
}

// Controller is the streaming conversation core.
type Controller struct {
	store *storage.Store
	gen   chat.Generator

	mu        sync.Mutex
	sessionID string
	mode      chat.Mode
	messages  []chat.Message
	genCtx    chat.GenerationContext
	turn      *turnTag
	pending   *chat.Attachment
}

// New creates a controller with a fresh session under the general mode.
func New(ctx context.Context, store *storage.Store, gen chat.Generator) *Controller {
	c := &Controller{
		store: store,
		gen:   gen,
		mode:  chat.ModeGeneral,
	}
	c.mu.Lock()
	c.startNewChatLocked(ctx)
	c.mu.Unlock()
	return c
}

// StartNewChat allocates a fresh session id, clears the log, discards any
// pending attachment and abandons an in-flight turn. Always succeeds.
func (c *Controller) StartNewChat(ctx context.Context) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startNewChatLocked(ctx)
	return c.stateLocked()
}

func (c *Controller) startNewChatLocked(ctx context.Context) {
	c.releaseMessagePreviewsLocked()
	c.sessionID = uuid.NewString()
	c.messages = nil
	c.turn = nil
	c.releasePendingLocked()
	c.rebuildContextLocked(ctx)
}

// SelectSession replaces the active log with a stored session's log and
// re-seeds the generation context with that history under the current
// mode. Any in-flight turn for the previous session is abandoned.
func (c *Controller) SelectSession(ctx context.Context, id string) (State, error) {
	session, ok := c.store.Get(id)
	if !ok {
		return State{}, ErrSessionNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.releaseMessagePreviewsLocked()
	c.sessionID = session.ID
	c.messages = append([]chat.Message(nil), session.Messages...)
	c.turn = nil
	c.releasePendingLocked()
	c.rebuildContextLocked(ctx)
	return c.stateLocked(), nil
}

// DeleteSession removes a session from the store. Deleting the active
// session behaves as StartNewChat.
func (c *Controller) DeleteSession(ctx context.Context, id string) []chat.Session {
	sessions := c.store.Remove(id)

	c.mu.Lock()
	if c.sessionID == id {
		c.startNewChatLocked(ctx)
	}
	c.mu.Unlock()
	return sessions
}

// ChangeMode updates the current mode and rebuilds the generation context
// with the existing log. Messages are untouched.
func (c *Controller) ChangeMode(ctx context.Context, mode chat.Mode) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mode = mode
	c.rebuildContextLocked(ctx)
	return c.stateLocked()
}

// SetPendingAttachment stages media for the next turn, releasing the
// resource behind any previously staged attachment.
func (c *Controller) SetPendingAttachment(att *chat.Attachment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releasePendingLocked()
	c.pending = att
}

// ClearPendingAttachment discards the staged attachment and releases its
// resource.
func (c *Controller) ClearPendingAttachment() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releasePendingLocked()
}

// releasePendingLocked releases the transient preview resource behind the
// staged attachment instead of waiting for ambient cleanup.
func (c *Controller) releasePendingLocked() {
	if c.pending == nil {
		return
	}
	if c.pending.URL != "" {
		if err := os.Remove(c.pending.URL); err != nil && !os.IsNotExist(err) {
			log.Printf("[conversation] release attachment preview %s: %v", c.pending.URL, err)
		}
	}
	c.pending = nil
}

// releaseMessagePreviewsLocked removes the local preview files behind the
// outgoing log's attachments. Once a message leaves the active session its
// transient handle is unreachable (the handle is never serialized), so this
// is the last point the file can be reclaimed. Remote references such as
// generated video URLs are left alone.
func (c *Controller) releaseMessagePreviewsLocked() {
	for i := range c.messages {
		att := c.messages[i].Attachment
		if att == nil || att.URL == "" || strings.Contains(att.URL, "://") {
			continue
		}
		if err := os.Remove(att.URL); err != nil && !os.IsNotExist(err) {
			log.Printf("[conversation] release message preview %s: %v", att.URL, err)
		}
	}
}

// Sessions lists the stored history, most recent first.
func (c *Controller) Sessions() []chat.Session {
	return c.store.List()
}

// CurrentState returns a snapshot for rendering.
func (c *Controller) CurrentState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	return State{
		SessionID:         c.sessionID,
		Mode:              c.mode,
		Messages:          append([]chat.Message(nil), c.messages...),
		Loading:           c.turn != nil,
		PendingAttachment: c.pending != nil,
	}
}

// SendTurn runs one full turn: optimistic user append with a synchronous
// save, placeholder append, generation dispatch, finalize and persist. It
// blocks until the turn reaches a terminal state. onEvent (optional)
// receives the user message, each applied partial and the final message.
// Only rejections are returned as errors; generation failures terminate in
// an error-marked log entry.
func (c *Controller) SendTurn(ctx context.Context, text string, onEvent func(TurnEvent)) error {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if c.turn != nil {
		c.mu.Unlock()
		return ErrTurnInFlight
	}

	attachment := c.pending
	c.pending = nil
	if text == "" && attachment == nil {
		c.mu.Unlock()
		return ErrEmptyTurn
	}

	now := time.Now()
	userMsg := chat.Message{
		ID:         uuid.NewString(),
		Text:       text,
		Sender:     chat.SenderUser,
		CreatedAt:  now,
		Attachment: attachment,
	}
	c.messages = append(c.messages, userMsg)
	// Save immediately so the user's input survives a failed generation.
	c.persistLocked()

	placeholder := chat.Message{
		ID:        uuid.NewString(),
		Sender:    chat.SenderAI,
		CreatedAt: now,
	}
	c.messages = append(c.messages, placeholder)

	tag := &turnTag{sessionID: c.sessionID, placeholderID: placeholder.ID}
	c.turn = tag
	mode := c.mode
	genCtx := c.genCtx
	c.mu.Unlock()

	emit(onEvent, TurnEvent{Type: TurnEventUser, SessionID: tag.sessionID, Message: userMsg})

	defer func() {
		c.mu.Lock()
		if c.turn == tag {
			c.turn = nil
		}
		c.mu.Unlock()
	}()

	var (
		finalText string
		finalAtt  *chat.Attachment
		genErr    error
	)

	if mode == chat.ModeVideo {
		finalAtt, genErr = c.gen.GenerateVideo(ctx, text)
		if genErr == nil {
			finalText = videoReplyText
		}
	} else {
		if genCtx == nil {
			genCtx, genErr = c.recoverContext(ctx, tag, mode)
		}
		if genErr == nil {
			finalText, genErr = genCtx.StreamReply(ctx, text, attachment, func(partial string) {
				if msg, ok := c.applyPartial(tag, partial); ok {
					emit(onEvent, TurnEvent{Type: TurnEventPartial, SessionID: tag.sessionID, Message: msg})
				}
			})
		}
	}

	if genErr != nil {
		log.Printf("[conversation] turn failed for session=%s: %v", tag.sessionID, genErr)
		if msg, ok := c.finalize(tag, errorReplyText, nil, true); ok {
			emit(onEvent, TurnEvent{Type: TurnEventFinal, SessionID: tag.sessionID, Message: msg})
		}
		return nil
	}

	if msg, ok := c.finalize(tag, finalText, finalAtt, false); ok {
		emit(onEvent, TurnEvent{Type: TurnEventFinal, SessionID: tag.sessionID, Message: msg})
	}
	return nil
}

// recoverContext rebuilds a generation context when none survived startup
// (for example when the credential appeared after boot). The log it seeds
// from excludes the still-empty placeholder.
func (c *Controller) recoverContext(ctx context.Context, tag *turnTag, mode chat.Mode) (chat.GenerationContext, error) {
	c.mu.Lock()
	history := make([]chat.Message, 0, len(c.messages))
	for _, msg := range c.messages {
		if msg.ID == tag.placeholderID {
			continue
		}
		history = append(history, msg)
	}
	c.mu.Unlock()

	genCtx, err := c.gen.NewContext(ctx, history, mode)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.sessionID == tag.sessionID {
		c.genCtx = genCtx
	}
	c.mu.Unlock()
	return genCtx, nil
}

// applyPartial overwrites the placeholder text with the cumulative partial.
// Chunks are full-text-so-far, so overwriting keeps duplicates harmless.
// A partial for an abandoned turn is dropped.
func (c *Controller) applyPartial(tag *turnTag, partial string) (chat.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.locateLocked(tag)
	if !ok {
		return chat.Message{}, false
	}

	c.messages[idx].Text = partial
	return c.messages[idx], true
}

// finalize freezes the placeholder with the terminal text and persists the
// session. An abandoned turn is discarded without persisting.
func (c *Controller) finalize(tag *turnTag, text string, attachment *chat.Attachment, isError bool) (chat.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.locateLocked(tag)
	if !ok {
		return chat.Message{}, false
	}

	c.messages[idx].Text = text
	c.messages[idx].IsError = isError
	if attachment != nil {
		c.messages[idx].Attachment = attachment
	}

	c.persistLocked()
	return c.messages[idx], true
}

// locateLocked resolves the placeholder index for a tag, verifying the turn
// still belongs to the active session and its placeholder is still in the
// log.
func (c *Controller) locateLocked(tag *turnTag) (int, bool) {
	if c.sessionID != tag.sessionID {
		return 0, false
	}
	for i := range c.messages {
		if c.messages[i].ID == tag.placeholderID {
			return i, true
		}
	}
	return 0, false
}

// persistLocked saves the active session. The title is recomputed on every
// save from the first message. Empty logs are never persisted.
func (c *Controller) persistLocked() {
	if len(c.messages) == 0 {
		return
	}

	c.store.Upsert(chat.Session{
		ID:        c.sessionID,
		Title:     chat.DeriveTitle(c.messages),
		Messages:  append([]chat.Message(nil), c.messages...),
		UpdatedAt: time.Now(),
	})
}

func (c *Controller) rebuildContextLocked(ctx context.Context) {
	genCtx, err := c.gen.NewContext(ctx, append([]chat.Message(nil), c.messages...), c.mode)
	if err != nil {
		log.Printf("[conversation] context rebuild failed: %v", err)
		c.genCtx = nil
		return
	}
	c.genCtx = genCtx
}

func emit(onEvent func(TurnEvent), event TurnEvent) {
	if onEvent != nil {
		onEvent(event)
	}
}
