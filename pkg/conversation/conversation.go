// Package conversation drives one voice-assistant session against the chat
// stream: it opens a stream per user turn, routes decoded events, sanitizes
// answer text into the transcript, forwards replies to speech synthesis, and
// executes robot commands carried as function calls.
package conversation

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/bot"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/conversation/worker"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/robot"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/sanitize"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/speech"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/storage"
)

// State is the session's processing state.
type State string

const (
	// StateIdle means no stream is open.
	StateIdle State = "idle"

	// StateStreaming means a turn is in flight.
	StateStreaming State = "streaming"
)

// Entry is one transcript line.
type Entry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshot is a read-only view of the session published on every mutation.
type Snapshot struct {
	State          State   `json:"state"`
	ConversationID string  `json:"conversation_id,omitempty"`
	ChatID         string  `json:"chat_id,omitempty"`
	Entries        []Entry `json:"entries"`
}

// Stream is the event source for one turn.
type Stream interface {
	Next() (*bot.ChatEvent, error)
	Close() error
}

// Streamer opens a chat stream for a turn.
type Streamer interface {
	StreamChat(ctx context.Context, conversationID string, history []bot.Message) (Stream, error)
}

// ClientStreamer adapts a bot.Client to the Streamer interface.
type ClientStreamer struct {
	Client *bot.Client
}

// StreamChat opens a chat stream via the wrapped client.
func (c ClientStreamer) StreamChat(ctx context.Context, conversationID string, history []bot.Message) (Stream, error) {
	return c.Client.StreamChat(ctx, conversationID, history)
}

// Config holds the session's collaborators and tuning options.
type Config struct {
	// Streamer opens the upstream chat stream. Required.
	Streamer Streamer

	// Sanitizer filters assistant text. Defaults to sanitize defaults.
	Sanitizer *sanitize.Sanitizer

	// Synthesizer voices sanitized replies. Optional.
	Synthesizer speech.Synthesizer

	// SynthesisOptions are the voice parameters used for replies.
	SynthesisOptions speech.SynthesisOptions

	// Robot receives parsed commands from function_call messages. Optional.
	Robot *robot.Store

	// Commands forwards parsed commands to the physical robot. Optional.
	Commands robot.CommandPublisher

	// Pool persists completed turns off the streaming path. Optional.
	Pool *worker.Pool

	// OnDelta receives incremental answer text for live-typing UIs. Optional.
	OnDelta func(text string)

	// IdleTimeout aborts a turn when no event arrives for this long.
	// Zero disables the timeout.
	IdleTimeout time.Duration

	// Logger is the provided zap logger. Required.
	Logger *zap.Logger
}

// Session is a single conversation. Only one stream is open at a time;
// submitting a new turn cancels the previous one (last writer wins).
type Session struct {
	config Config
	logger *zap.Logger

	mu             sync.Mutex
	state          State
	conversationID string
	chatID         string
	transcript     []Entry
	cancel         context.CancelFunc
	generation     uint64
	sanitizer      *sanitize.Sanitizer

	// watch carries the latest snapshot; stale values are dropped.
	watch chan Snapshot
}

// NewSession creates a session around the given collaborators.
func NewSession(config Config) *Session {
	if config.Sanitizer == nil {
		config.Sanitizer = sanitize.New(sanitize.DefaultConfig())
	}

	return &Session{
		config:    config,
		logger:    config.Logger,
		state:     StateIdle,
		watch:     make(chan Snapshot, 1),
		sanitizer: config.Sanitizer,
	}
}

// SetSanitizer swaps the reply filter. Used for live config reload; turns
// already streaming keep reading through the new filter on their next
// completed message.
func (s *Session) SetSanitizer(sanitizer *sanitize.Sanitizer) {
	if sanitizer == nil {
		return
	}
	s.mu.Lock()
	s.sanitizer = sanitizer
	s.mu.Unlock()
}

func (s *Session) currentSanitizer() *sanitize.Sanitizer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sanitizer
}

// State returns the current processing state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns a copy of the current session view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Watch returns a channel carrying the latest snapshot after each mutation.
// Slow readers only ever see the most recent value.
func (s *Session) Watch() <-chan Snapshot {
	return s.watch
}

// ConversationID returns the upstream conversation id, once known.
func (s *Session) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// Submit runs one turn: it cancels any in-flight stream, opens a new one
// carrying the full prior history plus userText, and blocks until the turn
// completes, fails, or is cancelled. A cancelled turn returns nil; text
// already appended to the transcript stays there.
func (s *Session) Submit(ctx context.Context, userText string) (err error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return ErrEmptyInput
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("turn pipeline panicked", zap.Any("panic", r))
			err = ErrReplyFailed
		}
	}()

	turnCtx, gen, conversationID, history := s.beginTurn(ctx, userText)
	defer s.endTurn(gen)

	startedAt := time.Now().UTC()
	turnErr := s.runStream(turnCtx, conversationID, history, userText, startedAt)

	if turnCtx.Err() != nil {
		// Cancelled, either by the caller or by a newer turn. Not an error.
		s.logger.Debug("turn cancelled", zap.String("user_text", userText))
		return nil
	}

	return turnErr
}

// Cancel closes the in-flight stream, if any, and returns the session to
// idle without surfacing an error.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Reset cancels any in-flight stream and clears the transcript and the
// captured conversation and chat ids, starting a fresh conversation.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	s.conversationID = ""
	s.chatID = ""
	s.transcript = nil
	s.publishLocked()
}

// Restore seeds the session with a previously saved conversation so the
// next turn continues where it left off. It replaces any current state.
func (s *Session) Restore(conversationID, chatID string, entries []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	s.conversationID = conversationID
	s.chatID = chatID
	s.transcript = append([]Entry(nil), entries...)
	s.publishLocked()
}

// beginTurn cancels the prior stream, records the user entry, and returns
// the turn context plus the history to send upstream.
func (s *Session) beginTurn(ctx context.Context, userText string) (context.Context, uint64, string, []bot.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	turnCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.generation++
	gen := s.generation
	s.state = StateStreaming

	s.transcript = append(s.transcript, Entry{
		Role:      bot.RoleUser,
		Content:   userText,
		CreatedAt: time.Now().UTC(),
	})

	history := make([]bot.Message, 0, len(s.transcript))
	for _, entry := range s.transcript {
		history = append(history, bot.NewTextMessage(entry.Role, entry.Content))
	}

	s.publishLocked()

	return turnCtx, gen, s.conversationID, history
}

// endTurn returns the session to idle unless a newer turn has taken over.
func (s *Session) endTurn(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		return
	}

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state = StateIdle
	s.publishLocked()
}

type streamResult struct {
	event *bot.ChatEvent
	err   error
}

// runStream consumes the turn's event stream until a terminal event, a
// stream error, cancellation, or the idle timeout.
func (s *Session) runStream(ctx context.Context, conversationID string, history []bot.Message, userText string, startedAt time.Time) error {
	stream, err := s.config.Streamer.StreamChat(ctx, conversationID, history)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		s.logger.Error("failed to open chat stream", zap.Error(err))
		return ErrReplyFailed
	}
	defer stream.Close()

	// Closing the stream on cancellation unblocks the reader goroutine.
	go func() {
		<-ctx.Done()
		stream.Close()
	}()

	results := make(chan streamResult)
	go func() {
		for {
			event, err := stream.Next()
			if event == nil && err == nil {
				// The connection closed cleanly without a terminal
				// event; the turn cannot complete.
				err = io.EOF
			}
			select {
			case results <- streamResult{event: event, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	var timeout <-chan time.Time
	var timer *time.Timer
	if s.config.IdleTimeout > 0 {
		timer = time.NewTimer(s.config.IdleTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	var answers []string

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-timeout:
			s.logger.Warn("no event received before idle timeout",
				zap.Duration("timeout", s.config.IdleTimeout),
			)
			return ErrReplyFailed

		case result := <-results:
			if result.err != nil {
				// The stream ended without a chat.completed event.
				s.logger.Error("chat stream interrupted", zap.Error(result.err))
				return ErrReplyFailed
			}

			if timer != nil {
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(s.config.IdleTimeout)
			}

			done, answer, err := s.handleEvent(ctx, result.event)
			if err != nil {
				return err
			}
			if answer != "" {
				answers = append(answers, answer)
			}
			if done {
				s.persistTurn(userText, answers, startedAt)
				return nil
			}
		}
	}
}

// handleEvent routes one decoded event. It returns done=true on
// chat.completed, the sanitized answer text appended for this event if any,
// and an error on upstream-reported failure.
func (s *Session) handleEvent(ctx context.Context, event *bot.ChatEvent) (bool, string, error) {
	if event == nil || event.Message == nil {
		return false, "", nil
	}

	s.captureIDs(event.Message)

	// The platform reports failures both as chat.failed events and as an
	// error payload riding on otherwise ordinary events.
	if event.Message.LastError != nil && event.Message.LastError.Code != 0 {
		return false, "", s.upstreamError(event.Message)
	}

	switch event.Event {
	case bot.EventChatCreated, bot.EventChatInProgress:
		return false, "", nil

	case bot.EventMessageDelta:
		if s.config.OnDelta != nil && event.IsAnswerText() {
			s.config.OnDelta(event.Message.Content)
		}
		return false, "", nil

	case bot.EventMessageCompleted:
		return false, s.handleCompleted(ctx, event), nil

	case bot.EventChatCompleted:
		return true, "", nil

	case bot.EventChatFailed:
		return false, "", s.upstreamError(event.Message)

	default:
		s.logger.Debug("unhandled stream event", zap.String("event", event.Event))
		return false, "", nil
	}
}

// handleCompleted processes a message.completed event and returns the
// sanitized answer text it contributed, if any.
func (s *Session) handleCompleted(ctx context.Context, event *bot.ChatEvent) string {
	msg := event.Message

	switch msg.Type {
	case bot.TypeAnswer:
		if !event.IsAnswerText() {
			return ""
		}

		clean := s.currentSanitizer().Sanitize(msg.Content)
		if clean == "" {
			s.logger.Debug("assistant reply suppressed")
			return ""
		}

		s.appendAssistant(clean)
		s.speak(ctx, clean)
		return clean

	case bot.TypeFunctionCall:
		s.executeCommand(ctx, msg.Content)
		return ""

	case bot.TypeToolResponse, bot.TypeFollowUp, bot.TypeVerbose:
		s.logger.Debug("internal message", zap.String("type", msg.Type))
		return ""

	default:
		s.logger.Debug("unknown message type", zap.String("type", msg.Type))
		return ""
	}
}

// captureIDs records the conversation and chat ids from the first event
// that carries them. They never change for the life of the conversation.
func (s *Session) captureIDs(msg *bot.MessageData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	if s.conversationID == "" && msg.ConversationID != "" {
		s.conversationID = msg.ConversationID
		changed = true
	}
	if s.chatID == "" && msg.ChatID != "" {
		s.chatID = msg.ChatID
		changed = true
	}

	if changed {
		s.logger.Debug("session ids captured",
			zap.String("conversation_id", s.conversationID),
			zap.String("chat_id", s.chatID),
		)
		s.publishLocked()
	}
}

func (s *Session) appendAssistant(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transcript = append(s.transcript, Entry{
		Role:      bot.RoleAssistant,
		Content:   text,
		CreatedAt: time.Now().UTC(),
	})
	s.publishLocked()
}

// speak voices the reply. Synthesis failures are logged and otherwise
// ignored; the transcript entry already exists.
func (s *Session) speak(ctx context.Context, text string) {
	if s.config.Synthesizer == nil {
		return
	}

	if _, err := s.config.Synthesizer.Synthesize(ctx, text, s.config.SynthesisOptions); err != nil {
		s.logger.Warn("speech synthesis failed", zap.Error(err))
	}
}

// executeCommand applies a function_call payload to the robot state and
// forwards it to the command topic. Malformed or unknown commands are
// logged and dropped.
func (s *Session) executeCommand(ctx context.Context, content string) {
	cmd, err := robot.ParseCommand(content)
	if err != nil {
		s.logger.Warn("unparseable robot command", zap.Error(err))
		return
	}

	if s.config.Robot != nil && !s.config.Robot.Apply(cmd) {
		s.logger.Warn("unknown robot command", zap.String("name", cmd.Name))
		return
	}

	if s.config.Commands != nil {
		if err := s.config.Commands.PublishCommand(ctx, cmd); err != nil {
			s.logger.Warn("failed to forward robot command",
				zap.String("name", cmd.Name),
				zap.Error(err),
			)
		}
	}
}

func (s *Session) upstreamError(msg *bot.MessageData) error {
	upstream := UpstreamError{}
	if msg.LastError != nil {
		upstream.Code = msg.LastError.Code
		upstream.Msg = msg.LastError.Msg
	}

	s.logger.Error("upstream chat failed",
		zap.Int("code", upstream.Code),
		zap.String("msg", upstream.Msg),
	)

	return upstream
}

// persistTurn hands the completed exchange to the worker pool.
func (s *Session) persistTurn(userText string, answers []string, startedAt time.Time) {
	if s.config.Pool == nil {
		return
	}

	s.mu.Lock()
	conversationID := s.conversationID
	chatID := s.chatID
	s.mu.Unlock()

	assistantText := strings.Join(answers, "\n")

	s.config.Pool.Enqueue(worker.Job{
		Turn: &storage.Turn{
			ID:             uuid.NewString(),
			ConversationID: conversationID,
			ChatID:         chatID,
			UserText:       userText,
			AssistantText:  assistantText,
			CreatedAt:      time.Now().UTC(),
		},
		StartedAt:  startedAt,
		Suppressed: assistantText == "",
	})
}

func (s *Session) snapshotLocked() Snapshot {
	entries := make([]Entry, len(s.transcript))
	copy(entries, s.transcript)

	return Snapshot{
		State:          s.state,
		ConversationID: s.conversationID,
		ChatID:         s.chatID,
		Entries:        entries,
	}
}

// publishLocked pushes the latest snapshot to the watch channel, dropping
// the stale value if the reader has not caught up.
func (s *Session) publishLocked() {
	snapshot := s.snapshotLocked()
	for {
		select {
		case s.watch <- snapshot:
			return
		default:
			select {
			case <-s.watch:
			default:
			}
		}
	}
}
