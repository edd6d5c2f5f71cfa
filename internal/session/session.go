// Package session orchestrates a chat session: transcript, conversation
// context, the completion round trip, and the voice/avatar side effects.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tradepal/assistant/internal/avatar"
	"github.com/tradepal/assistant/internal/bus"
	"github.com/tradepal/assistant/internal/convo"
	"github.com/tradepal/assistant/internal/llm"
	"github.com/tradepal/assistant/internal/prompt"
	"github.com/tradepal/assistant/internal/speech"
	"github.com/tradepal/assistant/internal/tts"
)

// Role identifies who authored a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one transcript entry. Immutable once appended; entries are
// only removed by a full session reset.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Voice is the playback surface the session drives. *tts.Speaker satisfies
// it; a nil Voice disables playback.
type Voice interface {
	Available() bool
	Speak(text string, opts tts.SpeakOptions) *tts.Utterance
}

// Options configures a Session. Completer is required; the rest are
// optional collaborators.
type Options struct {
	Completer llm.Completer
	Voice     Voice
	Avatar    *avatar.Controller
	Bus       *bus.EventBus
	Logger    zerolog.Logger
}

// Session owns one user's transcript and conversation context. All mutation
// goes through Submit / HandleVoiceCommand; reads return copies.
type Session struct {
	mu         sync.Mutex
	transcript []ChatMessage
	convoCtx   convo.Context
	loading    bool
	notices    map[string]bool

	completer llm.Completer
	voice     Voice
	face      *avatar.Controller
	events    *bus.EventBus
	debouncer *speech.Debouncer
	logger    zerolog.Logger

	now       func() time.Time
	speakPoll time.Duration
}

// New creates a session with a fresh conversation context.
func New(opts Options) *Session {
	if opts.Bus == nil {
		opts.Bus = bus.NewEventBus()
	}
	s := &Session{
		transcript: make([]ChatMessage, 0, 32),
		convoCtx:   convo.New(),
		notices:    make(map[string]bool),
		completer:  opts.Completer,
		voice:      opts.Voice,
		face:       opts.Avatar,
		events:     opts.Bus,
		debouncer:  speech.NewDebouncer(),
		logger:     opts.Logger.With().Str("component", "session").Logger(),
		now:        time.Now,
		speakPoll:  100 * time.Millisecond,
	}
	s.events.Publish(bus.Event{Type: bus.EventTypeSessionStarted})
	return s
}

// Transcript returns a copy of all transcript entries.
func (s *Session) Transcript() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChatMessage, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Context returns the current conversation context value.
func (s *Session) Context() convo.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.convoCtx
}

// Loading reports whether a completion round trip is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Reset clears the transcript, the debouncer, and the conversation context.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = s.transcript[:0]
	s.convoCtx = convo.New()
	s.debouncer.Reset()
}

// BindCapture wires wake/command events from a speech capture into the
// session: wake switches the avatar to listening, commands flow through the
// debouncer into the message pipeline.
func (s *Session) BindCapture(cap *speech.Capture) {
	cap.SetHandlers(
		func() {
			s.events.Publish(bus.Event{Type: bus.EventTypeWakeDetected})
			if s.face != nil {
				s.face.SetStatus(avatar.StatusListening)
			}
		},
		func(transcript string) {
			if s.face != nil {
				s.face.SetStatus(avatar.StatusIdle)
			}
			s.HandleVoiceCommand(context.Background(), transcript)
		},
	)
}

// HandleVoiceCommand runs a voice transcript through the debouncer and, if
// accepted, submits it like a typed message.
func (s *Session) HandleVoiceCommand(ctx context.Context, transcript string) bool {
	if !s.debouncer.Accept(transcript) {
		s.events.Publish(bus.Event{
			Type: bus.EventTypeCommandRejected,
			Data: map[string]any{"transcript": transcript},
		})
		return false
	}
	s.events.Publish(bus.Event{
		Type: bus.EventTypeCommandDispatched,
		Data: map[string]any{"transcript": transcript},
	})
	return s.Submit(ctx, transcript)
}

// Submit appends a user message and starts the completion round trip.
// Returns false when the text is empty or another round trip is pending.
// Debug commands are handled synchronously and never set the loading flag.
func (s *Session) Submit(ctx context.Context, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	if strings.HasPrefix(text, "/debug") {
		s.handleDebugCommand(text)
		return true
	}

	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		s.logger.Debug().Msg("submission ignored while a reply is pending")
		return false
	}
	s.loading = true
	s.appendLocked(RoleUser, text)
	s.convoCtx = convo.Update(s.convoCtx, text)
	updated := s.convoCtx
	s.mu.Unlock()

	s.events.Publish(bus.Event{
		Type: bus.EventTypeMessageSent,
		Data: map[string]any{"text": text},
	})
	s.events.Publish(bus.Event{Type: bus.EventTypeContextUpdated})

	if s.face != nil {
		s.face.SetEmotion(avatar.EmotionThinking, avatar.EmotionOptions{Intensity: 0.8})
	}

	systemPrompt := prompt.SystemPrompt(updated)
	components := prompt.Compose(updated, text)

	go s.completeAndReply(ctx, text, systemPrompt, components)
	return true
}

// completeAndReply performs the only awaited asynchronous step of a turn.
// The completer never returns an error; failures already surface as
// fallback text.
func (s *Session) completeAndReply(ctx context.Context, text, systemPrompt string, components prompt.Components) {
	reply := s.completer.Complete(ctx, text, systemPrompt)
	content := assembleReply(components, reply)

	s.mu.Lock()
	msg := s.appendLocked(RoleAssistant, content)
	s.loading = false
	s.mu.Unlock()

	s.events.Publish(bus.Event{
		Type: bus.EventTypeReplyReceived,
		Data: map[string]any{"id": msg.ID},
	})

	if s.face != nil {
		s.face.ProcessText(content)
	}
	s.speak(content)
}

// speak plays the assistant reply and mirrors playback into the avatar
// status. The utterance only exposes polled pending state, so a small
// monitor loop watches for completion.
func (s *Session) speak(content string) {
	if s.voice == nil || !s.voice.Available() {
		return
	}
	utt := s.voice.Speak(content, tts.SpeakOptions{})
	s.events.Publish(bus.Event{Type: bus.EventTypeTTSStarted})
	if s.face != nil {
		s.face.SetStatus(avatar.StatusSpeaking)
	}
	go func() {
		for utt.IsPending() {
			time.Sleep(s.speakPoll)
		}
		if s.face != nil {
			s.face.SetStatus(avatar.StatusIdle)
		}
		s.events.Publish(bus.Event{Type: bus.EventTypeTTSCompleted})
	}()
}

// NoticeOnce surfaces a recoverable degradation (unsupported capability,
// denied microphone) at most once per key. Repeat calls are silent.
func (s *Session) NoticeOnce(key, text string) {
	s.mu.Lock()
	if s.notices[key] {
		s.mu.Unlock()
		return
	}
	s.notices[key] = true
	s.mu.Unlock()

	s.logger.Warn().Str("notice", key).Msg(text)
	s.events.Publish(bus.Event{
		Type: bus.EventTypeSessionNotice,
		Data: map[string]any{"key": key, "text": text},
	})
}

// appendLocked adds a transcript entry and announces it. Caller holds mu.
func (s *Session) appendLocked(role Role, content string) ChatMessage {
	msg := ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: s.now(),
	}
	s.transcript = append(s.transcript, msg)
	// Synchronous so entries reach subscribers in append order.
	s.events.PublishSync(bus.Event{
		Type: bus.EventTypeTranscriptEntry,
		Data: map[string]any{"message": msg},
	})
	return msg
}

// assembleReply wraps the model reply with the modular fragments: greeting
// first, insights and personalization after the body, disclaimer last.
func assembleReply(c prompt.Components, reply string) string {
	parts := make([]string, 0, 5)
	if c.Greeting != "" {
		parts = append(parts, c.Greeting)
	}
	parts = append(parts, reply)
	if len(c.Insights) > 0 {
		parts = append(parts, strings.Join(c.Insights, "\n"))
	}
	if c.Personalization != "" {
		parts = append(parts, c.Personalization)
	}
	if c.Disclaimer != "" {
		parts = append(parts, c.Disclaimer)
	}
	return strings.Join(parts, "\n\n")
}
