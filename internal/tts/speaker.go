package tts

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// SpeakOptions override per-utterance synthesis parameters.
type SpeakOptions struct {
	Voice string
	Rate  float64
	Pitch float64
}

// Utterance is a handle to one in-flight spoken reply. Callers poll
// IsPending to drive "speaking" indicators; there is no completion event.
type Utterance struct {
	mu      sync.Mutex
	cancel  context.CancelFunc
	pending bool
}

// Stop cancels synthesis or playback of this utterance.
func (u *Utterance) Stop() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.cancel != nil {
		u.cancel()
	}
	u.pending = false
}

// IsPending reports whether the utterance is still being synthesized or
// played.
func (u *Utterance) IsPending() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.pending
}

func (u *Utterance) finish() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pending = false
}

// Speaker vocalizes assistant replies. At most one utterance is active per
// speaker; starting a new one cancels whatever is in flight.
type Speaker struct {
	mu       sync.Mutex
	provider Provider
	sink     Sink
	current  *Utterance
	voice    string
	logger   zerolog.Logger
}

// NewSpeaker creates a speaker over the given provider and playback sink.
func NewSpeaker(provider Provider, sink Sink, logger zerolog.Logger) *Speaker {
	return &Speaker{
		provider: provider,
		sink:     sink,
		logger:   logger.With().Str("component", "speaker").Logger(),
	}
}

// Available reports whether speech output works in this environment.
func (s *Speaker) Available() bool {
	return s.provider != nil && s.provider.Available()
}

// SetDefaultVoice pins the voice used when SpeakOptions does not name one.
func (s *Speaker) SetDefaultVoice(voice string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voice = voice
}

// selectVoice prefers the explicit request, then the speaker default, then
// the head of the preferred-voice list.
func (s *Speaker) selectVoice(requested string) string {
	if requested != "" {
		return requested
	}
	if s.voice != "" {
		return s.voice
	}
	if len(PreferredVoices) > 0 {
		return PreferredVoices[0]
	}
	return ""
}

// Speak synthesizes and plays text, canceling any in-flight utterance
// first. The returned handle reports pending status and allows stopping.
// Speak never blocks on playback.
func (s *Speaker) Speak(text string, opts SpeakOptions) *Utterance {
	ctx, cancel := context.WithCancel(context.Background())
	utt := &Utterance{cancel: cancel, pending: true}

	s.mu.Lock()
	if s.current != nil {
		s.current.Stop()
	}
	s.current = utt
	voice := s.selectVoice(opts.Voice)
	s.mu.Unlock()

	if !s.Available() {
		// Degraded environments get a no-op utterance that settles
		// immediately; the transcript still shows the text.
		utt.finish()
		return utt
	}

	go func() {
		defer utt.finish()

		resp, err := s.provider.Synthesize(ctx, &SynthesizeRequest{
			Text:    text,
			VoiceID: voice,
			Speed:   opts.Rate,
			Pitch:   opts.Pitch,
		})
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn().Err(err).Msg("synthesis failed, reply stays text-only")
			}
			return
		}

		if s.sink != nil {
			if err := s.sink.Play(ctx, resp.Audio, resp.Format); err != nil && ctx.Err() == nil {
				s.logger.Warn().Err(err).Msg("playback failed")
			}
		}
	}()

	return utt
}

// Stop cancels the active utterance, if any.
func (s *Speaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.Stop()
	}
}

// IsPending reports whether any utterance is currently active.
func (s *Speaker) IsPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil && s.current.IsPending()
}
