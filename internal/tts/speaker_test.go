package tts

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// stubProvider synthesizes instantly; the sink does the blocking.
type stubProvider struct {
	mu    sync.Mutex
	calls []string
}

func (p *stubProvider) Name() string    { return "stub" }
func (p *stubProvider) Available() bool { return true }

func (p *stubProvider) Synthesize(_ context.Context, req *SynthesizeRequest) (*SynthesizeResponse, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req.VoiceID)
	p.mu.Unlock()
	return &SynthesizeResponse{Audio: []byte("audio"), Format: "mp3", VoiceID: req.VoiceID}, nil
}

// blockingSink blocks playback until the context is canceled or release is
// closed.
type blockingSink struct {
	release chan struct{}
	played  chan string
}

func newBlockingSink() *blockingSink {
	return &blockingSink{release: make(chan struct{}), played: make(chan string, 8)}
}

func (s *blockingSink) Play(ctx context.Context, audio []byte, format string) error {
	s.played <- format
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.release:
		return nil
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestSpeaker_PendingUntilPlaybackEnds(t *testing.T) {
	sink := newBlockingSink()
	s := NewSpeaker(&stubProvider{}, sink, zerolog.Nop())

	utt := s.Speak("hello", SpeakOptions{})
	waitFor(t, func() bool { return len(sink.played) == 1 })

	if !utt.IsPending() {
		t.Error("utterance should be pending while playback blocks")
	}
	if !s.IsPending() {
		t.Error("speaker should report pending")
	}

	close(sink.release)
	waitFor(t, func() bool { return !utt.IsPending() })
	if s.IsPending() {
		t.Error("speaker should settle after playback completes")
	}
}

func TestSpeaker_NewUtteranceCancelsPrevious(t *testing.T) {
	sink := newBlockingSink()
	s := NewSpeaker(&stubProvider{}, sink, zerolog.Nop())

	first := s.Speak("first reply", SpeakOptions{})
	waitFor(t, func() bool { return len(sink.played) == 1 })

	second := s.Speak("second reply", SpeakOptions{})

	waitFor(t, func() bool { return !first.IsPending() })
	if !second.IsPending() {
		t.Error("second utterance should still be pending")
	}

	close(sink.release)
	waitFor(t, func() bool { return !second.IsPending() })
}

func TestSpeaker_StopCancelsUtterance(t *testing.T) {
	sink := newBlockingSink()
	s := NewSpeaker(&stubProvider{}, sink, zerolog.Nop())

	utt := s.Speak("stop me", SpeakOptions{})
	waitFor(t, func() bool { return len(sink.played) == 1 })

	s.Stop()
	waitFor(t, func() bool { return !utt.IsPending() })
}

func TestSpeaker_VoiceSelection(t *testing.T) {
	provider := &stubProvider{}
	s := NewSpeaker(provider, nil, zerolog.Nop())

	// Explicit request wins.
	utt := s.Speak("one", SpeakOptions{Voice: VoiceOnyx})
	waitFor(t, func() bool { return !utt.IsPending() })

	// Speaker default next.
	s.SetDefaultVoice(VoiceEcho)
	utt = s.Speak("two", SpeakOptions{})
	waitFor(t, func() bool { return !utt.IsPending() })

	// Preferred list as last resort.
	s.SetDefaultVoice("")
	utt = s.Speak("three", SpeakOptions{})
	waitFor(t, func() bool { return !utt.IsPending() })

	provider.mu.Lock()
	defer provider.mu.Unlock()
	want := []string{VoiceOnyx, VoiceEcho, PreferredVoices[0]}
	if len(provider.calls) != len(want) {
		t.Fatalf("expected %d synthesize calls, got %d", len(want), len(provider.calls))
	}
	for i, voice := range want {
		if provider.calls[i] != voice {
			t.Errorf("call %d: expected voice %q, got %q", i, voice, provider.calls[i])
		}
	}
}

func TestSpeaker_UnavailableProviderSettlesImmediately(t *testing.T) {
	s := NewSpeaker(NullProvider{}, nil, zerolog.Nop())

	utt := s.Speak("hello", SpeakOptions{})
	if utt.IsPending() {
		t.Error("utterance on unavailable provider must settle immediately")
	}
	if !utt.IsPending() && s.IsPending() {
		t.Error("speaker must not report pending")
	}
}
