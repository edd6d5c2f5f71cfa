// Package tts provides speech synthesis and playback for the assistant's
// spoken replies.
package tts

import (
	"context"
	"errors"
	"time"
)

var (
	ErrProviderUnavailable = errors.New("tts provider unavailable")
	ErrTextTooLong         = errors.New("text exceeds maximum length")
)

// Provider synthesizes text into audio.
type Provider interface {
	// Name returns the provider identifier (e.g. "openai", "null").
	Name() string

	// Synthesize converts text to audio.
	Synthesize(ctx context.Context, req *SynthesizeRequest) (*SynthesizeResponse, error)

	// Available reports whether the provider can synthesize right now.
	Available() bool
}

// SynthesizeRequest describes one utterance to synthesize.
type SynthesizeRequest struct {
	Text    string  `json:"text"`
	VoiceID string  `json:"voice_id,omitempty"`
	Speed   float64 `json:"speed,omitempty"` // 0.25 to 4.0
	Pitch   float64 `json:"pitch,omitempty"` // -1.0 to 1.0
}

// SynthesizeResponse carries the synthesized audio.
type SynthesizeResponse struct {
	Audio    []byte        `json:"audio"`
	Format   string        `json:"format"`
	Duration time.Duration `json:"duration"`
	VoiceID  string        `json:"voice_id"`
	Provider string        `json:"provider"`
}

// Sink receives synthesized audio for playback. The frontend gateway is the
// production sink; tests substitute a recorder.
type Sink interface {
	// Play delivers one utterance's audio. It blocks until playback is
	// finished or the context is canceled.
	Play(ctx context.Context, audio []byte, format string) error
}
