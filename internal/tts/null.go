package tts

import "context"

// NullProvider is the degraded provider used when no synthesis backend is
// configured. It reports unavailable so the speaker settles utterances
// immediately and replies stay text-only.
type NullProvider struct{}

func (NullProvider) Name() string    { return "null" }
func (NullProvider) Available() bool { return false }

func (NullProvider) Synthesize(context.Context, *SynthesizeRequest) (*SynthesizeResponse, error) {
	return nil, ErrProviderUnavailable
}
