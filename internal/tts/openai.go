package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// OpenAI TTS voices, ordered by preference for the assistant's persona.
const (
	VoiceNova    = "nova"    // female, warm (default)
	VoiceShimmer = "shimmer" // female, clear
	VoiceAlloy   = "alloy"   // neutral
	VoiceEcho    = "echo"    // male, warm
	VoiceOnyx    = "onyx"    // male, deep
)

// PreferredVoices is the fallback order when no explicit voice is
// requested and the configured default is unavailable.
var PreferredVoices = []string{VoiceNova, VoiceShimmer, VoiceAlloy}

// OpenAIConfig holds OpenAI TTS configuration.
type OpenAIConfig struct {
	APIKey       string        `json:"api_key"`
	Model        string        `json:"model"` // tts-1 or tts-1-hd
	DefaultVoice string        `json:"default_voice"`
	Speed        float64       `json:"speed"`
	Timeout      time.Duration `json:"timeout"`
}

// DefaultOpenAIConfig returns sensible defaults.
func DefaultOpenAIConfig() *OpenAIConfig {
	return &OpenAIConfig{
		Model:        "tts-1",
		DefaultVoice: VoiceNova,
		Speed:        1.0,
		Timeout:      30 * time.Second,
	}
}

// OpenAIProvider synthesizes speech via the OpenAI audio endpoint.
type OpenAIProvider struct {
	apiKey string
	client *http.Client
	logger zerolog.Logger
	config *OpenAIConfig
}

// NewOpenAIProvider creates the provider. The API key falls back to the
// OPENAI_API_KEY environment variable.
func NewOpenAIProvider(logger zerolog.Logger, config *OpenAIConfig) *OpenAIProvider {
	if config == nil {
		config = DefaultOpenAIConfig()
	}
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	return &OpenAIProvider{
		apiKey: apiKey,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger.With().Str("provider", "openai-tts").Logger(),
		config: config,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Available() bool { return p.apiKey != "" }

type openAITTSRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format,omitempty"`
	Speed          float64 `json:"speed,omitempty"`
}

// Synthesize converts text to MP3 audio.
func (p *OpenAIProvider) Synthesize(ctx context.Context, req *SynthesizeRequest) (*SynthesizeResponse, error) {
	if p.apiKey == "" {
		return nil, ErrProviderUnavailable
	}
	if len(req.Text) > 4096 {
		return nil, ErrTextTooLong
	}

	voice := req.VoiceID
	if voice == "" {
		voice = p.config.DefaultVoice
	}
	speed := req.Speed
	if speed == 0 {
		speed = p.config.Speed
	}

	body, err := json.Marshal(openAITTSRequest{
		Model:          p.config.Model,
		Input:          req.Text,
		Voice:          voice,
		ResponseFormat: "mp3",
		Speed:          speed,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.openai.com/v1/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		p.logger.Error().Int("status", resp.StatusCode).Str("body", string(errBody)).Msg("TTS request failed")
		return nil, fmt.Errorf("tts request failed: %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	p.logger.Debug().
		Str("voice", voice).
		Int("bytes", len(audio)).
		Dur("took", time.Since(start)).
		Msg("synthesized utterance")

	return &SynthesizeResponse{
		Audio:    audio,
		Format:   "mp3",
		VoiceID:  voice,
		Provider: p.Name(),
	}, nil
}
