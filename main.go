// TradePal assistant engine - voice-driven financial companion backend
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tradepal/assistant/internal/config"
	"github.com/tradepal/assistant/internal/llm"
	"github.com/tradepal/assistant/internal/logging"
	"github.com/tradepal/assistant/internal/server"
	"github.com/tradepal/assistant/internal/speech"
	"github.com/tradepal/assistant/internal/store"
	"github.com/tradepal/assistant/internal/tts"
)

// loadEnvFiles loads API keys from .env files into the process environment.
// Checks the working directory first, then ~/.tradepal/.env.
func loadEnvFiles() {
	_ = godotenv.Load()
	if home, err := os.UserHomeDir(); err == nil {
		_ = godotenv.Load(filepath.Join(home, ".tradepal", ".env"))
	}
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config load failed:", err)
		os.Exit(1)
	}

	syslog, err := logging.New(&logging.Config{
		LogDir:  cfg.Logging.Dir,
		Level:   logging.LogLevel(cfg.Logging.Level),
		Console: cfg.Logging.Console,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init failed:", err)
		os.Exit(1)
	}
	defer syslog.Close()
	log := syslog.Zerolog()

	st, err := store.Open(cfg.Storage.DataDir, log)
	if err != nil {
		syslog.Error("main", "Store open failed", err, nil)
		os.Exit(1)
	}

	completer := llm.NewClient(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: float32(cfg.LLM.Temperature),
	}, llm.NewFallbackPool(), log)

	var provider tts.Provider
	switch cfg.TTS.Provider {
	case "openai":
		provider = tts.NewOpenAIProvider(log, &tts.OpenAIConfig{
			APIKey:       cfg.TTS.APIKey,
			DefaultVoice: cfg.TTS.VoiceID,
			Speed:        cfg.TTS.Speed,
		})
	default:
		provider = tts.NullProvider{}
	}

	srv := server.New(server.Config{
		Addr:           cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		FrameInterval:  cfg.Server.FrameInterval,
		Voice: speech.CaptureConfig{
			WakePhrase:       cfg.Voice.WakePhrase,
			CommandTimeout:   cfg.Voice.CommandTimeout,
			FinalizeDelay:    cfg.Voice.FinalizeDelay,
			InterimExtension: cfg.Voice.InterimExtension,
			WatchdogInterval: cfg.Voice.WatchdogInterval,
			RestartDelay:     cfg.Voice.RestartDelay,
			ReinitBackoff:    cfg.Voice.ReinitBackoff,
		},
		Completer:    completer,
		TTSProvider:  provider,
		DefaultVoice: cfg.TTS.VoiceID,
		Store:        st,
		Logs:         syslog,
		Log:          log,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			syslog.Error("main", "Server failed", err, nil)
			os.Exit(1)
		}
	case sig := <-stop:
		syslog.Info("main", "Shutting down", map[string]interface{}{"signal": sig.String()})
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			syslog.Error("main", "Shutdown failed", err, nil)
		}
	}
}
