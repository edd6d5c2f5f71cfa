// Package config provides configuration management for the TradePal engine
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Voice   VoiceConfig   `mapstructure:"voice"`
	LLM     LLMConfig     `mapstructure:"llm"`
	TTS     TTSConfig     `mapstructure:"tts"`
	Avatar  AvatarConfig  `mapstructure:"avatar"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig configures the HTTP/WebSocket gateway
type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	FrameInterval  time.Duration `mapstructure:"frame_interval"` // avatar frame publish rate
}

// VoiceConfig configures wake-word capture and debouncing
type VoiceConfig struct {
	WakePhrase       string        `mapstructure:"wake_phrase"`
	CommandTimeout   time.Duration `mapstructure:"command_timeout"`
	FinalizeDelay    time.Duration `mapstructure:"finalize_delay"`
	InterimExtension time.Duration `mapstructure:"interim_extension"`
	WatchdogInterval time.Duration `mapstructure:"watchdog_interval"`
	RestartDelay     time.Duration `mapstructure:"restart_delay"`
	ReinitBackoff    time.Duration `mapstructure:"reinit_backoff"`
}

// LLMConfig configures the remote completion client
type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// TTSConfig configures speech playback
type TTSConfig struct {
	Provider string  `mapstructure:"provider"` // openai or none
	APIKey   string  `mapstructure:"api_key"`
	VoiceID  string  `mapstructure:"voice_id"`
	Speed    float64 `mapstructure:"speed"`
	Pitch    float64 `mapstructure:"pitch"`
}

// AvatarConfig configures the emotion controller
type AvatarConfig struct {
	IdleAnimation bool          `mapstructure:"idle_animation"`
	BlendDuration time.Duration `mapstructure:"blend_duration"`
}

// StorageConfig configures the CRUD entity store
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// LoggingConfig configures log output
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Dir     string `mapstructure:"dir"`
	Console bool   `mapstructure:"console"`
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Server: ServerConfig{
			Addr:           ":8090",
			AllowedOrigins: []string{"*"},
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			FrameInterval:  50 * time.Millisecond,
		},
		Voice: VoiceConfig{
			WakePhrase:       "hey trade",
			CommandTimeout:   10 * time.Second,
			FinalizeDelay:    1500 * time.Millisecond,
			InterimExtension: 3 * time.Second,
			WatchdogInterval: 15 * time.Second,
			RestartDelay:     500 * time.Millisecond,
			ReinitBackoff:    2 * time.Second,
		},
		LLM: LLMConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			Timeout:     30 * time.Second,
		},
		TTS: TTSConfig{
			Provider: "openai",
			VoiceID:  "nova",
			Speed:    1.0,
			Pitch:    1.0,
		},
		Avatar: AvatarConfig{
			IdleAnimation: true,
			BlendDuration: 300 * time.Millisecond,
		},
		Storage: StorageConfig{
			DataDir: filepath.Join(home, ".tradepal", "data"),
		},
		Logging: LoggingConfig{
			Level:   "debug",
			Dir:     filepath.Join(home, ".tradepal", "logs"),
			Console: true,
		},
	}
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	cfg := DefaultConfig()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return cfg, err
	}

	configDir := filepath.Join(homeDir, ".tradepal")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return cfg, err
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("TRADEPAL")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, err
		}
		// Config file not found, use defaults and create one
		if err := Save(cfg); err != nil {
			return cfg, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return cfg, err
	}

	// API keys come from the environment, never from the written file
	if key := os.Getenv("TRADEPAL_OPENAI_API_KEY"); key != "" {
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = key
		}
		if cfg.TTS.APIKey == "" {
			cfg.TTS.APIKey = key
		}
	}

	return cfg, nil
}

// Save writes the configuration to file, omitting secrets
func Save(cfg *Config) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configDir := filepath.Join(homeDir, ".tradepal")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	saved := *cfg
	saved.LLM.APIKey = ""
	saved.TTS.APIKey = ""

	viper.Set("server", saved.Server)
	viper.Set("voice", saved.Voice)
	viper.Set("llm", saved.LLM)
	viper.Set("tts", saved.TTS)
	viper.Set("avatar", saved.Avatar)
	viper.Set("storage", saved.Storage)
	viper.Set("logging", saved.Logging)

	configPath := filepath.Join(configDir, "config.yaml")
	return viper.WriteConfigAs(configPath)
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".tradepal"), nil
}
