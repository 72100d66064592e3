package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`

	Client     ClientConfig     `mapstructure:"client"`
	Transcribe TranscribeConfig `mapstructure:"transcribe"`
}

// ClientConfig drives the talk subcommand.
type ClientConfig struct {
	ServerURL string `mapstructure:"server_url"`
	Name      string `mapstructure:"name"`
	Channel   string `mapstructure:"channel"`
}

// TranscribeConfig selects and bounds the transcription capability.
// An empty api_key means transcription runs in placeholder mode.
type TranscribeConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "")
	// Voice blobs ride inside JSON envelopes, so the read limit has to fit
	// a whole base64-encoded transmission.
	v.SetDefault("read_limit", 8<<20)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "vokitoky-dev-secret")
	v.SetDefault("client.server_url", "ws://localhost:8080/api/ws/signal")
	v.SetDefault("client.channel", "Squad-Alpha")
	v.SetDefault("transcribe.model", "gemini-2.0-flash")
	v.SetDefault("transcribe.timeout", "15s")

	_ = v.BindEnv("transcribe.api_key", "GEMINI_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
