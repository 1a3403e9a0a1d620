package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/livejournal/internal/config"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const dotEnvFile = ".env"

// Variables without envDefault keep the value from defaults or the config
// file when they are unset, so precedence is defaults < file < environment.
type envConfig struct {
	Env string `env:"ENV" yaml:"env"`

	TranscribeBackend   string `env:"TRANSCRIBE_BACKEND" yaml:"transcribe_backend"`
	TranscribeLanguage  string `env:"TRANSCRIBE_LANGUAGE" yaml:"transcribe_language"`
	TranscribeModel     string `env:"TRANSCRIBE_MODEL" yaml:"transcribe_model"`
	TranscribeVADFilter bool   `env:"TRANSCRIBE_VAD_FILTER" yaml:"transcribe_vad_filter"`

	GoogleCloudProjectID       string `env:"GOOGLE_CLOUD_PROJECT_ID" yaml:"google_cloud_project_id"`
	GoogleCloudCredentialsJSON string `env:"GOOGLE_CLOUD_CREDENTIALS_JSON" yaml:"google_cloud_credentials_json"`
	GoogleCloudSpeechLocation  string `env:"GOOGLE_CLOUD_SPEECH_LOCATION" yaml:"google_cloud_speech_location"`
	OpenAIAPIKey               string `env:"OPENAI_API_KEY" yaml:"openai_api_key"`
	OpenAIBaseURL              string `env:"OPENAI_BASE_URL" yaml:"openai_base_url"`

	CaptureBackend string  `env:"CAPTURE_BACKEND" yaml:"capture_backend"`
	CaptureDevice  string  `env:"CAPTURE_DEVICE" yaml:"capture_device"`
	CaptureInput   string  `env:"CAPTURE_INPUT" yaml:"capture_input"`
	SampleRate     int     `env:"SAMPLE_RATE" yaml:"sample_rate"`
	FrameMS        int     `env:"FRAME_MS" yaml:"frame_ms"`
	ChunkSec       float64 `env:"CHUNK_SEC" yaml:"chunk_sec"`
	FrameQueueSize int     `env:"FRAME_QUEUE_SIZE" yaml:"frame_queue_size"`

	VADBackend         string  `env:"VAD_BACKEND" yaml:"vad_backend"`
	VADMode            int     `env:"VAD_MODE" yaml:"vad_mode"`
	VADEnergyThreshold float64 `env:"VAD_ENERGY_THRESHOLD" yaml:"vad_energy_threshold"`

	OutputDir          string `env:"OUTPUT_DIR" yaml:"output_dir"`
	DocumentTitle      string `env:"DOCUMENT_TITLE" yaml:"document_title"`
	TranscriptTimezone string `env:"TRANSCRIPT_TIMEZONE" yaml:"transcript_timezone"`
	OpenViewer         bool   `env:"OPEN_VIEWER" yaml:"open_viewer"`

	DatabaseURL          string `env:"DATABASE_URL" yaml:"database_url"`
	TranscriptWebhookURL string `env:"TRANSCRIPT_WEBHOOK_URL" yaml:"transcript_webhook_url"`
	DiscordToken         string `env:"DISCORD_TOKEN" yaml:"discord_token"`
	DiscordChannelID     string `env:"DISCORD_CHANNEL_ID" yaml:"discord_channel_id"`
	MetricsAddr          string `env:"METRICS_ADDR" yaml:"metrics_addr"`
}

func defaultEnvConfig() envConfig {
	return envConfig{
		Env:                       "production",
		TranscribeBackend:         internalconfig.TranscribeBackendCloudSpeech,
		TranscribeLanguage:        "auto",
		TranscribeVADFilter:       true,
		GoogleCloudSpeechLocation: "us",
		CaptureBackend:            internalconfig.CaptureBackendMalgo,
		CaptureInput:              "-",
		SampleRate:                16000,
		FrameMS:                   20,
		ChunkSec:                  3,
		FrameQueueSize:            3000,
		VADBackend:                internalconfig.VADBackendWebRTC,
		VADMode:                   2,
		VADEnergyThreshold:        0.02,
		OutputDir:                 filepath.Join("~", "Desktop", "Journal", "audio_to_txt"),
		DocumentTitle:             "Live Journal",
		TranscriptTimezone:        "Local",
		OpenViewer:                true,
	}
}

// Load reads configuration once at startup. configPath may be empty.
func Load(configPath string) (*internalconfig.Config, error) {
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", dotEnvFile, err)
	}

	raw := defaultEnvConfig()
	if configPath != "" {
		b, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &raw); err != nil {
			return nil, fmt.Errorf("config file %s is invalid: %w", configPath, err)
		}
	}
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid: %w", err)
	}

	outputDir, err := expandHome(raw.OutputDir)
	if err != nil {
		return nil, err
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		TranscribeBackend:          strings.ToLower(strings.TrimSpace(raw.TranscribeBackend)),
		TranscribeLanguage:         strings.TrimSpace(raw.TranscribeLanguage),
		TranscribeModel:            strings.TrimSpace(raw.TranscribeModel),
		TranscribeVADFilter:        raw.TranscribeVADFilter,
		GoogleCloudProjectID:       raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:  raw.GoogleCloudSpeechLocation,
		OpenAIAPIKey:               raw.OpenAIAPIKey,
		OpenAIBaseURL:              raw.OpenAIBaseURL,
		CaptureBackend:             strings.ToLower(strings.TrimSpace(raw.CaptureBackend)),
		CaptureDevice:              strings.TrimSpace(raw.CaptureDevice),
		CaptureInput:               raw.CaptureInput,
		SampleRate:                 raw.SampleRate,
		FrameMS:                    raw.FrameMS,
		ChunkSec:                   raw.ChunkSec,
		FrameQueueSize:             raw.FrameQueueSize,
		VADBackend:                 strings.ToLower(strings.TrimSpace(raw.VADBackend)),
		VADMode:                    raw.VADMode,
		VADEnergyThreshold:         raw.VADEnergyThreshold,
		OutputDir:                  outputDir,
		DocumentTitle:              raw.DocumentTitle,
		TranscriptTimezone:         raw.TranscriptTimezone,
		OpenViewer:                 raw.OpenViewer,
		DatabaseURL:                raw.DatabaseURL,
		TranscriptWebhookURL:       raw.TranscriptWebhookURL,
		DiscordToken:               raw.DiscordToken,
		DiscordChannelID:           raw.DiscordChannelID,
		MetricsAddr:                raw.MetricsAddr,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory for OUTPUT_DIR: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}
