package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	TranscribeBackendCloudSpeech = "cloud-speech"
	TranscribeBackendOpenAI      = "openai"

	CaptureBackendMalgo  = "malgo"
	CaptureBackendStream = "stream"

	VADBackendWebRTC = "webrtc"
	VADBackendEnergy = "energy"
	VADBackendNone   = "none"
)

type Config struct {
	Env string

	TranscribeBackend   string
	TranscribeLanguage  string
	TranscribeModel     string
	TranscribeVADFilter bool

	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	OpenAIAPIKey               string
	OpenAIBaseURL              string

	CaptureBackend string
	CaptureDevice  string
	CaptureInput   string
	SampleRate     int
	FrameMS        int
	ChunkSec       float64
	FrameQueueSize int

	VADBackend         string
	VADMode            int
	VADEnergyThreshold float64

	OutputDir          string
	DocumentTitle      string
	TranscriptTimezone string
	OpenViewer         bool

	DatabaseURL          string
	TranscriptWebhookURL string
	DiscordToken         string
	DiscordChannelID     string
	MetricsAddr          string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if strings.TrimSpace(req.value) == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	switch c.TranscribeBackend {
	case TranscribeBackendCloudSpeech:
		if c.GoogleCloudProjectID == "" || c.GoogleCloudCredentialsJSON == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT_ID and GOOGLE_CLOUD_CREDENTIALS_JSON are required when TRANSCRIBE_BACKEND=%s", TranscribeBackendCloudSpeech)
		}
		if strings.EqualFold(strings.TrimSpace(c.TranscribeLanguage), "auto") && !SupportsAutoLanguage(c.TranscribeModel) {
			return fmt.Errorf("TRANSCRIBE_MODEL %q does not support TRANSCRIBE_LANGUAGE=auto; use a chirp model or set a language code", c.TranscribeModel)
		}
	case TranscribeBackendOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when TRANSCRIBE_BACKEND=%s", TranscribeBackendOpenAI)
		}
	default:
		return fmt.Errorf("TRANSCRIBE_BACKEND must be %q or %q, got %q", TranscribeBackendCloudSpeech, TranscribeBackendOpenAI, c.TranscribeBackend)
	}
	switch c.CaptureBackend {
	case CaptureBackendMalgo:
	case CaptureBackendStream:
		if c.CaptureInput == "" {
			return fmt.Errorf("CAPTURE_INPUT is required when CAPTURE_BACKEND=%s", CaptureBackendStream)
		}
	default:
		return fmt.Errorf("CAPTURE_BACKEND must be %q or %q, got %q", CaptureBackendMalgo, CaptureBackendStream, c.CaptureBackend)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("SAMPLE_RATE must be positive, got %d", c.SampleRate)
	}
	if c.FrameMS != 10 && c.FrameMS != 20 && c.FrameMS != 30 {
		return fmt.Errorf("FRAME_MS must be 10, 20 or 30, got %d", c.FrameMS)
	}
	if c.SampleRate*c.FrameMS%1000 != 0 {
		return fmt.Errorf("SAMPLE_RATE %d does not divide into whole %d ms frames", c.SampleRate, c.FrameMS)
	}
	if c.ChunkSec <= 0 {
		return fmt.Errorf("CHUNK_SEC must be positive, got %v", c.ChunkSec)
	}
	if c.ChunkDuration() < c.FrameDuration() {
		return fmt.Errorf("CHUNK_SEC %v is shorter than one %d ms frame", c.ChunkSec, c.FrameMS)
	}
	if c.FrameQueueSize <= 0 {
		return fmt.Errorf("FRAME_QUEUE_SIZE must be positive, got %d", c.FrameQueueSize)
	}
	switch c.VADBackend {
	case VADBackendWebRTC, VADBackendEnergy, VADBackendNone:
	default:
		return fmt.Errorf("VAD_BACKEND must be %q, %q or %q, got %q", VADBackendWebRTC, VADBackendEnergy, VADBackendNone, c.VADBackend)
	}
	if c.VADMode < 0 || c.VADMode > 3 {
		return fmt.Errorf("VAD_MODE must be between 0 and 3, got %d", c.VADMode)
	}
	if c.VADEnergyThreshold <= 0 || c.VADEnergyThreshold >= 1 {
		return fmt.Errorf("VAD_ENERGY_THRESHOLD must be between 0 and 1, got %v", c.VADEnergyThreshold)
	}
	if _, err := time.LoadLocation(c.TranscriptTimezone); err != nil {
		return fmt.Errorf("TRANSCRIPT_TIMEZONE is invalid: %w", err)
	}
	if (c.DiscordToken == "") != (c.DiscordChannelID == "") {
		return fmt.Errorf("DISCORD_TOKEN and DISCORD_CHANNEL_ID must be set together")
	}
	return nil
}

// SupportsAutoLanguage reports whether a Cloud Speech model accepts the
// "auto" language code. Empty means the engine default, which is chirp_3.
func SupportsAutoLanguage(model string) bool {
	model = strings.ToLower(strings.TrimSpace(model))
	return model == "" || strings.HasPrefix(model, "chirp")
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "TRANSCRIBE_BACKEND", value: c.TranscribeBackend},
		{name: "TRANSCRIBE_LANGUAGE", value: c.TranscribeLanguage},
		{name: "CAPTURE_BACKEND", value: c.CaptureBackend},
		{name: "OUTPUT_DIR", value: c.OutputDir},
		{name: "DOCUMENT_TITLE", value: c.DocumentTitle},
		{name: "TRANSCRIPT_TIMEZONE", value: c.TranscriptTimezone},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) FrameDuration() time.Duration {
	return time.Duration(c.FrameMS) * time.Millisecond
}

func (c *Config) ChunkDuration() time.Duration {
	return time.Duration(c.ChunkSec * float64(time.Second))
}

// Location falls back to the local zone when the configured one is invalid;
// Validate rejects that case at startup.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TranscriptTimezone)
	if err != nil {
		return time.Local
	}
	return loc
}
