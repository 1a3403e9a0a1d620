package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/foxseedlab/livejournal/internal/audio"
	"github.com/foxseedlab/livejournal/internal/transcriber"
	openai "github.com/sashabaranov/go-openai"
)

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAIEngine sends each chunk as a WAV file to the audio transcription
// endpoint.
type OpenAIEngine struct {
	client *openai.Client
	model  string
}

func NewOpenAIEngine(cfg OpenAIConfig) *OpenAIEngine {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.BaseURL = strings.TrimRight(base, "/")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAIEngine{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

func (e *OpenAIEngine) Name() string {
	return "openai"
}

func (e *OpenAIEngine) Transcribe(ctx context.Context, req transcriber.Request) ([]transcriber.Segment, error) {
	if req.VADFilter && transcriber.IsSilent(req.Samples) {
		return nil, nil
	}
	wav, err := audio.EncodeWAV(audio.Denormalize(req.Samples), req.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("encode chunk: %w", err)
	}
	resp, err := e.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    e.model,
		FilePath: "chunk.wav",
		Reader:   bytes.NewReader(wav),
		Language: req.Language,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Segments) == 0 {
		if resp.Text == "" {
			return nil, nil
		}
		return []transcriber.Segment{{Text: resp.Text}}, nil
	}
	segments := make([]transcriber.Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		segments = append(segments, transcriber.Segment{Text: s.Text})
	}
	return segments, nil
}

func (e *OpenAIEngine) Close() error {
	return nil
}
