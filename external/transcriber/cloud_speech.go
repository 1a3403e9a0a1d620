package transcriber

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/auth/credentials"
	speech "cloud.google.com/go/speech/apiv2"
	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
	"github.com/foxseedlab/livejournal/internal/audio"
	"github.com/foxseedlab/livejournal/internal/transcriber"
	"google.golang.org/api/option"
)

const (
	speechAPIEndpointPort      = 443
	defaultCloudSpeechModel    = "chirp_3"
	defaultCloudSpeechLocation = "us"
	autoLanguageCode           = "auto"
)

type CloudSpeechConfig struct {
	ProjectID       string
	CredentialsJSON string
	Location        string
	Model           string
}

type CloudSpeechEngine struct {
	projectID  string
	location   string
	model      string
	recognizer string

	recognize func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)
	closeFn   func() error
}

func NewCloudSpeechEngine(ctx context.Context, cfg CloudSpeechConfig) (*CloudSpeechEngine, error) {
	e := newCloudSpeechEngine(cfg.ProjectID, cfg.Location, cfg.Model)

	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		CredentialsJSON: []byte(cfg.CredentialsJSON),
		Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
	})
	if err != nil {
		return nil, fmt.Errorf("detect credentials: %w", err)
	}
	opts := []option.ClientOption{
		option.WithAuthCredentials(creds),
	}
	if e.location != "global" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-speech.googleapis.com:%d", e.location, speechAPIEndpointPort)))
	}
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	slog.Info("cloud speech client initialized", "location", e.location, "model", e.model)

	e.recognize = func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		return client.Recognize(ctx, req)
	}
	e.closeFn = client.Close
	return e, nil
}

// newCloudSpeechEngine fills in chirp_3 on the "us" multi-region, the
// pairing that accepts the "auto" language code.
func newCloudSpeechEngine(projectID, location, model string) *CloudSpeechEngine {
	location = strings.TrimSpace(location)
	if location == "" {
		location = defaultCloudSpeechLocation
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultCloudSpeechModel
	}
	return &CloudSpeechEngine{
		projectID:  projectID,
		location:   location,
		model:      model,
		recognizer: fmt.Sprintf("projects/%s/locations/%s/recognizers/_", projectID, location),
	}
}

func (e *CloudSpeechEngine) Name() string {
	return "cloud-speech"
}

func (e *CloudSpeechEngine) Transcribe(ctx context.Context, req transcriber.Request) ([]transcriber.Segment, error) {
	if req.VADFilter && transcriber.IsSilent(req.Samples) {
		return nil, nil
	}
	resp, err := e.recognize(ctx, e.buildRequest(req))
	if err != nil {
		return nil, err
	}
	var segments []transcriber.Segment
	for _, result := range resp.GetResults() {
		if len(result.GetAlternatives()) == 0 {
			continue
		}
		segments = append(segments, transcriber.Segment{Text: result.GetAlternatives()[0].GetTranscript()})
	}
	return segments, nil
}

func (e *CloudSpeechEngine) buildRequest(req transcriber.Request) *speechpb.RecognizeRequest {
	language := req.Language
	if language == "" {
		language = autoLanguageCode
	}
	return &speechpb.RecognizeRequest{
		Recognizer: e.recognizer,
		Config: &speechpb.RecognitionConfig{
			Model:         e.model,
			LanguageCodes: []string{language},
			DecodingConfig: &speechpb.RecognitionConfig_ExplicitDecodingConfig{
				ExplicitDecodingConfig: &speechpb.ExplicitDecodingConfig{
					Encoding:          speechpb.ExplicitDecodingConfig_LINEAR16,
					SampleRateHertz:   int32(req.SampleRate),
					AudioChannelCount: 1,
				},
			},
			Features: &speechpb.RecognitionFeatures{
				EnableAutomaticPunctuation: true,
			},
		},
		AudioSource: &speechpb.RecognizeRequest_Content{
			Content: audio.EncodePCM16(audio.Denormalize(req.Samples)),
		},
	}
}

func (e *CloudSpeechEngine) Close() error {
	if e.closeFn == nil {
		return nil
	}
	return e.closeFn()
}
