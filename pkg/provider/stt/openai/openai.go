// Package openai provides an STT provider backed by the OpenAI transcription
// API.
//
// Requests use response_format=verbose_json with both word and segment
// timestamp granularities. The API reports no per-word confidence, so each
// word inherits exp(avg_logprob) of the segment it falls into.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/MrWong99/scenecoach/pkg/provider/stt"
	"github.com/MrWong99/scenecoach/pkg/types"
)

// DefaultModel is the default OpenAI transcription model. It is the only
// model that supports word timestamps.
const DefaultModel = string(oai.AudioModelWhisper1)

// defaultConfidence is used for words outside every reported segment.
const defaultConfidence = 1.0

// Ensure Provider implements the stt.Provider interface.
var _ stt.Provider = (*Provider)(nil)

// Provider implements stt.Provider using the OpenAI API.
type Provider struct {
	client oai.Client
	model  string
}

// config holds optional configuration for the provider.
type config struct {
	baseURL      string
	organization string
	timeout      time.Duration
	maxRetries   int
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithOrganization sets the OpenAI organization ID on all requests.
func WithOrganization(org string) Option {
	return func(c *config) {
		c.organization = org
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithMaxRetries sets how often the SDK retries failed requests. Default: 2.
func WithMaxRetries(n int) Option {
	return func(c *config) {
		c.maxRetries = n
	}
}

// New constructs a new OpenAI STT Provider.
// If model is empty, DefaultModel (whisper-1) is used.
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai stt: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &config{maxRetries: 2}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(cfg.maxRetries),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.organization != "" {
		reqOpts = append(reqOpts, option.WithOrganization(cfg.organization))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	client := oai.NewClient(reqOpts...)
	return &Provider{client: client, model: model}, nil
}

// Transcribe implements stt.Provider.
func (p *Provider) Transcribe(ctx context.Context, req stt.Request) (*types.Transcription, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("openai stt: %w", err)
	}
	data, filename, contentType, err := stt.Upload(req)
	if err != nil {
		return nil, fmt.Errorf("openai stt: %w", err)
	}

	params := oai.AudioTranscriptionNewParams{
		File:                   oai.File(bytes.NewReader(data), filename, contentType),
		Model:                  oai.AudioModel(p.model),
		ResponseFormat:         oai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"word", "segment"},
	}
	if req.Language != "" {
		params.Language = param.NewOpt(baseLanguage(req.Language))
	}

	resp, err := p.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai stt: transcribe: %w", err)
	}

	var verbose verboseTranscription
	if err := json.Unmarshal([]byte(resp.RawJSON()), &verbose); err != nil {
		return nil, fmt.Errorf("openai stt: decode verbose response: %w", err)
	}
	if verbose.Text == "" {
		verbose.Text = resp.Text
	}
	return verbose.transcription(), nil
}

// baseLanguage reduces a BCP-47 tag to the ISO-639-1 code the API expects.
func baseLanguage(tag string) string {
	base, _, _ := strings.Cut(tag, "-")
	return strings.ToLower(base)
}

// verboseTranscription is the verbose_json body returned by the API.
type verboseTranscription struct {
	Text  string `json:"text"`
	Words []struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"words"`
	Segments []struct {
		Start      float64 `json:"start"`
		End        float64 `json:"end"`
		AvgLogprob float64 `json:"avg_logprob"`
	} `json:"segments"`
}

func (v verboseTranscription) transcription() *types.Transcription {
	tr := &types.Transcription{
		Text:  strings.TrimSpace(v.Text),
		Words: make([]types.TranscriptWord, 0, len(v.Words)),
	}

	seg := 0
	var sum float64
	for _, w := range v.Words {
		// Words and segments are both in time order.
		for seg < len(v.Segments) && w.Start >= v.Segments[seg].End {
			seg++
		}
		conf := defaultConfidence
		if seg < len(v.Segments) && w.Start >= v.Segments[seg].Start {
			conf = math.Max(0, math.Min(1, math.Exp(v.Segments[seg].AvgLogprob)))
		}
		tr.Words = append(tr.Words, types.TranscriptWord{
			Word:       strings.TrimSpace(w.Word),
			StartTime:  w.Start,
			EndTime:    w.End,
			Confidence: conf,
		})
		sum += conf
	}
	if len(tr.Words) > 0 {
		tr.Confidence = sum / float64(len(tr.Words))
	}
	return tr
}
