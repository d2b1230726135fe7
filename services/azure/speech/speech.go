// Package speech implements core.SpeechService against the Azure Cognitive
// Services text-to-speech REST API.
package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"junkobot/core"
)

// outputFormat is the single audio encoding the pipeline plays: mono,
// 16 kHz, 128 kbit/s MP3.
const outputFormat = "audio-16khz-128kbitrate-mono-mp3"

// Config holds the configuration for the speech synthesizer.
type Config struct {
	SubscriptionKey string `json:"subscription_key"`
	Region          string `json:"region"`
	// Endpoint overrides the region-derived URL, mainly for tests.
	Endpoint string        `json:"endpoint,omitempty"`
	Timeout  time.Duration `json:"timeout"`
}

// DefaultConfig returns a Config with sensible defaults. Synthesis is slow,
// so the timeout is generous.
func DefaultConfig() Config {
	return Config{
		Timeout: 45 * time.Second,
	}
}

// Synthesizer converts text to a finite MP3 blob. A single attempt per call,
// fail-fast; both failure modes surface as *core.SynthesisError.
type Synthesizer struct {
	config Config
	logger *core.Logger

	mu            sync.RWMutex
	httpClient    *http.Client
	endpoint      string
	isInitialized bool
}

// NewSynthesizer creates a speech synthesizer with the provided config.
func NewSynthesizer(config Config, logger *core.Logger) *Synthesizer {
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if logger == nil {
		logger = core.GetLogger()
	}
	return &Synthesizer{
		config: config,
		logger: logger,
	}
}

// Initialize validates the config and resolves the regional endpoint.
func (s *Synthesizer) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isInitialized {
		return nil
	}
	if s.config.SubscriptionKey == "" {
		return errors.New("speech subscription key is required")
	}
	if s.config.Endpoint == "" && s.config.Region == "" {
		return errors.New("speech region is required")
	}

	s.endpoint = s.config.Endpoint
	if s.endpoint == "" {
		s.endpoint = fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", s.config.Region)
	}
	s.httpClient = &http.Client{Timeout: s.config.Timeout}
	s.isInitialized = true
	return nil
}

// Cleanup releases the HTTP client.
func (s *Synthesizer) Cleanup() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.httpClient = nil
	s.isInitialized = false
	return nil
}

// Synthesize implements core.SpeechService.
func (s *Synthesizer) Synthesize(ctx context.Context, req core.SynthesisRequest) ([]byte, error) {
	s.mu.RLock()
	httpClient := s.httpClient
	endpoint := s.endpoint
	initialized := s.isInitialized
	s.mu.RUnlock()

	if !initialized {
		return nil, &core.SynthesisError{
			Kind: core.SynthesisTransport,
			Err:  errors.New("synthesizer not initialized"),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	body := buildSSML(req)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return nil, &core.SynthesisError{
			Kind: core.SynthesisTransport,
			Err:  fmt.Errorf("build synthesis request: %w", err),
		}
	}
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", s.config.SubscriptionKey)
	httpReq.Header.Set("Content-Type", "application/ssml+xml")
	httpReq.Header.Set("X-Microsoft-OutputFormat", outputFormat)
	httpReq.Header.Set("User-Agent", "junkobot")

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, &core.SynthesisError{
			Kind: core.SynthesisTransport,
			Err:  fmt.Errorf("execute synthesis request: %w", err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		s.logger.With(map[string]interface{}{
			"status":  resp.StatusCode,
			"profile": req.Profile.Name,
			"body":    string(snippet),
		}).Error("speech service rejected synthesis request")
		return nil, &core.SynthesisError{
			Kind:   core.SynthesisBadStatus,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &core.SynthesisError{
			Kind: core.SynthesisTransport,
			Err:  fmt.Errorf("read audio body: %w", err),
		}
	}

	s.logger.With(map[string]interface{}{
		"profile": req.Profile.Name,
		"bytes":   len(audio),
	}).Debug("synthesized audio")
	return audio, nil
}
