package factories

import (
	"fmt"
	"time"

	"junkobot/core"
	"junkobot/services/azure/speech"
	"junkobot/services/openai/completion"
	"junkobot/services/uropk"
)

// BuildCompletionClient constructs the completion client from settings and
// credentials.
func BuildCompletionClient(cfg SettingsConfig, keys APIKeys, logger *core.Logger) (*completion.Client, error) {
	timeout, err := parseTimeout(cfg.Timeouts.Completion, 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("completion timeout: %w", err)
	}
	return completion.NewClient(completion.Config{
		APIKey:  keys.OpenAIKey,
		Model:   cfg.Model,
		Timeout: timeout,
	}, logger), nil
}

// BuildSpeechSynthesizer constructs the speech synthesizer from settings and
// credentials.
func BuildSpeechSynthesizer(cfg SettingsConfig, keys APIKeys, logger *core.Logger) (*speech.Synthesizer, error) {
	timeout, err := parseTimeout(cfg.Timeouts.Synthesis, 45*time.Second)
	if err != nil {
		return nil, fmt.Errorf("synthesis timeout: %w", err)
	}
	return speech.NewSynthesizer(speech.Config{
		SubscriptionKey: keys.SpeechKey,
		Region:          keys.SpeechRegion,
		Timeout:         timeout,
	}, logger), nil
}

// BuildTimerScraper constructs the countdown scraper from settings.
func BuildTimerScraper(cfg SettingsConfig, logger *core.Logger) (*uropk.Scraper, error) {
	timeout, err := parseTimeout(cfg.Timeouts.Scrape, 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("scrape timeout: %w", err)
	}
	return uropk.NewScraper(uropk.Config{
		PageURL: cfg.TimerPageURL,
		Timeout: timeout,
	}, logger), nil
}
