package factories

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"junkobot/core"
)

// PersonaSettings configures one ask-style command: the instructional prefix
// injected into user prompts and the voice profile the reply is spoken with.
type PersonaSettings struct {
	Prefix  string `json:"prefix"`
	Profile string `json:"profile"`
}

// Timeouts bounds each external call. Values are Go duration strings.
type Timeouts struct {
	Completion string `json:"completion,omitempty"`
	Synthesis  string `json:"synthesis,omitempty"`
	Scrape     string `json:"scrape,omitempty"`
}

// SettingsConfig is the top-level config, loadable from settings.json.
// Credentials are deliberately not part of it; they come from the
// environment (see APIKeys).
type SettingsConfig struct {
	CommandPrefix string                       `json:"command_prefix"`
	Model         string                       `json:"model"`
	TimerPageURL  string                       `json:"timer_page_url,omitempty"`
	TTSProfile    string                       `json:"tts_profile"`
	Profiles      map[string]core.VoiceProfile `json:"profiles"`
	Personas      map[string]PersonaSettings   `json:"personas"`
	Timeouts      Timeouts                     `json:"timeouts"`
}

const junkoPrefix = "I want you to act like Junko Enoshima from Danganronpa. " +
	"I want you to respond and answer like Junko Enoshima using the tone, manner and vocabulary Junko Enoshima would use. " +
	"However I also need it to act as an AI assistant that is willing to answer anything about any topic. " +
	"Do not write any explanations. Only answer like Junko Enoshima. " +
	"You must know all of the knowledge of Junko Enoshima."

const junkoPrefixBR = "Quero que você aja como a Junko Enoshima de Danganronpa. " +
	"Responda sempre em português do Brasil, com o tom, o jeito e o vocabulário que a Junko Enoshima usaria. " +
	"Você também é uma assistente de IA disposta a responder qualquer pergunta sobre qualquer assunto. " +
	"Não escreva explicações. Responda apenas como a Junko Enoshima."

// DefaultSettingsConfig returns the built-in personas and voice profiles.
func DefaultSettingsConfig() SettingsConfig {
	return SettingsConfig{
		CommandPrefix: "~",
		Model:         "gpt-4o",
		TTSProfile:    "en-neutral",
		Profiles: map[string]core.VoiceProfile{
			"en-neutral": {
				Name:     "en-neutral",
				Voice:    "en-US-AshleyNeural",
				Language: "en-US",
				Rate:     "1.00",
				Pitch:    "+1%",
			},
			"br-cheerful": {
				Name:     "br-cheerful",
				Voice:    "pt-BR-FranciscaNeural",
				Language: "pt-BR",
				Style:    "cheerful",
			},
		},
		Personas: map[string]PersonaSettings{
			"ask":   {Prefix: junkoPrefix, Profile: "en-neutral"},
			"askbr": {Prefix: junkoPrefixBR, Profile: "br-cheerful"},
		},
	}
}

// SettingsConfigFromJSON parses a JSON blob, filling gaps from the defaults.
func SettingsConfigFromJSON(data []byte) (SettingsConfig, error) {
	cfg := DefaultSettingsConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return SettingsConfig{}, fmt.Errorf("settings: %w", err)
	}

	for name, profile := range cfg.Profiles {
		if profile.Name == "" {
			profile.Name = name
			cfg.Profiles[name] = profile
		}
	}
	if _, ok := cfg.Profiles[cfg.TTSProfile]; !ok {
		return SettingsConfig{}, fmt.Errorf("settings: unknown tts profile %q", cfg.TTSProfile)
	}
	for command, persona := range cfg.Personas {
		if _, ok := cfg.Profiles[persona.Profile]; !ok {
			return SettingsConfig{}, fmt.Errorf("settings: persona %q references unknown profile %q", command, persona.Profile)
		}
	}
	return cfg, nil
}

// SettingsConfigFromFile reads and parses a SettingsConfig from a JSON file.
func SettingsConfigFromFile(path string) (SettingsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultSettingsConfig(), fmt.Errorf("settings: read %q: %w", path, err)
	}
	return SettingsConfigFromJSON(data)
}

// ResolvePersonas binds each command's persona settings to its voice
// profile.
func (c SettingsConfig) ResolvePersonas() map[string]core.PersonaProfile {
	personas := make(map[string]core.PersonaProfile, len(c.Personas))
	for command, persona := range c.Personas {
		personas[command] = core.PersonaProfile{
			Name:   command,
			Prefix: persona.Prefix,
			Voice:  c.Profiles[persona.Profile],
		}
	}
	return personas
}

// Timeout parses the named timeout, falling back to def when unset.
func parseTimeout(value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	return time.ParseDuration(value)
}

// APIKeys are the startup credentials. Their absence is a startup-time fatal
// condition, not a per-invocation error.
type APIKeys struct {
	DiscordToken string
	OpenAIKey    string
	SpeechKey    string
	SpeechRegion string
}

// APIKeysFromEnv reads the credentials from the environment.
func APIKeysFromEnv() APIKeys {
	return APIKeys{
		DiscordToken: os.Getenv("DISCORD_TOKEN"),
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		SpeechKey:    os.Getenv("SPEECH_KEY"),
		SpeechRegion: os.Getenv("SPEECH_REGION"),
	}
}

// Validate reports every missing credential at once.
func (k APIKeys) Validate() error {
	var missing []string
	if k.DiscordToken == "" {
		missing = append(missing, "DISCORD_TOKEN")
	}
	if k.OpenAIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if k.SpeechKey == "" {
		missing = append(missing, "SPEECH_KEY")
	}
	if k.SpeechRegion == "" {
		missing = append(missing, "SPEECH_REGION")
	}
	if len(missing) > 0 {
		return errors.New("missing required environment variables: " + strings.Join(missing, ", "))
	}
	return nil
}
