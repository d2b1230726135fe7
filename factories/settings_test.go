package factories

import (
	"strings"
	"testing"
)

func TestDefaultSettingsConfig(t *testing.T) {
	cfg := DefaultSettingsConfig()

	if cfg.CommandPrefix != "~" {
		t.Fatalf("unexpected prefix %q", cfg.CommandPrefix)
	}
	if _, ok := cfg.Profiles["en-neutral"]; !ok {
		t.Fatal("missing en-neutral profile")
	}
	if _, ok := cfg.Profiles["br-cheerful"]; !ok {
		t.Fatal("missing br-cheerful profile")
	}
	if cfg.Profiles["br-cheerful"].Style != "cheerful" {
		t.Fatalf("br-cheerful profile lost its style: %+v", cfg.Profiles["br-cheerful"])
	}
	for _, command := range []string{"ask", "askbr"} {
		persona, ok := cfg.Personas[command]
		if !ok {
			t.Fatalf("missing %s persona", command)
		}
		if persona.Prefix == "" {
			t.Fatalf("%s persona has an empty prefix", command)
		}
	}
}

func TestSettingsConfigFromJSON_OverridesDefaults(t *testing.T) {
	cfg, err := SettingsConfigFromJSON([]byte(`{
		"command_prefix": "!",
		"model": "gpt-4o-mini",
		"timeouts": {"completion": "10s"}
	}`))
	if err != nil {
		t.Fatalf("SettingsConfigFromJSON failed: %v", err)
	}

	if cfg.CommandPrefix != "!" {
		t.Fatalf("prefix not overridden: %q", cfg.CommandPrefix)
	}
	if cfg.Model != "gpt-4o-mini" {
		t.Fatalf("model not overridden: %q", cfg.Model)
	}
	// Defaults survive a partial override.
	if len(cfg.Personas) != 2 {
		t.Fatalf("default personas lost: %+v", cfg.Personas)
	}
}

func TestSettingsConfigFromJSON_RejectsUnknownProfile(t *testing.T) {
	_, err := SettingsConfigFromJSON([]byte(`{
		"personas": {"ask": {"prefix": "p", "profile": "nope"}}
	}`))
	if err == nil || !strings.Contains(err.Error(), "unknown profile") {
		t.Fatalf("expected unknown profile error, got %v", err)
	}
}

func TestSettingsConfigFromJSON_FillsProfileNames(t *testing.T) {
	cfg, err := SettingsConfigFromJSON([]byte(`{
		"tts_profile": "custom",
		"profiles": {"custom": {"voice": "en-US-JennyNeural", "language": "en-US"}},
		"personas": {"ask": {"prefix": "p", "profile": "custom"}, "askbr": {"prefix": "p", "profile": "custom"}}
	}`))
	if err != nil {
		t.Fatalf("SettingsConfigFromJSON failed: %v", err)
	}
	if cfg.Profiles["custom"].Name != "custom" {
		t.Fatalf("profile name not back-filled: %+v", cfg.Profiles["custom"])
	}
}

func TestResolvePersonas(t *testing.T) {
	personas := DefaultSettingsConfig().ResolvePersonas()

	ask, ok := personas["ask"]
	if !ok {
		t.Fatal("missing ask persona")
	}
	if ask.Voice.Voice != "en-US-AshleyNeural" {
		t.Fatalf("ask persona bound to wrong voice: %+v", ask.Voice)
	}

	askbr := personas["askbr"]
	if askbr.Voice.Style != "cheerful" || askbr.Voice.Language != "pt-BR" {
		t.Fatalf("askbr persona bound to wrong voice: %+v", askbr.Voice)
	}
}

func TestAPIKeysValidate(t *testing.T) {
	keys := APIKeys{
		DiscordToken: "t",
		OpenAIKey:    "o",
		SpeechKey:    "s",
		SpeechRegion: "eastus",
	}
	if err := keys.Validate(); err != nil {
		t.Fatalf("complete keys rejected: %v", err)
	}

	keys.SpeechRegion = ""
	keys.OpenAIKey = ""
	err := keys.Validate()
	if err == nil {
		t.Fatal("expected error for missing keys")
	}
	for _, want := range []string{"OPENAI_API_KEY", "SPEECH_REGION"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not name %s", err, want)
		}
	}
}
