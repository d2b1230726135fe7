package core

type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
)

// ConversationTurn is one message in a channel's conversation history.
// Turns are immutable once created.
type ConversationTurn struct {
	Role    TurnRole `json:"role"`
	Content string   `json:"content"`
}

// VoiceProfile selects the voice, language and delivery style used when
// synthesizing speech. Profiles are configuration data, not caller input.
type VoiceProfile struct {
	Name     string `json:"name"`
	Voice    string `json:"voice"`
	Language string `json:"language"`
	// Style selects an expressive style (e.g. "cheerful"). Empty means no
	// express-as wrapper is emitted.
	Style string `json:"style,omitempty"`
	// Rate and Pitch are prosody attributes. Both empty means no prosody
	// wrapper is emitted.
	Rate  string `json:"rate,omitempty"`
	Pitch string `json:"pitch,omitempty"`
}

// PersonaProfile binds an instructional prefix to the voice profile a command
// variant speaks with.
type PersonaProfile struct {
	Name   string       `json:"name"`
	Prefix string       `json:"prefix"`
	Voice  VoiceProfile `json:"voice"`
}

// SynthesisRequest is the value object handed to a SpeechService. It is not
// stored anywhere.
type SynthesisRequest struct {
	Text    string
	Profile VoiceProfile
}
