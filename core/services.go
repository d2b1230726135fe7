package core

import "context"

// CompletionService produces the assistant's reply for a conversation. The
// whole history is sent so the remote model keeps full context; the newest
// turn already carries the persona prefix. Failures are *CompletionError.
type CompletionService interface {
	Complete(ctx context.Context, history []ConversationTurn) (string, error)
}

// SpeechService converts text into one finite audio blob. Failures are
// *SynthesisError. A single attempt per call, no retry.
type SpeechService interface {
	Synthesize(ctx context.Context, req SynthesisRequest) ([]byte, error)
}

// PlaybackSink plays an audio blob into the voice session of a guild. The
// session must already exist; otherwise Play returns *PlaybackError with kind
// no_active_session. Play returns once the item is enqueued, not when it
// finishes.
type PlaybackSink interface {
	Play(ctx context.Context, guildID string, audio []byte) error
}

// TextSender posts a text message back to a channel. Send failures are
// logged by callers, never fatal to an invocation.
type TextSender interface {
	SendText(channelID string, text string) error
}
