package core

import "fmt"

// CompletionErrorKind classifies completion failures. The pipeline treats all
// kinds uniformly; the kind only shows up in logs.
type CompletionErrorKind string

const (
	CompletionTransport    CompletionErrorKind = "transport"
	CompletionBadStatus    CompletionErrorKind = "bad_status"
	CompletionBadBody      CompletionErrorKind = "bad_body"
	CompletionEmptyChoices CompletionErrorKind = "empty_choices"
)

// CompletionError is the single top-level error surfaced by a
// CompletionService.
type CompletionError struct {
	Kind   CompletionErrorKind
	Status int // HTTP status when Kind is bad_status, 0 otherwise
	Err    error
}

func (e *CompletionError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("completion %s (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("completion %s: %v", e.Kind, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

type SynthesisErrorKind string

const (
	SynthesisTransport SynthesisErrorKind = "transport"
	SynthesisBadStatus SynthesisErrorKind = "bad_status"
)

// SynthesisError is surfaced by a SpeechService. On any synthesis error the
// pipeline must not attempt playback.
type SynthesisError struct {
	Kind   SynthesisErrorKind
	Status int
	Err    error
}

func (e *SynthesisError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("synthesis %s (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("synthesis %s: %v", e.Kind, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

type PlaybackErrorKind string

const (
	PlaybackNoActiveSession     PlaybackErrorKind = "no_active_session"
	PlaybackArtifactWriteFailed PlaybackErrorKind = "artifact_write_failed"
	PlaybackDecodeFailed        PlaybackErrorKind = "decode_failed"
)

// PlaybackError is surfaced by a PlaybackSink. NoActiveSession is expected
// whenever the bot was never asked to join a voice channel and is not treated
// as fatal to the command.
type PlaybackError struct {
	Kind PlaybackErrorKind
	Err  error
}

func (e *PlaybackError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("playback %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("playback %s", e.Kind)
}

func (e *PlaybackError) Unwrap() error { return e.Err }
