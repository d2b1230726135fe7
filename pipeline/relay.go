// Package pipeline orchestrates one command invocation end to end: persona
// prompt, conversation history, completion, synthesis and voice playback.
package pipeline

import (
	"context"
	"errors"

	"junkobot/conversation"
	"junkobot/core"
)

// Request carries one invocation through the pipeline.
type Request struct {
	ChannelID string
	GuildID   string
	Prompt    string
	Persona   core.PersonaProfile
}

// User-visible notices. Internal detail stays in the logs.
const (
	noticeCompletionFailed = "Failed to get a reply, try again later"
	noticeSynthesisFailed  = "Error synthesizing TTS"
	noticePlaybackFailed   = "Error playing audio in the voice channel"
	noticeNotConnected     = "The bot is not connected to a voice channel"
)

// Pipeline relays prompts to the completion service, mirrors the reply as
// text, and speaks it into the guild's voice session. Invocations run
// concurrently; per-channel history consistency is the store's job.
type Pipeline struct {
	store      *conversation.Store
	completion core.CompletionService
	speech     core.SpeechService
	sink       core.PlaybackSink
	sender     core.TextSender
	logger     *core.Logger
}

func New(
	store *conversation.Store,
	completion core.CompletionService,
	speech core.SpeechService,
	sink core.PlaybackSink,
	sender core.TextSender,
	logger *core.Logger,
) *Pipeline {
	if logger == nil {
		logger = core.GetLogger()
	}
	return &Pipeline{
		store:      store,
		completion: completion,
		speech:     speech,
		sink:       sink,
		sender:     sender,
		logger:     logger,
	}
}

// Relay runs one invocation. Order matters: the user turn is appended before
// the completion call so the model sees it as context; the reply text is
// posted before synthesis so a voice failure never suppresses it; the
// assistant turn is appended last, once the completion has definitively
// succeeded, so it survives any voice-path failure.
func (p *Pipeline) Relay(ctx context.Context, req Request) error {
	logger := p.logger.With(map[string]interface{}{
		"channel": req.ChannelID,
		"guild":   req.GuildID,
		"persona": req.Persona.Name,
	})

	prompt := req.Prompt
	if req.Persona.Prefix != "" {
		prompt = req.Persona.Prefix + "\n" + req.Prompt
	}

	history := p.store.Append(req.ChannelID, core.ConversationTurn{
		Role:    core.TurnRoleUser,
		Content: prompt,
	})

	reply, err := p.completion.Complete(ctx, history)
	if err != nil {
		// The user turn stays in history even though it was never answered.
		logger.With(map[string]interface{}{"error": err}).Error("completion failed")
		p.notify(req.ChannelID, noticeCompletionFailed)
		return err
	}

	// Text delivery is decoupled from voice delivery; a downstream failure
	// must not take this back.
	p.notify(req.ChannelID, reply)

	relayErr := p.speak(ctx, req, reply, logger)

	p.store.Append(req.ChannelID, core.ConversationTurn{
		Role:    core.TurnRoleAssistant,
		Content: reply,
	})

	return relayErr
}

func (p *Pipeline) speak(ctx context.Context, req Request, reply string, logger *core.Logger) error {
	audio, err := p.speech.Synthesize(ctx, core.SynthesisRequest{
		Text:    reply,
		Profile: req.Persona.Voice,
	})
	if err != nil {
		logger.With(map[string]interface{}{"error": err}).Error("synthesis failed")
		p.notify(req.ChannelID, noticeSynthesisFailed)
		return err
	}

	if err := p.sink.Play(ctx, req.GuildID, audio); err != nil {
		var playbackErr *core.PlaybackError
		if errors.As(err, &playbackErr) && playbackErr.Kind == core.PlaybackNoActiveSession {
			p.notify(req.ChannelID, noticeNotConnected)
		} else {
			logger.With(map[string]interface{}{"error": err}).Error("playback failed")
			p.notify(req.ChannelID, noticePlaybackFailed)
		}
		return err
	}

	return nil
}

// notify posts a channel message, logging failures rather than propagating
// them.
func (p *Pipeline) notify(channelID string, text string) {
	if err := p.sender.SendText(channelID, text); err != nil {
		p.logger.With(map[string]interface{}{
			"channel": channelID,
			"error":   err,
		}).Warn("failed to send channel message")
	}
}
