// Package discord is the messaging-gateway and voice-session glue: it owns
// the gateway session, routes prefix commands into the relay pipeline, and
// manages per-guild voice sessions and playback.
package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"junkobot/core"
	"junkobot/pipeline"
	"junkobot/services/uropk"

	"github.com/bwmarrin/discordgo"
)

// Config holds the gateway configuration.
type Config struct {
	Token  string `json:"token"`
	Prefix string `json:"prefix"`
}

// DefaultConfig returns a Config with the historical command prefix.
func DefaultConfig() Config {
	return Config{Prefix: "~"}
}

// Deps are the collaborators the command handlers dispatch into.
type Deps struct {
	Pipeline *pipeline.Pipeline
	Speech   core.SpeechService
	Sink     core.PlaybackSink
	Scraper  *uropk.Scraper
	// Personas maps command names (ask, askbr) to their persona profile.
	Personas map[string]core.PersonaProfile
	// TTSVoice is the profile the bare tts command speaks with.
	TTSVoice core.VoiceProfile
}

// Gateway connects to the messaging platform and dispatches commands. It
// also implements core.TextSender for the pipeline's replies.
type Gateway struct {
	config  Config
	deps    Deps
	logger  *core.Logger
	session *discordgo.Session
	voices  *VoiceManager

	mu     sync.Mutex
	opened bool
}

// NewGateway creates the gateway session and wires the message handler. The
// session is not opened until Open is called.
func NewGateway(config Config, logger *core.Logger) (*Gateway, error) {
	if config.Token == "" {
		return nil, errors.New("gateway token is required")
	}
	if config.Prefix == "" {
		config.Prefix = DefaultConfig().Prefix
	}
	if logger == nil {
		logger = core.GetLogger()
	}

	session, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("create gateway session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentMessageContent

	g := &Gateway{
		config:  config,
		logger:  logger,
		session: session,
		voices:  NewVoiceManager(session, logger),
	}

	session.AddHandler(g.handleReady)
	session.AddHandler(g.handleMessage)
	return g, nil
}

// SetDeps injects the command collaborators. Must be called before Open;
// split from NewGateway because the pipeline needs the gateway as its
// TextSender.
func (g *Gateway) SetDeps(deps Deps) {
	g.deps = deps
}

// Voices exposes the voice-session registry.
func (g *Gateway) Voices() *VoiceManager {
	return g.voices
}

// Open connects to the gateway.
func (g *Gateway) Open(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.opened {
		return nil
	}
	if err := g.session.Open(); err != nil {
		return fmt.Errorf("open gateway connection: %w", err)
	}
	g.opened = true
	return nil
}

// Close tears down the voice sessions and the gateway connection.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.opened {
		return nil
	}
	g.voices.Close()
	g.opened = false
	return g.session.Close()
}

// SendText implements core.TextSender.
func (g *Gateway) SendText(channelID string, text string) error {
	_, err := g.session.ChannelMessageSend(channelID, text)
	return err
}

// sendText posts a message and logs delivery failures; they are never fatal
// to the invocation.
func (g *Gateway) sendText(channelID string, text string) {
	if err := g.SendText(channelID, text); err != nil {
		g.logger.With(map[string]interface{}{
			"channel": channelID,
			"error":   err,
		}).Warn("error sending message")
	}
}

func (g *Gateway) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	g.logger.With(map[string]interface{}{
		"user": r.User.Username,
	}).Info("gateway connected")
}

func (g *Gateway) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	cmd, ok := parseCommand(g.config.Prefix, m.Content)
	if !ok {
		return
	}

	// Each command runs as its own invocation so a slow completion or
	// synthesis call never blocks the gateway event loop.
	go g.dispatch(context.Background(), cmd, m)
}

func (g *Gateway) dispatch(ctx context.Context, cmd command, m *discordgo.MessageCreate) {
	switch cmd.Name {
	case "ping":
		g.sendText(m.ChannelID, "Pong!")
	case "join":
		g.handleJoin(m)
	case "leave":
		g.handleLeave(m)
	case "ask", "askbr":
		g.handleAsk(ctx, cmd, m)
	case "tts":
		g.handleTTS(ctx, cmd, m)
	case "mvp":
		g.handleMVP(ctx, m)
	case "list":
		g.handleList(m)
	default:
		// Unknown commands are ignored, matching platform convention.
	}
}

// requireGuild rejects commands that only make sense inside a guild.
func (g *Gateway) requireGuild(m *discordgo.MessageCreate) bool {
	if m.GuildID == "" {
		g.sendText(m.ChannelID, "This command only works in a server")
		return false
	}
	return true
}

func (g *Gateway) handleJoin(m *discordgo.MessageCreate) {
	if !g.requireGuild(m) {
		return
	}

	channelID, err := g.authorVoiceChannel(m.GuildID, m.Author.ID)
	if err != nil {
		g.sendText(m.ChannelID, "Not in a voice channel")
		return
	}

	if err := g.voices.Join(m.GuildID, channelID); err != nil {
		g.logger.With(map[string]interface{}{
			"guild": m.GuildID,
			"error": err,
		}).Error("voice join failed")
		g.sendText(m.ChannelID, "Could not join the voice channel")
	}
}

func (g *Gateway) handleLeave(m *discordgo.MessageCreate) {
	if !g.requireGuild(m) {
		return
	}

	if err := g.voices.Leave(m.GuildID); err != nil {
		g.sendText(m.ChannelID, "Not in a voice channel")
		return
	}
	g.sendText(m.ChannelID, "Left voice channel")
}

func (g *Gateway) handleAsk(ctx context.Context, cmd command, m *discordgo.MessageCreate) {
	if !g.requireGuild(m) {
		return
	}
	if cmd.Args == "" {
		g.sendText(m.ChannelID, "No prompt provided")
		return
	}

	persona, ok := g.deps.Personas[cmd.Name]
	if !ok {
		g.logger.With(map[string]interface{}{"command": cmd.Name}).Error("no persona configured")
		g.sendText(m.ChannelID, "This command is not configured")
		return
	}

	err := g.deps.Pipeline.Relay(ctx, pipeline.Request{
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Prompt:    cmd.Args,
		Persona:   persona,
	})
	if err != nil {
		// The pipeline already posted the user-visible notice.
		g.logger.With(map[string]interface{}{
			"channel": m.ChannelID,
			"command": cmd.Name,
			"error":   err,
		}).Debug("relay invocation aborted")
	}
}

func (g *Gateway) handleTTS(ctx context.Context, cmd command, m *discordgo.MessageCreate) {
	if !g.requireGuild(m) {
		return
	}
	if cmd.Args == "" {
		g.sendText(m.ChannelID, "No text provided")
		return
	}

	audio, err := g.deps.Speech.Synthesize(ctx, core.SynthesisRequest{
		Text:    cmd.Args,
		Profile: g.deps.TTSVoice,
	})
	if err != nil {
		g.logger.With(map[string]interface{}{"error": err}).Error("synthesis failed")
		g.sendText(m.ChannelID, "Error synthesizing TTS")
		return
	}

	if err := g.deps.Sink.Play(ctx, m.GuildID, audio); err != nil {
		var playbackErr *core.PlaybackError
		if errors.As(err, &playbackErr) && playbackErr.Kind == core.PlaybackNoActiveSession {
			g.sendText(m.ChannelID, "The bot is not connected to a voice channel")
			return
		}
		g.logger.With(map[string]interface{}{"error": err}).Error("playback failed")
		g.sendText(m.ChannelID, "Error playing audio in the voice channel")
	}
}

func (g *Gateway) handleMVP(ctx context.Context, m *discordgo.MessageCreate) {
	g.sendText(m.ChannelID, "Ready to track MVPs!")

	report, err := g.deps.Scraper.Report(ctx)
	if err != nil {
		g.logger.With(map[string]interface{}{"error": err}).Error("timer scrape failed")
		g.sendText(m.ChannelID, "Could not fetch the respawn timers")
		return
	}
	g.sendText(m.ChannelID, report)
}

func (g *Gateway) handleList(m *discordgo.MessageCreate) {
	if !g.requireGuild(m) {
		return
	}

	queued, err := g.voices.Queued(m.GuildID)
	if err != nil {
		g.sendText(m.ChannelID, "Not in a voice channel to play in")
		return
	}
	if len(queued) == 0 {
		g.sendText(m.ChannelID, "Nothing queued")
		return
	}
	g.sendText(m.ChannelID, "Queued: "+strings.Join(queued, ", "))
}

// authorVoiceChannel resolves the voice channel the command author currently
// sits in.
func (g *Gateway) authorVoiceChannel(guildID string, userID string) (string, error) {
	guild, err := g.session.State.Guild(guildID)
	if err != nil {
		return "", fmt.Errorf("guild state: %w", err)
	}
	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID && vs.ChannelID != "" {
			return vs.ChannelID, nil
		}
	}
	return "", errors.New("author has no voice state")
}
