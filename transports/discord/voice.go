package discord

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"junkobot/core"

	"github.com/bwmarrin/discordgo"
)

// queueCapacity bounds how many tracks may wait per guild. Enqueue fails
// fast when the queue is full instead of blocking the invocation.
const queueCapacity = 16

// track is one queued playback item: decoded 48 kHz stereo PCM plus an
// optional completion hook.
type track struct {
	name   string
	pcm    []int16
	onDone func()
}

// guildSession is the single mutable voice resource per guild: one
// connection, one playback queue, one playback loop.
type guildSession struct {
	guildID string
	conn    *discordgo.VoiceConnection
	queue   chan *track
	cancel  context.CancelFunc

	mu      sync.Mutex
	pending []string
}

func (gs *guildSession) enqueue(t *track) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	select {
	case gs.queue <- t:
		gs.pending = append(gs.pending, t.name)
		return nil
	default:
		return fmt.Errorf("playback queue full for guild %s", gs.guildID)
	}
}

func (gs *guildSession) dequeued(name string) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	for i, pending := range gs.pending {
		if pending == name {
			gs.pending = append(gs.pending[:i], gs.pending[i+1:]...)
			return
		}
	}
}

func (gs *guildSession) queued() []string {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	names := make([]string, len(gs.pending))
	copy(names, gs.pending)
	return names
}

// VoiceManager owns the per-guild voice sessions. It implements
// core.VoiceSessions; playback itself lives in Player.
type VoiceManager struct {
	session *discordgo.Session
	logger  *core.Logger

	mu       sync.RWMutex
	sessions map[string]*guildSession
}

func NewVoiceManager(session *discordgo.Session, logger *core.Logger) *VoiceManager {
	if logger == nil {
		logger = core.GetLogger()
	}
	return &VoiceManager{
		session:  session,
		logger:   logger,
		sessions: make(map[string]*guildSession),
	}
}

// Join connects to the given voice channel and starts the guild's playback
// loop. Joining while already connected moves the session.
func (m *VoiceManager) Join(guildID string, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[guildID]; ok {
		m.teardownLocked(existing)
	}

	conn, err := m.session.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return fmt.Errorf("join voice channel: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	gs := &guildSession{
		guildID: guildID,
		conn:    conn,
		queue:   make(chan *track, queueCapacity),
		cancel:  cancel,
	}
	m.sessions[guildID] = gs

	go m.playbackLoop(ctx, gs)

	m.logger.With(map[string]interface{}{
		"guild":   guildID,
		"channel": channelID,
	}).Info("joined voice channel")
	return nil
}

// Leave disconnects the guild's voice session. Returns an error when no
// session exists.
func (m *VoiceManager) Leave(guildID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	gs, ok := m.sessions[guildID]
	if !ok {
		return errors.New("no voice session for guild")
	}
	m.teardownLocked(gs)
	m.logger.With(map[string]interface{}{"guild": guildID}).Info("left voice channel")
	return nil
}

// HasSession implements core.VoiceSessions.
func (m *VoiceManager) HasSession(guildID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[guildID]
	return ok
}

// Queued returns the names of tracks waiting in the guild's playback queue.
func (m *VoiceManager) Queued(guildID string) ([]string, error) {
	m.mu.RLock()
	gs, ok := m.sessions[guildID]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.New("no voice session for guild")
	}
	return gs.queued(), nil
}

// Enqueue hands a track to the guild's playback queue. The guild lock is
// held only for the enqueue, never for the playback itself.
func (m *VoiceManager) Enqueue(guildID string, t *track) error {
	m.mu.RLock()
	gs, ok := m.sessions[guildID]
	m.mu.RUnlock()
	if !ok {
		return errors.New("no voice session for guild")
	}
	return gs.enqueue(t)
}

// Close tears down every session, for process shutdown.
func (m *VoiceManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, gs := range m.sessions {
		m.teardownLocked(gs)
	}
}

func (m *VoiceManager) teardownLocked(gs *guildSession) {
	gs.cancel()
	if err := gs.conn.Disconnect(); err != nil {
		m.logger.With(map[string]interface{}{
			"guild": gs.guildID,
			"error": err,
		}).Warn("voice disconnect failed")
	}
	delete(m.sessions, gs.guildID)
}

// playbackLoop consumes the guild's queue, streaming one track at a time.
// It exits when the session is torn down.
func (m *VoiceManager) playbackLoop(ctx context.Context, gs *guildSession) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-gs.queue:
			if err := streamTrack(ctx, gs.conn, t); err != nil {
				m.logger.With(map[string]interface{}{
					"guild": gs.guildID,
					"track": t.name,
					"error": err,
				}).Error("playback stream failed")
			}
			gs.dequeued(t.name)
			if t.onDone != nil {
				t.onDone()
			}
		}
	}
}
